package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"wcu-registry/internal/adapters/objectstore/gcs"
	pg "wcu-registry/internal/adapters/storage/postgres"
	"wcu-registry/internal/domain/certificates"
	"wcu-registry/internal/domain/registrations"
	"wcu-registry/internal/platform/config"
	"wcu-registry/internal/platform/logger"

	"github.com/spf13/cobra"
)

func certificateCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "certificate",
		Short: "Certificados PDF y tarjetas PNG",
	}
	cmd.AddCommand(renderCmd(load))
	cmd.AddCommand(sampleCmd(load))
	cmd.AddCommand(reissueCmd(load))
	return cmd
}

func renderCmd(load loader) *cobra.Command {
	var wcu, out, card string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Renderiza el certificado de un registro guardado (no lo sube)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer logger.Sync(log)

			regs, closeDB, err := openRegistrations(cfg, log)
			if err != nil {
				return err
			}
			defer closeDB()

			reg, err := regs.GetByWCU(cmd.Context(), wcu)
			if err != nil {
				return fmt.Errorf("%s: %w", wcu, err)
			}
			return writeFiles(reg, siteOptions(cfg), out, card)
		},
	}
	cmd.Flags().StringVar(&wcu, "wcu", "", "número WCU (WCU-000123 o 123)")
	cmd.Flags().StringVar(&out, "out", "certificate.pdf", "archivo PDF de salida")
	cmd.Flags().StringVar(&card, "card", "", "archivo PNG de la tarjeta (opcional)")
	_ = cmd.MarkFlagRequired("wcu")
	return cmd
}

func sampleCmd(load loader) *cobra.Command {
	var out, card string
	var memorial bool
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Renderiza un certificado de ejemplo sin base de datos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}
			return writeFiles(sampleRegistration(memorial), siteOptions(cfg), out, card)
		},
	}
	cmd.Flags().StringVar(&out, "out", "sample-certificate.pdf", "archivo PDF de salida")
	cmd.Flags().StringVar(&card, "card", "", "archivo PNG de la tarjeta (opcional)")
	cmd.Flags().BoolVar(&memorial, "memorial", false, "usar la variante memorial")
	return cmd
}

func reissueCmd(load loader) *cobra.Command {
	var wcu string
	cmd := &cobra.Command{
		Use:   "reissue",
		Short: "Vuelve a emitir y subir el certificado de un registro",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}
			defer logger.Sync(log)

			if cfg.Storage.GCSBucket == "" {
				return errors.New("STORAGE_GCS_BUCKET is required")
			}
			regs, closeDB, err := openRegistrations(cfg, log)
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := cmd.Context()
			store, err := gcs.New(ctx, gcs.Config{
				Bucket:        cfg.Storage.GCSBucket,
				PublicBaseURL: cfg.Storage.PublicBaseURL,
				Credentials:   cfg.Storage.Credentials,
			})
			if err != nil {
				return err
			}
			defer store.Close()

			reg, err := regs.GetByWCU(ctx, wcu)
			if err != nil {
				return fmt.Errorf("%s: %w", wcu, err)
			}
			issued, err := certificates.NewIssuer(regs, store, siteOptions(cfg), log, nil).Issue(ctx, reg.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued.CertificateURL)
			return nil
		},
	}
	cmd.Flags().StringVar(&wcu, "wcu", "", "número WCU")
	_ = cmd.MarkFlagRequired("wcu")
	return cmd
}

func openRegistrations(cfg config.Config, log logger.Logger) (*registrations.Service, func(), error) {
	if cfg.DB.DSN == "" {
		return nil, nil, errors.New("DB_DSN is required")
	}
	db, err := pg.Open(cfg.DB.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	svc := registrations.NewService(pg.NewRegistrationsRepo(db), log, nil)
	return svc, func() { _ = db.Close() }, nil
}

func siteOptions(cfg config.Config) certificates.Options {
	return certificates.Options{
		RegistryName: cfg.Site.RegistryName,
		SiteURL:      cfg.Site.URL,
	}
}

func sampleRegistration(memorial bool) registrations.Registration {
	birth := time.Date(2015, time.March, 14, 0, 0, 0, 0, time.UTC)
	reg := registrations.Registration{
		ID:        "sample",
		WCUNumber: registrations.FormatWCU(123),
		OwnerName: "Jane Doe",
		DogName:   "Biscuit",
		Breed:     "Golden Retriever",
		Sex:       registrations.SexFemale,
		Color:     "Golden",
		BirthDate: &birth,
		Bio:       "Loves the beach, tennis balls and long naps in the sun.",
		Status:    registrations.StatusRegistered,
		CreatedAt: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	if memorial {
		passing := time.Date(2024, time.November, 2, 0, 0, 0, 0, time.UTC)
		reg.Status = registrations.StatusMemorial
		reg.DateOfPassing = &passing
		reg.TributeMessage = "Forever our good girl."
	}
	return reg
}

func writeFiles(reg registrations.Registration, opts certificates.Options, pdfPath, cardPath string) error {
	if opts.IssuedAt.IsZero() {
		opts.IssuedAt = time.Now()
	}
	if err := writeFile(pdfPath, func(f *os.File) error { return certificates.Render(f, reg, opts) }); err != nil {
		return err
	}
	if cardPath == "" {
		return nil
	}
	return writeFile(cardPath, func(f *os.File) error {
		return certificates.RenderCard(f, certificates.CardFor(reg, opts))
	})
}

func writeFile(path string, render func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}
