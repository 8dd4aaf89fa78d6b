package certificates

import (
	"fmt"
	"io"
	"strings"

	"wcu-registry/internal/domain/registrations"

	"github.com/fogleman/gg"
)

// Tarjeta para compartir (Open Graph).
const (
	CardWidth  = 1200
	CardHeight = 630
)

type Card struct {
	Registry string
	Heading  string
	DogName  string
	WCU      string
	Detail   string
	Footer   string
	Memorial bool
}

func CardFor(reg registrations.Registration, opts Options) Card {
	registry := strings.TrimSpace(opts.RegistryName)
	if registry == "" {
		registry = "WCU Dog Registry"
	}
	c := Card{
		Registry: strings.ToUpper(registry),
		Heading:  "Registered Dog",
		DogName:  reg.DogName,
		WCU:      reg.WCUNumber,
		Footer:   ProfileURL(opts.SiteURL, reg.WCUNumber),
	}

	parts := make([]string, 0, 3)
	if b := strings.TrimSpace(reg.Breed); b != "" {
		parts = append(parts, b)
	}
	if s := sexLabel(reg.Sex); s != "-" {
		parts = append(parts, s)
	}
	if reg.Status == registrations.StatusMemorial {
		c.Memorial = true
		c.Heading = "In Loving Memory"
		if reg.BirthDate != nil && reg.DateOfPassing != nil {
			parts = append(parts, fmt.Sprintf("%d - %d", reg.BirthDate.Year(), reg.DateOfPassing.Year()))
		}
	} else if reg.BirthDate != nil {
		parts = append(parts, "Born "+reg.BirthDate.Format("Jan 2006"))
	}
	c.Detail = strings.Join(parts, " · ")
	return c
}

type palette struct {
	bg, border, title, text, muted RGB
}

var (
	paletteRegistered = palette{
		bg: RGB{251, 247, 239}, border: colorAccent, title: colorAccent, text: colorInk, muted: colorMuted,
	}
	paletteMemorial = palette{
		bg: RGB{36, 40, 48}, border: RGB{201, 169, 110}, title: RGB{201, 169, 110}, text: RGB{245, 245, 245}, muted: RGB{173, 181, 189},
	}
)

// RenderCard dibuja la tarjeta PNG de 1200x630.
func RenderCard(w io.Writer, c Card) error {
	p := paletteRegistered
	if c.Memorial {
		p = paletteMemorial
	}

	dc := gg.NewContext(CardWidth, CardHeight)
	setRGB(dc, p.bg)
	dc.Clear()

	setRGB(dc, p.border)
	dc.SetLineWidth(6)
	dc.DrawRectangle(24, 24, CardWidth-48, CardHeight-48)
	dc.Stroke()
	dc.SetLineWidth(1.5)
	dc.DrawRectangle(40, 40, CardWidth-80, CardHeight-80)
	dc.Stroke()

	cx := float64(CardWidth) / 2
	maxW := float64(CardWidth) - 160

	lines := []struct {
		text  string
		style FontStyle
		size  float64
		min   float64
		y     float64
		color RGB
	}{
		{c.Registry, StyleBold, 34, 20, 110, p.title},
		{c.Heading, StyleItalic, 30, 20, 175, p.text},
		{c.DogName, StyleBold, 96, 40, 290, p.text},
		{c.WCU, StyleBold, 40, 24, 390, p.title},
		{c.Detail, StyleRegular, 30, 18, 455, p.muted},
		{c.Footer, StyleRegular, 24, 16, 545, p.muted},
	}
	for _, ln := range lines {
		if strings.TrimSpace(ln.text) == "" {
			continue
		}
		text, err := fitCardText(dc, ln.text, ln.style, ln.size, ln.min, maxW)
		if err != nil {
			return err
		}
		setRGB(dc, ln.color)
		dc.DrawStringAnchored(text, cx, ln.y, 0.5, 0.5)
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode card png: %w", err)
	}
	return nil
}

// fitCardText achica la fuente hasta que el texto entra; en el mínimo, recorta con "…".
// Deja el face elegido cargado en dc.
func fitCardText(dc *gg.Context, text string, style FontStyle, size, minSize, maxW float64) (string, error) {
	for s := size; ; s -= 4 {
		if s < minSize {
			s = minSize
		}
		face, err := pxFace(style, s)
		if err != nil {
			return "", err
		}
		dc.SetFontFace(face)
		if w, _ := dc.MeasureString(text); w <= maxW {
			return text, nil
		}
		if s == minSize {
			break
		}
	}
	measure := func(s string) float64 {
		w, _ := dc.MeasureString(s)
		return w
	}
	return ClampLines(WrapText(text, maxW, measure), 1, maxW, measure)[0], nil
}

func setRGB(dc *gg.Context, c RGB) {
	dc.SetRGB255(c.R, c.G, c.B)
}
