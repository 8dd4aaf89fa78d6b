package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"wcu-registry/internal/platform/config"
	"wcu-registry/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFiles_Sample(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "cert.pdf")
	cardPath := filepath.Join(dir, "card.png")

	for _, memorial := range []bool{false, true} {
		require.NoError(t, writeFiles(sampleRegistration(memorial), siteOptions(config.Config{}), pdfPath, cardPath))

		pdf, err := os.ReadFile(pdfPath)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

		png, err := os.ReadFile(cardPath)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
	}
}

func TestSampleCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sample.pdf")
	load := func() (config.Config, logger.Logger, error) {
		return config.Config{}, logger.Nop(), nil
	}

	cmd := certificateCmd(load)
	cmd.SetArgs([]string{"sample", "--out", out, "--memorial"})
	require.NoError(t, cmd.Execute())

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRenderCommand_RequiresDSN(t *testing.T) {
	load := func() (config.Config, logger.Logger, error) {
		return config.Config{}, logger.Nop(), nil
	}

	cmd := certificateCmd(load)
	cmd.SetArgs([]string{"render", "--wcu", "WCU-000001", "--out", filepath.Join(t.TempDir(), "x.pdf")})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
}
