package certificates

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// FontStyle de un bloque de texto. Las tres variantes son Go fonts embebidas,
// así el PDF y la tarjeta PNG miden y dibujan con la misma tipografía.
type FontStyle string

const (
	StyleRegular FontStyle = "regular"
	StyleBold    FontStyle = "bold"
	StyleItalic  FontStyle = "italic"
)

// ttf devuelve el archivo TTF de cada estilo.
func (s FontStyle) ttf() []byte {
	switch s {
	case StyleBold:
		return gobold.TTF
	case StyleItalic:
		return goitalic.TTF
	default:
		return goregular.TTF
	}
}

// pdfStyle es el código de estilo de fpdf.
func (s FontStyle) pdfStyle() string {
	switch s {
	case StyleBold:
		return "B"
	case StyleItalic:
		return "I"
	default:
		return ""
	}
}

var (
	parsedMu sync.Mutex
	parsed   = map[FontStyle]*truetype.Font{}

	facesMu sync.Mutex
	faces   = map[faceKey]font.Face{}
)

type faceKey struct {
	style FontStyle
	size  float64
}

func parseFont(style FontStyle) (*truetype.Font, error) {
	parsedMu.Lock()
	defer parsedMu.Unlock()

	if f, ok := parsed[style]; ok {
		return f, nil
	}
	f, err := truetype.Parse(style.ttf())
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", style, err)
	}
	parsed[style] = f
	return f, nil
}

// faceFor devuelve un font.Face en puntos (DPI 72) cacheado por estilo y tamaño.
func faceFor(style FontStyle, sizePt float64) (font.Face, error) {
	k := faceKey{style: style, size: sizePt}

	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[k]; ok {
		return f, nil
	}

	tf, err := parseFont(style)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(tf, &truetype.Options{
		Size:    sizePt,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	faces[k] = face
	return face, nil
}

// pxFace es un face para la tarjeta PNG (tamaño en píxeles).
func pxFace(style FontStyle, sizePx float64) (font.Face, error) {
	tf, err := parseFont(style)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(tf, &truetype.Options{Size: sizePx, DPI: 72}), nil
}

const mmPerPt = 25.4 / 72

// MeasureFunc mide el ancho en mm de un texto con un estilo y tamaño (pt).
type MeasureFunc func(text string, style FontStyle, sizePt float64) float64

// GoFontMeasure mide con las métricas reales de las Go fonts.
func GoFontMeasure(text string, style FontStyle, sizePt float64) float64 {
	face, err := faceFor(style, sizePt)
	if err != nil {
		// Aproximación: ancho medio de 0.5em por rune.
		return float64(len([]rune(text))) * sizePt * 0.5 * mmPerPt
	}
	// font.Face no es seguro para uso concurrente.
	facesMu.Lock()
	adv := font.MeasureString(face, text)
	facesMu.Unlock()
	return float64(adv) / 64 * mmPerPt
}
