package certificates

import (
	"strings"
	"time"

	"wcu-registry/internal/domain/registrations"
)

// Página Letter apaisada, en mm.
const (
	PageWidth  = 279.4
	PageHeight = 215.9
)

type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

type RGB struct{ R, G, B int }

var (
	colorInk    = RGB{33, 37, 41}
	colorAccent = RGB{120, 86, 44}
	colorMuted  = RGB{108, 117, 125}
)

// Block es texto ya partido en líneas, anclado en (X, Y) = esquina superior
// izquierda de la primera línea. Width es el ancho de la caja para la alineación.
type Block struct {
	Name       string
	Lines      []string
	X, Y       float64
	Width      float64
	LineHeight float64
	Style      FontStyle
	SizePt     float64
	Align      Align
	Color      RGB
}

type Frame struct {
	X, Y, W, H float64
	LineWidth  float64
	Color      RGB
}

type Layout struct {
	Title    string
	Memorial bool
	Frames   []Frame
	Blocks   []Block
}

// Block devuelve el bloque por nombre.
func (l Layout) Block(name string) (Block, bool) {
	for _, b := range l.Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return Block{}, false
}

type Options struct {
	RegistryName string
	SiteURL      string
	IssuedAt     time.Time
	Measure      MeasureFunc
}

// Posiciones fijas del diseño.
const (
	margin      = 10.0
	innerInset  = 4.0
	contentLeft = 30.0
	contentW    = PageWidth - 2*contentLeft

	labelX   = 30.0
	labelW   = 32.0
	valueX   = labelX + labelW
	valueW   = 78.0
	detailsY = 98.0
	rowH     = 8.0

	storyX        = 150.0
	storyW        = PageWidth - storyX - contentLeft
	storyY        = 98.0
	storySize     = 11.0
	storyLineH    = 5.2
	storyMaxLines = 12

	footerY = 180.0
)

// BuildLayout arma el certificado de un registro. Es puro: misma entrada, mismo layout.
func BuildLayout(reg registrations.Registration, opts Options) Layout {
	measure := opts.Measure
	if measure == nil {
		measure = GoFontMeasure
	}
	registry := strings.TrimSpace(opts.RegistryName)
	if registry == "" {
		registry = "WCU Dog Registry"
	}
	memorial := reg.Status == registrations.StatusMemorial

	l := Layout{
		Title:    registry + " - " + reg.WCUNumber,
		Memorial: memorial,
		Frames: []Frame{
			{X: margin, Y: margin, W: PageWidth - 2*margin, H: PageHeight - 2*margin, LineWidth: 1.2, Color: colorAccent},
			{
				X: margin + innerInset, Y: margin + innerInset,
				W: PageWidth - 2*(margin+innerInset), H: PageHeight - 2*(margin+innerInset),
				LineWidth: 0.3, Color: colorAccent,
			},
		},
	}

	single := func(name, text string, x, y, w float64, style FontStyle, size float64, align Align, c RGB) Block {
		return Block{
			Name: name, Lines: fitLine(text, w, style, size, measure),
			X: x, Y: y, Width: w, LineHeight: size * mmPerPt * 1.25,
			Style: style, SizePt: size, Align: align, Color: c,
		}
	}

	heading := "Certificate of Registration"
	if memorial {
		heading = "In Loving Memory"
	}

	l.Blocks = append(l.Blocks,
		single("registry", strings.ToUpper(registry), contentLeft, 26, contentW, StyleBold, 22, AlignCenter, colorAccent),
		single("heading", heading, contentLeft, 40, contentW, StyleItalic, 18, AlignCenter, colorInk),
	)

	// El nombre puede ocupar dos líneas.
	nameSize := 34.0
	nameMeasure := func(s string) float64 { return measure(s, StyleBold, nameSize) }
	nameLines := ClampLines(WrapText(reg.DogName, contentW, nameMeasure), 2, contentW, nameMeasure)
	l.Blocks = append(l.Blocks, Block{
		Name: "dog_name", Lines: nameLines,
		X: contentLeft, Y: 54, Width: contentW, LineHeight: nameSize * mmPerPt * 1.15,
		Style: StyleBold, SizePt: nameSize, Align: AlignCenter, Color: colorInk,
	})

	l.Blocks = append(l.Blocks,
		single("wcu_number", "Registration No. "+reg.WCUNumber, contentLeft, 84, contentW, StyleBold, 14, AlignCenter, colorAccent),
	)

	rows := detailRows(reg, memorial)
	for i, row := range rows {
		y := detailsY + float64(i)*rowH
		l.Blocks = append(l.Blocks,
			single("label_"+row.key, row.label, labelX, y, labelW, StyleBold, 11, AlignLeft, colorMuted),
			single("value_"+row.key, row.value, valueX, y, valueW, StyleRegular, 11, AlignLeft, colorInk),
		)
	}

	story, storyStyle := reg.Bio, StyleRegular
	if memorial && strings.TrimSpace(reg.TributeMessage) != "" {
		story, storyStyle = reg.TributeMessage, StyleItalic
	}
	if strings.TrimSpace(story) != "" {
		storyMeasure := func(s string) float64 { return measure(s, storyStyle, storySize) }
		lines := ClampLines(WrapText(story, storyW, storyMeasure), storyMaxLines, storyW, storyMeasure)
		l.Blocks = append(l.Blocks, Block{
			Name: "story", Lines: lines,
			X: storyX, Y: storyY, Width: storyW, LineHeight: storyLineH,
			Style: storyStyle, SizePt: storySize, Align: AlignLeft, Color: colorInk,
		})
	}

	issued := opts.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	l.Blocks = append(l.Blocks,
		single("issued", "Issued "+issued.UTC().Format("January 2, 2006"), contentLeft, footerY, contentW/2, StyleRegular, 10, AlignLeft, colorMuted),
	)
	if url := ProfileURL(opts.SiteURL, reg.WCUNumber); url != "" {
		l.Blocks = append(l.Blocks,
			single("profile_url", url, contentLeft+contentW/2, footerY, contentW/2, StyleRegular, 10, AlignRight, colorMuted),
		)
	}
	return l
}

// ProfileURL es la página pública del perro.
func ProfileURL(siteURL, wcu string) string {
	siteURL = strings.TrimRight(strings.TrimSpace(siteURL), "/")
	if siteURL == "" || wcu == "" {
		return ""
	}
	return siteURL + "/dogs/" + wcu
}

type detailRow struct {
	key, label, value string
}

func detailRows(reg registrations.Registration, memorial bool) []detailRow {
	rows := []detailRow{
		{"breed", "Breed", orDash(reg.Breed)},
		{"sex", "Sex", sexLabel(reg.Sex)},
		{"color", "Color", orDash(reg.Color)},
		{"birth_date", "Born", dateOrDash(reg.BirthDate)},
	}
	if memorial {
		rows = append(rows, detailRow{"date_of_passing", "Passed", dateOrDash(reg.DateOfPassing)})
	}
	return append(rows, detailRow{"owner", "Owner", orDash(reg.OwnerName)})
}

// fitLine deja el texto en una sola línea; si no entra, lo corta con "…".
func fitLine(text string, width float64, style FontStyle, size float64, measure MeasureFunc) []string {
	m := func(s string) float64 { return measure(s, style, size) }
	text = strings.Join(strings.Fields(text), " ")
	if m(text) <= width {
		return []string{text}
	}
	return ClampLines(WrapText(text, width, m), 1, width, m)
}

func sexLabel(s registrations.Sex) string {
	switch s {
	case registrations.SexMale:
		return "Male"
	case registrations.SexFemale:
		return "Female"
	}
	return "-"
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return strings.TrimSpace(s)
}

func dateOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("January 2, 2006")
}
