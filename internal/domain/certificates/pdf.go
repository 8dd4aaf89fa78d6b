package certificates

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

const pdfFamily = "Go"

// RenderPDF dibuja el layout en una página Letter apaisada con las Go fonts embebidas.
func RenderPDF(w io.Writer, l Layout, createdAt time.Time) error {
	pdf := fpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(l.Title, true)
	pdf.SetCreator("wcu-registry", true)
	if !createdAt.IsZero() {
		// Fecha fija => salida reproducible para el mismo registro.
		pdf.SetCreationDate(createdAt)
	}

	for _, style := range []FontStyle{StyleRegular, StyleBold, StyleItalic} {
		pdf.AddUTF8FontFromBytes(pdfFamily, style.pdfStyle(), style.ttf())
	}

	pdf.AddPage()

	for _, f := range l.Frames {
		pdf.SetDrawColor(f.Color.R, f.Color.G, f.Color.B)
		pdf.SetLineWidth(f.LineWidth)
		pdf.Rect(f.X, f.Y, f.W, f.H, "D")
	}

	for _, b := range l.Blocks {
		pdf.SetFont(pdfFamily, b.Style.pdfStyle(), b.SizePt)
		pdf.SetTextColor(b.Color.R, b.Color.G, b.Color.B)
		for i, line := range b.Lines {
			pdf.SetXY(b.X, b.Y+float64(i)*b.LineHeight)
			pdf.CellFormat(b.Width, b.LineHeight, line, "", 0, string(b.Align)+"M", false, 0, "")
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
