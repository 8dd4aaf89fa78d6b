package certificates

import "strings"

const ellipsis = "…"

// WrapText parte text en líneas que, medidas con measure, no superan maxWidth.
//
// Greedy por palabra. Una palabra más ancha que la línea se corta por runes.
// Los saltos de línea explícitos abren un párrafo nuevo; las líneas vacías
// intermedias se conservan y las de los extremos se descartan.
// Única excepción al ancho: un rune que por sí solo no entra ocupa su propia línea.
func WrapText(text string, maxWidth float64, measure func(string) float64) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	out := make([]string, 0, 4)
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}

		line := ""
		for _, w := range words {
			if line != "" {
				if candidate := line + " " + w; measure(candidate) <= maxWidth {
					line = candidate
					continue
				}
				out = append(out, line)
				line = ""
			}
			if measure(w) <= maxWidth {
				line = w
				continue
			}
			pieces := splitWord(w, maxWidth, measure)
			out = append(out, pieces[:len(pieces)-1]...)
			line = pieces[len(pieces)-1]
		}
		out = append(out, line)
	}

	return trimBlank(out)
}

func splitWord(w string, maxWidth float64, measure func(string) float64) []string {
	var pieces []string
	cur := make([]rune, 0, len(w))
	for _, r := range w {
		next := append(cur, r)
		if len(cur) > 0 && measure(string(next)) > maxWidth {
			pieces = append(pieces, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	return append(pieces, string(cur))
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return lines[start:end]
}

// ClampLines deja como máximo maxLines líneas. Si recorta, la última termina
// en "…" sin pasarse de maxWidth. maxLines <= 0 no recorta.
func ClampLines(lines []string, maxLines int, maxWidth float64, measure func(string) float64) []string {
	if maxLines <= 0 || len(lines) <= maxLines {
		return lines
	}

	out := append([]string(nil), lines[:maxLines]...)
	last := strings.TrimRight(out[maxLines-1], " ")
	for last != "" && measure(last+ellipsis) > maxWidth {
		r := []rune(last)
		last = strings.TrimRight(string(r[:len(r)-1]), " ")
	}
	out[maxLines-1] = last + ellipsis
	return out
}
