package pipeline

import (
	"bufio"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"reviewsheet/internal"
)

// column display widths; the Review column takes what is left.
var previewWidths = [9]int{11, 5, 16, 1, 12, 2, 3, 12, 0}

const minReviewWidth = 10

var previewFlatten = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// RenderPreview prints records as aligned columns cut to width terminal
// cells. Wide runes (CJK, emoji) count double.
func RenderPreview(w io.Writer, records []internal.Record, width int) error {
	widths := previewWidths
	fixed := 0
	for i := 0; i < internal.ColReview; i++ {
		if hw := runewidth.StringWidth(internal.Header[i]); hw > widths[i] {
			widths[i] = hw
		}
		fixed += widths[i] + 1
	}
	widths[internal.ColReview] = max(width-fixed, minReviewWidth)

	bw := bufio.NewWriter(w)
	writeRow := func(fields [9]string) {
		cells := make([]string, len(fields))
		for i, v := range fields {
			v = runewidth.Truncate(previewFlatten.Replace(v), widths[i], "…")
			if i < internal.ColReview {
				v = runewidth.FillRight(v, widths[i])
			}
			cells[i] = v
		}
		bw.WriteString(strings.TrimRight(strings.Join(cells, " "), " "))
		bw.WriteByte('\n')
	}

	writeRow(internal.Header)
	for _, rec := range records {
		writeRow(rec.Fields())
	}
	return bw.Flush()
}
