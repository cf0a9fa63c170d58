package pipeline

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"reviewsheet/internal"
)

// ErrNothingFound means a run produced no records. Callers warn instead of
// delivering a header-only table.
var ErrNothingFound = errors.New("nothing found to export")

type TableOptions struct {
	// QuoteReview wraps every Review cell in quotes, not only those that need it.
	QuoteReview bool
}

// WriteTSV writes the header and one tab-separated line per record. Lines
// are joined by "\n" with no trailing newline.
func WriteTSV(w io.Writer, records []internal.Record, opts TableOptions) error {
	if len(records) == 0 {
		return ErrNothingFound
	}

	var buf bytes.Buffer
	buf.WriteString(strings.Join(internal.Header[:], "\t"))
	for _, rec := range records {
		buf.WriteByte('\n')
		for i, v := range rec.Fields() {
			if i > 0 {
				buf.WriteByte('\t')
			}
			buf.WriteString(escapeCell(v, opts.QuoteReview && i == internal.ColReview))
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func FormatTSV(records []internal.Record, opts TableOptions) (string, error) {
	var sb strings.Builder
	if err := WriteTSV(&sb, records, opts); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func escapeCell(v string, force bool) string {
	if !force && !strings.ContainsAny(v, "\t\n\r\"") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// SplitTSVLine splits one serialized line on tabs outside quoted cells and
// unescapes doubled quotes. A quoted cell may span "\n", so pass a full
// logical line.
func SplitTSVLine(line string) []string {
	var (
		out    []string
		cell   strings.Builder
		quoted bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quoted && c == '"':
			if i+1 < len(line) && line[i+1] == '"' {
				cell.WriteByte('"')
				i++
			} else {
				quoted = false
			}
		case quoted:
			cell.WriteByte(c)
		case c == '"' && cell.Len() == 0:
			quoted = true
		case c == '\t':
			out = append(out, cell.String())
			cell.Reset()
		default:
			cell.WriteByte(c)
		}
	}
	return append(out, cell.String())
}

// SplitTSV splits a whole table into logical lines, keeping newlines that sit
// inside quoted cells.
func SplitTSV(table string) [][]string {
	var (
		rows   [][]string
		start  int
		quoted bool
	)
	for i := 0; i < len(table); i++ {
		switch table[i] {
		case '"':
			quoted = !quoted
		case '\n':
			if !quoted {
				rows = append(rows, SplitTSVLine(table[start:i]))
				start = i + 1
			}
		}
	}
	if start <= len(table) && table != "" {
		rows = append(rows, SplitTSVLine(table[start:]))
	}
	return rows
}

func buildWorkbook(records []internal.Record) (*excelize.File, error) {
	if len(records) == 0 {
		return nil, ErrNothingFound
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, h := range internal.Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, rec := range records {
		r := i + 2
		for col, v := range rec.Fields() {
			cell, _ := excelize.CoordinatesToCellName(col+1, r)
			// Dates like 05/Jan/2026 and ratings stay text so the sheet does not reformat them.
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

func ExportRecordsToXLSX(records []internal.Record, outputPath string) error {
	f, err := buildWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func WriteXLSX(w io.Writer, records []internal.Record) error {
	f, err := buildWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}
