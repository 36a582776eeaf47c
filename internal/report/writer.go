package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Arrow separates subvariety and variety in every populated row.
const Arrow = "=>"

// Header names the report columns.
var Header = []string{
	"index",
	"subvariety",
	"arrow",
	"variety",
	"last_size",
	"time_on_last_size",
	"cumulative_time",
	"outcome",
}

// Fields renders r as report cells. A blank row keeps only its index.
func (r Row) Fields() []string {
	ret := make([]string, len(Header))
	ret[0] = strconv.Itoa(r.Index)
	if r.Blank() {
		return ret
	}
	rec := r.Record
	ret[1] = rec.Subvariety.String()
	ret[2] = Arrow
	ret[3] = rec.Variety.String()
	ret[4] = strconv.Itoa(rec.Size)
	ret[5] = seconds(rec.LastTime)
	ret[6] = seconds(rec.TotalTime)
	ret[7] = string(rec.Outcome)
	return ret
}

func seconds(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// Writer writes a Table as delimited text.
type Writer struct {
	w *csv.Writer
}

// NewWriter uses delimiter between cells, e.g. ',' or '\t'.
func NewWriter(w io.Writer, delimiter rune) *Writer {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	return &Writer{w: cw}
}

func (w *Writer) Write(t Table) error {
	if err := w.w.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range t.Rows {
		if err := w.w.Write(r.Fields()); err != nil {
			return fmt.Errorf("writing row %d: %w", r.Index, err)
		}
	}
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return fmt.Errorf("flushing report: %w", err)
	}
	return nil
}
