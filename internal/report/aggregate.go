package report

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/varietylab/macebatch/internal/model"
)

// MaxRows bounds the width of a report range.
const MaxRows = 1_000_000

// Row is one line of the report. Record is nil for an index with no capture.
type Row struct {
	Index  int
	Record *model.Record
}

func (r Row) Blank() bool {
	return r.Record == nil
}

// Table is the aggregate over an inclusive index range.
type Table struct {
	Start int
	End   int
	Rows  []Row
	// Duplicates reports records that lost their index to an earlier one.
	Duplicates []error
	// Outside counts records with an index out of [Start, End].
	Outside int
}

// Blanks is the number of rows without a record.
func (t Table) Blanks() int {
	var n int
	for _, r := range t.Rows {
		if r.Blank() {
			n++
		}
	}
	return n
}

// Sort orders records by index. Ties are broken on the rest of the identity so
// the order never depends on how the records were gathered.
func Sort(records []model.Record) {
	slices.SortStableFunc(records, compare)
}

func compare(a, b model.Record) int {
	return cmp.Or(
		cmp.Compare(a.Index, b.Index),
		cmp.Compare(a.Subvariety.A, b.Subvariety.A),
		cmp.Compare(a.Subvariety.B, b.Subvariety.B),
		cmp.Compare(a.Variety.A, b.Variety.A),
		cmp.Compare(a.Variety.B, b.Variety.B),
		cmp.Compare(a.Relation, b.Relation),
	)
}

// CheckRange accepts 0 <= start <= end with at most MaxRows indexes.
func CheckRange(start, end int) error {
	if start < 0 || start > end {
		return fmt.Errorf("%w: [%d, %d]", model.ErrInvalidRange, start, end)
	}
	// both bounds are non-negative, so end-start cannot overflow
	if end-start >= MaxRows {
		return fmt.Errorf("%w: [%d, %d] spans more than %d indexes", model.ErrInvalidRange, start, end, MaxRows)
	}
	return nil
}

// Aggregate renders one row per index of [start, end]. The records are not
// modified. When two records share an index the first in sorted order fills
// the row and the other is reported in Table.Duplicates.
func Aggregate(records []model.Record, start, end int) (Table, error) {
	if err := CheckRange(start, end); err != nil {
		return Table{}, err
	}

	sorted := slices.Clone(records)
	Sort(sorted)

	byIndex := make(map[int]*model.Record, len(sorted))
	t := Table{Start: start, End: end}
	for i := range sorted {
		rec := &sorted[i]
		if rec.Index < start || rec.Index > end {
			t.Outside++
			continue
		}
		if first, ok := byIndex[rec.Index]; ok {
			t.Duplicates = append(t.Duplicates, fmt.Errorf("%w: %d: %s and %s",
				model.ErrDuplicateIndex, rec.Index, first.Identity, rec.Identity))
			continue
		}
		byIndex[rec.Index] = rec
	}

	// counting offsets keeps idx from wrapping when end is math.MaxInt
	width := end - start + 1
	t.Rows = make([]Row, 0, width)
	for off := range width {
		idx := start + off
		t.Rows = append(t.Rows, Row{Index: idx, Record: byIndex[idx]})
	}
	return t, nil
}
