package catalog

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/varietylab/macebatch/internal/model"
)

// ParseName recovers a job identity from an input or capture file name.
// The stem (everything before the first dot) is split on "_" and must be either
//
//	<index>_<sa>_<sb>_<relation>_<va>_<vb>   e.g. 0229_1_2_implies_3_4.in
//	<index>_<sa>_<sb>_<va>_<vb>              e.g. 0229_1_2_3_4.in
//
// with non-negative integer fields. Anything else wraps model.ErrMalformedName.
func ParseName(name string) (model.Identity, error) {
	base := filepath.Base(name)
	stem, _, _ := strings.Cut(base, ".")
	fields := strings.Split(stem, "_")

	var nums []string
	relation := model.DefaultRelation
	switch len(fields) {
	case 6:
		relation = fields[3]
		if relation == "" {
			return model.Identity{}, fmt.Errorf("%w: %q: empty relation", model.ErrMalformedName, base)
		}
		nums = []string{fields[0], fields[1], fields[2], fields[4], fields[5]}
	case 5:
		nums = fields
	default:
		return model.Identity{}, fmt.Errorf("%w: %q: expected 5 or 6 fields, got %d", model.ErrMalformedName, base, len(fields))
	}

	var ints [5]int
	for i, s := range nums {
		n, err := natural(s)
		if err != nil {
			return model.Identity{}, fmt.Errorf("%w: %q: field %q: %w", model.ErrMalformedName, base, s, err)
		}
		ints[i] = n
	}

	return model.Identity{
		Index:      ints[0],
		Subvariety: model.Pair{A: ints[1], B: ints[2]},
		Variety:    model.Pair{A: ints[3], B: ints[4]},
		Relation:   relation,
	}, nil
}

// natural parses a decimal string made of digits only.
func natural(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a number")
		}
	}
	return strconv.Atoi(s)
}

// CapturePath returns where the combined output of the job reading inputName is
// stored: the input file name with suffix appended, inside outputDir.
func CapturePath(outputDir, inputName, suffix string) string {
	return filepath.Join(outputDir, filepath.Base(inputName)+suffix)
}
