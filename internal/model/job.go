package model

import (
	"fmt"
	"log/slog"
)

// DefaultRelation is the connective the formula generator writes between the
// subvariety and the variety part of an input filename.
const DefaultRelation = "implies"

// Pair is the integer-pair key of a variety or subvariety.
type Pair struct {
	A int
	B int
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d, %d)", p.A, p.B)
}

// Identity is recovered from the input filename alone, e.g.
// 0229_1_2_implies_3_4.in has index 229, subvariety (1, 2) and variety (3, 4).
type Identity struct {
	Index      int
	Subvariety Pair
	Variety    Pair
	Relation   string
}

func (i Identity) String() string {
	return fmt.Sprintf("%04d %s %s %s", i.Index, i.Subvariety, i.Relation, i.Variety)
}

// Job is one input file waiting for a model-finder run.
type Job struct {
	Identity
	Name        string // input file name, e.g. 0229_1_2_implies_3_4.in
	InputPath   string
	CapturePath string
}

func (j Job) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("index", j.Index),
		slog.String("input", j.Name),
	}
}
