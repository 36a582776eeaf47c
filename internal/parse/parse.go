package parse

import (
	"bufio"
	"fmt"
	"io"

	"github.com/varietylab/macebatch/internal/model"
)

// Summary is what a capture says about its run, independent of the job identity.
type Summary struct {
	Outcome     model.Outcome
	Size        int
	LastTime    float64
	TotalTime   float64
	Models      int
	Checkpoints int
}

// state is the running fold over classified lines.
type state struct {
	outcome    model.Outcome
	specific   bool // a time/memory/palloc/killed marker was seen
	order      int
	domainSize int
	prev, last float64
	models     int
	checks     int
}

func newState() state {
	return state{
		outcome:    model.OutcomeUnknown,
		order:      model.NoSize,
		domainSize: model.NoSize,
	}
}

// Logs are append-only, so a later marker describes the end of the run better
// than an earlier one. A generic failure never replaces a specific limit marker.
func (s *state) apply(l Line) {
	switch l.Kind {
	case KindInterpretation:
		s.order = l.Int
		s.models++
		s.outcome = model.OutcomeFound
		s.specific = false
	case KindCheckpoint:
		s.checks++
		s.prev, s.last = s.last, l.Seconds
		if s.checks == 1 {
			s.prev = l.Seconds
		}
	case KindDomainSize:
		s.domainSize = l.Int
	case KindToolFailure:
		if !s.specific {
			s.outcome = model.OutcomeToolFailure
		}
	case KindTimeLimit:
		s.setSpecific(model.OutcomeTimeLimitExceeded)
	case KindMemoryLimit:
		s.setSpecific(model.OutcomeMemoryLimitExceeded)
	case KindOutOfMemory:
		s.setSpecific(model.OutcomeOutOfMemory)
	case KindKilled:
		s.setSpecific(model.OutcomeKilled)
	}
}

func (s *state) setSpecific(o model.Outcome) {
	s.outcome = o
	s.specific = true
}

func (s state) summary() Summary {
	size := s.domainSize
	if s.outcome == model.OutcomeFound {
		size = s.order
	}
	last := 0.0
	if s.checks >= 2 {
		last = max(s.last-s.prev, 0)
	}
	return Summary{
		Outcome:     s.outcome,
		Size:        size,
		LastTime:    last,
		TotalTime:   s.last,
		Models:      s.models,
		Checkpoints: s.checks,
	}
}

// Parse reads a capture line by line and summarizes it. The same text always
// yields the same Summary.
func Parse(r io.Reader) (Summary, error) {
	st := newState()
	scanner := bufio.NewScanner(r)
	// mace4 prints whole interpretations on a single line for larger orders
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		st.apply(Classify(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return Summary{}, fmt.Errorf("scanning capture: %w", err)
	}
	return st.summary(), nil
}

// Record attaches a job identity to a capture summary.
func Record(id model.Identity, sum Summary) model.Record {
	return model.Record{
		Identity:    id,
		Size:        sum.Size,
		LastTime:    sum.LastTime,
		TotalTime:   sum.TotalTime,
		Outcome:     sum.Outcome,
		Models:      sum.Models,
		Checkpoints: sum.Checkpoints,
	}
}
