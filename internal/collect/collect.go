package collect

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/varietylab/macebatch/internal/catalog"
	"github.com/varietylab/macebatch/internal/model"
	"github.com/varietylab/macebatch/internal/parallel"
	"github.com/varietylab/macebatch/internal/parse"
	"github.com/varietylab/macebatch/internal/report"
	"github.com/varietylab/macebatch/internal/walk"
)

// Result of one collection pass over an output directory.
type Result struct {
	// Records are sorted by identity.
	Records []model.Record
	// Errors holds one entry per file that could not be turned into a record.
	Errors []error
	Files  int
}

// Collector parses every capture of an output directory.
type Collector struct {
	workers int
}

func New(workers int) *Collector {
	return &Collector{workers: max(workers, 1)}
}

// File parses one capture into a record. The identity comes from the file
// name alone; a malformed name wraps model.ErrMalformedName and a capture that
// cannot be read wraps model.ErrUnreadableCapture.
func File(entry walk.Entry) (model.Record, error) {
	id, err := catalog.ParseName(entry.Name())
	if err != nil {
		return model.Record{}, err
	}
	r, err := entry.Open()
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: %s: %w", model.ErrUnreadableCapture, entry.Path(), err)
	}
	defer func() {
		_ = r.Close()
	}()
	sum, err := parse.Parse(r)
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: %s: %w", model.ErrUnreadableCapture, entry.Path(), err)
	}
	return parse.Record(id, sum), nil
}

// Collect parses the regular files of dir concurrently. Per-file failures are
// logged and returned in Result.Errors, they never abort the pass. The error
// return is reserved for an unreadable dir and a canceled ctx.
func (c *Collector) Collect(ctx context.Context, dir string) (Result, error) {
	var dirErr error
	entries := func(yield func(walk.Entry, error) bool) {
		for entry, err := range walk.Dir(ctx, dir) {
			if entry == nil {
				dirErr = err
				return
			}
			if err != nil {
				err = fmt.Errorf("%w: %s: %w", model.ErrUnreadableCapture, entry.Path(), err)
			}
			if !yield(entry, err) {
				return
			}
		}
	}

	parseFile := func(_ context.Context, entry walk.Entry) (model.Record, error) {
		return File(entry)
	}

	var res Result
	for rec, err := range parallel.NewMap(c.workers, parseFile).Iter(ctx, entries) {
		res.Files++
		if err != nil {
			slog.WarnContext(ctx, "skipping capture", "error", err)
			res.Errors = append(res.Errors, err)
			continue
		}
		res.Records = append(res.Records, rec)
	}
	if dirErr != nil {
		return Result{}, dirErr
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("collecting %s: %w", dir, err)
	}

	report.Sort(res.Records)
	slices.SortFunc(res.Errors, func(a, b error) int {
		return strings.Compare(a.Error(), b.Error())
	})
	slog.DebugContext(ctx, "collected",
		"dir", dir,
		"files", res.Files,
		"records", len(res.Records),
		"errors", len(res.Errors),
	)
	return res, nil
}
