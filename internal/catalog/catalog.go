package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/varietylab/macebatch/internal/model"
	"github.com/varietylab/macebatch/internal/walk"
)

// Catalog enumerates the jobs of an input directory. It never writes anything.
type Catalog struct {
	InputDir  string
	OutputDir string
	Suffix    string
}

func New(inputDir, outputDir, suffix string) Catalog {
	if suffix == "" {
		suffix = model.DefaultSuffix
	}
	return Catalog{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Suffix:    suffix,
	}
}

// Jobs lists the input directory and returns the jobs ordered by index.
// Files whose name is not a job identity, and files repeating an index already
// taken, are returned as skipped errors instead of jobs. The returned error is
// non-nil only when the directory itself cannot be read.
func (c Catalog) Jobs(ctx context.Context) (jobs []model.Job, skipped []error, err error) {
	for entry, werr := range walk.Dir(ctx, c.InputDir) {
		if entry == nil {
			return nil, nil, werr
		}
		if werr != nil {
			skipped = append(skipped, fmt.Errorf("%s: %w", entry.Path(), werr))
			continue
		}
		id, perr := ParseName(entry.Name())
		if perr != nil {
			skipped = append(skipped, perr)
			continue
		}
		jobs = append(jobs, model.Job{
			Identity:    id,
			Name:        entry.Name(),
			InputPath:   entry.Path(),
			CapturePath: CapturePath(c.OutputDir, entry.Name(), c.Suffix),
		})
	}
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].Index < jobs[j].Index })

	unique := make([]model.Job, 0, len(jobs))
	for _, job := range jobs {
		if n := len(unique); n > 0 && unique[n-1].Index == job.Index {
			skipped = append(skipped, fmt.Errorf("%w: %d: %q repeats %q", model.ErrDuplicateIndex, job.Index, job.Name, unique[n-1].Name))
			continue
		}
		unique = append(unique, job)
	}

	for _, s := range skipped {
		slog.WarnContext(ctx, "input skipped", "error", s)
	}
	return unique, skipped, nil
}
