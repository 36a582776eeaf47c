package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/varietylab/macebatch/internal/catalog"
	"github.com/varietylab/macebatch/internal/model"
	"github.com/varietylab/macebatch/internal/runner"
	"github.com/varietylab/macebatch/internal/scheduler"
)

type scheduleFlags struct {
	tool      string
	timeLimit int
	maxMegs   int
	grace     time.Duration
}

func (a *app) scheduleCmd() *cobra.Command {
	var flags scheduleFlags
	cmd := &cobra.Command{
		Use:   "schedule <input_dir> <output_dir> [concurrency]",
		Short: "run the tool on every input without a complete capture",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.doSchedule(cmd, args, flags)
		},
	}
	cmd.Flags().StringVar(&flags.tool, "tool", "", "model-finder binary (default from config, "+model.DefaultTool+")")
	cmd.Flags().IntVar(&flags.timeLimit, "time-limit", 0, "seconds passed as -t")
	cmd.Flags().IntVar(&flags.maxMegs, "max-megs", 0, "megabytes passed as -b")
	cmd.Flags().DurationVar(&flags.grace, "grace", 0, "kill the tool at time-limit + grace, 0 disables")
	return cmd
}

func (a *app) doSchedule(cmd *cobra.Command, args []string, flags scheduleFlags) error {
	ctx := a.commandContext(cmd)

	cfg := a.config
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("%w: %q is not an integer", model.ErrInvalidConcurrency, args[2])
		}
		cfg.Schedule.Concurrency = n
	}
	if cfg.Schedule.Concurrency < 1 {
		return fmt.Errorf("%w: got %d", model.ErrInvalidConcurrency, cfg.Schedule.Concurrency)
	}
	if cmd.Flags().Changed("tool") {
		cfg.Tool.Path = flags.tool
	}
	if cmd.Flags().Changed("time-limit") {
		cfg.Tool.TimeLimit = flags.timeLimit
	}
	if cmd.Flags().Changed("max-megs") {
		cfg.Tool.MaxMegs = flags.maxMegs
	}
	if cmd.Flags().Changed("grace") {
		cfg.Tool.Grace = flags.grace
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	jobs, skipped, err := catalog.New(args[0], args[1], cfg.Schedule.Suffix).Jobs(ctx)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(cfg.Schedule.Concurrency, runner.New(cfg.Tool))
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "scheduling", "jobs", len(jobs), "skipped", len(skipped), "config", cfg)

	stats, err := sched.Run(ctx, jobs)
	slog.InfoContext(ctx, "schedule finished", "stats", stats)
	return err
}
