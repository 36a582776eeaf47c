package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/varietylab/macebatch/internal/collect"
	"github.com/varietylab/macebatch/internal/model"
	"github.com/varietylab/macebatch/internal/report"
)

type collectFlags struct {
	delimiter string
	workers   int
	summary   bool
}

func (a *app) collectCmd() *cobra.Command {
	var flags collectFlags
	cmd := &cobra.Command{
		Use:   "collect <output_dir> <report_path> <range_start> <range_end>",
		Short: "parse the captures and write one report row per index of the range",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.doCollect(cmd, args, flags)
		},
	}
	cmd.Flags().StringVar(&flags.delimiter, "delimiter", "", `report delimiter, a single character or \t (default from config, ",")`)
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "captures parsed concurrently")
	cmd.Flags().BoolVar(&flags.summary, "summary", true, "print a summary to stdout")
	return cmd
}

func (a *app) doCollect(cmd *cobra.Command, args []string, flags collectFlags) error {
	ctx := a.commandContext(cmd)
	outputDir, reportPath := args[0], args[1]

	start, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("%w: start %q is not an integer", model.ErrInvalidRange, args[2])
	}
	end, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("%w: end %q is not an integer", model.ErrInvalidRange, args[3])
	}
	if err := report.CheckRange(start, end); err != nil {
		return err
	}

	cfg := a.config
	if cmd.Flags().Changed("delimiter") {
		cfg.Collect.Delimiter = unescape(flags.delimiter)
	}
	if cmd.Flags().Changed("workers") {
		cfg.Collect.Workers = flags.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	delimiter, _ := utf8.DecodeRuneInString(cfg.Collect.Delimiter)

	res, err := collect.New(cfg.Collect.Workers).Collect(ctx, outputDir)
	if err != nil {
		return err
	}
	tbl, err := report.Aggregate(res.Records, start, end)
	if err != nil {
		return err
	}
	for _, dup := range tbl.Duplicates {
		slog.WarnContext(ctx, "duplicate record", "error", dup)
	}

	if err := writeReport(reportPath, delimiter, tbl); err != nil {
		return err
	}
	slog.InfoContext(ctx, "report written",
		"path", reportPath,
		"rows", len(tbl.Rows),
		"blank", tbl.Blanks(),
		"parse_errors", len(res.Errors),
	)

	if flags.summary {
		return report.Summarize(tbl, len(res.Errors)).Render(a.stdout, report.IsTerminal(a.stdout))
	}
	return nil
}

func writeReport(path string, delimiter rune, tbl report.Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := report.NewWriter(f, delimiter).Write(tbl); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing report: %w", err)
	}
	return nil
}

// unescape accepts the shell friendly spellings of a tab.
func unescape(s string) string {
	switch s {
	case `\t`, "tab":
		return "\t"
	}
	return s
}
