package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/varietylab/macebatch/internal/log"
	"github.com/varietylab/macebatch/internal/model"
)

const (
	configName = "macebatch.yaml"
	envConfig  = "MACEBATCHCONFIG"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		slog.Error("macebatch failed", "err", err)
		stop()
		os.Exit(1)
	}
}

// app carries the state shared by all commands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	userConfigPath string       // /default/config/path/macebatch on given OS
	configPath     string       // actual config file used (if loaded)
	config         model.Config // file, then env, then flags
	runID          string

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		stdout: stdout,
		stderr: stderr,
		runID:  uuid.NewString(),
	}
	if d, err := os.UserConfigDir(); err == nil {
		a.userConfigPath = filepath.Join(d, "macebatch")
	}

	rootCmd := &cobra.Command{
		Use:          "macebatch",
		Short:        "Run mace4 over a directory of inputs and report the results",
		SilenceUsage: true,
		// never print messages
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	// root flags
	rootCmd.PersistentFlags().StringVar(&a.flagConfigFilePath, "config", "", "Config file to load - default is "+configName+" in current directory or in "+a.userConfigPath)
	rootCmd.PersistentFlags().BoolVar(&a.flagVerbose, "verbose", false, "verbose logging")

	rootCmd.AddCommand(a.scheduleCmd())
	rootCmd.AddCommand(a.collectCmd())
	rootCmd.AddCommand(a.versionCmd())
	return rootCmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "version provides version of macebatch",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			if a.configPath != "" {
				fmt.Fprintf(w, "config:    %s\n", a.configPath)
			}
			info, ok := debug.ReadBuildInfo()
			if !ok {
				fmt.Fprintln(w, "macebatch: version info not available")
				return
			}
			fmt.Fprintf(w, "macebatch: %s\n", info.Main.Version)
			fmt.Fprintf(w, "go:        %s\n", info.GoVersion)
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					fmt.Fprintf(w, "commit:    %s\n", s.Value)
				case "vcs.time":
					fmt.Fprintf(w, "date:      %s\n", s.Value)
				case "vcs.modified":
					fmt.Fprintf(w, "dirty:     %s\n", s.Value)
				}
			}
		},
	}
}

// setup loads .env, the config file and MACEBATCH_* overrides, then sets up
// logging. Command specific flags are applied by each command.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	if path, ok := os.LookupEnv(envConfig); ok {
		a.configPath = path
	} else if a.flagConfigFilePath != "" {
		a.configPath = a.flagConfigFilePath
	} else {
		for _, d := range []string{a.userConfigPath, "."} {
			if d == "" {
				continue
			}
			path := filepath.Join(d, configName)
			if exists(path) {
				a.configPath = path
				break
			}
		}
	}

	ctx := cmd.Context()
	if a.configPath == "" {
		a.config = model.DefaultConfig(ctx)
	} else {
		f, err := os.Open(a.configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		a.config, err = model.LoadConfig(ctx, f)
		if err != nil {
			return fmt.Errorf("parsing config %s: %w", a.configPath, err)
		}
	}
	if err := a.config.ApplyEnv(os.LookupEnv); err != nil {
		return err
	}

	// --verbose has a precedence over config file
	if a.flagVerbose {
		a.config.Verbose = true
	}
	slog.SetDefault(log.New(a.stderr, a.config.Verbose, a.config.LogFormat))

	slog.Debug("macebatch run", "configPath", a.configPath)
	slog.Debug("macebatch run", "config", a.config)
	return nil
}

// commandContext returns the command context carrying the invocation attributes.
func (a *app) commandContext(cmd *cobra.Command) context.Context {
	attrs := slog.Group("macebatch",
		slog.String("cmd", cmd.Name()),
		slog.Int("pid", os.Getpid()),
		slog.String("run_id", a.runID),
	)
	return log.ContextAttrs(cmd.Context(), attrs)
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
