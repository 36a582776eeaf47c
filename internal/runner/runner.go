package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/varietylab/macebatch/internal/model"
)

// killedLine is appended to a capture when the tool was SIGKILLed, the same
// line a shell prints for such a child.
const killedLine = "Killed\n"

// Command is a fully resolved tool invocation.
type Command struct {
	Path    string
	Args    []string
	Env     []string
	Timeout time.Duration
}

type Result struct {
	Path     string
	Args     []string
	Capture  string
	Started  time.Time
	Stopped  time.Time
	State    *os.ProcessState
	ExitCode int
	// Killed is set when the supervisory timeout or an outside SIGKILL ended
	// the process. A canceled parent context never sets it.
	Killed bool
}

// Runner runs the model-finder once per job. A Runner has no mutable state and
// may be used by any number of goroutines.
type Runner struct {
	tool model.Tool
}

func New(tool model.Tool) *Runner {
	return &Runner{tool: tool}
}

// Command builds the invocation for one input file:
//
//	<path> -t <time_limit> -b <max_megs> [args...] -f <input>
func (r *Runner) Command(input string) Command {
	args := make([]string, 0, 6+len(r.tool.Args))
	args = append(args,
		"-t", strconv.Itoa(r.tool.TimeLimit),
		"-b", strconv.Itoa(r.tool.MaxMegs),
	)
	args = append(args, r.tool.Args...)
	args = append(args, "-f", input)

	var timeout time.Duration
	if r.tool.Grace > 0 {
		timeout = time.Duration(r.tool.TimeLimit)*time.Second + r.tool.Grace
	}
	return Command{
		Path:    r.tool.Path,
		Args:    args,
		Env:     env(r.tool.Env),
		Timeout: timeout,
	}
}

// Run executes the tool for job and blocks until it exits. Standard output and
// standard error both go to job.CapturePath, which is truncated first. A non-zero
// exit status is not an error; the outcome is decided from the capture later.
// Errors wrap model.ErrLaunch and mean the tool never ran.
func (r *Runner) Run(ctx context.Context, job model.Job) (Result, error) {
	proto := r.Command(job.InputPath)
	res := Result{
		Path:    proto.Path,
		Args:    proto.Args,
		Capture: job.CapturePath,
	}

	if err := os.MkdirAll(filepath.Dir(job.CapturePath), 0o755); err != nil {
		return res, fmt.Errorf("%w: creating output dir: %w", model.ErrLaunch, err)
	}
	capture, err := os.Create(job.CapturePath)
	if err != nil {
		return res, fmt.Errorf("%w: creating capture: %w", model.ErrLaunch, err)
	}
	defer func() {
		_ = capture.Close()
	}()

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if proto.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, proto.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, proto.Path, proto.Args...)
	cmd.Stdout = capture
	cmd.Stderr = capture
	if len(proto.Env) > 0 {
		cmd.Env = append(os.Environ(), proto.Env...)
	}
	cmd.WaitDelay = 5 * time.Second

	res.Started = time.Now().UTC()
	if err := cmd.Start(); err != nil {
		res.Stopped = time.Now().UTC()
		return res, fmt.Errorf("%w: %w", model.ErrLaunch, err)
	}
	slog.DebugContext(ctx, "tool started", "pid", cmd.Process.Pid, "args", proto.Args)

	err = cmd.Wait()
	res.Stopped = time.Now().UTC()
	res.State = cmd.ProcessState
	if res.State != nil {
		res.ExitCode = res.State.ExitCode()
	}

	timedOut := proto.Timeout > 0 && ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded)
	if timedOut || (ctx.Err() == nil && sigkilled(res.State)) {
		res.Killed = true
		if _, werr := capture.WriteString(killedLine); werr != nil {
			slog.WarnContext(ctx, "marking capture as killed failed", "error", werr)
		}
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		slog.WarnContext(ctx, "tool wait", "error", err)
	}
	slog.DebugContext(ctx, "tool exited",
		"exit_code", res.ExitCode,
		"killed", res.Killed,
		"duration", res.Stopped.Sub(res.Started),
	)
	return res, nil
}

func sigkilled(state *os.ProcessState) bool {
	if state == nil {
		return false
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	return ok && ws.Signaled() && ws.Signal() == syscall.SIGKILL
}

func env(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	ret := make([]string, 0, len(m))
	for k, v := range m {
		ret = append(ret, k+"="+os.ExpandEnv(v))
	}
	sort.Strings(ret)
	return ret
}
