// Package interp side-loads the external game-logic process. The engine
// never blocks on it: the runner starts the command, streams its output into
// the log from background goroutines, and exposes completion as a flag the
// tick loop polls once per frame.
package interp

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
)

// Runner supervises one logic process.
type Runner struct {
	cmd  *exec.Cmd
	log  *zap.Logger
	done atomic.Bool
	exit atomic.Pointer[error]
}

// Start launches command (argv form) with dir as its working directory, so
// the process finds the mailbox files at their protocol-relative names.
func Start(command []string, dir string, log *zap.Logger) (*Runner, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("empty logic command")
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start logic process %q: %w", command[0], err)
	}

	r := &Runner{cmd: cmd, log: log.With(zap.String("logic", command[0]))}
	r.log.Info("logic process started", zap.Int("pid", cmd.Process.Pid))

	go r.stream("stdout", stdout, false)
	go r.stream("stderr", stderr, true)
	go func() {
		err := cmd.Wait()
		if err != nil {
			r.exit.Store(&err)
		}
		r.done.Store(true)
	}()

	return r, nil
}

func (r *Runner) stream(name string, pipe io.Reader, isErr bool) {
	sc := bufio.NewScanner(pipe)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if isErr {
			r.log.Warn(sc.Text(), zap.String("stream", name))
		} else {
			r.log.Info(sc.Text(), zap.String("stream", name))
		}
	}
}

// Done reports whether the process has exited, and with what error if it
// failed. Safe to call every tick.
func (r *Runner) Done() (bool, error) {
	if !r.done.Load() {
		return false, nil
	}
	if errp := r.exit.Load(); errp != nil {
		return true, *errp
	}
	return true, nil
}

// Close force-kills the process if it is still running. Session teardown
// owes no grace period: the logic side holds no state worth flushing beyond
// the mailboxes, which get scrubbed anyway.
func (r *Runner) Close() error {
	if r.done.Load() {
		return nil
	}
	if err := r.cmd.Process.Kill(); err != nil && err != syscall.ESRCH {
		return fmt.Errorf("kill logic process: %w", err)
	}
	return nil
}
