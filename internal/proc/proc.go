package proc

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Status describes how a child generation ended.
type Status struct {
	// Code is the exit code, or -1 when the child was signal-killed or the
	// wait itself failed.
	Code int
	// Err is non-nil when waiting on the child failed for a reason other
	// than a non-zero exit. The child is still gone; callers log this and
	// move on.
	Err error

	state *os.ProcessState
}

// String renders the status for the "Exit <status>" console line.
func (s Status) String() string {
	if s.state == nil {
		if s.Err != nil {
			return s.Err.Error()
		}
		return strconv.Itoa(s.Code)
	}
	if s.state.Exited() {
		return strconv.Itoa(s.state.ExitCode())
	}
	// Killed by a signal; ProcessState renders e.g. "signal: killed".
	return s.state.String()
}

// Child is a handle to one spawned generation of the supervised command. It
// is owned by the supervision loop and replaced, never reused, on restart.
type Child struct {
	cmd  *exec.Cmd
	done chan struct{}

	waitErr error
}

// Start launches the command with the remaining elements as its argument
// list. The child inherits stdin/stdout/stderr (log capture is out of scope)
// and, on unix, runs in its own process group so termination reaches the
// whole group. A start failure means the command is misconfigured; callers
// treat it as fatal for the run.
func Start(command []string) (*Child, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("no command to run")
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	configureSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", command[0], err)
	}

	c := &Child{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		c.waitErr = cmd.Wait()
		close(c.done)
	}()

	return c, nil
}

// Pid reports the child's process id.
func (c *Child) Pid() int {
	if c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// TryWait is a non-blocking exit poll. It reports false while the child is
// still running; once the child has been reaped it returns the final status
// and keeps returning it on subsequent calls.
func (c *Child) TryWait() (Status, bool) {
	select {
	case <-c.done:
	default:
		return Status{}, false
	}

	status := Status{state: c.cmd.ProcessState}
	if status.state != nil {
		status.Code = status.state.ExitCode()
	} else {
		status.Code = -1
	}
	if c.waitErr != nil {
		if _, isExit := c.waitErr.(*exec.ExitError); !isExit {
			status.Err = c.waitErr
		}
	}
	return status, true
}

// Kill terminates the child, best effort. A child that already exited is not
// an error. Failures are reported for logging; the supervision loop proceeds
// as if the kill had been delivered either way.
func (c *Child) Kill() error {
	select {
	case <-c.done:
		return nil
	default:
	}
	return c.kill()
}
