//go:build !windows

package proc

import (
	"errors"
	"fmt"
	"syscall"
)

func (c *Child) kill() error {
	if c.cmd.Process == nil {
		return nil
	}
	// The negative pid addresses the whole process group.
	if err := syscall.Kill(-c.cmd.Process.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("kill process group %d: %w", c.cmd.Process.Pid, err)
	}
	return nil
}
