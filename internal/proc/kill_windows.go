//go:build windows

package proc

import (
	"errors"
	"fmt"
	"os"
)

func (c *Child) kill() error {
	if c.cmd.Process == nil {
		return nil
	}
	if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill process %d: %w", c.cmd.Process.Pid, err)
	}
	return nil
}
