//go:build windows

package proc

import "os/exec"

func configureSysProcAttr(cmd *exec.Cmd) {}
