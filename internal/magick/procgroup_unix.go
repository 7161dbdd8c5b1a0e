//go:build unix

package magick

import (
	"os/exec"
	"syscall"
)

// killProcessGroup запускает процесс в своей группе и при отмене
// посылает SIGKILL всей группе.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
