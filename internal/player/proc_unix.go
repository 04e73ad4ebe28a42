//go:build unix

package player

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// The player runs in its own process group so helpers it spawns die with
// it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil || cmd.Process.Pid <= 0 {
		return nil
	}
	if err := unix.Kill(-cmd.Process.Pid, unix.SIGTERM); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}
