package updater

import (
	"fmt"
	"os/exec"
)

// ExecRestarter restarts the application by running a command, e.g.
// ["systemctl", "restart", "trimix-analysator"]. It replaces the
// device firmware's hard reset on hosts with an init system.
type ExecRestarter struct {
	Command []string
}

func (r ExecRestarter) Restart() error {
	if len(r.Command) == 0 {
		return fmt.Errorf("no restart command configured")
	}
	cmd := exec.Command(r.Command[0], r.Command[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting restart command: %w", err)
	}
	// Detach: the restart will tear this process down.
	return cmd.Process.Release()
}

// RestartFunc adapts a plain function to the Restarter interface.
type RestartFunc func() error

func (f RestartFunc) Restart() error { return f() }
