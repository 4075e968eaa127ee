//go:build windows

package backend

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// Windows has no POSIX process groups; taskkill /T walks the process tree
// instead so workers spawned by the backend go down with it.
func setProcAttributes(*exec.Cmd) {}

// runTaskkill is replaced in tests
var runTaskkill = func(args ...string) error {
	return exec.Command("taskkill", args...).Run()
}

func taskkillArgs(pid int, force bool) []string {
	args := []string{"/PID", strconv.Itoa(pid), "/T"}
	if force {
		args = append(args, "/F")
	}
	return args
}

// terminate asks the tree to close without /F; the supervisor escalates to
// kill after the grace period.
func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return ErrNotRunning
	}
	if err := runTaskkill(taskkillArgs(cmd.Process.Pid, false)...); err != nil {
		return fmt.Errorf("taskkill: %w", err)
	}
	return nil
}

func kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return ErrNotRunning
	}
	if err := runTaskkill(taskkillArgs(cmd.Process.Pid, true)...); err == nil {
		return nil
	}
	err := cmd.Process.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func signalName(*exec.ExitError) string {
	return ""
}
