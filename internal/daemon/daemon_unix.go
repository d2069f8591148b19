//go:build unix

package daemon

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"syscall"
)

// Detach starts a detached copy of the running executable with args,
// handing it ln. It returns the child's pid. The caller should exit 0
// afterwards; ln stays open in the caller and may be closed.
func Detach(ln net.Listener, args []string) (int, error) {
	fl, ok := ln.(interface{ File() (*os.File, error) })
	if !ok {
		return 0, fmt.Errorf("listener %T cannot be passed to a child process", ln)
	}
	sock, err := fl.File()
	if err != nil {
		return 0, fmt.Errorf("failed to duplicate listening socket: %w", err)
	}
	defer sock.Close()

	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to locate executable: %w", err)
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), EnvVar+"=1")
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	cmd.ExtraFiles = []*os.File{sock}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	pid := cmd.Process.Pid

	// The child is never waited for
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("failed to release daemon process: %w", err)
	}
	return pid, nil
}

// InheritedListener rebuilds the listening socket passed by Detach.
func InheritedListener() (net.Listener, error) {
	if !IsChild() {
		return nil, ErrNotChild
	}

	f := os.NewFile(listenerFD, "aesdsocket-listener")
	if f == nil {
		return nil, fmt.Errorf("descriptor %d is not open", listenerFD)
	}
	defer f.Close()

	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild inherited listener: %w", err)
	}
	return ln, nil
}
