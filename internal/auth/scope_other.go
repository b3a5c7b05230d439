//go:build !linux

package auth

import (
	"errors"
	"os"
	"syscall"
)

// processIdentity only reports liveness; no start time is available here
func processIdentity(pid int) (start string, alive bool) {
	p, err := os.FindProcess(pid)
	if err != nil {
		return "", false
	}
	if err := p.Signal(syscall.Signal(0)); errors.Is(err, os.ErrProcessDone) {
		return "", false
	}
	return "", true
}
