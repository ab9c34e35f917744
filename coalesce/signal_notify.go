//go:build linux || darwin

package coalesce

import (
	"os"
	"os/signal"
	"syscall"
)

// WindowChanges subscribes to SIGWINCH.
func WindowChanges() (<-chan os.Signal, func(), error) {
	notifications := make(chan os.Signal, 1)
	signal.Notify(notifications, syscall.SIGWINCH)

	return notifications, func() { signal.Stop(notifications) }, nil
}
