package terminal

import "golang.org/x/sys/unix"

// Darwin has no TIOCGSID; the foreground process group query fails the
// same way on descriptors without a controlling terminal.
const (
	ioctlGetTermios      = unix.TIOCGETA
	ioctlSetTermiosFlush = unix.TIOCSETAF
	ioctlGetSessionID    = unix.TIOCGPGRP
)
