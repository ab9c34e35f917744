//go:build linux || darwin

package terminal

import (
	"fmt"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"os"
)

var ErrNotATerminal = errors.New("not a terminal")

// ConfigError reports a failure to read or apply terminal attributes.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("error %s terminal attributes: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Attributes is a snapshot of a terminal's mode, captured once and only
// used to restore it.
type Attributes struct {
	termios unix.Termios
}

type device interface {
	sessionID() (int, error)
	getAttr() (*unix.Termios, error)
	setAttr(attr *unix.Termios) error
}

type ttyDevice int

func (fd ttyDevice) sessionID() (int, error) {
	if !isatty.IsTerminal(uintptr(fd)) {
		return 0, unix.ENOTTY
	}

	return unix.IoctlGetInt(int(fd), ioctlGetSessionID)
}

func (fd ttyDevice) getAttr() (*unix.Termios, error) {
	return unix.IoctlGetTermios(int(fd), ioctlGetTermios)
}

func (fd ttyDevice) setAttr(attr *unix.Termios) error {
	return unix.IoctlSetTermios(int(fd), ioctlSetTermiosFlush, attr)
}

// Controller captures, switches and restores the mode of one terminal.
type Controller struct {
	fd     int
	device device
}

func NewController(file *os.File) *Controller {
	fd := int(file.Fd())

	return &Controller{fd: fd, device: ttyDevice(fd)}
}

// Check verifies that the descriptor is connected to a controlling
// terminal. Nothing is read or written on failure.
func (c *Controller) Check() error {
	if _, err := c.device.sessionID(); err != nil {
		return errors.Wrapf(ErrNotATerminal, "fd %d (%v)", c.fd, err)
	}

	return nil
}

func (c *Controller) Capture() (*Attributes, error) {
	err := c.Check()

	if err != nil {
		return nil, err
	}

	attr, err := c.device.getAttr()

	if err != nil {
		return nil, &ConfigError{Op: "reading", Err: err}
	}

	return &Attributes{termios: *attr}, nil
}

// MakeRaw puts the terminal in raw mode and returns the attributes it had
// before.
func (c *Controller) MakeRaw() (*Attributes, error) {
	saved, err := c.Capture()

	if err != nil {
		return nil, err
	}

	raw := makeRaw(saved.termios)

	err = c.device.setAttr(&raw)

	if err != nil {
		return nil, &ConfigError{Op: "applying raw", Err: err}
	}

	return saved, nil
}

// Restore reapplies a snapshot, discarding pending input and waiting for
// pending output first. Restoring the same snapshot twice is harmless.
func (c *Controller) Restore(saved *Attributes) error {
	if saved == nil {
		return nil
	}

	attr := saved.termios

	err := c.device.setAttr(&attr)

	if err != nil {
		return &ConfigError{Op: "restoring", Err: err}
	}

	return nil
}

// makeRaw mirrors cfmakeraw(3) and asks for blocking reads of at least one
// byte with no inter-byte timer.
func makeRaw(attr unix.Termios) unix.Termios {
	attr.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	attr.Oflag &^= unix.OPOST
	attr.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	attr.Cflag &^= unix.CSIZE | unix.PARENB
	attr.Cflag |= unix.CS8
	attr.Cc[unix.VMIN] = 1
	attr.Cc[unix.VTIME] = 0

	return attr
}
