package terminal

import (
	"github.com/pkg/errors"
	"golang.org/x/term"
	"os"
)

type WindowSize struct {
	Rows uint16
	Cols uint16
}

// Sampler reads the current dimensions of a terminal.
type Sampler struct {
	fd    int
	query func(fd int) (width, height int, err error)
}

func NewSampler(file *os.File) *Sampler {
	return &Sampler{fd: int(file.Fd()), query: term.GetSize}
}

// Sample returns the terminal geometry as reported by the device, zero
// sizes included.
func (s *Sampler) Sample() (WindowSize, error) {
	width, height, err := s.query(s.fd)

	if err != nil {
		return WindowSize{}, errors.Wrap(err, "cannot query terminal size")
	}

	return WindowSize{Rows: uint16(height), Cols: uint16(width)}, nil
}
