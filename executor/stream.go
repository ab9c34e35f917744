package executor

import (
	"context"
	"io"
	"sync"
)

// drainReader records when its source returned its last byte.
type drainReader struct {
	reader  io.Reader
	once    sync.Once
	drained chan struct{}
}

func newDrainReader(reader io.Reader) *drainReader {
	return &drainReader{reader: reader, drained: make(chan struct{})}
}

func (d *drainReader) Read(p []byte) (int, error) {
	n, err := d.reader.Read(p)

	if err != nil {
		d.once.Do(func() { close(d.drained) })
	}

	return n, err
}

func waitDrained(ctx context.Context, readers ...*drainReader) error {
	for _, reader := range readers {
		if reader == nil {
			continue
		}

		select {
		case <-reader.drained:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}
