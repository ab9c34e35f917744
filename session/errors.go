package session

import (
	"fmt"
	"github.com/pkg/errors"
)

var (
	ErrSignalSubscription = errors.New("cannot subscribe to window changes")

	errMissingStream   = errors.New("remote session has no attached stream")
	errNoResizeChannel = errors.New("cannot communicate terminal size to the remote session")
)

// ChannelError is an I/O failure on one of the streams of a session.
type ChannelError struct {
	Stream string
	Err    error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("error on %s channel: %v", e.Stream, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// SubscriptionError reports why window change notifications are
// unavailable. It matches ErrSignalSubscription and its cause.
type SubscriptionError struct {
	Err error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSignalSubscription, e.Err)
}

func (e *SubscriptionError) Is(target error) bool {
	return target == ErrSignalSubscription
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}
