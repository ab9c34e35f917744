package coalesce

import (
	"github.com/pkg/errors"
	"os"
)

// ErrUnsupported is returned by subscribers that cannot observe window
// changes.
var ErrUnsupported = errors.New("window change notifications are not supported on this platform")

// Subscriber starts delivery of resize notifications. The returned
// function stops delivery.
type Subscriber func() (<-chan os.Signal, func(), error)
