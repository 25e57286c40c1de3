package server

import (
	"errors"
	"fmt"

	"github.com/zeusync/farmlife/internal/core/fault"
)

var (
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrHubClosed            = errors.New("observer hub is closed")
	ErrMaxObserversReached  = fmt.Errorf("%w: maximum observers reached", fault.ErrResourceExhausted)
	ErrUnauthorized         = fmt.Errorf("%w: observer token rejected", fault.ErrInvalidOperation)
	// ErrNotAuthoritative answers any command an observer sends; the feed is read-only.
	ErrNotAuthoritative = fmt.Errorf("%w: observers cannot issue commands", fault.ErrInvalidOperation)
)
