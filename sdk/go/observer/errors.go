package observer

import "errors"

var (
	ErrClientClosed     = errors.New("observer client is closed")
	ErrAlreadyConnected = errors.New("observer client is already connected")
	ErrNotConnected     = errors.New("observer client is not connected")
	ErrNoSnapshot       = errors.New("delta received before snapshot")
	ErrServerRejected   = errors.New("server rejected the message")
	ErrUnknownFrame     = errors.New("unknown frame type")
)
