package contract

import "errors"

var (
	ErrStreamClosed = errors.New("tool process stream closed")
	ErrRPC          = errors.New("rpc call failed")
	ErrDecode       = errors.New("protocol decode failed")
	ErrNotStarted   = errors.New("transport not started")
	ErrValidation   = errors.New("validation failed")
)
