package transfer

import "errors"

var (
	// ErrClientGone means the connection closed or stalled mid-stream.
	ErrClientGone = errors.New("client connection lost")
	// ErrShortFile means the file shrank after its size was recorded.
	ErrShortFile = errors.New("file ended before expected size")
)
