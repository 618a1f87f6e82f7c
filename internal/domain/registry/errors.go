package registry

import "errors"

var (
	ErrNotFound    = errors.New("file not found")
	ErrUnknownID   = errors.New("unknown file id")
	ErrFileMissing = errors.New("file no longer exists on disk")
	ErrIO          = errors.New("file i/o failed")
)
