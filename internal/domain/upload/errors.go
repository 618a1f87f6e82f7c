package upload

import "errors"

var (
	// ErrRejected covers a missing file part or an empty file name.
	ErrRejected    = errors.New("upload rejected")
	ErrStoreFailed = errors.New("failed to store upload")
)
