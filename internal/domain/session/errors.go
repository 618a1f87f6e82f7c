package session

import "errors"

var (
	ErrUnknownSession = errors.New("session not found")
	ErrSessionInUse   = errors.New("session already streaming")
)
