package admin

import "errors"

var (
	ErrLoginDisabled   = errors.New("operator login is not configured")
	ErrInvalidPassword = errors.New("invalid password")
	ErrEmptyPath       = errors.New("path is required")
)
