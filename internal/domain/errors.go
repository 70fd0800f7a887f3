package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrEmptyTicker   = errors.New("ticker must not be empty")
	ErrFutureBar     = errors.New("timestamp cannot be in the future")
	ErrNoUpdateField = errors.New("no update fields provided")
)
