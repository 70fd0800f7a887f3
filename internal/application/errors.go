package application

import "errors"

var ErrNotFound = errors.New("not found")
var ErrInvalidArgument = errors.New("invalid argument")
var ErrConflict = errors.New("conflict")
