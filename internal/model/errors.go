package model

import (
	"errors"
)

var (
	ErrMalformedName      = errors.New("malformed job filename")
	ErrDuplicateIndex     = errors.New("duplicate job index")
	ErrLaunch             = errors.New("tool launch failed")
	ErrUnreadableCapture  = errors.New("capture not readable")
	ErrInvalidRange       = errors.New("invalid index range")
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")
	ErrInvalidConfig      = errors.New("invalid configuration")
)
