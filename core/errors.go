package core

import "errors"

var (
	// ErrBusy is returned when an operation requires idle axes.
	ErrBusy = errors.New("axes are moving")

	// ErrSpeedRange is returned for speed settings outside (0, max].
	ErrSpeedRange = errors.New("speed out of range")
)
