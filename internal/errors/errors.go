// Package errors defines sentinel errors used across multiple packages.
package errors

import "errors"

// ErrNoTestSelected is returned when a run is requested but the catalog has no selected test.
var ErrNoTestSelected = errors.New("no test selected")

// ErrNotATerminal is returned when the interactive console is started without a terminal on stdout.
var ErrNotATerminal = errors.New("stdout is not a terminal")

// ErrInvalidRunner is returned when the configured test runner name is not recognised.
var ErrInvalidRunner = errors.New("invalid runner")
