package domain

import "github.com/pkg/errors"

// ErrInvalidArgument is the cause of every entity construction failure.
// Construction fails fast on bad input, it never silently clamps.
var ErrInvalidArgument = errors.New("invalid argument")
