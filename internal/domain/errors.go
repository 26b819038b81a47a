package domain

import "errors"

// ErrUnknownColumn is returned when a column name is not part of the factor table.
var ErrUnknownColumn = errors.New("unknown column")
