package common

import "errors"

var (
	ErrNoTablesFound = errors.New("no tables found in document")
	ErrUnexpected    = errors.New("unexpected failure while parsing statement")
	ErrBadRequest    = errors.New("bad request")
)
