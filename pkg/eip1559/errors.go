package eip1559

import "errors"

var (
	errNoHeader = errors.New("node returned no header")
	errNoTip    = errors.New("node returned no tip")
)
