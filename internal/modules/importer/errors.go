package importer

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCSV marks any parse failure of an uploaded positions export.
var ErrInvalidCSV = errors.New("invalid csv")

// ErrUnresolvedPositions marks an aggregation that found positions with no
// category mapping.
var ErrUnresolvedPositions = errors.New("unresolved positions")

// ParseError is a user-facing CSV parse failure with a message suitable for
// display.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return e.Reason }

func (e *ParseError) Unwrap() error { return ErrInvalidCSV }

func parseErrorf(format string, args ...interface{}) error {
	return &ParseError{Reason: fmt.Sprintf(format, args...)}
}

// UnresolvedPositionsError lists the symbols that could not be resolved to a
// category, so the caller can prompt for mappings.
type UnresolvedPositionsError struct {
	Symbols []string
}

func (e *UnresolvedPositionsError) Error() string {
	return fmt.Sprintf("no category mapping for: %s", strings.Join(e.Symbols, ", "))
}

func (e *UnresolvedPositionsError) Unwrap() error { return ErrUnresolvedPositions }
