package lifecycle

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error for HTTP mapping.
type Kind int

const (
	// KindNotFound - a referenced entity is absent (HTTP 404).
	KindNotFound Kind = iota
	// KindConflict - a state-machine rule was violated (HTTP 400).
	KindConflict
	// KindInvalid - the input itself is malformed (HTTP 400).
	KindInvalid
)

// Error is a domain-rule violation with a client-facing detail string.
// Infrastructure failures are returned as plain errors and map to HTTP 500.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

// ErrStoreConflict is returned by stores when a uniqueness constraint
// rejects a write (e.g. a second appeal racing past the duplicate check).
var ErrStoreConflict = errors.New("store: uniqueness constraint violated")

func notFoundf(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Detail: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Detail: fmt.Sprintf(format, args...)}
}

func invalidf(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalid, Detail: fmt.Sprintf(format, args...)}
}

func isKind(err error, kind Kind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// IsNotFound reports whether err is a missing-entity domain error.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsConflict reports whether err is a state-rule domain error.
func IsConflict(err error) bool { return isKind(err, KindConflict) }

// IsInvalid reports whether err is a malformed-input domain error.
func IsInvalid(err error) bool { return isKind(err, KindInvalid) }
