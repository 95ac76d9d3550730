// Package errs holds the failure kinds of export and import. Every error
// returned by the internal packages wraps exactly one of them.
package errs

import "errors"

var (
	// ErrNotFound reports a state entry that was expected but is absent.
	ErrNotFound = errors.New("not found")
	// ErrIO reports a failed read from the node or the file system.
	ErrIO = errors.New("i/o failure")
	// ErrValidation reports a snapshot that is incomplete or inconsistent.
	ErrValidation = errors.New("validation failure")
	// ErrTransaction reports a transaction that was rejected, failed to
	// dispatch, was not included, or did not report what it created.
	ErrTransaction = errors.New("transaction failure")
)

// Kind returns the failure kind wrapped by err, or nil.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrIO, ErrValidation, ErrTransaction} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
