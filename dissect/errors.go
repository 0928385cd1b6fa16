package dissect

import "errors"

// ErrNoMatch is returned by the table helpers when no registered
// dissector in a table claimed the data.
var ErrNoMatch = errors.New("dissect: no dissector matched")

// recoverableError marks an error as "this dissector does not apply to
// this data; the table should try the next dissector in priority order."
type recoverableError struct{ err error }

// Recoverable wraps err so a dissector table treats it as a declined
// match rather than aborting dissection of the packet.
func Recoverable(err error) error {
	return &recoverableError{err: err}
}

func (e *recoverableError) Error() string { return e.err.Error() }
func (e *recoverableError) Unwrap() error { return e.err }

// IsRecoverable reports whether err (or anything it wraps) was marked
// Recoverable.
func IsRecoverable(err error) bool {
	var r *recoverableError
	return errors.As(err, &r)
}

// fatalError marks an error as aborting dissection of the whole packet,
// not just this dissector's attempt.
type fatalError struct{ err error }

// Fatal wraps err so a dissector table aborts dissection instead of
// trying the next dissector.
func Fatal(err error) error {
	return &fatalError{err: err}
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// IsFatal reports whether err should abort dissection. An error that was
// never wrapped with Recoverable or Fatal is treated as fatal by default:
// a dissector that returns a plain error is assumed to have hit something
// unexpected, not merely "this isn't my protocol."
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var f *fatalError
	if errors.As(err, &f) {
		return true
	}
	return !IsRecoverable(err)
}
