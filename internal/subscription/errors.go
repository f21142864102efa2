package subscription

import "errors"

// ErrUnknownToken marks a syntactically valid token that resolves to no
// subscriber. The boundary treats this as an authorization failure, distinct
// from malformed input and from server faults.
var ErrUnknownToken = errors.New("subscription token not recognized")

// ValidationError reports client-supplied data that failed domain
// validation. The reason is safe to return to the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// StorageError reports a transaction, connection, or constraint failure.
// The cause chain is for diagnostics only and never reaches the caller.
type StorageError struct {
	Step string
	Err  error
}

func (e *StorageError) Error() string { return e.Step + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// EmailError reports a transport failure dispatching the confirmation
// email. By the time it occurs the subscriber and token are already durable,
// so it is kept distinct from StorageError: operators can detect the
// delivered-nothing-but-persisted state and resend.
type EmailError struct {
	Err error
}

func (e *EmailError) Error() string { return "send confirmation email: " + e.Err.Error() }
func (e *EmailError) Unwrap() error { return e.Err }
