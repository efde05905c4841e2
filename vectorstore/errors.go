package vectorstore

import "errors"

// ErrNotReady signals that the store could not be reached during
// connection bootstrap.
var ErrNotReady = errors.New("vector store not ready")

// WriteError wraps a rejected insert or delete so callers can tell a failed
// index mutation apart from a failed query.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return "vector store write: " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }

// QueryError wraps a failed similarity or fetch query.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string { return "vector store query: " + e.Err.Error() }
func (e *QueryError) Unwrap() error { return e.Err }
