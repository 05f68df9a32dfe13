package memory

import "errors"

var (
	// ErrValidation indicates a malformed or empty request field.
	ErrValidation = errors.New("invalid request")

	// ErrInvalidQuery indicates an empty target list; batch pipelines fail
	// fast on it before any concurrent work starts.
	ErrInvalidQuery = errors.New("no targets to act on")

	// ErrNotFound indicates no owned record matched the request.
	ErrNotFound = errors.New("no matching memories")

	// ErrAmbiguousFact indicates the item or location of a statement could
	// not be determined.
	ErrAmbiguousFact = errors.New("could not extract a clear item and location")

	// ErrUnrecognizedIntent indicates the utterance mapped onto none of the
	// declared operations.
	ErrUnrecognizedIntent = errors.New("unrecognized intent")

	// ErrDuplicateFact indicates the exact fact is already stored.
	ErrDuplicateFact = errors.New("similar memory already exists")

	// ErrExternalService indicates an embedding, language model, or vector
	// store call failed.
	ErrExternalService = errors.New("external service failure")
)

// StatusError pairs an error-taxonomy sentinel with the user-facing message
// the HTTP layer should return. Pipelines use it whenever the remediation
// text is composed at failure time (duplicate saves, empty delete results).
type StatusError struct {
	Kind    error
	Message string
}

func (e *StatusError) Error() string { return e.Message }

func (e *StatusError) Unwrap() error { return e.Kind }

func statusErr(kind error, message string) *StatusError {
	return &StatusError{Kind: kind, Message: message}
}
