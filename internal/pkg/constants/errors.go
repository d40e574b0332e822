package constants

import "net/http"

// CodedError is an error that carries the HTTP status the API should answer
// with. The echo error handler unwraps to the first CodedError in the chain.
type CodedError struct {
	message string
	code    int
}

func NewCodedError(message string, code int) *CodedError {
	return &CodedError{message: message, code: code}
}

func (e *CodedError) Error() string {
	return e.message
}

func (e *CodedError) Code() int {
	return e.code
}

var (
	// Structural join errors. These abort the affected record and surface to
	// the caller; a silent mis-join is the defect this pipeline exists to
	// prevent.
	ErrInvalidKey        = NewCodedError("invalid join key", http.StatusUnprocessableEntity)
	ErrDuplicateUnitKey  = NewCodedError("duplicate unit key", http.StatusConflict)
	ErrAmbiguousJoin     = NewCodedError("ambiguous join", http.StatusConflict)
	ErrMissingPopulation = NewCodedError("missing or non-positive population", http.StatusUnprocessableEntity)
	ErrNegativeCases     = NewCodedError("negative case count", http.StatusUnprocessableEntity)

	// ErrStrictValidation is returned by strict pipeline runs after the full
	// violation report has been assembled.
	ErrStrictValidation = NewCodedError("dataset failed strict validation", http.StatusUnprocessableEntity)

	ErrContainment = NewCodedError("child geometry outside parent", http.StatusUnprocessableEntity)
	ErrOrphanLayer = NewCodedError("unresolved parent reference", http.StatusUnprocessableEntity)

	ErrDBNotFound        = NewCodedError("not found", http.StatusNotFound)
	ErrUnauthorized      = NewCodedError("unauthorized", http.StatusUnauthorized)
	ErrMissingAuthCookie = NewCodedError("missing auth cookie", http.StatusUnauthorized)
	ErrBadRequest        = NewCodedError("bad request", http.StatusBadRequest)
)
