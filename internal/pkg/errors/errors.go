package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	// Pipeline error kinds. Only ErrGeneration and ErrAccessDenied are ever
	// surfaced to the caller as failed requests; every other failure degrades
	// into a lower-information response.
	ErrEmptyDocument = errors.New("no text extracted from document")
	ErrEmbedding     = errors.New("embedding service failed")
	ErrGeneration    = errors.New("generation failed")
	ErrAccessDenied  = errors.New("access denied")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsGeneration(err error) bool {
	return errors.Is(err, ErrGeneration)
}

func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
