package domain

import "errors"

// User-correctable failures. The caller should try a different request.
var (
	// ErrInvalidInput signals an empty or malformed recommendation request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBookNotFound signals that no catalog title matches the query substring.
	ErrBookNotFound = errors.New("book not found")
	// ErrNoDiverseResults signals that the seed was resolved but filtering left nothing to recommend.
	ErrNoDiverseResults = errors.New("no diverse recommendations found")
)

// Collaborator faults. The service is degraded; retrying the same request will not help
// until the collaborator recovers.
var (
	// ErrIndexUnavailable signals an unreachable vector index or a missing collection.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrEncoderUnavailable signals an embedding encoder failure.
	ErrEncoderUnavailable = errors.New("embedding encoder unavailable")
	// ErrVectorDimMismatch signals a vector whose length differs from the configured dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)

// IsServiceFault reports whether err is a collaborator fault rather than a user error.
func IsServiceFault(err error) bool {
	return errors.Is(err, ErrIndexUnavailable) ||
		errors.Is(err, ErrEncoderUnavailable) ||
		errors.Is(err, ErrVectorDimMismatch)
}
