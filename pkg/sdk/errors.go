package sdk

import "github.com/kailas-cloud/bookrec/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput       = domain.ErrInvalidInput
	ErrBookNotFound       = domain.ErrBookNotFound
	ErrNoDiverseResults   = domain.ErrNoDiverseResults
	ErrIndexUnavailable   = domain.ErrIndexUnavailable
	ErrEncoderUnavailable = domain.ErrEncoderUnavailable
	ErrVectorDimMismatch  = domain.ErrVectorDimMismatch
)
