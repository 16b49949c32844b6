package errs

import "errors"

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrJobAlreadyExists  = errors.New("job already exists")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrThumbnailNotReady = errors.New("thumbnail not ready")
	ErrArtifactMissing   = errors.New("artifact missing")
)
