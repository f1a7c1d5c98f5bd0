package packs

import "errors"

// Pack installation errors
var (
	// ErrRegistryRequired indicates a nil registry was passed to the
	// installer.
	ErrRegistryRequired = errors.New("registry is required")

	// ErrPipelineRequired indicates a nil ingestion pipeline was passed
	// to the installer.
	ErrPipelineRequired = errors.New("ingestion pipeline is required")

	// ErrPackRepositoryRequired indicates a nil pack repository was
	// passed to the installer.
	ErrPackRepositoryRequired = errors.New("pack repository is required")

	// ErrInvalidLockfile indicates a lockfile containing anything other
	// than exact "==" pins.
	ErrInvalidLockfile = errors.New("invalid lockfile")
)
