package registry

import "errors"

// Registry lookup errors
var (
	// ErrUnknownPackage indicates the registry has no package or version
	// under the requested name.
	ErrUnknownPackage = errors.New("unknown package")

	// ErrInvalidIndex indicates a package index document that could not
	// be parsed or does not describe the requested package.
	ErrInvalidIndex = errors.New("invalid package index")
)
