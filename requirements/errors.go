package requirements

import "errors"

// Manifest validation errors
var (
	// ErrInvalidName indicates a package name that does not match the
	// accepted character set.
	ErrInvalidName = errors.New("invalid package name")

	// ErrInvalidVersion indicates a version that is not dot-separated
	// non-negative integers.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrInvalidOperator indicates a missing or unrecognized comparison
	// operator.
	ErrInvalidOperator = errors.New("invalid operator")

	// ErrUnsupportedSyntax indicates pip syntax this format deliberately
	// rejects: extras, environment markers and URL specifiers.
	ErrUnsupportedSyntax = errors.New("unsupported specifier syntax")

	// ErrConflictingConstraints indicates duplicate specifiers for one
	// package that no version could ever satisfy together.
	ErrConflictingConstraints = errors.New("conflicting constraints")
)
