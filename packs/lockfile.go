package packs

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/poiesic/invoicit/requirements"
)

const lockfileHeader = "# Pinned pack versions. Generated by invoicit; do not edit by hand."

// Encode writes the resolution as a pip-freeze style lockfile: a header
// comment followed by one "name==version" line per pin, sorted by name.
// The manifest parser reads the same format back.
func (r *Resolution) Encode(w io.Writer) error {
	if _, err := fmt.Fprintln(w, lockfileHeader); err != nil {
		return err
	}
	for _, pin := range r.Pins {
		if _, err := fmt.Fprintln(w, pin.String()); err != nil {
			return err
		}
	}
	return nil
}

// ReadLockfile parses a lockfile back into a resolution. Every line must be
// an exact "==" pin; a lockfile with ranges has been edited by hand and is
// rejected.
func ReadLockfile(rd io.Reader) (*Resolution, error) {
	file, err := requirements.Parse(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to parse lockfile: %w", err)
	}

	resolution := &Resolution{Pins: make([]Pin, 0, len(file.Specifiers))}
	for _, s := range file.Specifiers {
		if s.Operator != requirements.OpEqual {
			return nil, fmt.Errorf("%w: line %d pins %s with %q, expected \"==\"",
				ErrInvalidLockfile, s.Line, s.Normalized, s.Operator)
		}
		resolution.Pins = append(resolution.Pins, Pin{Name: s.Normalized, Version: s.Version})
	}

	slices.SortFunc(resolution.Pins, func(a, b Pin) int {
		return strings.Compare(a.Name, b.Name)
	})
	return resolution, nil
}
