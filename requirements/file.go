// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package requirements

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// File is a parsed dependency manifest. Specifiers keep declaration order.
type File struct {
	Specifiers []*Specifier
}

// Parse reads a manifest: one specifier per line, "#" comments, blank lines
// ignored. Inline trailing comments are stripped. Errors name the offending
// line; all bad lines are reported, not just the first.
func Parse(r io.Reader) (*File, error) {
	file := &File{}
	var errs []error

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()

		// Strip comments, whole-line and trailing
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		specifier, err := parseSpecifier(line, lineNumber)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", lineNumber, err))
			continue
		}
		file.Specifiers = append(file.Specifiers, specifier)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return file, nil
}

// Validate re-checks every specifier and flags duplicate declarations whose
// merged constraints no version could satisfy. Duplicates that agree, such
// as ">=1.0" with "!=1.2", merge cleanly and are not errors.
func (f *File) Validate() error {
	var errs []error

	for _, s := range f.Specifiers {
		if err := validateName(s.Name); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", s.Line, err))
		}
		if _, ok := recognizeOperator(string(s.Operator)); !ok {
			errs = append(errs, fmt.Errorf("line %d: %w: %q", s.Line, ErrInvalidOperator, s.Operator))
		}
		if s.Version.IsZero() {
			errs = append(errs, fmt.Errorf("line %d: %w: missing version", s.Line, ErrInvalidVersion))
		}
	}

	constraints := f.Constraints()
	for _, name := range f.Names() {
		if cs := constraints[name]; !cs.Satisfiable() {
			errs = append(errs, fmt.Errorf("%w: %s (%s)", ErrConflictingConstraints, name, cs))
		}
	}

	return errors.Join(errs...)
}

// Constraints returns the merged constraint sets keyed by normalized
// package name. Constraints keep declaration order within each set.
func (f *File) Constraints() map[string]ConstraintSet {
	merged := make(map[string]ConstraintSet)
	for _, s := range f.Specifiers {
		merged[s.Normalized] = append(merged[s.Normalized], Constraint{
			Operator: s.Operator,
			Version:  s.Version,
		})
	}
	return merged
}

// Names returns the sorted, deduplicated normalized package names.
func (f *File) Names() []string {
	seen := make(map[string]bool, len(f.Specifiers))
	names := make([]string, 0, len(f.Specifiers))
	for _, s := range f.Specifiers {
		if seen[s.Normalized] {
			continue
		}
		seen[s.Normalized] = true
		names = append(names, s.Normalized)
	}
	sort.Strings(names)
	return names
}

// Encode writes the manifest back out in canonical form, one specifier per
// line in declaration order. Comments are not round-tripped.
func (f *File) Encode(w io.Writer) error {
	for _, s := range f.Specifiers {
		if _, err := fmt.Fprintln(w, s.String()); err != nil {
			return err
		}
	}
	return nil
}
