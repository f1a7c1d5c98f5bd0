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
	"fmt"
	"strconv"
	"strings"
)

// Version is a dot-separated sequence of non-negative integer segments,
// such as "1", "1.0", "0.1.0" or "2024.3". Segments compare numerically
// and missing trailing segments compare as zero, so "1.0" equals "1.0.0".
type Version struct {
	raw      string
	segments []int
}

// ParseVersion parses a version string. Every dot-separated segment must be
// a non-negative integer.
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return Version{}, fmt.Errorf("%w: empty version", ErrInvalidVersion)
	}

	parts := strings.Split(s, ".")
	segments := make([]int, len(parts))
	for i, part := range parts {
		if part == "" || !allDigits(part) {
			return Version{}, fmt.Errorf("%w: %q segment %q is not a non-negative integer", ErrInvalidVersion, s, part)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q segment %q is out of range", ErrInvalidVersion, s, part)
		}
		segments[i] = n
	}

	return Version{raw: s, segments: segments}, nil
}

// MustVersion parses a version string and panics on error. Intended for
// literals in tests and fixtures.
func MustVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1 if v is lower than other, 0 if equal, 1 if higher.
// Segments are compared left to right; a missing segment counts as zero.
func (v Version) Compare(other Version) int {
	n := len(v.segments)
	if len(other.segments) > n {
		n = len(other.segments)
	}

	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(v.segments) {
			a = v.segments[i]
		}
		if i < len(other.segments) {
			b = other.segments[i]
		}
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}

	return 0
}

// Equal reports whether two versions compare equal. "1.0" equals "1.0.0".
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// IsZero reports whether v is the zero value (not a parsed version).
func (v Version) IsZero() bool {
	return v.segments == nil
}

// String returns the version as originally written.
func (v Version) String() string {
	return v.raw
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
