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


package packs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/invoicit/registry"
	"github.com/poiesic/invoicit/requirements"
)

// Pin is one resolved package: a normalized name locked to an exact version.
type Pin struct {
	Name    string
	Version requirements.Version
}

// String renders the pin in lockfile form, "name==version".
func (p Pin) String() string {
	return p.Name + "==" + p.Version.String()
}

// Resolution is the outcome of resolving a manifest against a registry:
// one pin per declared package, sorted by name.
type Resolution struct {
	Pins []Pin
}

// Find returns the pinned version for a normalized package name.
func (r *Resolution) Find(name string) (requirements.Version, bool) {
	for _, pin := range r.Pins {
		if pin.Name == name {
			return pin.Version, true
		}
	}
	return requirements.Version{}, false
}

// Satisfies reports whether this resolution still answers the manifest: it
// pins exactly the declared names and every pin passes its merged
// constraints. A manifest edit that adds, removes or re-bounds a package
// invalidates the resolution.
func (r *Resolution) Satisfies(file *requirements.File) bool {
	names := file.Names()
	if len(names) != len(r.Pins) {
		return false
	}

	constraints := file.Constraints()
	for _, name := range names {
		version, ok := r.Find(name)
		if !ok || !constraints[name].Match(version) {
			return false
		}
	}
	return true
}

// Conflict describes one package that could not be resolved.
type Conflict struct {
	// Name is the normalized package name.
	Name string

	// Constraints is the merged constraint set from the manifest.
	Constraints requirements.ConstraintSet

	// Available lists the versions the registry offered.
	Available []requirements.Version

	// Unknown is set when the registry has no such package at all.
	Unknown bool
}

func (c Conflict) String() string {
	if c.Unknown {
		return fmt.Sprintf("%s: not in registry (wanted %s)", c.Name, c.Constraints)
	}
	available := make([]string, len(c.Available))
	for i, v := range c.Available {
		available[i] = v.String()
	}
	if len(available) == 0 {
		return fmt.Sprintf("%s: no published versions (wanted %s)", c.Name, c.Constraints)
	}
	return fmt.Sprintf("%s: no version satisfies %s (available: %s)",
		c.Name, c.Constraints, strings.Join(available, ", "))
}

// ConflictError reports every package that failed to resolve, not just the
// first, so one run surfaces all manifest problems.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = c.String()
	}
	return "unresolvable packs: " + strings.Join(parts, "; ")
}

// Resolve selects, for every package the manifest declares, the highest
// registry version satisfying its merged constraints. Resolution is
// deterministic: the same manifest against the same published versions
// always yields the same pins.
func Resolve(ctx context.Context, file *requirements.File, reg registry.Registry) (*Resolution, error) {
	constraints := file.Constraints()
	resolution := &Resolution{}
	var conflicts []Conflict

	for _, name := range file.Names() {
		cs := constraints[name]

		available, err := reg.Versions(ctx, name)
		if err != nil {
			if errors.Is(err, registry.ErrUnknownPackage) {
				conflicts = append(conflicts, Conflict{Name: name, Constraints: cs, Unknown: true})
				continue
			}
			return nil, fmt.Errorf("failed to list versions of %s: %w", name, err)
		}

		slices.SortFunc(available, requirements.Version.Compare)

		selected, ok := highestMatch(available, cs)
		if !ok {
			conflicts = append(conflicts, Conflict{Name: name, Constraints: cs, Available: available})
			continue
		}
		resolution.Pins = append(resolution.Pins, Pin{Name: name, Version: selected})
	}

	if len(conflicts) > 0 {
		return nil, &ConflictError{Conflicts: conflicts}
	}
	return resolution, nil
}

// highestMatch scans an ascending version list from the top for the first
// version the constraint set accepts.
func highestMatch(versions []requirements.Version, cs requirements.ConstraintSet) (requirements.Version, bool) {
	for i := len(versions) - 1; i >= 0; i-- {
		if cs.Match(versions[i]) {
			return versions[i], true
		}
	}
	return requirements.Version{}, false
}
