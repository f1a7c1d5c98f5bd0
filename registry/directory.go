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


package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/poiesic/invoicit/requirements"
)

// DirectoryRegistry is a registry rooted at a local directory:
//
//	<root>/<name>/index.json     {"name": ..., "versions": [...]}
//	<root>/<name>/<version>.json  the pack document
//
// Packages live under their normalized names. The same layout served by any
// static file server is a valid HTTP registry.
type DirectoryRegistry struct {
	root string
}

var _ Registry = (*DirectoryRegistry)(nil)

// NewDirectoryRegistry creates a registry over an existing directory tree.
func NewDirectoryRegistry(root string) *DirectoryRegistry {
	return &DirectoryRegistry{root: root}
}

// Versions returns the published versions listed in the package's index,
// sorted ascending.
func (r *DirectoryRegistry) Versions(ctx context.Context, name string) ([]requirements.Version, error) {
	dir, err := packageDir(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(r.root, dir, "index.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, dir)
		}
		return nil, fmt.Errorf("failed to read index for %s: %w", dir, err)
	}

	return parseIndex(data, dir)
}

// Fetch reads one published pack document.
func (r *DirectoryRegistry) Fetch(ctx context.Context, name string, version requirements.Version) (*Pack, error) {
	dir, err := packageDir(name)
	if err != nil {
		return nil, err
	}
	if version.IsZero() {
		return nil, fmt.Errorf("%w: %s (no version)", ErrUnknownPackage, dir)
	}

	data, err := os.ReadFile(filepath.Join(r.root, dir, version.String()+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s==%s", ErrUnknownPackage, dir, version)
		}
		return nil, fmt.Errorf("failed to read pack %s==%s: %w", dir, version, err)
	}

	pack := &Pack{}
	if err := json.Unmarshal(data, pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack %s==%s: %w", dir, version, err)
	}
	return pack, nil
}

// Publish writes a pack document into the registry tree and adds its
// version to the package index. Republishing a version overwrites it.
func (r *DirectoryRegistry) Publish(pack *Pack) error {
	dir, err := packageDir(pack.Name)
	if err != nil {
		return err
	}
	version, err := requirements.ParseVersion(pack.Version)
	if err != nil {
		return err
	}

	packageRoot := filepath.Join(r.root, dir)
	if err := os.MkdirAll(packageRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create package directory: %w", err)
	}

	data, err := json.MarshalIndent(pack, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(packageRoot, version.String()+".json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write pack document: %w", err)
	}

	// Merge the version into the index
	index := packageIndex{Name: dir}
	existing, err := os.ReadFile(filepath.Join(packageRoot, "index.json"))
	if err == nil {
		if err := json.Unmarshal(existing, &index); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidIndex, dir, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read index for %s: %w", dir, err)
	}

	if !slices.Contains(index.Versions, version.String()) {
		index.Versions = append(index.Versions, version.String())
		parsed := make(map[string]requirements.Version, len(index.Versions))
		for _, s := range index.Versions {
			v, err := requirements.ParseVersion(s)
			if err != nil {
				return fmt.Errorf("%w: %s lists version %q: %v", ErrInvalidIndex, dir, s, err)
			}
			parsed[s] = v
		}
		slices.SortFunc(index.Versions, func(a, b string) int {
			return parsed[a].Compare(parsed[b])
		})
	}

	data, err = json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(packageRoot, "index.json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write index for %s: %w", dir, err)
	}
	return nil
}

// packageDir maps a package name to its directory in the registry layout.
// The normalized name keeps lookups to a safe character set.
func packageDir(name string) (string, error) {
	normalized := requirements.NormalizeName(name)
	if normalized == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownPackage)
	}
	for i, r := range normalized {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum && !(r == '-' && i > 0) {
			return "", fmt.Errorf("%w: %q", ErrUnknownPackage, name)
		}
	}
	return normalized, nil
}

// parseIndex decodes an index document and parses its version list.
func parseIndex(data []byte, dir string) ([]requirements.Version, error) {
	var index packageIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidIndex, dir, err)
	}
	if index.Name != "" && requirements.NormalizeName(index.Name) != dir {
		return nil, fmt.Errorf("%w: index names %q, expected %q", ErrInvalidIndex, index.Name, dir)
	}

	versions := make([]requirements.Version, 0, len(index.Versions))
	for _, s := range index.Versions {
		v, err := requirements.ParseVersion(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s lists version %q: %v", ErrInvalidIndex, dir, s, err)
		}
		versions = append(versions, v)
	}
	slices.SortFunc(versions, requirements.Version.Compare)
	return versions, nil
}
