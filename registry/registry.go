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

	"github.com/poiesic/invoicit/requirements"
)

// Registry lists and serves versioned knowledge packs.
type Registry interface {
	// Versions returns every published version of the named package.
	// An unknown package returns ErrUnknownPackage.
	Versions(ctx context.Context, name string) ([]requirements.Version, error)

	// Fetch retrieves one published pack document.
	// An unknown package or version returns ErrUnknownPackage.
	Fetch(ctx context.Context, name string, version requirements.Version) (*Pack, error)
}

// packageIndex is the wire form of a package's index.json.
type packageIndex struct {
	Name     string   `json:"name"`
	Versions []string `json:"versions"`
}
