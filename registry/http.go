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
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/invoicit/requirements"
)

// HTTPRegistry reads the directory registry layout over HTTP(S):
// GET {base}/{name}/index.json and GET {base}/{name}/{version}.json.
type HTTPRegistry struct {
	baseURL string
	client  *http.Client
}

var _ Registry = (*HTTPRegistry)(nil)

// NewHTTPRegistry creates a registry client for the given base URL.
func NewHTTPRegistry(baseURL string) *HTTPRegistry {
	return &HTTPRegistry{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Versions returns the published versions listed in the package's index,
// sorted ascending.
func (r *HTTPRegistry) Versions(ctx context.Context, name string) ([]requirements.Version, error) {
	dir, err := packageDir(name)
	if err != nil {
		return nil, err
	}

	data, err := r.get(ctx, dir+"/index.json", dir)
	if err != nil {
		return nil, err
	}
	return parseIndex(data, dir)
}

// Fetch retrieves one published pack document.
func (r *HTTPRegistry) Fetch(ctx context.Context, name string, version requirements.Version) (*Pack, error) {
	dir, err := packageDir(name)
	if err != nil {
		return nil, err
	}
	if version.IsZero() {
		return nil, fmt.Errorf("%w: %s (no version)", ErrUnknownPackage, dir)
	}

	data, err := r.get(ctx, dir+"/"+version.String()+".json", dir+"=="+version.String())
	if err != nil {
		return nil, err
	}

	pack := &Pack{}
	if err := json.Unmarshal(data, pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack %s==%s: %w", dir, version, err)
	}
	return pack, nil
}

// get performs one registry request. A 404 maps to ErrUnknownPackage with
// the given identity.
func (r *HTTPRegistry) get(ctx context.Context, path, identity string) ([]byte, error) {
	url := r.baseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, identity)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("registry returned status %d for %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response: %w", err)
	}
	return data, nil
}
