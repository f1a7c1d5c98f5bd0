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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/ingest"
	"github.com/poiesic/invoicit/registry"
	"github.com/poiesic/invoicit/requirements"
	"github.com/poiesic/invoicit/storage"
)

// Document timestamps before 1970 or after 2100 do not occur in invoice
// data; these bound full-range scans.
var (
	scanEpoch   = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	scanHorizon = time.Date(2100, 12, 31, 23, 59, 59, 0, time.UTC)
)

// Installer populates the knowledge base from versioned invoice packs.
type Installer struct {
	registry           registry.Registry
	pipeline           *ingest.Pipeline
	packRepository     storage.PackRepository
	documentRepository storage.DocumentRepository
	lockfilePath       string
	logger             *slog.Logger
}

// InstallerOption configures an Installer.
type InstallerOption func(*Installer)

// WithLockfile sets the lockfile path. When set, Install reuses a lockfile
// that still satisfies the manifest and rewrites it after re-resolving.
func WithLockfile(path string) InstallerOption {
	return func(i *Installer) {
		i.lockfilePath = path
	}
}

// WithLogger sets the logger for installer operations.
func WithLogger(logger *slog.Logger) InstallerOption {
	return func(i *Installer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInstaller creates a pack installer.
func NewInstaller(
	reg registry.Registry,
	pipeline *ingest.Pipeline,
	packRepository storage.PackRepository,
	documentRepository storage.DocumentRepository,
	opts ...InstallerOption,
) (*Installer, error) {
	if reg == nil {
		return nil, ErrRegistryRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if packRepository == nil {
		return nil, ErrPackRepositoryRequired
	}
	if documentRepository == nil {
		return nil, ingest.ErrDocumentRepositoryRequired
	}

	installer := &Installer{
		registry:           reg,
		pipeline:           pipeline,
		packRepository:     packRepository,
		documentRepository: documentRepository,
		logger:             slog.Default().With("component", "packs"),
	}
	for _, opt := range opts {
		opt(installer)
	}
	return installer, nil
}

// InstallResult summarizes one install run.
type InstallResult struct {
	// Resolution holds the pins the run installed against.
	Resolution *Resolution

	// Installed lists packs ingested by this run.
	Installed []*core.PackInstall

	// Skipped lists packs already present at their resolved version.
	Skipped []*core.PackInstall
}

// Install resolves the manifest, fetches each resolved pack, ingests its
// invoices and records the installation. A pack already installed at its
// resolved version is skipped, so repeated installs of an unchanged
// manifest are no-ops.
func (i *Installer) Install(ctx context.Context, file *requirements.File) (*InstallResult, error) {
	if err := file.Validate(); err != nil {
		return nil, err
	}

	resolution, err := i.resolve(ctx, file)
	if err != nil {
		return nil, err
	}

	result := &InstallResult{Resolution: resolution}
	for _, pin := range resolution.Pins {
		existing, err := i.packRepository.GetInstall(ctx, pin.Name)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to check install state of %s: %w", pin.Name, err)
		}

		if existing != nil && existing.Version == pin.Version.String() {
			i.logger.Info("pack already installed", "pack", pin.String())
			result.Skipped = append(result.Skipped, existing)
			continue
		}

		install, err := i.installPack(ctx, pin, existing)
		if err != nil {
			return nil, err
		}
		result.Installed = append(result.Installed, install)
	}

	return result, nil
}

// installPack fetches and ingests one resolved pack. When upgrading, the
// previous version's documents are deleted first so the knowledge base
// only carries one version of a pack.
func (i *Installer) installPack(ctx context.Context, pin Pin, previous *core.PackInstall) (*core.PackInstall, error) {
	pack, err := i.registry.Fetch(ctx, pin.Name, pin.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pin.String(), err)
	}
	if err := checkServedPack(pack, pin); err != nil {
		return nil, err
	}

	if previous != nil {
		deleted, err := i.deletePackDocuments(ctx, pin.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to remove %s==%s documents: %w", previous.Name, previous.Version, err)
		}
		i.logger.Info("replaced previous pack version",
			"pack", pin.Name, "previous", previous.Version, "deleted", deleted)
	}

	documents, err := i.pipeline.IngestInvoices(ctx, pack.Invoices, &ingest.IngestOptions{
		Metadata: map[string]string{
			"pack":         pin.Name,
			"pack_version": pin.Version.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ingest %s: %w", pin.String(), err)
	}

	install := &core.PackInstall{
		Name:        pin.Name,
		Version:     pin.Version.String(),
		Documents:   len(documents),
		InstalledAt: time.Now().UTC(),
	}
	if err := i.packRepository.RecordInstall(ctx, install); err != nil {
		return nil, fmt.Errorf("failed to record install of %s: %w", pin.String(), err)
	}

	i.logger.Info("installed pack", "pack", pin.String(), "documents", install.Documents)
	return install, nil
}

// Verify checks that the manifest is resolvable: it validates cleanly and
// every declared pack has a registry version satisfying its constraints.
func (i *Installer) Verify(ctx context.Context, file *requirements.File) error {
	if err := file.Validate(); err != nil {
		return err
	}
	_, err := Resolve(ctx, file, i.registry)
	return err
}

// List returns all recorded pack installations, ordered by name.
func (i *Installer) List(ctx context.Context) ([]*core.PackInstall, error) {
	return i.packRepository.ListInstalls(ctx)
}

// Remove uninstalls a pack: its documents are deleted from the knowledge
// base and its install record is removed. Returns the removed record.
func (i *Installer) Remove(ctx context.Context, name string) (*core.PackInstall, error) {
	normalized := requirements.NormalizeName(name)

	install, err := i.packRepository.GetInstall(ctx, normalized)
	if err != nil {
		return nil, err
	}

	deleted, err := i.deletePackDocuments(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to remove %s documents: %w", normalized, err)
	}

	if err := i.packRepository.RemoveInstall(ctx, normalized); err != nil {
		return nil, err
	}

	i.logger.Info("removed pack", "pack", install.Pin(), "documents", deleted)
	return install, nil
}

// resolve produces the pins to install, reusing a still-valid lockfile and
// rewriting it after any fresh resolution.
func (i *Installer) resolve(ctx context.Context, file *requirements.File) (*Resolution, error) {
	if i.lockfilePath != "" {
		locked, err := i.readLockfile()
		if err != nil {
			i.logger.Warn("ignoring unreadable lockfile", "path", i.lockfilePath, "error", err)
		} else if locked != nil {
			if locked.Satisfies(file) {
				i.logger.Info("using lockfile", "path", i.lockfilePath, "packs", len(locked.Pins))
				return locked, nil
			}
			i.logger.Info("lockfile no longer satisfies manifest, re-resolving", "path", i.lockfilePath)
		}
	}

	resolution, err := Resolve(ctx, file, i.registry)
	if err != nil {
		return nil, err
	}

	if i.lockfilePath != "" {
		if err := i.writeLockfile(resolution); err != nil {
			return nil, err
		}
	}
	return resolution, nil
}

// readLockfile returns nil with no error when the lockfile does not exist.
func (i *Installer) readLockfile() (*Resolution, error) {
	data, err := os.ReadFile(i.lockfilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return ReadLockfile(bytes.NewReader(data))
}

func (i *Installer) writeLockfile(resolution *Resolution) error {
	var buf bytes.Buffer
	if err := resolution.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(i.lockfilePath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	return nil
}

// deletePackDocuments removes every document carrying the pack's metadata
// marker and returns how many were deleted.
func (i *Installer) deletePackDocuments(ctx context.Context, name string) (int, error) {
	documents, err := i.documentRepository.GetDocumentsByDateRange(ctx, scanEpoch, scanHorizon)
	if err != nil {
		return 0, err
	}

	var ids []core.ID
	for _, document := range documents {
		if document.Metadata["pack"] == name {
			ids = append(ids, document.Id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := i.documentRepository.DeleteDocuments(ctx, ids...); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// checkServedPack guards against a registry serving a document that does
// not match the requested identity.
func checkServedPack(pack *registry.Pack, pin Pin) error {
	if requirements.NormalizeName(pack.Name) != pin.Name {
		return fmt.Errorf("registry served pack %q for %s", pack.Name, pin.String())
	}
	version, err := requirements.ParseVersion(pack.Version)
	if err != nil || !version.Equal(pin.Version) {
		return fmt.Errorf("registry served version %q for %s", pack.Version, pin.String())
	}
	return nil
}
