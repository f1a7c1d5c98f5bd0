package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/storage"
)

func TestPackInstallRoundTrip(t *testing.T) {
	docRepo, convRepo, packRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { packRepo.Close(); convRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	install := &core.PackInstall{
		Name:      "invoices-2025",
		Version:   "1.2.0",
		Documents: 200,
	}

	if err := packRepo.RecordInstall(ctx, install); err != nil {
		t.Fatalf("Failed to record install: %v", err)
	}

	retrieved, err := packRepo.GetInstall(ctx, "invoices-2025")
	if err != nil {
		t.Fatalf("Failed to get install: %v", err)
	}

	if retrieved.Version != "1.2.0" {
		t.Fatalf("Expected version 1.2.0, got %s", retrieved.Version)
	}
	if retrieved.Documents != 200 {
		t.Fatalf("Expected 200 documents, got %d", retrieved.Documents)
	}
	if retrieved.InstalledAt.IsZero() {
		t.Fatal("Expected InstalledAt to be set")
	}
}

func TestPackInstallReplace(t *testing.T) {
	docRepo, convRepo, packRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { packRepo.Close(); convRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	old := &core.PackInstall{
		Name:        "invoices-2025",
		Version:     "1.0.0",
		Documents:   100,
		InstalledAt: time.Now().UTC().Add(-24 * time.Hour),
	}
	if err := packRepo.RecordInstall(ctx, old); err != nil {
		t.Fatalf("Failed to record install: %v", err)
	}

	// Recording the same pack name replaces the record: one row per pack
	upgraded := &core.PackInstall{
		Name:      "invoices-2025",
		Version:   "1.2.0",
		Documents: 200,
	}
	if err := packRepo.RecordInstall(ctx, upgraded); err != nil {
		t.Fatalf("Failed to record upgrade: %v", err)
	}

	retrieved, err := packRepo.GetInstall(ctx, "invoices-2025")
	if err != nil {
		t.Fatalf("Failed to get install: %v", err)
	}
	if retrieved.Version != "1.2.0" {
		t.Fatalf("Expected upgraded version 1.2.0, got %s", retrieved.Version)
	}

	installs, err := packRepo.ListInstalls(ctx)
	if err != nil {
		t.Fatalf("Failed to list installs: %v", err)
	}
	if len(installs) != 1 {
		t.Fatalf("Expected 1 install record, got %d", len(installs))
	}
}

func TestPackInstallNotFound(t *testing.T) {
	docRepo, convRepo, packRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { packRepo.Close(); convRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	_, err = packRepo.GetInstall(ctx, "never-installed")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if err := packRepo.RemoveInstall(ctx, "never-installed"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on remove, got %v", err)
	}
}

func TestListInstallsOrdered(t *testing.T) {
	docRepo, convRepo, packRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { packRepo.Close(); convRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	names := []string{"retail-invoices", "demo-invoices", "archive-2024"}
	for _, name := range names {
		install := &core.PackInstall{Name: name, Version: "1.0.0", Documents: 10}
		if err := packRepo.RecordInstall(ctx, install); err != nil {
			t.Fatalf("Failed to record install %s: %v", name, err)
		}
	}

	installs, err := packRepo.ListInstalls(ctx)
	if err != nil {
		t.Fatalf("Failed to list installs: %v", err)
	}
	if len(installs) != 3 {
		t.Fatalf("Expected 3 installs, got %d", len(installs))
	}

	want := []string{"archive-2024", "demo-invoices", "retail-invoices"}
	for i, install := range installs {
		if install.Name != want[i] {
			t.Errorf("Expected %s at position %d, got %s", want[i], i, install.Name)
		}
	}
}

func TestRemoveInstall(t *testing.T) {
	docRepo, convRepo, packRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { packRepo.Close(); convRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	install := &core.PackInstall{Name: "demo-invoices", Version: "1.0.0", Documents: 10}
	if err := packRepo.RecordInstall(ctx, install); err != nil {
		t.Fatalf("Failed to record install: %v", err)
	}

	if err := packRepo.RemoveInstall(ctx, "demo-invoices"); err != nil {
		t.Fatalf("Failed to remove install: %v", err)
	}

	_, err = packRepo.GetInstall(ctx, "demo-invoices")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after removal, got %v", err)
	}
}
