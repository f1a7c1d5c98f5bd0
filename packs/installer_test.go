package packs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/invoicit/ai/mock"
	"github.com/poiesic/invoicit/core"
	"github.com/poiesic/invoicit/ingest"
	"github.com/poiesic/invoicit/registry"
	"github.com/poiesic/invoicit/requirements"
	"github.com/poiesic/invoicit/storage"
	"github.com/poiesic/invoicit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInstaller(t *testing.T, opts ...InstallerOption) (*Installer, *registry.DirectoryRegistry, storage.DocumentRepository, storage.PackRepository) {
	t.Helper()

	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	documentRepository, err := badger.NewDocumentRepository(backend)
	require.NoError(t, err)
	t.Cleanup(func() { documentRepository.Close() })

	packRepository, err := badger.NewPackRepository(backend)
	require.NoError(t, err)

	checkpoints := badger.NewCheckpointRepository(backend)

	pipeline, err := ingest.NewPipeline(documentRepository, checkpoints, mock.NewMockProvider())
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	directory := registry.NewDirectoryRegistry(t.TempDir())

	installer, err := NewInstaller(directory, pipeline, packRepository, documentRepository, opts...)
	require.NoError(t, err)

	return installer, directory, documentRepository, packRepository
}

// publishPack publishes a pack whose invoices are distinguished by product.
func publishPack(t *testing.T, directory *registry.DirectoryRegistry, name, version string, products ...string) *registry.Pack {
	t.Helper()

	pack := &registry.Pack{
		Name:        name,
		Version:     version,
		Description: "Test pack",
		Invoices:    make([]*core.Invoice, len(products)),
	}
	for i, product := range products {
		pack.Invoices[i] = &core.Invoice{
			InvoiceID:     fmt.Sprintf("INV-%s-%s-%d", name, version, i),
			Date:          time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC),
			CustomerName:  "Maria Santos",
			Address:       "12 Elm Street, Springfield",
			Product:       product,
			Quantity:      1,
			UnitPrice:     24.99,
			TotalAmount:   24.99,
			PaymentMethod: "Credit Card",
			Status:        "Paid",
		}
	}
	require.NoError(t, directory.Publish(pack))
	return pack
}

func TestNewInstaller(t *testing.T) {
	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	documentRepository, err := badger.NewDocumentRepository(backend)
	require.NoError(t, err)
	packRepository, err := badger.NewPackRepository(backend)
	require.NoError(t, err)

	pipeline, err := ingest.NewPipeline(documentRepository, badger.NewCheckpointRepository(backend), mock.NewMockProvider())
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	directory := registry.NewDirectoryRegistry(t.TempDir())

	t.Run("nil registry", func(t *testing.T) {
		_, err := NewInstaller(nil, pipeline, packRepository, documentRepository)
		assert.ErrorIs(t, err, ErrRegistryRequired)
	})

	t.Run("nil pipeline", func(t *testing.T) {
		_, err := NewInstaller(directory, nil, packRepository, documentRepository)
		assert.ErrorIs(t, err, ErrPipelineRequired)
	})

	t.Run("nil pack repository", func(t *testing.T) {
		_, err := NewInstaller(directory, pipeline, nil, documentRepository)
		assert.ErrorIs(t, err, ErrPackRepositoryRequired)
	})

	t.Run("nil document repository", func(t *testing.T) {
		_, err := NewInstaller(directory, pipeline, packRepository, nil)
		assert.ErrorIs(t, err, ingest.ErrDocumentRepositoryRequired)
	})
}

func TestInstaller_Install(t *testing.T) {
	installer, directory, documentRepository, packRepository := newTestInstaller(t)
	ctx := context.Background()

	publishPack(t, directory, "demo-invoices", "1.0.0", "Wireless Mouse", "USB Cable")
	publishPack(t, directory, "demo-invoices", "1.1.0", "Wireless Mouse", "USB Cable", "Laptop Stand")

	result, err := installer.Install(ctx, parseManifest(t, "demo-invoices>=1.0.0\n"))
	require.NoError(t, err)

	require.Len(t, result.Installed, 1)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, "demo-invoices", result.Installed[0].Name)
	assert.Equal(t, "1.1.0", result.Installed[0].Version, "highest satisfying version wins")
	assert.Equal(t, 3, result.Installed[0].Documents)

	count, err := documentRepository.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	install, err := packRepository.GetInstall(ctx, "demo-invoices")
	require.NoError(t, err)
	assert.Equal(t, "demo-invoices==1.1.0", install.Pin())
	assert.False(t, install.InstalledAt.IsZero())
}

func TestInstaller_Install_TagsDocumentsWithPack(t *testing.T) {
	installer, directory, documentRepository, _ := newTestInstaller(t)
	ctx := context.Background()

	pack := publishPack(t, directory, "demo-invoices", "1.0.0", "Wireless Mouse")
	_, err := installer.Install(ctx, parseManifest(t, "demo-invoices>=1.0.0\n"))
	require.NoError(t, err)

	document, err := documentRepository.GetDocument(ctx, pack.Invoices[0].Document().Id)
	require.NoError(t, err)
	assert.Equal(t, "demo-invoices", document.Metadata["pack"])
	assert.Equal(t, "1.0.0", document.Metadata["pack_version"])
	assert.Equal(t, "Wireless Mouse", document.Metadata["product"], "invoice fields kept alongside pack tags")
}

func TestInstaller_Install_Idempotent(t *testing.T) {
	installer, directory, documentRepository, _ := newTestInstaller(t)
	ctx := context.Background()

	publishPack(t, directory, "demo-invoices", "1.0.0", "Wireless Mouse", "USB Cable")
	manifest := "demo-invoices>=1.0.0\n"

	first, err := installer.Install(ctx, parseManifest(t, manifest))
	require.NoError(t, err)
	require.Len(t, first.Installed, 1)

	second, err := installer.Install(ctx, parseManifest(t, manifest))
	require.NoError(t, err)
	assert.Empty(t, second.Installed)
	require.Len(t, second.Skipped, 1)
	assert.Equal(t, "demo-invoices==1.0.0", second.Skipped[0].Pin())

	count, err := documentRepository.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "re-install must not duplicate documents")
}

func TestInstaller_Install_Upgrade(t *testing.T) {
	installer, directory, documentRepository, packRepository := newTestInstaller(t)
	ctx := context.Background()

	old := publishPack(t, directory, "demo-invoices", "1.0.0", "Wireless Mouse", "USB Cable")
	_, err := installer.Install(ctx, parseManifest(t, "demo-invoices>=1.0.0\n"))
	require.NoError(t, err)

	// A newer version replaces one invoice and adds another
	newer := publishPack(t, directory, "demo-invoices", "1.1.0", "USB Cable", "Laptop Stand", "Desk Lamp")
	result, err := installer.Install(ctx, parseManifest(t, "demo-invoices>=1.0.0\n"))
	require.NoError(t, err)
	require.Len(t, result.Installed, 1)
	assert.Equal(t, "1.1.0", result.Installed[0].Version)

	install, err := packRepository.GetInstall(ctx, "demo-invoices")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", install.Version)

	count, err := documentRepository.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "old version's documents are replaced, not accumulated")

	// The dropped invoice is gone; the added one is present
	_, err = documentRepository.GetDocument(ctx, old.Invoices[0].Document().Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = documentRepository.GetDocument(ctx, newer.Invoices[2].Document().Id)
	assert.NoError(t, err)
}

func TestInstaller_Install_Lockfile(t *testing.T) {
	lockfilePath := filepath.Join(t.TempDir(), "packs.lock")
	installer, directory, _, packRepository := newTestInstaller(t, WithLockfile(lockfilePath))
	ctx := context.Background()

	publishPack(t, directory, "demo-invoices", "1.1.0", "Wireless Mouse")
	manifest := "demo-invoices>=1.0.0\n"

	_, err := installer.Install(ctx, parseManifest(t, manifest))
	require.NoError(t, err)

	locked, err := os.ReadFile(lockfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(locked), "demo-invoices==1.1.0")

	// A newer version appears, but the lockfile still satisfies the
	// manifest, so the pinned version is kept
	publishPack(t, directory, "demo-invoices", "1.2.0", "Wireless Mouse", "USB Cable")
	result, err := installer.Install(ctx, parseManifest(t, manifest))
	require.NoError(t, err)
	assert.Empty(t, result.Installed)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "1.1.0", result.Skipped[0].Version)

	// Tightening the manifest invalidates the lockfile and re-resolves
	result, err = installer.Install(ctx, parseManifest(t, "demo-invoices>=1.2.0\n"))
	require.NoError(t, err)
	require.Len(t, result.Installed, 1)
	assert.Equal(t, "1.2.0", result.Installed[0].Version)

	locked, err = os.ReadFile(lockfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(locked), "demo-invoices==1.2.0", "lockfile is rewritten after re-resolving")

	install, err := packRepository.GetInstall(ctx, "demo-invoices")
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", install.Version)
}

func TestInstaller_Install_ConflictInstallsNothing(t *testing.T) {
	installer, directory, documentRepository, packRepository := newTestInstaller(t)
	ctx := context.Background()

	publishPack(t, directory, "demo-invoices", "1.0.0", "Wireless Mouse")

	_, err := installer.Install(ctx, parseManifest(t, "demo-invoices>=9.0.0\n"))
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)

	count, err := documentRepository.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = packRepository.GetInstall(ctx, "demo-invoices")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInstaller_Install_RejectsConflictingManifest(t *testing.T) {
	installer, _, _, _ := newTestInstaller(t)

	_, err := installer.Install(context.Background(), parseManifest(t, "demo-invoices==1.0.0\ndemo-invoices==2.0.0\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, requirements.ErrConflictingConstraints)
}

func TestInstaller_Verify(t *testing.T) {
	installer, directory, _, _ := newTestInstaller(t)
	ctx := context.Background()

	publishPack(t, directory, "demo-invoices", "1.0.0", "Wireless Mouse")

	assert.NoError(t, installer.Verify(ctx, parseManifest(t, "demo-invoices>=1.0.0\n")))

	err := installer.Verify(ctx, parseManifest(t, "ghost-pack>=1.0.0\n"))
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.True(t, conflictErr.Conflicts[0].Unknown)

	err = installer.Verify(ctx, parseManifest(t, "demo-invoices>=2.0.0\n"))
	require.ErrorAs(t, err, &conflictErr)
	assert.False(t, conflictErr.Conflicts[0].Unknown)
}

func TestInstaller_List(t *testing.T) {
	installer, directory, _, _ := newTestInstaller(t)
	ctx := context.Background()

	publishPack(t, directory, "zeta-invoices", "1.0.0", "Desk Lamp")
	publishPack(t, directory, "acme-orders", "2.0.0", "Wireless Mouse")

	_, err := installer.Install(ctx, parseManifest(t, "zeta-invoices>=1.0\nacme-orders>=2.0\n"))
	require.NoError(t, err)

	installs, err := installer.List(ctx)
	require.NoError(t, err)
	require.Len(t, installs, 2)
	assert.Equal(t, "acme-orders", installs[0].Name, "listed by name")
	assert.Equal(t, "zeta-invoices", installs[1].Name)
}

func TestInstaller_Remove(t *testing.T) {
	installer, directory, documentRepository, packRepository := newTestInstaller(t)
	ctx := context.Background()

	publishPack(t, directory, "demo-invoices", "1.0.0", "Wireless Mouse", "USB Cable")
	publishPack(t, directory, "acme-orders", "2.0.0", "Desk Lamp")

	_, err := installer.Install(ctx, parseManifest(t, "demo-invoices>=1.0\nacme-orders>=2.0\n"))
	require.NoError(t, err)

	removed, err := installer.Remove(ctx, "Demo_Invoices")
	require.NoError(t, err)
	assert.Equal(t, "demo-invoices==1.0.0", removed.Pin())

	_, err = packRepository.GetInstall(ctx, "demo-invoices")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Only the removed pack's documents are gone
	count, err := documentRepository.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = installer.Remove(ctx, "demo-invoices")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
