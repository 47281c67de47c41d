package documents

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
)

func writeContent(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o600))
	return name
}

func TestVerifyMatchesStoredContent(t *testing.T) {
	dir := t.TempDir()
	content := []byte("bill of lading, cargo manifest attached")
	locator := writeContent(t, dir, "bol.pdf", content)

	registry := NewRegistry(slog.Default(), NewFileStore(dir))

	doc := entities.Document{Type: "bill_of_lading", ContentHash: HashContent(content), Locator: locator}
	require.NoError(t, registry.Verify(context.Background(), doc))
}

func TestVerifyIntegrityMismatch(t *testing.T) {
	dir := t.TempDir()
	locator := writeContent(t, dir, "certificate.pdf", []byte("original content"))

	registry := NewRegistry(slog.Default(), NewFileStore(dir))

	doc := entities.Document{
		Type:        "inspection_certificate",
		ContentHash: HashContent([]byte("tampered content")),
		Locator:     locator,
	}
	err := registry.Verify(context.Background(), doc)
	require.Error(t, err)
	require.True(t, errors.Is(err, ports.ErrIntegrityMismatch))
}

func TestFileStoreRejectsEscapingLocator(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Read(context.Background(), "../etc/passwd")
	require.Error(t, err)

	_, err = store.Read(context.Background(), "/etc/passwd")
	require.Error(t, err)
}

func TestDeriveKeyDependsOnOrder(t *testing.T) {
	first := entities.Document{ContentHash: HashContent([]byte("doc one"))}
	second := entities.Document{ContentHash: HashContent([]byte("doc two"))}

	key := DeriveKey([]entities.Document{first, second})
	require.Len(t, key, 64)

	// Same ordered hashes, same key.
	require.Equal(t, key, DeriveKey([]entities.Document{first, second}))

	// Reordering or changing the set changes the key.
	require.NotEqual(t, key, DeriveKey([]entities.Document{second, first}))
	require.NotEqual(t, key, DeriveKey([]entities.Document{first}))
	require.NotEqual(t, key, DeriveKey([]entities.Document{
		first,
		{ContentHash: HashContent([]byte("doc three"))},
	}))
}
