// Package documents stores trade document hashes, verifies content
// integrity and derives the one-time document disclosure key.
package documents

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
)

// ContentStore resolves a document locator to its raw content. Content
// is immutable once stored.
type ContentStore interface {
	Read(ctx context.Context, locator string) ([]byte, error)
}

// Registry verifies document hashes against the content store and
// derives document keys.
type Registry struct {
	logger *slog.Logger
	store  ContentStore
}

func NewRegistry(logger *slog.Logger, store ContentStore) *Registry {
	return &Registry{logger: logger, store: store}
}

// HashContent computes the canonical content hash (hex-encoded SHA-256).
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the hash of the document's content and compares it
// with the recorded one. A mismatch yields ErrIntegrityMismatch and
// blocks key issuance for the trade until resolved.
func (r *Registry) Verify(ctx context.Context, doc entities.Document) error {
	content, err := r.store.Read(ctx, doc.Locator)
	if err != nil {
		return fmt.Errorf("read document content %q: %w", doc.Locator, err)
	}

	if actual := HashContent(content); actual != doc.ContentHash {
		r.logger.ErrorContext(ctx, "Document content hash mismatch",
			"locator", doc.Locator,
			"type", doc.Type,
			"recorded", doc.ContentHash,
			"actual", actual)
		return fmt.Errorf("%w: document %q", ports.ErrIntegrityMismatch, doc.Type)
	}

	return nil
}

// VerifyAll checks every document of a trade in upload order, stopping
// at the first mismatch.
func (r *Registry) VerifyAll(ctx context.Context, docs []entities.Document) error {
	for _, doc := range docs {
		if err := r.Verify(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// DeriveKey produces the document disclosure key: the SHA-256 digest of
// the concatenated content hashes in upload order, hex-encoded. The key
// is a pure function of the ordered hash list, so any change to the set
// or the order yields a different key.
func DeriveKey(docs []entities.Document) string {
	h := sha256.New()
	for _, doc := range docs {
		h.Write([]byte(doc.ContentHash))
	}
	return hex.EncodeToString(h.Sum(nil))
}
