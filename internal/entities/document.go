package entities

import "time"

// DocumentAcceptance is the per-document review state, tracked
// independently of key issuance.
type DocumentAcceptance string

const (
	DocumentPending  DocumentAcceptance = "pending"
	DocumentAccepted DocumentAcceptance = "accepted"
	DocumentRejected DocumentAcceptance = "rejected"
)

// Document is one entry of a trade's append-only document list. Position
// is the upload order; it feeds document key derivation and is never
// reordered.
type Document struct {
	Position    int                `json:"position"`
	Type        string             `json:"type"`
	ContentHash string             `json:"content_hash"`
	Locator     string             `json:"locator"`
	Uploader    string             `json:"uploader"`
	UploadedAt  time.Time          `json:"uploaded_at"`
	Acceptance  DocumentAcceptance `json:"acceptance"`
	Required    bool               `json:"required"`
}
