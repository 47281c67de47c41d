package entities

import "time"

// SubmissionStatus is the ledger-side state of a submitted transaction.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionConfirmed SubmissionStatus = "confirmed"
	SubmissionReverted  SubmissionStatus = "reverted"
)

// ConfirmationEvent is emitted by the escrow client once a submission is
// confirmed or reverted on the ledger, keyed by the external reference
// returned at submission time.
type ConfirmationEvent struct {
	ExternalRef string           `json:"external_ref"`
	Status      SubmissionStatus `json:"status"`
	Reason      string           `json:"reason,omitempty"`
	BlockNumber uint64           `json:"block_number,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// SubmissionState is the answer to a ledger state query for a reference.
type SubmissionState struct {
	Status        SubmissionStatus `json:"status"`
	Details       string           `json:"details,omitempty"`
	Confirmations uint64           `json:"confirmations"`
}
