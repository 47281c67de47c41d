package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentKind identifies one of the three sequential tranches of a trade.
type PaymentKind string

const (
	PaymentDeposit PaymentKind = "deposit"
	PaymentAdvance PaymentKind = "advance"
	PaymentFinal   PaymentKind = "final"
)

// PaymentStatus is the settlement state of a tranche.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is the record of one tranche. It moves to completed only once,
// and only when the ledger has confirmed the external reference.
type Payment struct {
	Kind        PaymentKind     `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Status      PaymentStatus   `json:"status"`
	ExternalRef string          `json:"external_ref,omitempty"`
	FailReason  string          `json:"fail_reason,omitempty"`
	Timestamp   *time.Time      `json:"timestamp,omitempty"`
}
