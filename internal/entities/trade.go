package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus is the lifecycle status of a trade.
type TradeStatus string

const (
	StatusDraft               TradeStatus = "draft"
	StatusPendingDeposit      TradeStatus = "pending_deposit"
	StatusDepositReceived     TradeStatus = "deposit_received"
	StatusPendingAdvance      TradeStatus = "pending_advance"
	StatusAdvancePaid         TradeStatus = "advance_paid"
	StatusDocumentsUploaded   TradeStatus = "documents_uploaded"
	StatusKeyIssued           TradeStatus = "key_issued"
	StatusFinalPaymentPending TradeStatus = "final_payment_pending"
	StatusCompleted           TradeStatus = "completed"
	StatusCancelled           TradeStatus = "cancelled"
	StatusDisputed            TradeStatus = "disputed"
)

// Terminal reports whether no further mutation is permitted.
func (s TradeStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusDisputed
}

// Trade is the central entity: parties, terms, tranche amounts, documents,
// risk and the append-only timeline. All mutation goes through the trade
// service; the Version column backs optimistic compare-and-swap persistence.
type Trade struct {
	ID        string `json:"id"`
	LedgerRef string `json:"ledger_ref,omitempty"` // escrow contract reference, assigned once

	SupplierID     string  `json:"supplier_id"`
	BuyerID        string  `json:"buyer_id"`
	IntermediaryID *string `json:"intermediary_id,omitempty"`

	Commodity    string          `json:"commodity"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Currency     string          `json:"currency"`
	DepositPct   int64           `json:"deposit_pct"`
	AdvancePct   int64           `json:"advance_pct"`
	DeliveryDate time.Time       `json:"delivery_date"`

	DepositAmount decimal.Decimal `json:"deposit_amount"`
	AdvanceAmount decimal.Decimal `json:"advance_amount"`
	FinalAmount   decimal.Decimal `json:"final_amount"`

	Payments  []Payment  `json:"payments"`
	Documents []Document `json:"documents"`

	DocumentKey string     `json:"document_key,omitempty"`
	KeyIssuedAt *time.Time `json:"key_issued_at,omitempty"`

	RiskLevel   RiskLevel `json:"risk_level"`
	RiskFactors []string  `json:"risk_factors"`

	Status   TradeStatus     `json:"status"`
	Timeline []TimelineEntry `json:"timeline"`

	// FundsReleased flips when the ledger confirms the fund-release
	// submission; cancellation is rejected afterwards.
	FundsReleased bool `json:"funds_released"`

	// ManualReview marks a trade whose ledger submission exhausted its
	// retry budget and needs operator attention.
	ManualReview bool `json:"manual_review"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaymentFor returns the payment record for the given tranche, or nil.
func (t *Trade) PaymentFor(kind PaymentKind) *Payment {
	for i := range t.Payments {
		if t.Payments[i].Kind == kind {
			return &t.Payments[i]
		}
	}
	return nil
}

// RequiredAmount returns the tranche amount the given payment kind must cover.
func (t *Trade) RequiredAmount(kind PaymentKind) decimal.Decimal {
	switch kind {
	case PaymentDeposit:
		return t.DepositAmount
	case PaymentAdvance:
		return t.AdvanceAmount
	default:
		return t.FinalAmount
	}
}

// HasExternalRef reports whether the reference was already used by any
// payment slot of this trade.
func (t *Trade) HasExternalRef(ref string) bool {
	if ref == "" {
		return false
	}
	for i := range t.Payments {
		if t.Payments[i].ExternalRef == ref {
			return true
		}
	}
	return false
}

// DocumentsAccepted is true when every required document has been accepted.
func (t *Trade) DocumentsAccepted() bool {
	if len(t.Documents) == 0 {
		return false
	}
	for i := range t.Documents {
		if t.Documents[i].Required && t.Documents[i].Acceptance != DocumentAccepted {
			return false
		}
	}
	return true
}

// AppendTimeline records a transition on the audit trail. Entries are
// append-only and never pruned.
func (t *Trade) AppendTimeline(status TradeStatus, actor, description, externalRef string) {
	t.Timeline = append(t.Timeline, TimelineEntry{
		Status:      status,
		Actor:       actor,
		Timestamp:   time.Now().UTC(),
		Description: description,
		ExternalRef: externalRef,
	})
}

// TimelineEntry is one audit record of a trade transition.
type TimelineEntry struct {
	Status      TradeStatus `json:"status"`
	Actor       string      `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Description string      `json:"description"`
	ExternalRef string      `json:"external_ref,omitempty"`
}
