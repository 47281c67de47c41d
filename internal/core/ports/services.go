package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
)

// TradesRepository is the persistence port. Update applies the new state
// only when the stored version still equals expectedVersion, returning
// ErrVersionConflict otherwise; that compare-and-swap serializes
// concurrent mutation attempts across processes.
type TradesRepository interface {
	Insert(ctx context.Context, trade *entities.Trade) error
	Find(ctx context.Context, id string) (*entities.Trade, error)
	FindByExternalRef(ctx context.Context, ref string) (*entities.Trade, error)
	List(ctx context.Context, filter TradeFilter) ([]entities.Trade, error)
	Update(ctx context.Context, trade *entities.Trade, expectedVersion int64) error
	FindPendingPayments(ctx context.Context) ([]PendingPayment, error)
}

// TradeFilter restricts List results.
type TradeFilter struct {
	PartyID string
	Status  entities.TradeStatus
	Limit   uint64
}

// PendingPayment identifies a payment slot whose ledger confirmation has
// not been durably recorded yet; the recovery worker re-queries these.
type PendingPayment struct {
	TradeID     string
	Kind        entities.PaymentKind
	ExternalRef string
}

// EscrowClient is the bridge to the external escrow contract. Submit
// calls return an external reference as soon as the submission is
// accepted; confirmation or failure arrives later on Events. Submissions
// carry an idempotency key so a retry never creates a duplicate.
type EscrowClient interface {
	SubmitTradeCreation(ctx context.Context, tradeID string, totalValue decimal.Decimal, idempotencyKey string) (string, error)
	SubmitDeposit(ctx context.Context, ledgerRef string, amount decimal.Decimal, idempotencyKey string) (string, error)
	SubmitDeliveryConfirmation(ctx context.Context, ledgerRef string, idempotencyKey string) (string, error)
	SubmitFundRelease(ctx context.Context, ledgerRef string, amount decimal.Decimal, idempotencyKey string) (string, error)
	QueryState(ctx context.Context, externalRef string) (entities.SubmissionState, error)
	Events() <-chan entities.ConfirmationEvent
}

// Notifier broadcasts committed transitions to observers. Fire and
// forget: failures are logged by implementations, never surfaced to the
// mutating call.
type Notifier interface {
	Publish(topic string, payload any)
}

// TradeService is the lifecycle orchestrator surface consumed by the
// HTTP handlers and workers.
type TradeService interface {
	CreateTrade(ctx context.Context, actor Actor, params CreateTradeParams) (*entities.Trade, error)
	GetTrade(ctx context.Context, id string) (*entities.Trade, error)
	ListTrades(ctx context.Context, filter TradeFilter) ([]entities.Trade, error)
	Activate(ctx context.Context, actor Actor, tradeID string) (*entities.Trade, error)
	ActivateAdvance(ctx context.Context, actor Actor, tradeID string) (*entities.Trade, error)
	RecordPayment(ctx context.Context, actor Actor, tradeID string, kind entities.PaymentKind, amount decimal.Decimal, externalRef string) (*entities.Trade, error)
	AddDocument(ctx context.Context, actor Actor, tradeID string, doc AddDocumentParams) (*entities.Trade, error)
	ReviewDocument(ctx context.Context, actor Actor, tradeID string, position int, accept bool) (*entities.Trade, error)
	IssueDocumentKey(ctx context.Context, actor Actor, tradeID string) (*entities.Trade, error)
	Cancel(ctx context.Context, actor Actor, tradeID, reason string) (*entities.Trade, error)
	Dispute(ctx context.Context, actor Actor, tradeID, reason string) (*entities.Trade, error)
	ApplyLedgerEvent(ctx context.Context, event entities.ConfirmationEvent) error
}

// CreateTradeParams carries the terms of a new draft trade.
type CreateTradeParams struct {
	SupplierID     string
	BuyerID        string
	IntermediaryID *string
	Commodity      string
	Quantity       decimal.Decimal
	Unit           string
	UnitPrice      decimal.Decimal
	Currency       string
	DepositPct     int64
	AdvancePct     int64
	DeliveryDate   string // RFC 3339 date
}

// AddDocumentParams carries one document upload. ContentHash is the
// caller-supplied hash; the registry recomputes it from the locator
// before the document can gate key issuance.
type AddDocumentParams struct {
	Type        string
	ContentHash string
	Locator     string
	Required    bool
}
