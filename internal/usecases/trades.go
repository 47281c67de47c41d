package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/documents"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/finance"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/risk"
)

// errNoChange signals that an apply step decided the trade needs no
// persistence (idempotent replay of an already-applied event).
var errNoChange = errors.New("no state change")

var contentHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// TradeServiceImpl is the trade lifecycle orchestrator. Every mutation
// runs under the per-trade lock: load, guard-check, apply, persist via
// compare-and-swap, then notify observers and trigger any required
// ledger submission. Ledger submissions happen after the lock is
// released; their confirmations re-enter through ApplyLedgerEvent.
type TradeServiceImpl struct {
	logger *slog.Logger

	repo     ports.TradesRepository
	registry *documents.Registry
	escrow   ports.EscrowClient
	notifier ports.Notifier
	assessor *risk.Assessor

	locks *tradeLocks
}

func NewTradeService(
	logger *slog.Logger,
	repo ports.TradesRepository,
	registry *documents.Registry,
	escrow ports.EscrowClient,
	notifier ports.Notifier,
	assessor *risk.Assessor,
) *TradeServiceImpl {
	return &TradeServiceImpl{
		logger:   logger,
		repo:     repo,
		registry: registry,
		escrow:   escrow,
		notifier: notifier,
		assessor: assessor,
		locks:    newTradeLocks(),
	}
}

var _ ports.TradeService = (*TradeServiceImpl)(nil)

// CreateTrade validates the terms, computes the tranche split, scores
// risk and persists a new draft trade.
func (s *TradeServiceImpl) CreateTrade(ctx context.Context, actor ports.Actor, params ports.CreateTradeParams) (*entities.Trade, error) {
	if params.SupplierID == "" || params.BuyerID == "" {
		return nil, fmt.Errorf("%w: supplier and buyer are required", ports.ErrInvalidTradeTerms)
	}
	if params.Commodity == "" {
		return nil, fmt.Errorf("%w: commodity is required", ports.ErrInvalidTradeTerms)
	}
	if !params.Quantity.IsPositive() || !params.UnitPrice.IsPositive() {
		return nil, fmt.Errorf("%w: quantity and unit price must be positive", ports.ErrInvalidTradeTerms)
	}

	deliveryDate, err := time.Parse(time.DateOnly, params.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("%w: delivery date: %v", ports.ErrInvalidTradeTerms, err)
	}

	totalValue := params.Quantity.Mul(params.UnitPrice).Round(finance.CurrencyPrecision)

	tranches, err := finance.SplitTranches(totalValue, params.DepositPct, params.AdvancePct)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	trade := &entities.Trade{
		ID:             uuid.NewString(),
		SupplierID:     params.SupplierID,
		BuyerID:        params.BuyerID,
		IntermediaryID: params.IntermediaryID,
		Commodity:      params.Commodity,
		Quantity:       params.Quantity,
		Unit:           params.Unit,
		UnitPrice:      params.UnitPrice,
		TotalValue:     totalValue,
		Currency:       params.Currency,
		DepositPct:     params.DepositPct,
		AdvancePct:     params.AdvancePct,
		DeliveryDate:   deliveryDate,
		DepositAmount:  tranches.Deposit,
		AdvanceAmount:  tranches.Advance,
		FinalAmount:    tranches.Final,
		Payments: []entities.Payment{
			{Kind: entities.PaymentDeposit, Amount: tranches.Deposit, Status: entities.PaymentPending},
			{Kind: entities.PaymentAdvance, Amount: tranches.Advance, Status: entities.PaymentPending},
			{Kind: entities.PaymentFinal, Amount: tranches.Final, Status: entities.PaymentPending},
		},
		Status:    entities.StatusDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.authorize(actor, trade, ports.RoleBuyer, ports.RoleSupplier); err != nil {
		return nil, err
	}

	assessment := s.assessor.Assess(risk.Input{
		TotalValue:   totalValue,
		DepositPct:   params.DepositPct,
		Commodity:    params.Commodity,
		DeliveryDate: deliveryDate,
	})
	trade.RiskLevel = assessment.Level
	trade.RiskFactors = assessment.Factors

	trade.AppendTimeline(entities.StatusDraft, actor.ID, "trade created", "")

	if err = s.repo.Insert(ctx, trade); err != nil {
		return nil, fmt.Errorf("insert trade: %w", err)
	}

	s.logger.InfoContext(ctx, "Trade created",
		"trade_id", trade.ID,
		"commodity", trade.Commodity,
		"total_value", trade.TotalValue.String(),
		"risk_level", trade.RiskLevel)

	s.publish(trade, "trade_created")

	return trade, nil
}

func (s *TradeServiceImpl) GetTrade(ctx context.Context, id string) (*entities.Trade, error) {
	return s.repo.Find(ctx, id)
}

func (s *TradeServiceImpl) ListTrades(ctx context.Context, filter ports.TradeFilter) ([]entities.Trade, error) {
	return s.repo.List(ctx, filter)
}

// Activate moves a draft trade to PendingDeposit and registers the trade
// with the escrow contract. The terms are re-validated as the guard.
func (s *TradeServiceImpl) Activate(ctx context.Context, actor ports.Actor, tradeID string) (*entities.Trade, error) {
	trade, err := s.withTrade(ctx, tradeID, func(t *entities.Trade) error {
		if err := s.authorize(actor, t, ports.RoleBuyer, ports.RoleSupplier); err != nil {
			return err
		}
		if t.Status != entities.StatusDraft {
			return fmt.Errorf("%w: activate from %s", ports.ErrInvalidTransition, t.Status)
		}

		// Guard: the terms must still produce a valid split.
		if _, err := finance.SplitTranches(t.TotalValue, t.DepositPct, t.AdvancePct); err != nil {
			return err
		}

		assessment := s.assessor.Assess(risk.Input{
			TotalValue:   t.TotalValue,
			DepositPct:   t.DepositPct,
			Commodity:    t.Commodity,
			DeliveryDate: t.DeliveryDate,
		})
		t.RiskLevel = assessment.Level
		t.RiskFactors = assessment.Factors

		t.Status = entities.StatusPendingDeposit
		t.AppendTimeline(t.Status, actor.ID, "trade activated, awaiting deposit", "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(trade, "trade_activated")

	// Register the trade on the escrow ledger. The submission returns a
	// reference immediately; confirmation arrives as a separate event.
	ref, err := s.escrow.SubmitTradeCreation(ctx, trade.ID, trade.TotalValue, uuid.NewString())
	if err != nil {
		return trade, s.flagManualReview(ctx, trade.ID, "trade creation submission failed", err)
	}

	return s.withTrade(ctx, tradeID, func(t *entities.Trade) error {
		if t.LedgerRef != "" {
			return errNoChange // assigned once, immutable
		}
		t.LedgerRef = ref
		t.AppendTimeline(t.Status, actor.ID, "escrow trade creation submitted", ref)
		return nil
	})
}

// ActivateAdvance opens the advance tranche once the deposit stage is done.
func (s *TradeServiceImpl) ActivateAdvance(ctx context.Context, actor ports.Actor, tradeID string) (*entities.Trade, error) {
	trade, err := s.withTrade(ctx, tradeID, func(t *entities.Trade) error {
		if err := s.authorize(actor, t, ports.RoleSupplier); err != nil {
			return err
		}
		if t.Status != entities.StatusDepositReceived {
			return fmt.Errorf("%w: activate advance from %s", ports.ErrInvalidTransition, t.Status)
		}
		t.Status = entities.StatusPendingAdvance
		t.AppendTimeline(t.Status, actor.ID, "advance stage activated", "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(trade, "advance_activated")
	return trade, nil
}

// RecordPayment applies a tranche payment against the matching lifecycle
// stage. The status transition happens synchronously; the payment record
// itself stays pending until the ledger confirms the external reference.
// When the caller supplies no reference, the bridge submits the movement
// on the platform's behalf and the returned reference is recorded.
func (s *TradeServiceImpl) RecordPayment(
	ctx context.Context,
	actor ports.Actor,
	tradeID string,
	kind entities.PaymentKind,
	amount decimal.Decimal,
	externalRef string,
) (*entities.Trade, error) {
	var from, to entities.TradeStatus
	switch kind {
	case entities.PaymentDeposit:
		from, to = entities.StatusPendingDeposit, entities.StatusDepositReceived
	case entities.PaymentAdvance:
		from, to = entities.StatusPendingAdvance, entities.StatusAdvancePaid
	case entities.PaymentFinal:
		from, to = entities.StatusFinalPaymentPending, entities.StatusCompleted
	default:
		return nil, fmt.Errorf("%w: unknown payment kind %q", ports.ErrInvalidTransition, kind)
	}

	trade, err := s.withTrade(ctx, tradeID, func(t *entities.Trade) error {
		if err := s.authorize(actor, t, ports.RoleBuyer); err != nil {
			return err
		}
		// The duplicate check comes first: a replayed reference is a
		// replay even when the earlier application already moved the
		// status past the guard.
		if t.HasExternalRef(externalRef) {
			return fmt.Errorf("%w: %s", ports.ErrDuplicateExternalReference, externalRef)
		}
		if t.Status != from {
			return fmt.Errorf("%w: record %s payment from %s", ports.ErrInvalidTransition, kind, t.Status)
		}
		if kind == entities.PaymentFinal && !t.DocumentsAccepted() {
			return fmt.Errorf("%w: required documents not accepted", ports.ErrInvalidTransition)
		}

		required := t.RequiredAmount(kind)
		if amount.LessThan(required) {
			return fmt.Errorf("%w: %s < required %s", ports.ErrInsufficientPayment, amount, required)
		}

		payment := t.PaymentFor(kind)
		now := time.Now().UTC()
		payment.Amount = amount
		payment.Status = entities.PaymentPending
		payment.ExternalRef = externalRef
		payment.FailReason = ""
		payment.Timestamp = &now

		t.Status = to
		t.AppendTimeline(to, actor.ID, fmt.Sprintf("%s payment recorded (%s)", kind, amount), externalRef)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(trade, fmt.Sprintf("%s_payment_recorded", kind))

	if externalRef != "" {
		// Funds were moved directly on the ledger by the payer; the
		// confirmation watcher picks the reference up from here.
		return trade, nil
	}

	ref, err := s.submitPayment(ctx, trade, kind, amount)
	if err != nil {
		return trade, s.flagManualReview(ctx, trade.ID, fmt.Sprintf("%s submission failed", kind), err)
	}

	return s.withTrade(ctx, tradeID, func(t *entities.Trade) error {
		payment := t.PaymentFor(kind)
		if payment.ExternalRef != "" {
			return errNoChange
		}
		payment.ExternalRef = ref
		t.AppendTimeline(t.Status, actor.ID, fmt.Sprintf("%s submitted to escrow ledger", kind), ref)
		return nil
	})
}

func (s *TradeServiceImpl) submitPayment(ctx context.Context, trade *entities.Trade, kind entities.PaymentKind, amount decimal.Decimal) (string, error) {
	key := uuid.NewString()
	if kind == entities.PaymentFinal {
		return s.escrow.SubmitFundRelease(ctx, trade.LedgerRef, amount, key)
	}
	return s.escrow.SubmitDeposit(ctx, trade.LedgerRef, amount, key)
}

// AddDocument appends a document to the trade's ordered list. The first
// document moves the trade from AdvancePaid to DocumentsUploaded.
func (s *TradeServiceImpl) AddDocument(ctx context.Context, actor ports.Actor, tradeID string, doc ports.AddDocumentParams) (*entities.Trade, error) {
	if doc.Type == "" || doc.Locator == "" {
		return nil, fmt.Errorf("%w: document type and locator are required", ports.ErrInvalidTradeTerms)
	}
	if !contentHashPattern.MatchString(doc.ContentHash) {
		return nil, fmt.Errorf("%w: content hash must be hex-encoded SHA-256", ports.ErrInvalidTradeTerms)
	}

	trade, err := s.withTrade(ctx, tradeID, func(t *entities.Trade) error {
		if err := s.authorize(actor, t, ports.RoleSupplier); err != nil {
			return err
		}
		if t.Status != entities.StatusAdvancePaid && t.Status != entities.StatusDocumentsUploaded {
			return fmt.Errorf("%w: add document from %s", ports.ErrInvalidTransition, t.Status)
		}

		t.Documents = append(t.Documents, entities.Document{
			Position:    len(t.Documents),
			Type:        doc.Type,
			ContentHash: doc.ContentHash,
			Locator:     doc.Locator,
			Uploader:    actor.ID,
			UploadedAt:  time.Now().UTC(),
			Acceptance:  entities.DocumentPending,
			Required:    doc.Required,
		})

		if t.Status == entities.StatusAdvancePaid {
			t.Status = entities.StatusDocumentsUploaded
		}
		t.AppendTimeline(t.Status, actor.ID, fmt.Sprintf("document %q added", doc.Type), "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(trade, "document_added")
	return trade, nil
}

// ReviewDocument accepts or rejects one document, independently of key
// issuance.
func (s *TradeServiceImpl) ReviewDocument(ctx context.Context, actor ports.Actor, tradeID string, position int, accept bool) (*entities.Trade, error) {
	trade, err := s.withTrade(ctx, tradeID, func(t *entities.Trade) error {
		if err := s.authorize(actor, t, ports.RoleSupplier); err != nil {
			return err
		}
		if t.Status.Terminal() {
			return fmt.Errorf("%w: review document in %s", ports.ErrInvalidTransition, t.Status)
		}
		if position < 0 || position >= len(t.Documents) {
			return fmt.Errorf("%w: document position %d out of range", ports.ErrInvalidTransition, position)
		}

		acceptance := entities.DocumentRejected
		verb := "rejected"
		if accept {
			acceptance = entities.DocumentAccepted
			verb = "accepted"
		}
		if t.Documents[position].Acceptance == acceptance {
			return errNoChange
		}

		t.Documents[position].Acceptance = acceptance
		t.AppendTimeline(t.Status, actor.ID, fmt.Sprintf("document %q %s", t.Documents[position].Type, verb), "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(trade, "document_reviewed")
	return trade, nil
}

// IssueDocumentKey derives the disclosure key from the ordered document
// hashes and advances the trade through KeyIssued to FinalPaymentPending.
// Issuance is one-time and irreversible.
func (s *TradeServiceImpl) IssueDocumentKey(ctx context.Context, actor ports.Actor, tradeID string) (*entities.Trade, error) {
	trade, err := s.withTrade(ctx, tradeID, func(t *entities.Trade) error {
		if err := s.authorize(actor, t, ports.RoleSupplier); err != nil {
			return err
		}
		if t.DocumentKey != "" {
			return fmt.Errorf("%w: key issued at %s", ports.ErrAlreadyIssued, t.KeyIssuedAt)
		}
		if t.Status != entities.StatusDocumentsUploaded {
			return fmt.Errorf("%w: issue key from %s", ports.ErrInvalidTransition, t.Status)
		}
		if len(t.Documents) == 0 {
			return fmt.Errorf("%w: no documents uploaded", ports.ErrInvalidTransition)
		}

		// Integrity gate: a single mismatching document blocks issuance.
		if err := s.registry.VerifyAll(ctx, t.Documents); err != nil {
			return err
		}

		now := time.Now().UTC()
		t.DocumentKey = documents.DeriveKey(t.Documents)
		t.KeyIssuedAt = &now

		t.Status = entities.StatusKeyIssued
		t.AppendTimeline(entities.StatusKeyIssued, actor.ID, "document key issued", "")

		// KeyIssued rolls straight into FinalPaymentPending; both
		// milestones stay on the audit trail.
		t.Status = entities.StatusFinalPaymentPending
		t.AppendTimeline(entities.StatusFinalPaymentPending, actor.ID, "awaiting final payment", "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(trade, "document_key_issued")

	ref, err := s.escrow.SubmitDeliveryConfirmation(ctx, trade.LedgerRef, uuid.NewString())
	if err != nil {
		return trade, s.flagManualReview(ctx, trade.ID, "delivery confirmation submission failed", err)
	}

	return s.withTrade(ctx, tradeID, func(t *entities.Trade) error {
		t.AppendTimeline(t.Status, actor.ID, "delivery confirmation submitted", ref)
		return nil
	})
}

// Cancel closes a non-terminal trade. Rejected with ErrAlreadySettled
// once a fund release was confirmed on the ledger.
func (s *TradeServiceImpl) Cancel(ctx context.Context, actor ports.Actor, tradeID, reason string) (*entities.Trade, error) {
	trade, err := s.withTrade(ctx, tradeID, func(t *entities.Trade) error {
		if err := s.authorize(actor, t, ports.RoleBuyer, ports.RoleSupplier); err != nil {
			return err
		}
		if t.FundsReleased {
			return fmt.Errorf("%w: fund release confirmed", ports.ErrAlreadySettled)
		}
		if t.Status.Terminal() {
			return fmt.Errorf("%w: cancel from %s", ports.ErrInvalidTransition, t.Status)
		}
		t.Status = entities.StatusCancelled
		t.AppendTimeline(t.Status, actor.ID, "trade cancelled: "+reason, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(trade, "trade_cancelled")
	return trade, nil
}

// Dispute marks a non-terminal trade as disputed. Any trade party may
// raise a dispute.
func (s *TradeServiceImpl) Dispute(ctx context.Context, actor ports.Actor, tradeID, reason string) (*entities.Trade, error) {
	trade, err := s.withTrade(ctx, tradeID, func(t *entities.Trade) error {
		if err := s.authorize(actor, t, ports.RoleBuyer, ports.RoleSupplier, ports.RoleIntermediary); err != nil {
			return err
		}
		if t.Status.Terminal() {
			return fmt.Errorf("%w: dispute from %s", ports.ErrInvalidTransition, t.Status)
		}
		t.Status = entities.StatusDisputed
		t.AppendTimeline(t.Status, actor.ID, "trade disputed: "+reason, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(trade, "trade_disputed")
	return trade, nil
}

// ApplyLedgerEvent re-enters the state machine with a confirmation or
// failure surfaced by the escrow ledger. Replays of an already-applied
// event are absorbed without a second transition.
func (s *TradeServiceImpl) ApplyLedgerEvent(ctx context.Context, event entities.ConfirmationEvent) error {
	trade, err := s.repo.FindByExternalRef(ctx, event.ExternalRef)
	if err != nil {
		if errors.Is(err, ports.ErrTradeNotFound) {
			s.logger.WarnContext(ctx, "Ledger event for unknown reference dropped",
				"external_ref", event.ExternalRef, "status", event.Status)
			return nil
		}
		return err
	}

	updated, err := s.withTrade(ctx, trade.ID, func(t *entities.Trade) error {
		if t.LedgerRef == event.ExternalRef {
			return s.applyCreationEvent(t, event)
		}
		return s.applyPaymentEvent(t, event)
	})
	if err != nil {
		return err
	}

	s.publish(updated, "ledger_"+string(event.Status))
	return nil
}

func (s *TradeServiceImpl) applyCreationEvent(t *entities.Trade, event entities.ConfirmationEvent) error {
	switch event.Status {
	case entities.SubmissionConfirmed:
		t.AppendTimeline(t.Status, "ledger", "escrow trade creation confirmed", event.ExternalRef)
	case entities.SubmissionReverted:
		t.ManualReview = true
		t.AppendTimeline(t.Status, "ledger", "escrow trade creation reverted: "+event.Reason, event.ExternalRef)
	default:
		return errNoChange
	}
	return nil
}

func (s *TradeServiceImpl) applyPaymentEvent(t *entities.Trade, event entities.ConfirmationEvent) error {
	var payment *entities.Payment
	for i := range t.Payments {
		if t.Payments[i].ExternalRef == event.ExternalRef {
			payment = &t.Payments[i]
			break
		}
	}
	if payment == nil {
		return errNoChange
	}

	switch event.Status {
	case entities.SubmissionConfirmed:
		if payment.Status == entities.PaymentCompleted {
			return errNoChange // completed transitions only once
		}
		now := time.Now().UTC()
		payment.Status = entities.PaymentCompleted
		payment.Timestamp = &now
		if payment.Kind == entities.PaymentFinal {
			t.FundsReleased = true
		}
		t.AppendTimeline(t.Status, "ledger", fmt.Sprintf("%s payment confirmed", payment.Kind), event.ExternalRef)

	case entities.SubmissionReverted:
		if payment.Status != entities.PaymentPending {
			return errNoChange
		}
		payment.Status = entities.PaymentFailed
		payment.FailReason = event.Reason
		t.AppendTimeline(t.Status, "ledger", fmt.Sprintf("%s payment reverted: %s", payment.Kind, event.Reason), event.ExternalRef)

	default:
		return errNoChange
	}

	return nil
}

// withTrade serializes the mutation through the per-trade lock: load,
// apply, compare-and-swap persist. A version conflict (possible only
// across processes) is retried once against the fresh state.
func (s *TradeServiceImpl) withTrade(ctx context.Context, tradeID string, apply func(*entities.Trade) error) (*entities.Trade, error) {
	release := s.locks.Acquire(tradeID)
	defer release()

	for attempt := 0; ; attempt++ {
		trade, err := s.repo.Find(ctx, tradeID)
		if err != nil {
			return nil, err
		}

		expected := trade.Version
		if err = apply(trade); err != nil {
			if errors.Is(err, errNoChange) {
				return trade, nil
			}
			// Guard failures leave the trade untouched: we mutated only
			// our in-memory copy, nothing was persisted.
			return nil, err
		}

		trade.Version = expected + 1
		trade.UpdatedAt = time.Now().UTC()

		err = s.repo.Update(ctx, trade, expected)
		if errors.Is(err, ports.ErrVersionConflict) && attempt == 0 {
			s.logger.WarnContext(ctx, "Trade version conflict, retrying against fresh state", "trade_id", tradeID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update trade %s: %w", tradeID, err)
		}
		return trade, nil
	}
}

// flagManualReview marks the trade for operator attention after a ledger
// submission exhausted its retry budget. The original submission error
// is surfaced to the caller.
func (s *TradeServiceImpl) flagManualReview(ctx context.Context, tradeID, reason string, cause error) error {
	s.logger.ErrorContext(ctx, "Ledger submission failed, flagging trade for manual review",
		"trade_id", tradeID, "reason", reason, "error", cause)

	_, err := s.withTrade(ctx, tradeID, func(t *entities.Trade) error {
		t.ManualReview = true
		t.AppendTimeline(t.Status, "system", reason+", awaiting manual review", "")
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to flag trade for manual review", "trade_id", tradeID, "error", err)
	}

	return cause
}

func (s *TradeServiceImpl) authorize(actor ports.Actor, trade *entities.Trade, allowed ...ports.Role) error {
	if actor.Role == ports.RoleAdmin {
		return nil
	}

	for _, role := range allowed {
		if actor.Role != role {
			continue
		}
		switch role {
		case ports.RoleBuyer:
			if actor.ID == trade.BuyerID {
				return nil
			}
		case ports.RoleSupplier:
			if actor.ID == trade.SupplierID {
				return nil
			}
		case ports.RoleIntermediary:
			if trade.IntermediaryID != nil && actor.ID == *trade.IntermediaryID {
				return nil
			}
		}
	}

	return fmt.Errorf("%w: actor %s role %s", ports.ErrUnauthorized, actor.ID, actor.Role)
}

// publish notifies observers after a durable commit. Fire and forget.
func (s *TradeServiceImpl) publish(trade *entities.Trade, event string) {
	payload := map[string]any{
		"event":    event,
		"trade_id": trade.ID,
		"status":   trade.Status,
		"version":  trade.Version,
	}
	s.notifier.Publish("trades."+trade.ID, payload)
	s.notifier.Publish("trades", payload)
}
