package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	tx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
	"github.com/zalmanollech/Tangent-Platform-sub001/pkg/database"
)

// TradesRepository persists the trade aggregate across the trades,
// payments, documents and timeline tables. Amounts are stored as text
// and parsed at the boundary; the trades.version column backs the
// compare-and-swap contract of the persistence port.
type TradesRepository struct {
	logger *slog.Logger

	db         tx.DBGetter
	transactor *tx.Transactor
}

func NewTradesRepository(logger *slog.Logger, pg *database.Postgres) *TradesRepository {
	return &TradesRepository{logger: logger, db: pg.DBGetter, transactor: pg.Transactor}
}

var _ ports.TradesRepository = (*TradesRepository)(nil)

// Row shapes mirror the table columns; mapping to entities happens in
// one place below.
type tradeRow struct {
	ID             string     `db:"id"`
	LedgerRef      string     `db:"ledger_ref"`
	SupplierID     string     `db:"supplier_id"`
	BuyerID        string     `db:"buyer_id"`
	IntermediaryID *string    `db:"intermediary_id"`
	Commodity      string     `db:"commodity"`
	Quantity       string     `db:"quantity"`
	Unit           string     `db:"unit"`
	UnitPrice      string     `db:"unit_price"`
	TotalValue     string     `db:"total_value"`
	Currency       string     `db:"currency"`
	DepositPct     int64      `db:"deposit_pct"`
	AdvancePct     int64      `db:"advance_pct"`
	DeliveryDate   time.Time  `db:"delivery_date"`
	DepositAmount  string     `db:"deposit_amount"`
	AdvanceAmount  string     `db:"advance_amount"`
	FinalAmount    string     `db:"final_amount"`
	DocumentKey    string     `db:"document_key"`
	KeyIssuedAt    *time.Time `db:"key_issued_at"`
	RiskLevel      string     `db:"risk_level"`
	RiskFactors    []string   `db:"risk_factors"`
	Status         string     `db:"status"`
	FundsReleased  bool       `db:"funds_released"`
	ManualReview   bool       `db:"manual_review"`
	Version        int64      `db:"version"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

type paymentRow struct {
	Kind        string     `db:"kind"`
	Amount      string     `db:"amount"`
	Status      string     `db:"status"`
	ExternalRef string     `db:"external_ref"`
	FailReason  string     `db:"fail_reason"`
	PaidAt      *time.Time `db:"paid_at"`
}

type documentRow struct {
	Position    int       `db:"position"`
	Type        string    `db:"doc_type"`
	ContentHash string    `db:"content_hash"`
	Locator     string    `db:"locator"`
	Uploader    string    `db:"uploader"`
	UploadedAt  time.Time `db:"uploaded_at"`
	Acceptance  string    `db:"acceptance"`
	Required    bool      `db:"required"`
}

type timelineRow struct {
	Position    int       `db:"position"`
	Status      string    `db:"status"`
	Actor       string    `db:"actor"`
	Ts          time.Time `db:"ts"`
	Description string    `db:"description"`
	ExternalRef string    `db:"external_ref"`
}

const tradeColumns = `id, ledger_ref, supplier_id, buyer_id, intermediary_id, commodity, quantity, unit,
       unit_price, total_value, currency, deposit_pct, advance_pct, delivery_date,
       deposit_amount, advance_amount, final_amount, document_key, key_issued_at,
       risk_level, risk_factors, status, funds_released, manual_review, version, created_at, updated_at`

// Insert stores a new trade aggregate.
func (r *TradesRepository) Insert(ctx context.Context, trade *entities.Trade) error {
	return r.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := r.db(ctx).Exec(ctx, `INSERT INTO trades (`+tradeColumns+`)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`,
			trade.ID, trade.LedgerRef, trade.SupplierID, trade.BuyerID, trade.IntermediaryID,
			trade.Commodity, trade.Quantity.String(), trade.Unit, trade.UnitPrice.String(),
			trade.TotalValue.String(), trade.Currency, trade.DepositPct, trade.AdvancePct, trade.DeliveryDate,
			trade.DepositAmount.String(), trade.AdvanceAmount.String(), trade.FinalAmount.String(),
			trade.DocumentKey, trade.KeyIssuedAt, string(trade.RiskLevel), trade.RiskFactors,
			string(trade.Status), trade.FundsReleased, trade.ManualReview, trade.Version,
			trade.CreatedAt, trade.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert trade: %w", err)
		}

		return r.writeChildren(ctx, trade)
	})
}

// Find loads a trade aggregate by id.
func (r *TradesRepository) Find(ctx context.Context, id string) (*entities.Trade, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[tradeRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ports.ErrTradeNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to collect trade row: %w", err)
	}

	trade, err := rowToTrade(row)
	if err != nil {
		return nil, err
	}

	if err = r.loadChildren(ctx, trade); err != nil {
		return nil, err
	}

	return trade, nil
}

// FindByExternalRef resolves the trade owning an external reference,
// either the escrow trade reference or one of the payment references.
func (r *TradesRepository) FindByExternalRef(ctx context.Context, ref string) (*entities.Trade, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ports.ErrTradeNotFound)
	}

	var id string
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id FROM trades WHERE ledger_ref = $1
          UNION
         SELECT trade_id FROM trade_payments WHERE external_ref = $1
          LIMIT 1`, ref).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: external ref %s", ports.ErrTradeNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve external ref: %w", err)
	}

	return r.Find(ctx, id)
}

// List returns trades matching the filter, newest first.
func (r *TradesRepository) List(ctx context.Context, filter ports.TradeFilter) ([]entities.Trade, error) {
	builder := sq.Select(tradeColumns).
		From("trades").
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.PartyID != "" {
		builder = builder.Where(sq.Or{
			sq.Eq{"supplier_id": filter.PartyID},
			sq.Eq{"buyer_id": filter.PartyID},
			sq.Eq{"intermediary_id": filter.PartyID},
		})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}

	tradeRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[tradeRow])
	if err != nil {
		r.logger.Error("failed to collect trades rows", "error", err)
		return nil, err
	}

	trades := make([]entities.Trade, 0, len(tradeRows))
	for _, row := range tradeRows {
		trade, err := rowToTrade(row)
		if err != nil {
			return nil, err
		}
		if err = r.loadChildren(ctx, trade); err != nil {
			return nil, err
		}
		trades = append(trades, *trade)
	}

	return trades, nil
}

// Update applies the new aggregate state only when the stored version
// still matches expectedVersion.
func (r *TradesRepository) Update(ctx context.Context, trade *entities.Trade, expectedVersion int64) error {
	return r.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		tag, err := r.db(ctx).Exec(ctx, `UPDATE trades SET
                ledger_ref = $1, document_key = $2, key_issued_at = $3, risk_level = $4,
                risk_factors = $5, status = $6, funds_released = $7, manual_review = $8,
                version = $9, updated_at = $10
              WHERE id = $11 AND version = $12`,
			trade.LedgerRef, trade.DocumentKey, trade.KeyIssuedAt, string(trade.RiskLevel),
			trade.RiskFactors, string(trade.Status), trade.FundsReleased, trade.ManualReview,
			trade.Version, trade.UpdatedAt, trade.ID, expectedVersion)
		if err != nil {
			return fmt.Errorf("failed to update trade: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: trade %s expected version %d", ports.ErrVersionConflict, trade.ID, expectedVersion)
		}

		return r.writeChildren(ctx, trade)
	})
}

// FindPendingPayments lists payment slots still awaiting a ledger
// confirmation; the recovery worker re-queries these after a restart.
func (r *TradesRepository) FindPendingPayments(ctx context.Context) ([]ports.PendingPayment, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT trade_id, kind, external_ref FROM trade_payments
          WHERE status = 'pending' AND external_ref <> ''`)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pending payments: %w", err)
	}
	defer rows.Close()

	var pending []ports.PendingPayment
	for rows.Next() {
		var p ports.PendingPayment
		var kind string
		if err = rows.Scan(&p.TradeID, &kind, &p.ExternalRef); err != nil {
			return nil, fmt.Errorf("failed to scan pending payment: %w", err)
		}
		p.Kind = entities.PaymentKind(kind)
		pending = append(pending, p)
	}

	return pending, rows.Err()
}

// writeChildren upserts the payment slots and appends any new document
// and timeline rows. Documents and timeline are append-only, so existing
// positions are left untouched.
func (r *TradesRepository) writeChildren(ctx context.Context, trade *entities.Trade) error {
	for _, p := range trade.Payments {
		_, err := r.db(ctx).Exec(ctx, `INSERT INTO trade_payments (trade_id, kind, amount, status, external_ref, fail_reason, paid_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7)
             ON CONFLICT (trade_id, kind) DO UPDATE
                SET amount = EXCLUDED.amount, status = EXCLUDED.status,
                    external_ref = EXCLUDED.external_ref, fail_reason = EXCLUDED.fail_reason,
                    paid_at = EXCLUDED.paid_at`,
			trade.ID, string(p.Kind), p.Amount.String(), string(p.Status), p.ExternalRef, p.FailReason, p.Timestamp)
		if err != nil {
			return fmt.Errorf("failed to upsert payment %s: %w", p.Kind, err)
		}
	}

	for _, d := range trade.Documents {
		_, err := r.db(ctx).Exec(ctx, `INSERT INTO trade_documents (trade_id, position, doc_type, content_hash, locator, uploader, uploaded_at, acceptance, required)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
             ON CONFLICT (trade_id, position) DO UPDATE SET acceptance = EXCLUDED.acceptance`,
			trade.ID, d.Position, d.Type, d.ContentHash, d.Locator, d.Uploader, d.UploadedAt, string(d.Acceptance), d.Required)
		if err != nil {
			return fmt.Errorf("failed to upsert document %d: %w", d.Position, err)
		}
	}

	for i, e := range trade.Timeline {
		_, err := r.db(ctx).Exec(ctx, `INSERT INTO trade_timeline (trade_id, position, status, actor, ts, description, external_ref)
             VALUES ($1,$2,$3,$4,$5,$6,$7)
             ON CONFLICT (trade_id, position) DO NOTHING`,
			trade.ID, i, string(e.Status), e.Actor, e.Timestamp, e.Description, e.ExternalRef)
		if err != nil {
			return fmt.Errorf("failed to insert timeline entry %d: %w", i, err)
		}
	}

	return nil
}

func (r *TradesRepository) loadChildren(ctx context.Context, trade *entities.Trade) error {
	payRows, err := r.db(ctx).Query(ctx,
		`SELECT kind, amount, status, external_ref, fail_reason, paid_at FROM trade_payments
          WHERE trade_id = $1
          ORDER BY CASE kind WHEN 'deposit' THEN 0 WHEN 'advance' THEN 1 ELSE 2 END`, trade.ID)
	if err != nil {
		return fmt.Errorf("failed to query payments: %w", err)
	}
	payments, err := pgx.CollectRows(payRows, pgx.RowToStructByName[paymentRow])
	if err != nil {
		return fmt.Errorf("failed to collect payment rows: %w", err)
	}
	trade.Payments = make([]entities.Payment, 0, len(payments))
	for _, p := range payments {
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			return fmt.Errorf("invalid payment amount %q: %w", p.Amount, err)
		}
		trade.Payments = append(trade.Payments, entities.Payment{
			Kind:        entities.PaymentKind(p.Kind),
			Amount:      amount,
			Status:      entities.PaymentStatus(p.Status),
			ExternalRef: p.ExternalRef,
			FailReason:  p.FailReason,
			Timestamp:   p.PaidAt,
		})
	}

	docRows, err := r.db(ctx).Query(ctx,
		`SELECT position, doc_type, content_hash, locator, uploader, uploaded_at, acceptance, required
           FROM trade_documents WHERE trade_id = $1 ORDER BY position`, trade.ID)
	if err != nil {
		return fmt.Errorf("failed to query documents: %w", err)
	}
	docs, err := pgx.CollectRows(docRows, pgx.RowToStructByName[documentRow])
	if err != nil {
		return fmt.Errorf("failed to collect document rows: %w", err)
	}
	trade.Documents = make([]entities.Document, 0, len(docs))
	for _, d := range docs {
		trade.Documents = append(trade.Documents, entities.Document{
			Position:    d.Position,
			Type:        d.Type,
			ContentHash: d.ContentHash,
			Locator:     d.Locator,
			Uploader:    d.Uploader,
			UploadedAt:  d.UploadedAt,
			Acceptance:  entities.DocumentAcceptance(d.Acceptance),
			Required:    d.Required,
		})
	}

	tlRows, err := r.db(ctx).Query(ctx,
		`SELECT position, status, actor, ts, description, external_ref
           FROM trade_timeline WHERE trade_id = $1 ORDER BY position`, trade.ID)
	if err != nil {
		return fmt.Errorf("failed to query timeline: %w", err)
	}
	timeline, err := pgx.CollectRows(tlRows, pgx.RowToStructByName[timelineRow])
	if err != nil {
		return fmt.Errorf("failed to collect timeline rows: %w", err)
	}
	trade.Timeline = make([]entities.TimelineEntry, 0, len(timeline))
	for _, e := range timeline {
		trade.Timeline = append(trade.Timeline, entities.TimelineEntry{
			Status:      entities.TradeStatus(e.Status),
			Actor:       e.Actor,
			Timestamp:   e.Ts,
			Description: e.Description,
			ExternalRef: e.ExternalRef,
		})
	}

	return nil
}

func rowToTrade(row tradeRow) (*entities.Trade, error) {
	quantity, err := decimal.NewFromString(row.Quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q: %w", row.Quantity, err)
	}
	unitPrice, err := decimal.NewFromString(row.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid unit price %q: %w", row.UnitPrice, err)
	}
	totalValue, err := decimal.NewFromString(row.TotalValue)
	if err != nil {
		return nil, fmt.Errorf("invalid total value %q: %w", row.TotalValue, err)
	}
	deposit, err := decimal.NewFromString(row.DepositAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid deposit amount %q: %w", row.DepositAmount, err)
	}
	advance, err := decimal.NewFromString(row.AdvanceAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid advance amount %q: %w", row.AdvanceAmount, err)
	}
	final, err := decimal.NewFromString(row.FinalAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid final amount %q: %w", row.FinalAmount, err)
	}

	return &entities.Trade{
		ID:             row.ID,
		LedgerRef:      row.LedgerRef,
		SupplierID:     row.SupplierID,
		BuyerID:        row.BuyerID,
		IntermediaryID: row.IntermediaryID,
		Commodity:      row.Commodity,
		Quantity:       quantity,
		Unit:           row.Unit,
		UnitPrice:      unitPrice,
		TotalValue:     totalValue,
		Currency:       row.Currency,
		DepositPct:     row.DepositPct,
		AdvancePct:     row.AdvancePct,
		DeliveryDate:   row.DeliveryDate,
		DepositAmount:  deposit,
		AdvanceAmount:  advance,
		FinalAmount:    final,
		DocumentKey:    row.DocumentKey,
		KeyIssuedAt:    row.KeyIssuedAt,
		RiskLevel:      entities.RiskLevel(row.RiskLevel),
		RiskFactors:    row.RiskFactors,
		Status:         entities.TradeStatus(row.Status),
		FundsReleased:  row.FundsReleased,
		ManualReview:   row.ManualReview,
		Version:        row.Version,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}
