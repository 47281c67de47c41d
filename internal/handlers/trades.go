package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.openly.dev/pointy"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
	"github.com/zalmanollech/Tangent-Platform-sub001/internal/entities"
)

// HTTPHandler is the thin HTTP surface over the trade service. Request
// validation and status mapping only; all business logic lives in the
// service. Authentication happens upstream, the actor identity arrives
// in headers.
type HTTPHandler struct {
	logger       *slog.Logger
	tradeService ports.TradeService
}

func NewHTTPHandler(logger *slog.Logger, tradeService ports.TradeService) *HTTPHandler {
	return &HTTPHandler{
		logger:       logger,
		tradeService: tradeService,
	}
}

func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	// API endpoints.

	router.HandleFunc("/trades", h.CreateTrade).Methods("POST")
	router.HandleFunc("/trades", h.ListTrades).Methods("GET")
	router.HandleFunc("/trades/{tradeId}", h.GetTrade).Methods("GET")

	router.HandleFunc("/trades/{tradeId}/activate", h.Activate).Methods("POST")
	router.HandleFunc("/trades/{tradeId}/advance", h.ActivateAdvance).Methods("POST")
	router.HandleFunc("/trades/{tradeId}/payments", h.RecordPayment).Methods("POST")
	router.HandleFunc("/trades/{tradeId}/documents", h.AddDocument).Methods("POST")
	router.HandleFunc("/trades/{tradeId}/documents/{position:[0-9]+}/review", h.ReviewDocument).Methods("POST")
	router.HandleFunc("/trades/{tradeId}/key", h.IssueDocumentKey).Methods("POST")
	router.HandleFunc("/trades/{tradeId}/cancel", h.Cancel).Methods("POST")
	router.HandleFunc("/trades/{tradeId}/dispute", h.Dispute).Methods("POST")
}

func actorFromRequest(r *http.Request) (ports.Actor, bool) {
	id := r.Header.Get("X-Actor-Id")
	role := r.Header.Get("X-Actor-Role")
	if id == "" || role == "" {
		return ports.Actor{}, false
	}
	return ports.Actor{ID: id, Role: ports.Role(role)}, true
}

type createTradeRequest struct {
	SupplierID     string `json:"supplier_id"`
	BuyerID        string `json:"buyer_id"`
	IntermediaryID string `json:"intermediary_id,omitempty"`
	Commodity      string `json:"commodity"`
	Quantity       string `json:"quantity"`
	Unit           string `json:"unit"`
	UnitPrice      string `json:"unit_price"`
	Currency       string `json:"currency"`
	DepositPct     int64  `json:"deposit_pct"`
	AdvancePct     int64  `json:"advance_pct"`
	DeliveryDate   string `json:"delivery_date"`
}

func (h *HTTPHandler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, "Missing actor headers", http.StatusBadRequest)
		return
	}

	var req createTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		http.Error(w, "Invalid quantity", http.StatusBadRequest)
		return
	}
	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		http.Error(w, "Invalid unit price", http.StatusBadRequest)
		return
	}

	params := ports.CreateTradeParams{
		SupplierID:   req.SupplierID,
		BuyerID:      req.BuyerID,
		Commodity:    req.Commodity,
		Quantity:     quantity,
		Unit:         req.Unit,
		UnitPrice:    unitPrice,
		Currency:     req.Currency,
		DepositPct:   req.DepositPct,
		AdvancePct:   req.AdvancePct,
		DeliveryDate: req.DeliveryDate,
	}
	if req.IntermediaryID != "" {
		params.IntermediaryID = pointy.String(req.IntermediaryID)
	}

	trade, err := h.tradeService.CreateTrade(r.Context(), actor, params)
	if err != nil {
		h.writeError(w, r, "Create Trade", err)
		return
	}

	h.writeTrade(w, http.StatusCreated, trade)
}

func (h *HTTPHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	filter := ports.TradeFilter{
		PartyID: r.URL.Query().Get("party_id"),
		Status:  entities.TradeStatus(r.URL.Query().Get("status")),
	}
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		limit, err := strconv.ParseUint(limitParam, 10, 64)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	trades, err := h.tradeService.ListTrades(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, "List Trades", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trades)
}

func (h *HTTPHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	trade, err := h.tradeService.GetTrade(r.Context(), mux.Vars(r)["tradeId"])
	if err != nil {
		h.writeError(w, r, "Get Trade", err)
		return
	}

	h.writeTrade(w, http.StatusOK, trade)
}

func (h *HTTPHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Activate Trade", func(actor ports.Actor, tradeID string) (*entities.Trade, error) {
		return h.tradeService.Activate(r.Context(), actor, tradeID)
	})
}

func (h *HTTPHandler) ActivateAdvance(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Activate Advance", func(actor ports.Actor, tradeID string) (*entities.Trade, error) {
		return h.tradeService.ActivateAdvance(r.Context(), actor, tradeID)
	})
}

type recordPaymentRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	ExternalRef string `json:"external_ref,omitempty"`
}

func (h *HTTPHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		http.Error(w, "Invalid amount", http.StatusBadRequest)
		return
	}

	h.mutate(w, r, "Record Payment", func(actor ports.Actor, tradeID string) (*entities.Trade, error) {
		return h.tradeService.RecordPayment(r.Context(), actor, tradeID, entities.PaymentKind(req.Kind), amount, req.ExternalRef)
	})
}

type addDocumentRequest struct {
	Type        string `json:"type"`
	ContentHash string `json:"content_hash"`
	Locator     string `json:"locator"`
	Required    *bool  `json:"required,omitempty"`
}

func (h *HTTPHandler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Documents are required for final payment eligibility unless the
	// uploader says otherwise.
	required := pointy.BoolValue(req.Required, true)

	h.mutate(w, r, "Add Document", func(actor ports.Actor, tradeID string) (*entities.Trade, error) {
		return h.tradeService.AddDocument(r.Context(), actor, tradeID, ports.AddDocumentParams{
			Type:        req.Type,
			ContentHash: req.ContentHash,
			Locator:     req.Locator,
			Required:    required,
		})
	})
}

type reviewDocumentRequest struct {
	Accept bool `json:"accept"`
}

func (h *HTTPHandler) ReviewDocument(w http.ResponseWriter, r *http.Request) {
	position, err := strconv.Atoi(mux.Vars(r)["position"])
	if err != nil {
		http.Error(w, "Invalid document position", http.StatusBadRequest)
		return
	}

	var req reviewDocumentRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.mutate(w, r, "Review Document", func(actor ports.Actor, tradeID string) (*entities.Trade, error) {
		return h.tradeService.ReviewDocument(r.Context(), actor, tradeID, position, req.Accept)
	})
}

func (h *HTTPHandler) IssueDocumentKey(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "Issue Document Key", func(actor ports.Actor, tradeID string) (*entities.Trade, error) {
		return h.tradeService.IssueDocumentKey(r.Context(), actor, tradeID)
	})
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *HTTPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.mutate(w, r, "Cancel Trade", func(actor ports.Actor, tradeID string) (*entities.Trade, error) {
		return h.tradeService.Cancel(r.Context(), actor, tradeID, req.Reason)
	})
}

func (h *HTTPHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.mutate(w, r, "Dispute Trade", func(actor ports.Actor, tradeID string) (*entities.Trade, error) {
		return h.tradeService.Dispute(r.Context(), actor, tradeID, req.Reason)
	})
}

func (h *HTTPHandler) mutate(w http.ResponseWriter, r *http.Request, operation string, fn func(ports.Actor, string) (*entities.Trade, error)) {
	actor, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, "Missing actor headers", http.StatusBadRequest)
		return
	}

	trade, err := fn(actor, mux.Vars(r)["tradeId"])
	if err != nil {
		h.writeError(w, r, operation, err)
		return
	}

	h.writeTrade(w, http.StatusOK, trade)
}

func (h *HTTPHandler) writeTrade(w http.ResponseWriter, status int, trade *entities.Trade) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(trade)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ports.ErrTradeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ports.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, ports.ErrInvalidTradeTerms),
		errors.Is(err, ports.ErrInsufficientPayment):
		status = http.StatusBadRequest
	case errors.Is(err, ports.ErrInvalidTransition),
		errors.Is(err, ports.ErrDuplicateExternalReference),
		errors.Is(err, ports.ErrAlreadyIssued),
		errors.Is(err, ports.ErrAlreadySettled),
		errors.Is(err, ports.ErrIntegrityMismatch),
		errors.Is(err, ports.ErrVersionConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("["+operation+"] Unexpected error", "error", err, "path", r.URL.Path)
	}

	http.Error(w, err.Error(), status)
}
