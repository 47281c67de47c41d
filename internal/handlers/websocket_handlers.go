package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/zalmanollech/Tangent-Platform-sub001/internal/core/ports"
)

type WebSocketHandler struct {
	logger           *slog.Logger
	tradeService     ports.TradeService
	websocketManager *Manager
}

func NewWebSocketHandler(
	logger *slog.Logger,
	tradeService ports.TradeService,
	websocketManager *Manager,
) *WebSocketHandler {
	return &WebSocketHandler{
		logger:           logger,
		tradeService:     tradeService,
		websocketManager: websocketManager,
	}
}

func (h *WebSocketHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws/trades", h.HandleAllTrades)
	router.HandleFunc("/ws/trades/{tradeId}", h.HandleTrade)
}

// HandleAllTrades streams every committed trade transition.
func (h *WebSocketHandler) HandleAllTrades(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "trades")
}

// HandleTrade streams transitions of a single trade.
func (h *WebSocketHandler) HandleTrade(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tradeID := vars["tradeId"]

	if _, err := h.tradeService.GetTrade(r.Context(), tradeID); err != nil {
		http.Error(w, "Trade not found", http.StatusNotFound)
		return
	}

	h.serve(w, r, "trades."+tradeID)
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, topic string) {
	conn, err := h.websocketManager.Upgrade(w, r)
	if err != nil {
		h.logger.Error("Error upgrading connection", "error", err)
		return
	}

	h.logger.Info("New WebSocket connection", "topic", topic)
	h.websocketManager.Subscribe(topic, conn)

	// Keep connection open and handle disconnection
	for {
		_, _, readErr := conn.ReadMessage()
		if readErr != nil {
			h.logger.Info("WebSocket connection closed", "topic", topic, "error", readErr)
			h.websocketManager.Unsubscribe(topic, conn)
			conn.Close()
			break
		}
	}
}
