package handler

import (
	"net/http"

	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/trade"
)

// CreateTradeRequest represents the request to open a trade.
type CreateTradeRequest struct {
	GuildID     int64 `json:"guild_id" validate:"required,gt=0"`
	InitiatorID int64 `json:"initiator_id" validate:"required,gt=0"`
	PartnerID   int64 `json:"partner_id" validate:"required,gt=0"`
}

// TradeLineRequest represents an offer line change.
type TradeLineRequest struct {
	TradeID  int64 `json:"trade_id" validate:"required,gt=0"`
	UserID   int64 `json:"user_id" validate:"required,gt=0"`
	ItemID   int   `json:"item_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity"`
}

// TradeActionRequest represents a lock, confirm or cancel on a trade.
type TradeActionRequest struct {
	TradeID int64 `json:"trade_id" validate:"required,gt=0"`
	UserID  int64 `json:"user_id" validate:"required,gt=0"`
}

// TradeHandler handles trade HTTP requests
type TradeHandler struct {
	tradeSvc trade.Service
}

// NewTradeHandler creates a new trade handler
func NewTradeHandler(tradeSvc trade.Service) *TradeHandler {
	return &TradeHandler{tradeSvc: tradeSvc}
}

// Create opens a trade between two users.
func (h *TradeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTradeRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Create trade"); err != nil {
		return
	}

	t, err := h.tradeSvc.Create(r.Context(), req.GuildID, req.InitiatorID, req.PartnerID)
	if err != nil {
		respondServiceError(w, r, "Create trade", err)
		return
	}

	logger.FromContext(r.Context()).Info("Trade created",
		"trade_id", t.ID, "initiator_id", req.InitiatorID, "partner_id", req.PartnerID)
	respondJSON(w, http.StatusCreated, t)
}

// Get returns the user's active trade with its offer lines.
func (h *TradeHandler) Get(w http.ResponseWriter, r *http.Request) {
	guildID, ok := GetInt64QueryParam(r, w, "guild_id")
	if !ok {
		return
	}
	userID, ok := GetInt64QueryParam(r, w, "user_id")
	if !ok {
		return
	}

	view, err := h.tradeSvc.Get(r.Context(), guildID, userID)
	if err != nil {
		respondServiceError(w, r, "Get trade", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// AddLine adds or replaces an offer line.
func (h *TradeHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req TradeLineRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Add trade line"); err != nil {
		return
	}

	if err := h.tradeSvc.AddLine(r.Context(), req.TradeID, req.UserID, req.ItemID, req.Quantity); err != nil {
		respondServiceError(w, r, "Add trade line", err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Offer updated"})
}

// RemoveLine withdraws copies from an offer line, clamping at zero.
func (h *TradeHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	var req TradeLineRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Remove trade line"); err != nil {
		return
	}

	if err := h.tradeSvc.RemoveLine(r.Context(), req.TradeID, req.UserID, req.ItemID, req.Quantity); err != nil {
		respondServiceError(w, r, "Remove trade line", err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Offer updated"})
}

// Lock freezes the caller's side of the offer.
func (h *TradeHandler) Lock(w http.ResponseWriter, r *http.Request) {
	var req TradeActionRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Lock trade"); err != nil {
		return
	}

	t, err := h.tradeSvc.Lock(r.Context(), req.TradeID, req.UserID)
	if err != nil {
		respondServiceError(w, r, "Lock trade", err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// Confirm approves execution; the second confirmation settles the trade.
func (h *TradeHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req TradeActionRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Confirm trade"); err != nil {
		return
	}

	t, err := h.tradeSvc.Confirm(r.Context(), req.TradeID, req.UserID)
	if err != nil {
		respondServiceError(w, r, "Confirm trade", err)
		return
	}

	logger.FromContext(r.Context()).Info("Trade confirmed",
		"trade_id", req.TradeID, "user_id", req.UserID, "status", t.Status)
	respondJSON(w, http.StatusOK, t)
}

// Cancel aborts a non-terminal trade.
func (h *TradeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req TradeActionRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Cancel trade"); err != nil {
		return
	}

	if err := h.tradeSvc.Cancel(r.Context(), req.TradeID, req.UserID); err != nil {
		respondServiceError(w, r, "Cancel trade", err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Trade cancelled"})
}
