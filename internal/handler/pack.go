package handler

import (
	"net/http"

	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/pack"
)

// OpenPackRequest identifies the user opening a pack.
type OpenPackRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// PackHandler handles pack HTTP requests
type PackHandler struct {
	packSvc pack.Service
}

// NewPackHandler creates a new pack handler
func NewPackHandler(packSvc pack.Service) *PackHandler {
	return &PackHandler{packSvc: packSvc}
}

// Open buys and opens a card pack.
func (h *PackHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenPackRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Open pack"); err != nil {
		return
	}

	res, err := h.packSvc.OpenPack(r.Context(), req.UserID)
	if err != nil {
		respondServiceError(w, r, "Open pack", err)
		return
	}

	logger.FromContext(r.Context()).Info("Pack opened",
		"user_id", req.UserID, "new_cards", res.NewCards)
	respondJSON(w, http.StatusOK, res)
}
