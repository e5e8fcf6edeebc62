package handler

import (
	"net/http"

	"github.com/brainphreak/GPKdex-discord-bot/internal/crafting"
	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
)

// CraftRequest represents the request to craft a B variant from A copies.
type CraftRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Card   string `json:"card" validate:"required,cardkey"`
}

// CraftingHandler handles crafting HTTP requests
type CraftingHandler struct {
	craftingSvc crafting.Service
}

// NewCraftingHandler creates a new crafting handler
func NewCraftingHandler(craftingSvc crafting.Service) *CraftingHandler {
	return &CraftingHandler{craftingSvc: craftingSvc}
}

// Craft converts A-variant copies into the B variant of the same card.
func (h *CraftingHandler) Craft(w http.ResponseWriter, r *http.Request) {
	var req CraftRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Craft"); err != nil {
		return
	}

	key, err := domain.ParseCardKey(req.Card)
	if err != nil {
		respondServiceError(w, r, "Craft", err)
		return
	}

	res, err := h.craftingSvc.CraftVariant(r.Context(), req.UserID, key)
	if err != nil {
		respondServiceError(w, r, "Craft", err)
		return
	}

	logger.FromContext(r.Context()).Info("Card crafted",
		"user_id", req.UserID, "card", key.String())
	respondJSON(w, http.StatusOK, res)
}
