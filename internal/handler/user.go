package handler

import (
	"net/http"

	"github.com/brainphreak/GPKdex-discord-bot/internal/ledger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/reward"
)

// UserHandler handles profile, inventory and reward HTTP requests
type UserHandler struct {
	ledgerSvc ledger.Service
	rewardSvc reward.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(ledgerSvc ledger.Service, rewardSvc reward.Service) *UserHandler {
	return &UserHandler{
		ledgerSvc: ledgerSvc,
		rewardSvc: rewardSvc,
	}
}

// Profile returns the user row, creating it on first reference.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetInt64QueryParam(r, w, "user_id")
	if !ok {
		return
	}

	user, err := h.ledgerSvc.Profile(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, "Get profile", err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Inventory returns the user's inventory joined with catalog items.
func (h *UserHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetInt64QueryParam(r, w, "user_id")
	if !ok {
		return
	}

	lines, err := h.ledgerSvc.Inventory(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, "Get inventory", err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: lines})
}

// RewardRequest identifies the user claiming a reward.
type RewardRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// Daily grants the 24h coin stipend.
func (h *UserHandler) Daily(w http.ResponseWriter, r *http.Request) {
	var req RewardRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Daily reward"); err != nil {
		return
	}

	res, err := h.rewardSvc.Daily(r.Context(), req.UserID)
	if err != nil {
		respondServiceError(w, r, "Daily reward", err)
		return
	}

	logger.FromContext(r.Context()).Info("Daily reward granted", "user_id", req.UserID, "coins", res.Coins)
	respondJSON(w, http.StatusOK, res)
}

// Claim grants the hourly random card.
func (h *UserHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req RewardRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Claim"); err != nil {
		return
	}

	res, err := h.rewardSvc.Claim(r.Context(), req.UserID)
	if err != nil {
		respondServiceError(w, r, "Claim", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// LeveledClaim grants the 12h level-scaled claim.
func (h *UserHandler) LeveledClaim(w http.ResponseWriter, r *http.Request) {
	var req RewardRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Leveled claim"); err != nil {
		return
	}

	res, err := h.rewardSvc.LeveledClaim(r.Context(), req.UserID)
	if err != nil {
		respondServiceError(w, r, "Leveled claim", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GiveItemRequest represents the request to transfer an item between users.
type GiveItemRequest struct {
	FromUserID int64 `json:"from_user_id" validate:"required,gt=0"`
	ToUserID   int64 `json:"to_user_id" validate:"required,gt=0"`
	ItemID     int   `json:"item_id" validate:"required,gt=0"`
	Quantity   int   `json:"quantity" validate:"required,gt=0"`
}

// GiveItem transfers copies of an item between two users.
func (h *UserHandler) GiveItem(w http.ResponseWriter, r *http.Request) {
	var req GiveItemRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Give item"); err != nil {
		return
	}

	if err := h.ledgerSvc.GiveItem(r.Context(), req.FromUserID, req.ToUserID, req.ItemID, req.Quantity); err != nil {
		respondServiceError(w, r, "Give item", err)
		return
	}

	logger.FromContext(r.Context()).Info("Item given",
		"from_user_id", req.FromUserID, "to_user_id", req.ToUserID,
		"item_id", req.ItemID, "quantity", req.Quantity)
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Item transferred successfully"})
}
