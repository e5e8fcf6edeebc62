package handler

import (
	"net/http"

	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/spawn"
)

// ActivityRequest represents a guild activity ping that may trigger a spawn.
type ActivityRequest struct {
	GuildID   int64 `json:"guild_id" validate:"required,gt=0"`
	ChannelID int64 `json:"channel_id" validate:"required,gt=0"`
}

// ClaimSpawnRequest represents the request to catch the latest spawn.
type ClaimSpawnRequest struct {
	GuildID int64 `json:"guild_id" validate:"required,gt=0"`
	UserID  int64 `json:"user_id" validate:"required,gt=0"`
}

// SetSpawnChannelRequest pins guild spawns to one channel.
type SetSpawnChannelRequest struct {
	GuildID   int64 `json:"guild_id" validate:"required,gt=0"`
	ChannelID int64 `json:"channel_id" validate:"required,gt=0"`
}

// SpawnHandler handles spawn HTTP requests
type SpawnHandler struct {
	spawnSvc spawn.Service
}

// NewSpawnHandler creates a new spawn handler
func NewSpawnHandler(spawnSvc spawn.Service) *SpawnHandler {
	return &SpawnHandler{spawnSvc: spawnSvc}
}

// Activity records guild activity and may trigger spawns under the cooldown.
func (h *SpawnHandler) Activity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Spawn activity"); err != nil {
		return
	}

	spawns, err := h.spawnSvc.HandleActivity(r.Context(), req.GuildID, req.ChannelID)
	if err != nil {
		respondServiceError(w, r, "Spawn activity", err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: spawns})
}

// Create forces a solo spawn, bypassing the activity cooldown (admin).
func (h *SpawnHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Force spawn"); err != nil {
		return
	}

	sp, err := h.spawnSvc.ForceSpawn(r.Context(), req.GuildID, req.ChannelID)
	if err != nil {
		respondServiceError(w, r, "Force spawn", err)
		return
	}

	logger.FromContext(r.Context()).Info("Spawn forced",
		"guild_id", req.GuildID, "channel_id", req.ChannelID, "item_id", sp.ItemID)
	respondJSON(w, http.StatusCreated, sp)
}

// Claim catches the latest unclaimed spawn in the guild.
func (h *SpawnHandler) Claim(w http.ResponseWriter, r *http.Request) {
	var req ClaimSpawnRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Claim spawn"); err != nil {
		return
	}

	res, err := h.spawnSvc.Claim(r.Context(), req.GuildID, req.UserID)
	if err != nil {
		respondServiceError(w, r, "Claim spawn", err)
		return
	}

	logger.FromContext(r.Context()).Info("Spawn claimed",
		"guild_id", req.GuildID, "user_id", req.UserID, "item_id", res.Item.ID)
	respondJSON(w, http.StatusOK, res)
}

// SetChannel pins future spawns in the guild to one channel.
func (h *SpawnHandler) SetChannel(w http.ResponseWriter, r *http.Request) {
	var req SetSpawnChannelRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Set spawn channel"); err != nil {
		return
	}

	if err := h.spawnSvc.SetSpawnChannel(r.Context(), req.GuildID, req.ChannelID); err != nil {
		respondServiceError(w, r, "Set spawn channel", err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Spawn channel updated"})
}

// Pending returns the number of unclaimed spawns in the guild.
func (h *SpawnHandler) Pending(w http.ResponseWriter, r *http.Request) {
	guildID, ok := GetInt64QueryParam(r, w, "guild_id")
	if !ok {
		return
	}

	count, err := h.spawnSvc.Pending(r.Context(), guildID)
	if err != nil {
		respondServiceError(w, r, "Pending spawns", err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: map[string]int{"pending": count}})
}
