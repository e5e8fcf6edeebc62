package handler

import (
	"net/http"

	"github.com/brainphreak/GPKdex-discord-bot/internal/catalog"
	"github.com/brainphreak/GPKdex-discord-bot/internal/domain"
)

// DefaultLeaderboardLimit bounds the leaderboard response size.
const DefaultLeaderboardLimit = 10

// CatalogHandler handles catalog, leaderboard and collection HTTP requests
type CatalogHandler struct {
	catalogSvc catalog.Service
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogSvc catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// Card looks up a card by its identifier, e.g. "OS2-85A".
func (h *CatalogHandler) Card(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("card")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "Missing card query parameter")
		return
	}
	key, err := domain.ParseCardKey(raw)
	if err != nil {
		respondServiceError(w, r, "Card lookup", err)
		return
	}

	item, err := h.catalogSvc.ItemByKey(r.Context(), key)
	if err != nil {
		respondServiceError(w, r, "Card lookup", err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// Puzzles lists the configured puzzles.
func (h *CatalogHandler) Puzzles(w http.ResponseWriter, r *http.Request) {
	puzzles, err := h.catalogSvc.Puzzles(r.Context())
	if err != nil {
		respondServiceError(w, r, "List puzzles", err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: puzzles})
}

// Leaderboard returns the top collectors.
func (h *CatalogHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := GetOptionalIntQueryParam(r, "limit", DefaultLeaderboardLimit)

	ranks, err := h.catalogSvc.Leaderboard(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, "Leaderboard", err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: ranks})
}

// Stats returns the user's collection statistics.
func (h *CatalogHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetInt64QueryParam(r, w, "user_id")
	if !ok {
		return
	}

	stats, err := h.catalogSvc.Stats(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, "Collection stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
