package handler

import (
	"net/http"

	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/puzzle"
)

// CompletePuzzleRequest represents the request to assemble a puzzle.
type CompletePuzzleRequest struct {
	UserID   int64 `json:"user_id" validate:"required,gt=0"`
	PuzzleID int   `json:"puzzle_id" validate:"required,gt=0"`
}

// PuzzleHandler handles puzzle HTTP requests
type PuzzleHandler struct {
	puzzleSvc puzzle.Service
}

// NewPuzzleHandler creates a new puzzle handler
func NewPuzzleHandler(puzzleSvc puzzle.Service) *PuzzleHandler {
	return &PuzzleHandler{puzzleSvc: puzzleSvc}
}

// Progress returns the user's piece counts for every puzzle.
func (h *PuzzleHandler) Progress(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetInt64QueryParam(r, w, "user_id")
	if !ok {
		return
	}

	progress, err := h.puzzleSvc.Progress(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, "Puzzle progress", err)
		return
	}
	respondJSON(w, http.StatusOK, DataResponse{Data: progress})
}

// Complete consumes one copy of every piece and records the completion.
func (h *PuzzleHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompletePuzzleRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Complete puzzle"); err != nil {
		return
	}

	res, err := h.puzzleSvc.Complete(r.Context(), req.UserID, req.PuzzleID)
	if err != nil {
		respondServiceError(w, r, "Complete puzzle", err)
		return
	}

	logger.FromContext(r.Context()).Info("Puzzle completed",
		"user_id", req.UserID, "puzzle_id", req.PuzzleID, "times", res.TimesCompleted)
	respondJSON(w, http.StatusOK, res)
}
