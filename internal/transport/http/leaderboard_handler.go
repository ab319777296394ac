package http

import (
	"encoding/json"
	"net/http"

	"trivia-arcade/internal/app"
	"trivia-arcade/internal/domain"
)

// LeaderboardHandler serves the stored top-10 boards as JSON.
type LeaderboardHandler struct {
	service *app.GameService
}

func NewLeaderboardHandler(service *app.GameService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mode := domain.Mode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = domain.ModeEndless
	}

	entries, err := h.service.Leaderboard(r.Context(), mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}
