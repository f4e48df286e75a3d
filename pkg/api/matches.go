// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/swag"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

// EndMatchRequest is reported by the game server. Missing fields keep their zero value.
type EndMatchRequest struct {
	WinningTeam *string        `json:"winningTeam,omitempty"`
	Draw        *bool          `json:"draw,omitempty"`
	Reason      *string        `json:"reason,omitempty"`
	Scores      map[string]int `json:"scores,omitempty"`
}

func (req EndMatchRequest) result() models.MatchResult {
	return models.MatchResult{
		WinningTeam: swag.StringValue(req.WinningTeam),
		Draw:        swag.BoolValue(req.Draw) || req.WinningTeam == nil,
		Reason:      swag.StringValue(req.Reason),
		Scores:      req.Scores,
	}
}

func (h *Handler) AcceptMatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.coordinator.Accept(scopeFrom(r), chi.URLParam(r, "matchId"), userID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) DeclineMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Decline(scopeFrom(r), chi.URLParam(r, "matchId"), userID(r)); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) EndMatch(w http.ResponseWriter, r *http.Request) {
	var req EndMatchRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}

	if err := h.coordinator.EndMatch(scopeFrom(r), chi.URLParam(r, "matchId"), req.result()); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchId")
	if match, ok := h.coordinator.Get(matchID); ok {
		respondJSON(w, http.StatusOK, match)
		return
	}
	if pending, ok := h.coordinator.Pending(matchID); ok {
		respondJSON(w, http.StatusOK, pending)
		return
	}
	respondErr(w, r, models.ErrMatchNotFound)
}

func (h *Handler) ActiveMatches(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.coordinator.Active())
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	if h.inbox == nil {
		respondJSON(w, http.StatusOK, []models.InboxEvent{})
		return
	}

	events, err := h.inbox.Drain(scopeFrom(r).Ctx, userID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if events == nil {
		events = []models.InboxEvent{}
	}
	respondJSON(w, http.StatusOK, events)
}
