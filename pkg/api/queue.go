// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

func (h *Handler) JoinQueue(w http.ResponseWriter, r *http.Request) {
	var req models.JoinRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}

	result, err := h.queue.Join(scopeFrom(r), userID(r), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

func (h *Handler) LeaveQueue(w http.ResponseWriter, r *http.Request) {
	left := h.queue.Leave(scopeFrom(r), userID(r))
	respondJSON(w, http.StatusOK, map[string]bool{"left": left})
}

func (h *Handler) QueueInfo(w http.ResponseWriter, r *http.Request) {
	info, ok := h.queue.PlayerInfo(userID(r), h.now())
	if !ok {
		respondError(w, http.StatusNotFound, codeNotQueued, "not in queue")
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (h *Handler) QueueStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.queue.Stats())
}

// Disconnect removes the player from the queue and from their party.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.queue.Disconnect(scopeFrom(r), userID(r))
	w.WriteHeader(http.StatusNoContent)
}

type inviteRequest struct {
	InviteeID string `json:"inviteeId"`
}

func (h *Handler) CreateParty(w http.ResponseWriter, r *http.Request) {
	party, err := h.queue.Parties().CreateParty(scopeFrom(r), userID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, party)
}

func (h *Handler) GetParty(w http.ResponseWriter, r *http.Request) {
	party, ok := h.queue.Parties().Get(chi.URLParam(r, "partyId"))
	if !ok {
		respondErr(w, r, models.ErrPartyNotFound)
		return
	}
	respondJSON(w, http.StatusOK, party)
}

func (h *Handler) MyParty(w http.ResponseWriter, r *http.Request) {
	party, ok := h.queue.Parties().PartyOf(userID(r))
	if !ok {
		respondError(w, http.StatusNotFound, codeNoParty, models.ErrNotInParty.Error())
		return
	}
	respondJSON(w, http.StatusOK, party)
}

func (h *Handler) InviteToParty(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}

	invite, err := h.queue.Parties().Invite(scopeFrom(r), chi.URLParam(r, "partyId"), userID(r), req.InviteeID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, invite)
}

func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	party, err := h.queue.Parties().AcceptInvite(scopeFrom(r), chi.URLParam(r, "inviteId"), userID(r))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, party)
}

func (h *Handler) LeaveParty(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.Parties().LeaveParty(scopeFrom(r), userID(r)); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) KickFromParty(w http.ResponseWriter, r *http.Request) {
	err := h.queue.Parties().Kick(scopeFrom(r), chi.URLParam(r, "partyId"), userID(r), chi.URLParam(r, "memberId"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
