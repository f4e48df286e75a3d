// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

func (h *Handler) RegisterServer(w http.ResponseWriter, r *http.Request) {
	var desc models.ServerDescriptor
	if err := decode(r, &desc); err != nil {
		respondErr(w, r, err)
		return
	}

	node, err := h.registry.Register(scopeFrom(r), desc)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, node)
}

// UnregisterServer always succeeds, unregistering an unknown server is a no-op.
func (h *Handler) UnregisterServer(w http.ResponseWriter, r *http.Request) {
	h.registry.Unregister(scopeFrom(r), chi.URLParam(r, "serverId"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var load models.LoadSample
	if err := decode(r, &load); err != nil {
		respondErr(w, r, err)
		return
	}

	if err := h.registry.Heartbeat(scopeFrom(r), chi.URLParam(r, "serverId"), load); err != nil {
		respondErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListServers(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.registry.List())
}

func (h *Handler) GetServer(w http.ResponseWriter, r *http.Request) {
	node, ok := h.registry.Get(chi.URLParam(r, "serverId"))
	if !ok {
		respondErr(w, r, models.ErrServerNotFound)
		return
	}
	respondJSON(w, http.StatusOK, node)
}

func (h *Handler) FleetStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.registry.Stats())
}
