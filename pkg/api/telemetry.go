// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

// TelemetryRequest is one sample sent by the game server for a player.
type TelemetryRequest struct {
	PlayerID string          `json:"playerId"`
	Sample   json.RawMessage `json:"sample"`
}

type playerStateRequest struct {
	PlayerID string `json:"playerId"`
	Alive    bool   `json:"alive"`
}

func decodeSample(kind models.SampleKind, raw json.RawMessage) (models.Sample, error) {
	var (
		sample models.Sample
		err    error
	)
	switch kind {
	case models.SampleMovement:
		var s models.MovementSample
		err = json.Unmarshal(raw, &s)
		sample = s
	case models.SampleShot:
		var s models.ShotSample
		err = json.Unmarshal(raw, &s)
		sample = s
	case models.SampleAim:
		var s models.AimSample
		err = json.Unmarshal(raw, &s)
		sample = s
	case models.SampleNetwork:
		var s models.NetworkSample
		err = json.Unmarshal(raw, &s)
		sample = s
	default:
		return nil, fmt.Errorf("%w: unknown sample kind %q", models.ErrMalformedRequest, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrMalformedRequest, err.Error())
	}
	return sample, nil
}

// Telemetry validates the sample and answers with the validation result. A rejected sample is still 200.
func (h *Handler) Telemetry(w http.ResponseWriter, r *http.Request) {
	var req TelemetryRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}
	if req.PlayerID == "" {
		respondErr(w, r, fmt.Errorf("%w: playerId is required", models.ErrMalformedRequest))
		return
	}

	sample, err := decodeSample(models.SampleKind(chi.URLParam(r, "kind")), req.Sample)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, h.monitor.Validate(scopeFrom(r), req.PlayerID, sample))
}

func (h *Handler) PlayerState(w http.ResponseWriter, r *http.Request) {
	var req playerStateRequest
	if err := decode(r, &req); err != nil {
		respondErr(w, r, err)
		return
	}

	if !h.monitor.SetAlive(req.PlayerID, req.Alive) {
		respondError(w, http.StatusNotFound, codeNotTracked, models.ReasonNotTracked)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.monitor.PlayerStats(chi.URLParam(r, "playerId"), h.now())
	if !ok {
		respondError(w, http.StatusNotFound, codeNotTracked, models.ReasonNotTracked)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) AntiCheatStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.monitor.OverallStats(h.now()))
}
