// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// Codes for lookups that miss without an underlying error.
const (
	codeNotQueued  = 520109
	codeNotTracked = 520501
	codeNoParty    = 520111
)

var conflictErrors = []error{
	models.ErrAlreadyQueued,
	models.ErrAlreadyInParty,
	models.ErrServerRegistered,
	models.ErrPartyFull,
	models.ErrAlreadyInMatch,
}

// StatusOf maps an error to the HTTP status of its kind.
func StatusOf(err error) int {
	for _, conflict := range conflictErrors {
		if errors.Is(err, conflict) {
			return http.StatusConflict
		}
	}

	switch models.Kind(err) {
	case models.KindInvalidQueueRequest, models.KindValidationRejected:
		if errors.Is(err, models.ErrBanned) || errors.Is(err, models.ErrNotPartyLeader) || errors.Is(err, models.ErrNotMatchParticipant) {
			return http.StatusForbidden
		}
		return http.StatusBadRequest
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindCapacityExhausted:
		return http.StatusServiceUnavailable
	case models.KindAcceptanceTimeout, models.KindStaleHeartbeat:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Warnf("unable to write response: %s", err.Error())
	}
}

func respondError(w http.ResponseWriter, status int, code int, message string) {
	respondJSON(w, status, ErrorResponse{ErrorCode: code, ErrorMessage: message})
}

func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	logRequestError(r, err)

	status := StatusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	respondError(w, status, models.ErrorCode(err), message)
}

func decode(r *http.Request, into interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return fmt.Errorf("%w: %s", models.ErrMalformedRequest, err.Error())
	}
	return nil
}
