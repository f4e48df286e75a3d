// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package api exposes the arena backend over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AccelByte/extend-arena-backend/pkg/anticheat"
	"github.com/AccelByte/extend-arena-backend/pkg/collaborator"
	"github.com/AccelByte/extend-arena-backend/pkg/common"
	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
	"github.com/AccelByte/extend-arena-backend/pkg/fleet"
	"github.com/AccelByte/extend-arena-backend/pkg/lifecycle"
	"github.com/AccelByte/extend-arena-backend/pkg/matchmaker"
)

const (
	// UserIDHeader carries the authenticated player id, set by the gateway in front of the backend.
	UserIDHeader = "X-User-Id"

	requestTimeout = 10 * time.Second
)

type scopeKey struct{}

// Handler serves the HTTP surface of every component.
type Handler struct {
	queue       *matchmaker.QueueManager
	registry    *fleet.Registry
	coordinator *lifecycle.Coordinator
	monitor     *anticheat.Monitor
	inbox       collaborator.Inbox
	now         func() time.Time
}

func NewHandler(
	queue *matchmaker.QueueManager,
	registry *fleet.Registry,
	coordinator *lifecycle.Coordinator,
	monitor *anticheat.Monitor,
	inbox collaborator.Inbox,
) *Handler {
	return &Handler{
		queue:       queue,
		registry:    registry,
		coordinator: coordinator,
		monitor:     monitor,
		inbox:       inbox,
		now:         common.Now,
	}
}

func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
}

// Routes returns the router with every endpoint mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(withScope)

	r.Get("/healthz", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/servers", func(r chi.Router) {
			r.Post("/", h.RegisterServer)
			r.Get("/", h.ListServers)
			r.Get("/stats", h.FleetStats)
			r.Get("/{serverId}", h.GetServer)
			r.Delete("/{serverId}", h.UnregisterServer)
			r.Post("/{serverId}/heartbeat", h.Heartbeat)
		})

		r.Route("/queue", func(r chi.Router) {
			r.Get("/stats", h.QueueStats)
			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Post("/", h.JoinQueue)
				r.Delete("/", h.LeaveQueue)
				r.Get("/me", h.QueueInfo)
			})
		})

		r.Route("/parties", func(r chi.Router) {
			r.Use(requireUser)
			r.Post("/", h.CreateParty)
			r.Get("/me", h.MyParty)
			r.Post("/leave", h.LeaveParty)
			r.Post("/invites/{inviteId}/accept", h.AcceptInvite)
			r.Get("/{partyId}", h.GetParty)
			r.Post("/{partyId}/invites", h.InviteToParty)
			r.Delete("/{partyId}/members/{memberId}", h.KickFromParty)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.ActiveMatches)
			r.Get("/{matchId}", h.GetMatch)
			r.Post("/{matchId}/end", h.EndMatch)
			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Post("/{matchId}/accept", h.AcceptMatch)
				r.Post("/{matchId}/decline", h.DeclineMatch)
			})
		})

		r.Route("/telemetry", func(r chi.Router) {
			r.Post("/state", h.PlayerState)
			r.Post("/{kind}", h.Telemetry)
		})

		r.Route("/anticheat", func(r chi.Router) {
			r.Get("/stats", h.AntiCheatStats)
			r.Get("/players/{playerId}", h.PlayerStats)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/notifications", h.Notifications)
			r.Post("/disconnect", h.Disconnect)
		})
	})

	return r
}

// withScope opens a root scope per request, continuing the trace of the caller when headers carry one.
func withScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		scope := envelope.NewRootScope(ctx, r.Method+" "+r.URL.Path, "")
		defer scope.Finish()

		scope = scope.WithField("requestID", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(context.WithValue(scope.Ctx, scopeKey{}, scope)))
	})
}

func scopeFrom(r *http.Request) *envelope.Scope {
	if scope, ok := r.Context().Value(scopeKey{}).(*envelope.Scope); ok {
		return scope
	}
	return envelope.NewRootScope(r.Context(), "request", "")
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(UserIDHeader) == "" {
			respondError(w, http.StatusUnauthorized, 20001, "missing "+UserIDHeader+" header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userID(r *http.Request) string {
	return r.Header.Get(UserIDHeader)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func logRequestError(r *http.Request, err error) {
	scopeFrom(r).Log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Debugf("request rejected: %s", err.Error())
}
