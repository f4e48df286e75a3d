// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusMetrics struct {
	queueSize               prometheus.GaugeVec
	tickElapsedTime         prometheus.HistogramVec
	matchesFormed           prometheus.CounterVec
	unmatchedReasons        prometheus.CounterVec
	pendingMatchesCancelled prometheus.CounterVec
	serversOnline           prometheus.GaugeVec
	migrations              prometheus.CounterVec
	violations              prometheus.CounterVec
	enforcements            prometheus.CounterVec
}

func setupPrometheusMetrics(registry *prometheus.Registry) prometheusMetrics {
	factory := promauto.With(registry)
	bucketLabelDimensions := []string{"game_mode", "region"}

	queueSize := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "arena_queue_size",
			Help: "Number of queued players per game mode and region",
		}, bucketLabelDimensions)

	//nolint:promlinter
	tickElapsedTime := factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arena_queue_tick_elapsed_time_ms",
			Help:    "A histogram of queue tick elapsed time per bucket in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, bucketLabelDimensions)

	//nolint:promlinter
	matchesFormed := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_matches_formed",
			Help: "Number of groups formed by the queue tick",
		}, bucketLabelDimensions)

	//nolint:promlinter
	unmatchedReasons := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_unmatched_reasons",
			Help: "Reasons why queued players were left unmatched in a tick",
		}, append(bucketLabelDimensions, "reason"))

	//nolint:promlinter
	pendingMatchesCancelled := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_pending_matches_cancelled",
			Help: "Pending matches cancelled before start",
		}, []string{"game_mode", "reason"})

	serversOnline := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "arena_servers_online",
			Help: "Number of online game servers per region",
		}, []string{"region"})

	//nolint:promlinter
	migrations := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_match_migrations",
			Help: "Matches moved off a failed server, by result",
		}, []string{"result"})

	//nolint:promlinter
	violations := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_anticheat_violations",
			Help: "Anti-cheat violations by type",
		}, []string{"type"})

	//nolint:promlinter
	enforcements := factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arena_anticheat_enforcements",
			Help: "Anti-cheat enforcement actions applied",
		}, []string{"action"})

	return prometheusMetrics{
		queueSize:               *queueSize,
		tickElapsedTime:         *tickElapsedTime,
		matchesFormed:           *matchesFormed,
		unmatchedReasons:        *unmatchedReasons,
		pendingMatchesCancelled: *pendingMatchesCancelled,
		serversOnline:           *serversOnline,
		migrations:              *migrations,
		violations:              *violations,
		enforcements:            *enforcements,
	}
}

func (metrics prometheusMetrics) QueueSize(gameMode string, region string, numPlayers int) {
	metrics.queueSize.With(prometheus.Labels{"game_mode": gameMode, "region": region}).Set(float64(numPlayers))
}

func (metrics prometheusMetrics) AddTickElapsedTimeMs(gameMode string, region string, elapsedTime time.Duration) {
	metrics.tickElapsedTime.With(prometheus.Labels{"game_mode": gameMode, "region": region}).Observe(float64(elapsedTime.Milliseconds()))
}

func (metrics prometheusMetrics) AddMatchFormed(gameMode string, region string) {
	metrics.matchesFormed.With(prometheus.Labels{"game_mode": gameMode, "region": region}).Inc()
}

func (metrics prometheusMetrics) AddUnmatchedReason(gameMode string, region string, reason string) {
	metrics.unmatchedReasons.With(prometheus.Labels{"game_mode": gameMode, "region": region, "reason": reason}).Add(float64(1))
}

func (metrics prometheusMetrics) AddPendingMatchCancelled(gameMode string, reason string) {
	metrics.pendingMatchesCancelled.With(prometheus.Labels{"game_mode": gameMode, "reason": reason}).Inc()
}

func (metrics prometheusMetrics) ServersOnline(region string, count int) {
	metrics.serversOnline.With(prometheus.Labels{"region": region}).Set(float64(count))
}

func (metrics prometheusMetrics) AddMigration(result string) {
	metrics.migrations.With(prometheus.Labels{"result": result}).Inc()
}

func (metrics prometheusMetrics) AddViolation(violationType string) {
	metrics.violations.With(prometheus.Labels{"type": violationType}).Inc()
}

func (metrics prometheusMetrics) AddEnforcement(action string) {
	metrics.enforcements.With(prometheus.Labels{"action": action}).Inc()
}
