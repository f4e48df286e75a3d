// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type ArenaMetrics interface {
	QueueSize(gameMode string, region string, numPlayers int)
	AddTickElapsedTimeMs(gameMode string, region string, elapsedTime time.Duration)
	AddMatchFormed(gameMode string, region string)
	AddUnmatchedReason(gameMode string, region string, reason string)
	AddPendingMatchCancelled(gameMode string, reason string)
	ServersOnline(region string, count int)
	AddMigration(result string)
	AddViolation(violationType string)
	AddEnforcement(action string)
}

func NewMetrics(registry *prometheus.Registry) ArenaMetrics {
	return setupPrometheusMetrics(registry)
}
