// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"time"

	"github.com/AccelByte/extend-arena-backend/pkg/metrics"
)

type stubMetricsCollection struct{}

func (s stubMetricsCollection) QueueSize(gameMode string, region string, numPlayers int) {
}

func (s stubMetricsCollection) AddTickElapsedTimeMs(gameMode string, region string, elapsedTime time.Duration) {
}

func (s stubMetricsCollection) AddMatchFormed(gameMode string, region string) {
}

func (s stubMetricsCollection) AddUnmatchedReason(gameMode string, region string, reason string) {
}

func (s stubMetricsCollection) AddPendingMatchCancelled(gameMode string, reason string) {
}

func (s stubMetricsCollection) ServersOnline(region string, count int) {
}

func (s stubMetricsCollection) AddMigration(result string) {
}

func (s stubMetricsCollection) AddViolation(violationType string) {
}

func (s stubMetricsCollection) AddEnforcement(action string) {
}

func NewMetrics() metrics.ArenaMetrics {
	return stubMetricsCollection{}
}
