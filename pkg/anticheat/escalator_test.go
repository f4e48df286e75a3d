// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package anticheat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

func violations(confidences ...float64) []models.Violation {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	result := make([]models.Violation, 0, len(confidences))
	for i, c := range confidences {
		result = append(result, models.Violation{
			PlayerID:   "p1",
			Type:       models.ViolationAimSnap,
			Confidence: c,
			Timestamp:  at.Add(time.Duration(i) * time.Second),
		})
	}
	return result
}

func TestDetermineAction(t *testing.T) {
	escalator := NewEscalator(config.Default())

	tests := []struct {
		name       string
		confidence float64
		recent     []models.Violation
		want       models.EnforcementAction
	}{
		{name: "low_confidence", confidence: 0.3, recent: violations(0.3), want: models.ActionNone},
		{name: "two_low_confidence", confidence: 0.4, recent: violations(0.5, 0.4), want: models.ActionNone},
		{name: "flag_single", confidence: 0.6, recent: violations(0.6), want: models.ActionFlag},
		{name: "kick_single", confidence: 0.8, recent: violations(0.8), want: models.ActionKick},
		{name: "kick_history", confidence: 0.6, recent: violations(0.6, 0.6), want: models.ActionKick},
		{name: "temporary_ban_history", confidence: 0.8, recent: violations(0.7, 0.75, 0.8), want: models.ActionTemporaryBan},
		{name: "temporary_ban_single", confidence: 0.9, recent: violations(0.9), want: models.ActionTemporaryBan},
		{name: "history_below_average", confidence: 0.6, recent: violations(0.6, 0.6, 0.6), want: models.ActionKick},
		{name: "four_high", confidence: 0.85, recent: violations(0.85, 0.85, 0.85, 0.85), want: models.ActionTemporaryBan},
		{name: "permanent_ban_history", confidence: 0.85, recent: violations(0.85, 0.85, 0.85, 0.85, 0.85), want: models.ActionPermanentBan},
		{name: "permanent_ban_single", confidence: 0.95, recent: violations(0.95), want: models.ActionPermanentBan},
		{name: "empty_history", confidence: 0.5, want: models.ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, escalator.DetermineAction(tt.confidence, tt.recent))
		})
	}
}

// Three violations averaging 0.75 inside the window earn a temporary ban even though none of them alone would.
func TestEscalator_AverageEscalatesToTemporaryBan(t *testing.T) {
	escalator := NewEscalator(config.Default())

	recent := violations(0.7, 0.75, 0.8)

	assert.Equal(t, models.ActionKick, escalator.DetermineAction(0.8, recent[2:]))
	assert.Equal(t, models.ActionTemporaryBan, escalator.DetermineAction(0.8, recent))
}
