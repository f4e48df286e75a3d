// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package anticheat

import (
	"gonum.org/v1/gonum/stat"

	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

// escalation pairs a minimum average confidence with a minimum violation count.
type escalation struct {
	action        models.EnforcementAction
	single        float64
	minAverage    float64
	minViolations int
}

// Escalator turns violation history into an enforcement action.
type Escalator struct {
	ladder []escalation
}

func NewEscalator(cfg *config.Config) *Escalator {
	return &Escalator{
		ladder: []escalation{
			{action: models.ActionPermanentBan, single: cfg.ConfidencePermBan, minAverage: 0.8, minViolations: 5},
			{action: models.ActionTemporaryBan, single: cfg.ConfidenceTempBan, minAverage: 0.7, minViolations: 3},
			{action: models.ActionKick, single: cfg.ConfidenceKick, minAverage: 0.6, minViolations: 2},
			{action: models.ActionFlag, single: cfg.ConfidenceFlag},
		},
	}
}

// DetermineAction returns the strongest action earned by the latest confidence alone or by the violations
// of the tracking window, which include the latest one.
func (e *Escalator) DetermineAction(confidence float64, recent []models.Violation) models.EnforcementAction {
	count := len(recent)
	average := 0.0
	if count > 0 {
		confidences := make([]float64, 0, count)
		for _, v := range recent {
			confidences = append(confidences, v.Confidence)
		}
		average = stat.Mean(confidences, nil)
	}

	for _, step := range e.ladder {
		if confidence >= step.single {
			return step.action
		}
		if step.minViolations > 0 && count >= step.minViolations && average >= step.minAverage {
			return step.action
		}
	}
	return models.ActionNone
}
