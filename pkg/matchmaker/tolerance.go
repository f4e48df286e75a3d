// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"time"

	"github.com/AccelByte/extend-arena-backend/pkg/config"
)

// Tolerance returns the skill tolerance after waiting for waited.
// It grows by ToleranceIncrease every ToleranceStep and is capped at MaxSkillTolerance.
func Tolerance(cfg *config.Config, waited time.Duration) float64 {
	if waited < 0 || cfg.ToleranceStep <= 0 {
		return min(cfg.SkillTolerance, cfg.MaxSkillTolerance)
	}
	steps := float64(waited / cfg.ToleranceStep)
	return min(cfg.MaxSkillTolerance, cfg.SkillTolerance+steps*cfg.ToleranceIncrease)
}

// widenTolerance never lets the tolerance shrink, even when the clock goes backwards.
func widenTolerance(cfg *config.Config, current float64, joinedAt time.Time, now time.Time) float64 {
	return max(current, Tolerance(cfg, now.Sub(joinedAt)))
}
