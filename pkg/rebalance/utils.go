// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package rebalance

import (
	"github.com/elliotchance/pie/v2"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

// Unit is a set of players that must land on the same team: a party or a solo player.
type Unit struct {
	ID      string
	Members []models.MatchPlayer

	// Seq is the earliest insertion order among the members, used as tie-break.
	Seq uint64
}

func (u Unit) Size() int {
	return len(u.Members)
}

func (u Unit) TotalSkill() float64 {
	return pie.Sum(pie.Map(u.Members, func(p models.MatchPlayer) float64 { return p.Skill }))
}

// AverageSkill is the skill the unit is grouped by.
func (u Unit) AverageSkill() float64 {
	if len(u.Members) == 0 {
		return 0
	}
	return u.TotalSkill() / float64(len(u.Members))
}

func (u Unit) UserIDs() []string {
	return pie.Map(u.Members, func(p models.MatchPlayer) string { return p.UserID })
}

// CountDistance returns the difference between the strongest and the weakest team total skill.
func CountDistance(teams []models.Team) float64 {
	var minSum float64
	var maxSum float64
	for i, team := range teams {
		if i == 0 || team.TotalSkill < minSum {
			minSum = team.TotalSkill
		}
		if i == 0 || team.TotalSkill > maxSum {
			maxSum = team.TotalSkill
		}
	}
	return maxSum - minSum
}

// CountPlayers returns the number of players in all units.
func CountPlayers(units []Unit) int {
	count := 0
	for _, u := range units {
		count += u.Size()
	}
	return count
}
