// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package rebalance splits a formed group into teams.
package rebalance

import (
	"errors"
	"fmt"
	"sort"

	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/constants"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

var ErrUnbalanceable = errors.New("units cannot be split into teams of equal size")

// BalanceTeams assigns units to teams. Free-for-all modes get a single team. Team modes use a snake draft:
// units are taken by size then total skill (both descending) and each goes to the team with the lower
// skill sum that still has room.
func BalanceTeams(units []Unit, mode config.GameMode) ([]models.Team, error) {
	if mode.Teams <= 1 {
		team := models.Team{Name: constants.TeamFreeForAll}
		for _, u := range sortForDraft(units) {
			addUnit(&team, u)
		}
		return []models.Team{team}, nil
	}

	if CountPlayers(units) != mode.PartySize {
		return nil, fmt.Errorf("%w: got %d players, want %d", ErrUnbalanceable, CountPlayers(units), mode.PartySize)
	}

	sorted := sortForDraft(units)
	teamSize := mode.TeamSize()

	if teams, ok := draft(sorted, mode.Teams, teamSize, lowestSkillWithRoom); ok {
		return teams, nil
	}
	// parties can make the skill draft paint itself into a corner, fall back to packing by free seats
	if teams, ok := draft(sorted, mode.Teams, teamSize, mostRoom); ok {
		return teams, nil
	}

	return nil, ErrUnbalanceable
}

// sortForDraft orders units by size then total skill, both descending, keeping insertion order on ties.
func sortForDraft(units []Unit) []Unit {
	sorted := make([]Unit, len(units))
	copy(sorted, units)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Size() != b.Size() {
			return a.Size() > b.Size()
		}
		if a.TotalSkill() != b.TotalSkill() {
			return a.TotalSkill() > b.TotalSkill()
		}
		return a.Seq < b.Seq
	})
	return sorted
}

type teamPicker func(teams []models.Team, unit Unit, teamSize int) int

func draft(units []Unit, numTeams int, teamSize int, pick teamPicker) ([]models.Team, bool) {
	teams := newTeams(numTeams)
	for _, u := range units {
		index := pick(teams, u, teamSize)
		if index < 0 {
			return nil, false
		}
		addUnit(&teams[index], u)
	}
	return teams, true
}

func lowestSkillWithRoom(teams []models.Team, unit Unit, teamSize int) int {
	best := -1
	for i := range teams {
		if len(teams[i].UserIDs)+unit.Size() > teamSize {
			continue
		}
		if best < 0 || teams[i].TotalSkill < teams[best].TotalSkill {
			best = i
		}
	}
	return best
}

func mostRoom(teams []models.Team, unit Unit, teamSize int) int {
	best := -1
	for i := range teams {
		if len(teams[i].UserIDs)+unit.Size() > teamSize {
			continue
		}
		if best < 0 || len(teams[i].UserIDs) < len(teams[best].UserIDs) {
			best = i
		}
	}
	return best
}

func newTeams(count int) []models.Team {
	teams := make([]models.Team, count)
	for i := range teams {
		teams[i].Name = teamName(i, count)
		teams[i].UserIDs = make([]string, 0)
	}
	return teams
}

func teamName(index int, count int) string {
	if count == 2 {
		if index == 0 {
			return constants.TeamA
		}
		return constants.TeamB
	}
	return fmt.Sprintf("team-%d", index+1)
}

func addUnit(team *models.Team, u Unit) {
	team.UserIDs = append(team.UserIDs, u.UserIDs()...)
	team.TotalSkill += u.TotalSkill()
}
