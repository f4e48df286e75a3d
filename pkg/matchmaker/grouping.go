// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"sort"

	"github.com/elliotchance/pie/v2"

	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/constants"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
	"github.com/AccelByte/extend-arena-backend/pkg/rebalance"
)

// queueUnit is a solo entry or a complete party, grouped as one.
type queueUnit struct {
	rebalance.Unit

	skill     float64
	tolerance float64
	entries   []*models.QueueEntry
}

type formedGroup struct {
	group   models.MatchGroup
	entries []*models.QueueEntry
}

// partyLookup returns the current members of a party.
type partyLookup func(partyID string) ([]string, bool)

// buildUnits turns the entries of one bucket into units. Parties with members missing from the bucket
// are returned separately and wait for a later tick.
func buildUnits(entries []*models.QueueEntry, lookup partyLookup) (units []queueUnit, incomplete []*models.QueueEntry) {
	byParty := make(map[string][]*models.QueueEntry)
	var partyOrder []string

	for _, e := range entries {
		if e.PartyID == "" {
			units = append(units, newUnit(e.UserID, []*models.QueueEntry{e}))
			continue
		}
		if _, seen := byParty[e.PartyID]; !seen {
			partyOrder = append(partyOrder, e.PartyID)
		}
		byParty[e.PartyID] = append(byParty[e.PartyID], e)
	}

	for _, partyID := range partyOrder {
		queued := byParty[partyID]
		members, ok := lookup(partyID)
		if !ok {
			// party is gone, its members queue on their own
			for _, e := range queued {
				units = append(units, newUnit(e.UserID, []*models.QueueEntry{e}))
			}
			continue
		}

		queuedByUser := make(map[string]*models.QueueEntry, len(queued))
		for _, e := range queued {
			queuedByUser[e.UserID] = e
		}
		ordered := make([]*models.QueueEntry, 0, len(members))
		for _, member := range members {
			if e, found := queuedByUser[member]; found {
				ordered = append(ordered, e)
			}
		}
		if len(ordered) != len(members) {
			incomplete = append(incomplete, queued...)
			continue
		}
		units = append(units, newUnit(partyID, ordered))
	}

	// skill ascending, then insertion order
	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i], units[j]
		if a.skill != b.skill {
			return a.skill < b.skill
		}
		return a.Seq < b.Seq
	})

	return units, incomplete
}

func newUnit(id string, entries []*models.QueueEntry) queueUnit {
	u := queueUnit{
		Unit:    rebalance.Unit{ID: id},
		entries: entries,
	}
	for i, e := range entries {
		u.Members = append(u.Members, models.MatchPlayer{UserID: e.UserID, Skill: e.Skill, PartyID: e.PartyID})
		if i == 0 || e.Seq < u.Seq {
			u.Seq = e.Seq
		}
		if i == 0 || e.CurrentTolerance < u.tolerance {
			u.tolerance = e.CurrentTolerance
		}
	}
	u.skill = u.AverageSkill()
	return u
}

// formGroups runs the greedy anchor scan over sorted units. Each unused unit in turn anchors a group and
// collects the following units whose skill is within the anchor tolerance until the mode is full.
// A full group that cannot be split into teams is not formed.
func formGroups(key models.BucketKey, units []queueUnit, mode config.GameMode) (groups []formedGroup, unmatched map[string]int) {
	unmatched = make(map[string]int)
	used := make([]bool, len(units))
	reported := make([]bool, len(units))

	for i := range units {
		if used[i] {
			continue
		}
		anchor := units[i]
		if anchor.Size() > mode.PartySize {
			continue
		}

		picked := []int{i}
		count := anchor.Size()
		for j := i + 1; j < len(units) && count < mode.PartySize; j++ {
			if used[j] {
				continue
			}
			if units[j].skill-anchor.skill > anchor.tolerance {
				break
			}
			if count+units[j].Size() > mode.PartySize {
				continue
			}
			picked = append(picked, j)
			count += units[j].Size()
		}
		if count < mode.PartySize {
			continue
		}

		members := make([]rebalance.Unit, 0, len(picked))
		for _, index := range picked {
			members = append(members, units[index].Unit)
		}
		teams, err := rebalance.BalanceTeams(members, mode)
		if err != nil {
			for _, index := range picked {
				if !reported[index] {
					reported[index] = true
					unmatched[constants.UnmatchedUnbalanceable] += units[index].Size()
				}
			}
			continue
		}

		formed := formedGroup{
			group: models.MatchGroup{
				GameMode: key.GameMode,
				Region:   key.Region,
				Teams:    teams,
			},
		}
		for _, index := range picked {
			used[index] = true
			formed.group.Players = append(formed.group.Players, units[index].Members...)
			formed.entries = append(formed.entries, units[index].entries...)
		}
		groups = append(groups, formed)
	}

	total := rebalance.CountPlayers(pie.Map(units, func(u queueUnit) rebalance.Unit { return u.Unit }))
	for i, u := range units {
		if used[i] || reported[i] {
			continue
		}
		if total < mode.PartySize {
			unmatched[constants.UnmatchedNotEnoughPlayers] += u.Size()
		} else {
			unmatched[constants.UnmatchedOutsideTolerance] += u.Size()
		}
	}

	return groups, unmatched
}
