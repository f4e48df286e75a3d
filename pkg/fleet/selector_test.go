// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

func node(id string, region string, players int, cpu float64) *models.ServerNode {
	return &models.ServerNode{
		ServerID:       id,
		Region:         region,
		Capacity:       10,
		CurrentPlayers: players,
		Status:         models.ServerStatusOnline,
		Load:           models.LoadSample{CPU: cpu},
		HostedMatches:  map[string]struct{}{},
	}
}

func TestSelector_Score(t *testing.T) {
	selector := NewSelector(config.DefaultTables().Selector)

	n := node("s1", "na-east", 5, 50)
	n.Load.Memory = 40
	n.Load.Network = 10

	// 0.3*50 + 0.2*40 + 0.1*10 + 0.5*40
	assert.InDelta(t, 44.0, selector.Score(n, "na-east"), 1e-9)
	assert.InDelta(t, 64.0, selector.Score(n, "eu-west"), 1e-9)
}

func TestSelector_Select(t *testing.T) {
	selector := NewSelector(config.DefaultTables().Selector)

	offline := node("a-offline", "na-east", 0, 0)
	offline.Status = models.ServerStatusOffline

	tests := []struct {
		name    string
		nodes   []*models.ServerNode
		request SelectRequest
		want    string
	}{
		{
			name:    "lowest_score_in_region",
			nodes:   []*models.ServerNode{node("s1", "na-east", 0, 60), node("s2", "na-east", 0, 20), node("s3", "eu-west", 0, 0)},
			request: SelectRequest{Region: "na-east", Seats: 4},
			want:    "s2",
		},
		{
			name:    "never_offline",
			nodes:   []*models.ServerNode{offline, node("s2", "na-east", 0, 90)},
			request: SelectRequest{Region: "na-east", Seats: 4},
			want:    "s2",
		},
		{
			name:    "same_region_beats_cheaper_remote",
			nodes:   []*models.ServerNode{node("remote", "eu-west", 0, 0), node("local", "na-east", 0, 100)},
			request: SelectRequest{Region: "na-east", Seats: 4},
			want:    "local",
		},
		{
			name:    "fallback_to_other_region",
			nodes:   []*models.ServerNode{node("full", "na-east", 8, 0), node("remote", "eu-west", 0, 0)},
			request: SelectRequest{Region: "na-east", Seats: 4},
			want:    "remote",
		},
		{
			name:    "require_empty",
			nodes:   []*models.ServerNode{node("busy", "na-east", 2, 0), node("idle", "na-east", 0, 80)},
			request: SelectRequest{Region: "na-east", Seats: 4, RequireEmpty: true},
			want:    "idle",
		},
		{
			name:    "tie_break_by_id",
			nodes:   []*models.ServerNode{node("s9", "na-east", 0, 10), node("s1", "na-east", 0, 10)},
			request: SelectRequest{Region: "na-east", Seats: 4},
			want:    "s1",
		},
		{
			name:    "exclude",
			nodes:   []*models.ServerNode{node("failed", "na-east", 0, 0), node("other", "na-east", 0, 50)},
			request: SelectRequest{Region: "na-east", Seats: 4, Exclude: "failed"},
			want:    "other",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected, ok := selector.Select(tt.nodes, tt.request)
			require.True(t, ok)
			assert.Equal(t, tt.want, selected.ServerID)
		})
	}
}

func TestSelector_SelectNone(t *testing.T) {
	selector := NewSelector(config.DefaultTables().Selector)

	tests := []struct {
		name    string
		nodes   []*models.ServerNode
		request SelectRequest
	}{
		{name: "empty_fleet", request: SelectRequest{Region: "na-east", Seats: 4}},
		{name: "all_full", nodes: []*models.ServerNode{node("s1", "na-east", 8, 0)}, request: SelectRequest{Region: "na-east", Seats: 4}},
		{name: "same_region_only", nodes: []*models.ServerNode{node("remote", "eu-west", 0, 0)}, request: SelectRequest{Region: "na-east", Seats: 4, SameRegionOnly: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := selector.Select(tt.nodes, tt.request)
			assert.False(t, ok)
		})
	}
}
