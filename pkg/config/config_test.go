// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2*time.Second, cfg.QueueTickRate)
	assert.Equal(t, 90*time.Second, cfg.ServerTimeout)
	assert.Equal(t, 4, cfg.Tables.GameModes["classic"].PartySize)
	assert.Equal(t, 2, cfg.Tables.GameModes["classic"].TeamSize())
	assert.Equal(t, 10, cfg.Tables.GameModes["deathmatch"].TeamSize())
	assert.True(t, cfg.Tables.HasRegion("na-east"))
	assert.False(t, cfg.Tables.HasRegion("mars"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:   "default_is_valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "max_tolerance_below_base",
			mutate:  func(c *Config) { c.MaxSkillTolerance = 50 },
			wantErr: true,
		},
		{
			name:    "zero_tolerance_step",
			mutate:  func(c *Config) { c.ToleranceStep = 0 },
			wantErr: true,
		},
		{
			name:    "thresholds_not_ascending",
			mutate:  func(c *Config) { c.ConfidenceKick = 0.99 },
			wantErr: true,
		},
		{
			name:    "uneven_teams",
			mutate:  func(c *Config) { c.Tables.GameModes["odd"] = GameMode{PartySize: 5, Teams: 2} },
			wantErr: true,
		},
		{
			name:    "no_regions",
			mutate:  func(c *Config) { c.Tables.Regions = nil },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTablesLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	content := `
regions: [na-east, eu-west]
gameModes:
  wingman:
    partySize: 4
    teams: 2
weapons:
  ak47:
    fireRate: 700
    range: 3500
selector:
  cpu: 1
  memory: 1
  network: 1
  capacity: 1
  capacityScale: 10
  regionPenalty: 50
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	tables := DefaultTables()
	require.NoError(t, tables.LoadFile(path))

	assert.Equal(t, []string{"na-east", "eu-west"}, tables.Regions)
	assert.Equal(t, GameMode{PartySize: 4, Teams: 2}, tables.GameModes["wingman"])
	assert.Contains(t, tables.GameModes, "classic")
	assert.Equal(t, 700.0, tables.Weapon("ak47").FireRate)
	assert.Equal(t, tables.DefaultWeapon, tables.Weapon("railgun"))
	assert.Equal(t, 50.0, tables.Selector.RegionPenalty)
	assert.NoError(t, tables.Validate())
}

func TestTablesLoadFile_Missing(t *testing.T) {
	tables := DefaultTables()
	err := tables.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("regions: [eu-west]\n"), 0o600))

	t.Setenv("ARENA_CONFIG", "ignored.yaml")
	t.Setenv("MAX_PARTY_SIZE", "4")
	t.Setenv("CASSANDRA_HOSTS", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.TablesFile)
	assert.Equal(t, 4, cfg.MaxPartySize)
	assert.Empty(t, cfg.CassandraHosts)
	assert.Equal(t, []string{"eu-west"}, cfg.Tables.Regions)
	assert.Equal(t, "LOCAL_QUORUM", cfg.CassandraConsistency)
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Setenv("QUEUE_TICK_RATE", "0s")

	_, err := Load("")
	assert.Error(t, err)
}
