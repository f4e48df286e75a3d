// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package anticheat

import (
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/mathutil"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
	"github.com/AccelByte/extend-arena-backend/pkg/storage/memory"
	"github.com/AccelByte/extend-arena-backend/pkg/testsetup"
)

var trackedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time {
	return trackedAt.Add(d)
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func newTrackedMonitor(t *testing.T) *Monitor {
	t.Helper()

	monitor := NewMonitor(config.Default(), nil, nil, memory.NewRecordStore(), testsetup.NewMetrics())
	monitor.SetClock(func() time.Time { return trackedAt })
	monitor.InitializePlayer(testsetup.NewTestScope(), "p1", "m1")
	return monitor
}

func spawn(ts time.Time) models.MovementSample {
	return models.MovementSample{Timestamp: ts}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		dead    bool
		samples []models.Sample
		want    models.ViolationType // empty means the last sample is valid
	}{
		// movement
		{name: "movement_same_instant", samples: []models.Sample{
			models.MovementSample{Timestamp: at(0)},
		}, want: models.ViolationInvalidMovementTiming},
		{name: "movement_gap_too_long", samples: []models.Sample{
			models.MovementSample{Timestamp: at(1500 * time.Millisecond)},
		}, want: models.ViolationInvalidMovementTiming},
		{name: "movement_spawn_anywhere", samples: []models.Sample{
			models.MovementSample{Position: mathutil.Vector{X: 1000, Y: 1000}, Timestamp: at(ms(500))},
		}},
		{name: "movement_walk", samples: []models.Sample{
			spawn(at(ms(500))),
			models.MovementSample{Position: mathutil.Vector{X: 100}, Velocity: mathutil.Vector{X: 200}, Timestamp: at(time.Second)},
		}},
		{name: "movement_teleport", samples: []models.Sample{
			spawn(at(ms(500))),
			models.MovementSample{Position: mathutil.Vector{X: 400}, Timestamp: at(time.Second)},
		}, want: models.ViolationTeleportation},
		{name: "movement_speed_hack", samples: []models.Sample{
			spawn(at(ms(500))),
			models.MovementSample{Position: mathutil.Vector{X: 150}, Velocity: mathutil.Vector{X: 390}, Timestamp: at(time.Second)},
		}, want: models.ViolationSpeedHack},
		{name: "movement_acceleration_hack", samples: []models.Sample{
			spawn(at(ms(500))),
			models.MovementSample{Position: mathutil.Vector{X: 20}, Velocity: mathutil.Vector{X: 300}, Timestamp: at(ms(600))},
		}, want: models.ViolationAccelerationHack},

		// shots
		{name: "shot_valid", samples: []models.Sample{
			models.ShotSample{WeaponID: "ak47", TargetPosition: mathutil.Vector{X: 500}, Timestamp: at(time.Second)},
			models.ShotSample{WeaponID: "ak47", TargetPosition: mathutil.Vector{X: 500}, Timestamp: at(ms(1150))},
		}},
		{name: "shot_rapid_fire", samples: []models.Sample{
			models.ShotSample{WeaponID: "ak47", Timestamp: at(time.Second)},
			models.ShotSample{WeaponID: "ak47", Timestamp: at(ms(1050))},
		}, want: models.ViolationRapidFire},
		{name: "shot_unknown_weapon_uses_default", samples: []models.Sample{
			models.ShotSample{WeaponID: "railgun", Timestamp: at(time.Second)},
			models.ShotSample{WeaponID: "railgun", Timestamp: at(ms(1070))},
		}, want: models.ViolationRapidFire},
		{name: "shot_while_dead", dead: true, samples: []models.Sample{
			models.ShotSample{WeaponID: "ak47", Timestamp: at(time.Second)},
		}, want: models.ViolationShootingWhileDead},
		{name: "shot_out_of_range", samples: []models.Sample{
			models.ShotSample{WeaponID: "glock", TargetPosition: mathutil.Vector{X: 2500}, Timestamp: at(time.Second)},
		}, want: models.ViolationImpossibleShotDistance},
		{name: "shot_headshot_rate", samples: headshots(10), want: models.ViolationImpossibleHeadshotRate},
		{name: "shot_headshots_below_count", samples: headshots(9)},

		// aim
		{name: "aim_same_instant", samples: []models.Sample{
			models.AimSample{ViewAngle: 170, Timestamp: at(0)},
		}},
		{name: "aim_valid", samples: []models.Sample{
			models.AimSample{ViewAngle: 10, MouseDelta: mathutil.Vector{X: 450}, Timestamp: at(time.Second)},
		}},
		{name: "aim_speed", samples: []models.Sample{
			models.AimSample{ViewAngle: 100, Timestamp: at(ms(50))},
		}, want: models.ViolationImpossibleAimSpeed},
		{name: "aim_snap", samples: []models.Sample{
			models.AimSample{ViewAngle: 120, Timestamp: at(ms(90))},
		}, want: models.ViolationAimSnap},
		{name: "aim_wraps_around", samples: []models.Sample{
			models.AimSample{ViewAngle: 350, Timestamp: at(ms(90))},
		}},
		{name: "aim_inconsistent_mouse", samples: []models.Sample{
			models.AimSample{ViewAngle: 10, MouseDelta: mathutil.Vector{X: 5000}, Timestamp: at(time.Second)},
		}, want: models.ViolationInconsistentMouseMovement},

		// network
		{name: "network_valid", samples: []models.Sample{
			models.NetworkSample{Ping: 50, TickRate: 64, Timestamp: at(time.Second)},
		}},
		{name: "network_high_ping", samples: []models.Sample{
			models.NetworkSample{Ping: 250, TickRate: 64, Timestamp: at(time.Second)},
		}, want: models.ViolationHighPing},
		{name: "network_low_tickrate", samples: []models.Sample{
			models.NetworkSample{Ping: 50, TickRate: 20, Timestamp: at(time.Second)},
		}, want: models.ViolationLowTickRate},
		{name: "network_flooding", samples: []models.Sample{
			models.NetworkSample{Ping: 50, TickRate: 64, Timestamp: at(time.Second)},
			models.NetworkSample{Ping: 50, TickRate: 64, Timestamp: at(ms(1005))},
		}, want: models.ViolationPacketFlooding},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := newTrackedMonitor(t)
			scope := testsetup.NewTestScope()
			if tt.dead {
				require.True(t, monitor.SetAlive("p1", false))
			}

			var results []models.ValidationResult
			for _, sample := range tt.samples {
				results = append(results, monitor.Validate(scope, "p1", sample))
			}

			for i, result := range results[:len(results)-1] {
				require.True(t, result.Valid, "sample %d: %s", i, spew.Sdump(result))
			}
			last := results[len(results)-1]
			if tt.want == "" {
				assert.True(t, last.Valid, spew.Sdump(last))
				return
			}
			assert.False(t, last.Valid)
			assert.Equal(t, string(tt.want), last.Reason)
		})
	}
}

// headshots returns n headshot hits 200ms apart, far enough to never trigger rapid fire.
func headshots(n int) []models.Sample {
	samples := make([]models.Sample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, models.ShotSample{
			WeaponID:       "ak47",
			TargetPosition: mathutil.Vector{X: 300},
			Hit:            true,
			Headshot:       true,
			Timestamp:      at(time.Second + time.Duration(i)*ms(200)),
		})
	}
	return samples
}

func TestValidate_RejectedSampleKeepsState(t *testing.T) {
	monitor := newTrackedMonitor(t)
	scope := testsetup.NewTestScope()

	require.True(t, monitor.Validate(scope, "p1", spawn(at(ms(500)))).Valid)

	// rejected: the position stays at the spawn point
	require.False(t, monitor.Validate(scope, "p1", models.MovementSample{Position: mathutil.Vector{X: 20}, Velocity: mathutil.Vector{X: 300}, Timestamp: at(ms(600))}).Valid)

	// compared against the spawn point and the spawn time
	result := monitor.Validate(scope, "p1", models.MovementSample{Position: mathutil.Vector{X: 100}, Velocity: mathutil.Vector{X: 200}, Timestamp: at(time.Second)})
	assert.True(t, result.Valid, spew.Sdump(result))
}
