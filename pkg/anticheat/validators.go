// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package anticheat

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/AccelByte/extend-arena-backend/pkg/constants"
	"github.com/AccelByte/extend-arena-backend/pkg/mathutil"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

const (
	speedHackFactor     = 1.2
	rapidFireFactor     = 0.8
	snapWindow          = 100 * time.Millisecond
	packetFloodInterval = 10 * time.Millisecond
	mouseDegreesPerUnit = 0.022

	headshotMinShots     = 10
	headshotMinHeadshots = 8
	headshotMaxRatio     = 0.8
)

// finding is a rule trigger, nil means the sample passed and the state was updated.
type finding struct {
	violation  models.ViolationType
	confidence float64
	details    map[string]interface{}
}

func (m *Monitor) validateMovement(state *playerState, sample models.MovementSample) *finding {
	dt := sample.Timestamp.Sub(state.lastMoveTime).Seconds()
	if dt <= 0 || dt > 1 {
		return &finding{violation: models.ViolationInvalidMovementTiming, confidence: 0.3, details: map[string]interface{}{
			"deltaTime": dt,
		}}
	}

	// the first accepted sample is the spawn point, there is nothing to compare displacement with
	spawned := len(state.movements) > 0

	distance := mathutil.Distance(state.position, sample.Position)
	maxDistance := m.cfg.MaxSpeed * dt
	if spawned && distance > maxDistance+m.cfg.TeleportThreshold {
		return &finding{violation: models.ViolationTeleportation, confidence: 0.8, details: map[string]interface{}{
			"distance":    distance,
			"maxDistance": maxDistance,
			"deltaTime":   dt,
		}}
	}

	speed := sample.Velocity.Length()
	if speed > m.cfg.MaxSpeed*speedHackFactor {
		return &finding{violation: models.ViolationSpeedHack, confidence: 0.7, details: map[string]interface{}{
			"speed":    speed,
			"maxSpeed": m.cfg.MaxSpeed,
		}}
	}

	acceleration := sample.Velocity.Sub(state.velocity).Length() / dt
	if spawned && acceleration > m.cfg.MaxAcceleration {
		return &finding{violation: models.ViolationAccelerationHack, confidence: 0.6, details: map[string]interface{}{
			"acceleration":    acceleration,
			"maxAcceleration": m.cfg.MaxAcceleration,
		}}
	}

	state.position = sample.Position
	state.velocity = sample.Velocity
	state.lastMoveTime = sample.Timestamp
	state.movements = append(state.movements, movementRecord{
		position:  sample.Position,
		velocity:  sample.Velocity,
		speed:     speed,
		timestamp: sample.Timestamp,
	})
	state.movements = trim(state.movements, func(r movementRecord) time.Time { return r.timestamp }, sample.Timestamp, m.cfg.TrackingWindow)

	return nil
}

func (m *Monitor) validateShot(state *playerState, sample models.ShotSample) *finding {
	weapon := m.cfg.Tables.Weapon(sample.WeaponID)

	minInterval := time.Duration(float64(time.Minute) / weapon.FireRate)
	if !state.lastShotTime.IsZero() {
		sinceLast := sample.Timestamp.Sub(state.lastShotTime)
		if float64(sinceLast) < float64(minInterval)*rapidFireFactor {
			return &finding{violation: models.ViolationRapidFire, confidence: 0.8, details: map[string]interface{}{
				"sinceLastMs":   sinceLast.Milliseconds(),
				"minIntervalMs": minInterval.Milliseconds(),
				"weaponId":      sample.WeaponID,
			}}
		}
	}

	if !state.alive {
		return &finding{violation: models.ViolationShootingWhileDead, confidence: 0.9, details: map[string]interface{}{
			"weaponId": sample.WeaponID,
		}}
	}

	distance := mathutil.Distance(state.position, sample.TargetPosition)
	if distance > weapon.Range {
		return &finding{violation: models.ViolationImpossibleShotDistance, confidence: 0.7, details: map[string]interface{}{
			"distance": distance,
			"maxRange": weapon.Range,
			"weaponId": sample.WeaponID,
		}}
	}

	if sample.Hit && sample.Headshot {
		if f := headshotRate(state.shots, sample); f != nil {
			return f
		}
	}

	state.lastShotTime = sample.Timestamp
	state.shotsFired++
	if sample.Hit {
		state.hits++
	}
	if sample.Hit && sample.Headshot {
		state.headshots++
	}
	state.shots = append(state.shots, shotRecord{
		weaponID:  sample.WeaponID,
		hit:       sample.Hit,
		headshot:  sample.Hit && sample.Headshot,
		timestamp: sample.Timestamp,
	})
	state.shots = trim(state.shots, func(r shotRecord) time.Time { return r.timestamp }, sample.Timestamp, m.cfg.TrackingWindow)

	return nil
}

// headshotRate inspects the shots of the last HeadshotWindow including the current one.
func headshotRate(history []shotRecord, current models.ShotSample) *finding {
	outcomes := []float64{1}
	headshots := 1
	for _, shot := range history {
		if current.Timestamp.Sub(shot.timestamp) >= constants.HeadshotWindow {
			continue
		}
		if shot.headshot {
			outcomes = append(outcomes, 1)
			headshots++
		} else {
			outcomes = append(outcomes, 0)
		}
	}

	if len(outcomes) < headshotMinShots || headshots <= headshotMinHeadshots {
		return nil
	}
	if ratio := stat.Mean(outcomes, nil); ratio > headshotMaxRatio {
		return &finding{violation: models.ViolationImpossibleHeadshotRate, confidence: 0.85, details: map[string]interface{}{
			"headshotRate": ratio,
			"headshots":    headshots,
			"shots":        len(outcomes),
		}}
	}
	return nil
}

func (m *Monitor) validateAim(state *playerState, sample models.AimSample) *finding {
	dt := sample.Timestamp.Sub(state.lastAimTime)
	if dt <= 0 {
		return nil
	}
	seconds := dt.Seconds()

	angleDelta := mathutil.AngleDelta(state.viewAngle, sample.ViewAngle)
	aimSpeed := angleDelta / seconds
	if aimSpeed > m.cfg.MaxAimSpeed {
		return &finding{violation: models.ViolationImpossibleAimSpeed, confidence: 0.6, details: map[string]interface{}{
			"aimSpeed":    aimSpeed,
			"maxAimSpeed": m.cfg.MaxAimSpeed,
			"angleDelta":  angleDelta,
		}}
	}

	if angleDelta > m.cfg.SnapAngleThreshold && dt < snapWindow {
		return &finding{violation: models.ViolationAimSnap, confidence: 0.7, details: map[string]interface{}{
			"angleDelta": angleDelta,
			"deltaMs":    dt.Milliseconds(),
		}}
	}

	if sample.MouseDelta != (mathutil.Vector{}) {
		expected := math.Abs(sample.MouseDelta.X * m.cfg.Tables.MouseSensitivity * mouseDegreesPerUnit)
		if difference := math.Abs(expected - angleDelta); difference > m.cfg.MouseTolerance {
			return &finding{violation: models.ViolationInconsistentMouseMovement, confidence: 0.5, details: map[string]interface{}{
				"expectedAngle": expected,
				"actualAngle":   angleDelta,
			}}
		}
	}

	state.viewAngle = sample.ViewAngle
	state.lastAimTime = sample.Timestamp
	state.aims = append(state.aims, aimRecord{viewAngle: sample.ViewAngle, angleDelta: angleDelta, timestamp: sample.Timestamp})
	state.aims = trim(state.aims, func(r aimRecord) time.Time { return r.timestamp }, sample.Timestamp, m.cfg.TrackingWindow)

	return nil
}

func (m *Monitor) validateNetwork(state *playerState, sample models.NetworkSample) *finding {
	if sample.Ping > m.cfg.MaxPing {
		return &finding{violation: models.ViolationHighPing, confidence: 0.3, details: map[string]interface{}{
			"ping":    sample.Ping,
			"maxPing": m.cfg.MaxPing,
		}}
	}

	if sample.TickRate < m.cfg.MinTickRate {
		return &finding{violation: models.ViolationLowTickRate, confidence: 0.4, details: map[string]interface{}{
			"tickRate":    sample.TickRate,
			"minTickRate": m.cfg.MinTickRate,
		}}
	}

	if interval := sample.Timestamp.Sub(state.lastPacketTime); interval < packetFloodInterval {
		return &finding{violation: models.ViolationPacketFlooding, confidence: 0.6, details: map[string]interface{}{
			"intervalMs": interval.Milliseconds(),
			"packets":    state.packets,
		}}
	}

	state.lastPacketTime = sample.Timestamp
	state.packets++
	state.network = append(state.network, networkRecord{
		ping:       sample.Ping,
		tickRate:   sample.TickRate,
		packetLoss: sample.PacketLoss,
		timestamp:  sample.Timestamp,
	})
	state.network = trim(state.network, func(r networkRecord) time.Time { return r.timestamp }, sample.Timestamp, m.cfg.TrackingWindow)

	return nil
}
