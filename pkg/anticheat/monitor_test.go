// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package anticheat

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/constants"
	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
	"github.com/AccelByte/extend-arena-backend/pkg/mathutil"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
	"github.com/AccelByte/extend-arena-backend/pkg/storage/memory"
	"github.com/AccelByte/extend-arena-backend/pkg/testsetup"
)

type recordingEnforcer struct {
	mu     sync.Mutex
	kicked []string
}

func (e *recordingEnforcer) Kick(_ *envelope.Scope, userID string, _ string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kicked = append(e.kicked, userID)
	return true
}

func (e *recordingEnforcer) Kicked() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.kicked...)
}

type monitorFixture struct {
	monitor  *Monitor
	enforcer *recordingEnforcer
	notifier *testsetup.RecordingNotifier
	sessions *testsetup.StubSessionAuthority
	records  *memory.RecordStore
	now      time.Time
}

func newMonitorFixture() *monitorFixture {
	f := &monitorFixture{
		enforcer: &recordingEnforcer{},
		notifier: &testsetup.RecordingNotifier{},
		sessions: &testsetup.StubSessionAuthority{},
		records:  memory.NewRecordStore(),
		now:      trackedAt,
	}
	f.monitor = NewMonitor(config.Default(), f.sessions, f.notifier, f.records, testsetup.NewMetrics())
	f.monitor.SetClock(func() time.Time { return f.now })
	f.monitor.SetEnforcer(f.enforcer)
	return f
}

func TestMonitor_TeleportKicksPlayer(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newMonitorFixture()
	f.monitor.InitializePlayer(g.TestScope, "p1", "m1")

	g.Expect(f.monitor.Validate(g.TestScope, "p1", spawn(at(ms(500)))).Valid).To(BeTrue())

	// Δt 0.5s allows 160 + 100 units, the player moved 400
	result := f.monitor.Validate(g.TestScope, "p1", models.MovementSample{Position: mathutil.Vector{X: 400}, Timestamp: at(time.Second)})
	g.Expect(result.Valid).To(BeFalse())
	g.Expect(result.Reason).To(Equal(string(models.ViolationTeleportation)))
	g.Expect(result.Confidence).To(Equal(0.8))
	g.Expect(result.Action).To(Equal(models.ActionKick))

	g.Expect(f.enforcer.Kicked()).To(ConsistOf("p1"))
	g.Expect(f.monitor.IsTracked("p1")).To(BeFalse())

	kicked, ok := f.notifier.Last("p1", constants.EventAntiCheatKicked)
	g.Expect(ok).To(BeTrue())
	g.Expect(kicked.Payload).ToNot(HaveKey("confidence"))

	// 1 - 0.8*0.05 - 0.2
	g.Eventually(func() float64 {
		trust, _, _ := f.records.GetTrustFactor(context.Background(), "p1")
		return trust
	}).Should(BeNumerically("~", 0.76, 1e-9))
	g.Eventually(func() int {
		stored, _ := f.records.ListViolations(context.Background(), "p1", 10)
		return len(stored)
	}).Should(Equal(1))

	// untracked after the kick
	after := f.monitor.Validate(g.TestScope, "p1", spawn(at(2*time.Second)))
	g.Expect(after.Valid).To(BeFalse())
	g.Expect(after.Reason).To(Equal(models.ReasonNotTracked))
}

func TestShootingWhileDead_TemporaryBan(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newMonitorFixture()
	f.monitor.InitializePlayer(g.TestScope, "p1", "m1")
	g.Expect(f.monitor.SetAlive("p1", false)).To(BeTrue())

	result := f.monitor.Validate(g.TestScope, "p1", models.ShotSample{WeaponID: "ak47", Timestamp: at(time.Second)})
	g.Expect(result.Reason).To(Equal(string(models.ViolationShootingWhileDead)))
	g.Expect(result.Action).To(Equal(models.ActionTemporaryBan))

	g.Expect(f.enforcer.Kicked()).To(ConsistOf("p1"))
	g.Expect(f.monitor.IsTracked("p1")).To(BeFalse())
	g.Expect(f.notifier.Events("p1")).To(ContainElement(constants.EventAccountBanned))

	g.Eventually(f.sessions.InvalidatedUsers).Should(ConsistOf("p1"))
	g.Eventually(func() *models.Ban {
		ban, _ := f.records.GetBan(context.Background(), "p1")
		return ban
	}).ShouldNot(BeNil())

	ban, err := f.records.GetBan(context.Background(), "p1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ban.Action).To(Equal(models.ActionTemporaryBan))
	g.Expect(ban.ExpiresAt).To(Equal(trackedAt.Add(24 * time.Hour)))
	g.Expect(ban.Active(trackedAt.Add(23 * time.Hour))).To(BeTrue())
	g.Expect(ban.Active(trackedAt.Add(25 * time.Hour))).To(BeFalse())
}

func TestPermanentBanHasNoExpiry(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newMonitorFixture()
	f.monitor.InitializePlayer(g.TestScope, "p1", "m1")

	f.monitor.mu.Lock()
	state := f.monitor.players["p1"]
	applied := f.monitor.flagViolation(g.TestScope, state, &finding{violation: models.ViolationTeleportation, confidence: 0.97})
	f.monitor.mu.Unlock()
	g.Expect(applied.action).To(Equal(models.ActionPermanentBan))

	f.monitor.enforce(g.TestScope, applied)

	g.Eventually(func() *models.Ban {
		ban, _ := f.records.GetBan(context.Background(), "p1")
		return ban
	}).ShouldNot(BeNil())
	ban, _ := f.records.GetBan(context.Background(), "p1")
	g.Expect(ban.ExpiresAt.IsZero()).To(BeTrue())
	g.Expect(ban.Active(trackedAt.Add(10 * 365 * 24 * time.Hour))).To(BeTrue())
}

func TestFlagAndDecay(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newMonitorFixture()
	f.monitor.InitializePlayer(g.TestScope, "p1", "m1")

	result := f.monitor.Validate(g.TestScope, "p1", models.AimSample{ViewAngle: 100, Timestamp: at(ms(50))})
	g.Expect(result.Reason).To(Equal(string(models.ViolationImpossibleAimSpeed)))
	g.Expect(result.Action).To(Equal(models.ActionFlag))
	g.Expect(f.enforcer.Kicked()).To(BeEmpty())
	g.Expect(f.notifier.All()).To(BeEmpty())

	stats, ok := f.monitor.PlayerStats("p1", trackedAt)
	g.Expect(ok).To(BeTrue())
	g.Expect(stats.ViolationScore).To(BeNumerically("~", 0.06, 1e-9))
	g.Expect(stats.TrustScore).To(BeNumerically("~", 0.87, 1e-9))
	g.Expect(stats.RecentViolations).To(Equal(1))
	g.Expect(stats.ViolationTypes).To(HaveKeyWithValue(models.ViolationImpossibleAimSpeed, 1))

	// still inside the decay window
	info := f.monitor.Decay(g.TestScope, trackedAt.Add(time.Minute))
	g.Expect(info.ViolationsDropped).To(Equal(0))
	g.Expect(info.PlayersRestored).To(Equal(0))

	info = f.monitor.Decay(g.TestScope, trackedAt.Add(6*time.Minute))
	g.Expect(info.ViolationsDropped).To(Equal(1))
	g.Expect(info.PlayersRestored).To(Equal(1))

	stats, _ = f.monitor.PlayerStats("p1", trackedAt.Add(6*time.Minute))
	g.Expect(stats.ViolationScore).To(Equal(0.0))
	g.Expect(stats.TrustScore).To(BeNumerically("~", 0.92, 1e-9))

	// restoring never goes past 1
	for i := 0; i < 10; i++ {
		f.monitor.Decay(g.TestScope, trackedAt.Add(time.Duration(7+i)*time.Minute))
	}
	stats, _ = f.monitor.PlayerStats("p1", trackedAt.Add(20*time.Minute))
	g.Expect(stats.TrustScore).To(Equal(1.0))
}

func TestScoresStayInUnitRange(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newMonitorFixture()
	f.monitor.InitializePlayer(g.TestScope, "p1", "m1")

	// low confidence violations never escalate past none, so the player stays tracked
	for i := 1; i <= 40; i++ {
		result := f.monitor.Validate(g.TestScope, "p1", models.MovementSample{Timestamp: at(0)})
		g.Expect(result.Action).To(Equal(models.ActionNone))
		f.now = trackedAt.Add(time.Duration(i) * time.Minute)
	}

	stats, ok := f.monitor.PlayerStats("p1", f.now)
	g.Expect(ok).To(BeTrue())
	g.Expect(stats.ViolationScore).To(BeNumerically("<=", 1))
	g.Expect(stats.ViolationScore).To(BeNumerically("~", 1, 1e-9))
	g.Expect(stats.TrustScore).To(BeNumerically(">=", 0))
	g.Expect(stats.TrustScore).To(BeNumerically("~", 0.4, 1e-9))
}

func TestTrustSeededFromRecords(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newMonitorFixture()
	g.Expect(f.records.SaveTrustFactor(context.Background(), "p1", 0.4)).To(Succeed())

	f.monitor.InitializePlayer(g.TestScope, "p1", "m1")
	f.monitor.InitializePlayer(g.TestScope, "p2", "m1")

	stats, _ := f.monitor.PlayerStats("p1", trackedAt)
	g.Expect(stats.TrustScore).To(Equal(0.4))
	stats, _ = f.monitor.PlayerStats("p2", trackedAt)
	g.Expect(stats.TrustScore).To(Equal(1.0))

	overall := f.monitor.OverallStats(trackedAt)
	g.Expect(overall.TrackedPlayers).To(Equal(2))
	g.Expect(overall.FlaggedPlayers).To(Equal(0))
	g.Expect(overall.AverageTrustScore).To(BeNumerically("~", 0.7, 1e-9))
	g.Expect(f.monitor.Tracked()).To(Equal([]string{"p1", "p2"}))
}

func TestUntrackedAndRemove(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newMonitorFixture()

	result := f.monitor.Validate(g.TestScope, "ghost", models.NetworkSample{Ping: 999, Timestamp: at(time.Second)})
	g.Expect(result).To(Equal(models.ValidationResult{Valid: false, Reason: models.ReasonNotTracked, Action: models.ActionNone}))
	g.Expect(f.monitor.SetAlive("ghost", false)).To(BeFalse())
	_, ok := f.monitor.PlayerStats("ghost", trackedAt)
	g.Expect(ok).To(BeFalse())

	f.monitor.InitializePlayer(g.TestScope, "p1", "m1")
	g.Expect(f.monitor.RemovePlayer(g.TestScope, "p1")).To(BeTrue())
	g.Expect(f.monitor.RemovePlayer(g.TestScope, "p1")).To(BeFalse())
	g.Expect(f.monitor.OverallStats(trackedAt)).To(Equal(models.AntiCheatStats{}))
}

func TestShotStats(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	f := newMonitorFixture()
	f.monitor.InitializePlayer(g.TestScope, "p1", "m1")

	shots := []models.ShotSample{
		{WeaponID: "awp", Hit: true, Headshot: true},
		{WeaponID: "awp", Hit: true},
		{WeaponID: "awp"},
		{WeaponID: "awp", Headshot: true},
	}
	for i, shot := range shots {
		shot.TargetPosition = mathutil.Vector{X: 1000}
		shot.Timestamp = at(time.Duration(i+1) * 2 * time.Second)
		g.Expect(f.monitor.Validate(g.TestScope, "p1", shot).Valid).To(BeTrue())
	}

	stats, _ := f.monitor.PlayerStats("p1", at(10*time.Second))
	g.Expect(stats.ShotsFired).To(Equal(4))
	g.Expect(stats.Accuracy).To(Equal(0.5))
	g.Expect(stats.HeadshotRate).To(Equal(0.25))
	g.Expect(stats.MatchDuration).To(Equal(10 * time.Second))
}
