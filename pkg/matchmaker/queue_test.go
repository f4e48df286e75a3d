// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package matchmaker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-arena-backend/pkg/common"
	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/constants"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
	"github.com/AccelByte/extend-arena-backend/pkg/storage/memory"
	"github.com/AccelByte/extend-arena-backend/pkg/testsetup"
	"github.com/AccelByte/extend-arena-backend/pkg/utils"
)

type queueFixture struct {
	queue     *QueueManager
	requester *testsetup.StubMatchRequester
	notifier  *testsetup.RecordingNotifier
	sessions  *testsetup.StubSessionAuthority
	store     *memory.QueueStore
	now       time.Time
}

func newQueueFixture(t *testing.T) *queueFixture {
	t.Helper()

	cfg := config.Default()
	f := &queueFixture{
		requester: &testsetup.StubMatchRequester{},
		notifier:  &testsetup.RecordingNotifier{},
		sessions:  &testsetup.StubSessionAuthority{Standings: map[string]models.Standing{}},
		store:     memory.NewQueueStore(),
		now:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.store.SetClock(func() time.Time { return f.now })
	f.queue = NewQueueManager(cfg, f.store, f.notifier, f.sessions, testsetup.NewMetrics())
	f.queue.SetMatchRequester(f.requester)
	f.queue.SetClock(func() time.Time { return f.now })
	return f
}

func (f *queueFixture) join(t *testing.T, userID string, skill float64) *models.JoinResult {
	t.Helper()
	result, err := f.queue.Join(testsetup.NewTestScope(), userID, models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: skill})
	require.NoError(t, err)
	return result
}

func TestTick_SoloPlayerMatchedOnceBucketFills(t *testing.T) {
	f := newQueueFixture(t)
	scope := testsetup.NewTestScope()

	f.join(t, "p1", 1000)
	info := f.queue.Tick(scope, f.now)
	assert.Equal(t, 0, info.MatchCreated)
	assert.Empty(t, f.requester.Formed())
	assert.True(t, f.queue.IsQueued("p1"))

	f.now = f.now.Add(2 * time.Second)
	f.join(t, "p2", 1020)
	f.join(t, "p3", 980)
	f.join(t, "p4", 1050)

	info = f.queue.Tick(scope, f.now)
	assert.Equal(t, 1, info.MatchCreated)
	assert.Equal(t, 4, info.PlayersMatched)

	formed := f.requester.Formed()
	require.Len(t, formed, 1)
	assert.Len(t, formed[0].Players, 4)
	assert.ElementsMatch(t, []string{"p1", "p2", "p3", "p4"}, formed[0].UserIDs())
	require.Len(t, formed[0].Teams, 2)
	assert.Len(t, formed[0].Teams[0].UserIDs, 2)
	assert.Len(t, formed[0].Teams[1].UserIDs, 2)

	assert.Equal(t, 0, f.queue.Stats().Total)
	assert.Eventually(t, func() bool {
		all, _ := f.store.All(context.Background())
		return len(all) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestJoin_Rejections(t *testing.T) {
	f := newQueueFixture(t)
	f.sessions.Standings["banned"] = models.Standing{Banned: true, TrustFactor: 1}
	f.sessions.Standings["shady"] = models.Standing{TrustFactor: 0.49}
	f.join(t, "queued", 1000)

	tests := []struct {
		name     string
		userID   string
		request  models.JoinRequest
		wantErr  error
		wantKind models.ErrorKind
	}{
		{name: "unknown_mode", userID: "u1", request: models.JoinRequest{GameMode: "battle-royale", Region: "na-east", Skill: 1}, wantErr: models.ErrInvalidGameMode, wantKind: models.KindInvalidQueueRequest},
		{name: "unknown_region", userID: "u1", request: models.JoinRequest{GameMode: "classic", Region: "mars", Skill: 1}, wantErr: models.ErrInvalidRegion, wantKind: models.KindInvalidQueueRequest},
		{name: "already_queued", userID: "queued", request: models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1}, wantErr: models.ErrAlreadyQueued, wantKind: models.KindInvalidQueueRequest},
		{name: "banned", userID: "banned", request: models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1}, wantErr: models.ErrBanned, wantKind: models.KindInvalidQueueRequest},
		{name: "low_trust", userID: "shady", request: models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1}, wantErr: models.ErrTrustTooLow, wantKind: models.KindInvalidQueueRequest},
		{name: "unknown_party", userID: "u1", request: models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1, PartyID: "nope"}, wantErr: models.ErrPartyNotFound, wantKind: models.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.queue.Join(testsetup.NewTestScope(), tt.userID, tt.request)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKind, models.Kind(err), "error %v", err)
		})
	}
}

func TestJoin_RejectsPlayerAlreadyInMatch(t *testing.T) {
	f := newQueueFixture(t)
	lookup := &testsetup.StubMatchLookup{}
	lookup.Book("playing")
	f.queue.SetMatchLookup(lookup)

	_, err := f.queue.Join(testsetup.NewTestScope(), "playing", models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1000})
	assert.ErrorIs(t, err, models.ErrAlreadyInMatch)
	assert.False(t, f.queue.IsQueued("playing"))

	f.join(t, "idle", 1000)
	assert.True(t, f.queue.IsQueued("idle"))
}

func TestTick_RefusedGroupDropsBookedPlayers(t *testing.T) {
	f := newQueueFixture(t)
	scope := testsetup.NewTestScope()
	lookup := &testsetup.StubMatchLookup{}
	f.queue.SetMatchLookup(lookup)

	for i, userID := range []string{"p1", "p2", "p3", "p4"} {
		f.join(t, userID, 1000+float64(i))
	}
	lookup.Book("p2")
	f.requester.Err = models.ErrAlreadyInMatch

	info := f.queue.Tick(scope, f.now)
	assert.Equal(t, 0, info.MatchCreated)
	assert.Equal(t, 3, info.PlayersRequeued)
	assert.False(t, f.queue.IsQueued("p2"))
	for _, userID := range []string{"p1", "p3", "p4"} {
		assert.True(t, f.queue.IsQueued(userID), userID)
	}

	left, ok := f.notifier.Last("p2", constants.EventQueueLeft)
	require.True(t, ok)
	assert.Equal(t, constants.ReasonAlreadyInMatch, left.Payload.(map[string]string)["reason"])
}

func TestJoin_PositionAndNotification(t *testing.T) {
	f := newQueueFixture(t)

	first := f.join(t, "a", 1000)
	second := f.join(t, "b", 1000)
	_, err := f.queue.Join(testsetup.NewTestScope(), "c", models.JoinRequest{GameMode: "casual", Region: "na-east", Skill: 1000})
	require.NoError(t, err)
	third := f.join(t, "d", 1000)

	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, 3, third.Position)
	assert.Greater(t, third.EstimatedWait, time.Duration(0))
	assert.Equal(t, []string{constants.EventQueueJoined}, f.notifier.Events("a"))

	info, ok := f.queue.PlayerInfo("b", f.now.Add(45*time.Second))
	require.True(t, ok)
	assert.Equal(t, 2, info.Position)
	assert.Equal(t, 45*time.Second, info.WaitTime)
	assert.Equal(t, float64(150), info.CurrentTolerance)

	stats := f.queue.Stats()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 3, stats.ByGameMode["classic"])
	assert.Equal(t, 4, stats.ByRegion["na-east"])
}

func TestLeave_Idempotent(t *testing.T) {
	f := newQueueFixture(t)
	scope := testsetup.NewTestScope()
	f.join(t, "a", 1000)

	assert.True(t, f.queue.Leave(scope, "a"))
	assert.False(t, f.queue.Leave(scope, "a"))
	assert.False(t, f.queue.Leave(scope, "never-joined"))
	assert.Equal(t, 1, f.notifier.Count(constants.EventQueueLeft))

	all, err := f.store.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTick_OutsideToleranceWaitsUntilWidened(t *testing.T) {
	f := newQueueFixture(t)
	scope := testsetup.NewTestScope()

	f.join(t, "a", 1000)
	f.join(t, "b", 1050)
	f.join(t, "c", 1100)
	f.join(t, "d", 1160)

	info := f.queue.Tick(scope, f.now)
	assert.Equal(t, 0, info.MatchCreated)

	// 160 apart needs 3 tolerance steps: 100 + 3*25 = 175
	info = f.queue.Tick(scope, f.now.Add(40*time.Second))
	assert.Equal(t, 0, info.MatchCreated)

	info = f.queue.Tick(scope, f.now.Add(60*time.Second))
	assert.Equal(t, 1, info.MatchCreated)
}

func TestTick_NoPlayerInTwoGroups(t *testing.T) {
	f := newQueueFixture(t)
	scope := testsetup.NewTestScope()

	for i := 0; i < 11; i++ {
		f.join(t, fmt.Sprintf("p%02d", i), 1000+float64(i*5))
	}

	info := f.queue.Tick(scope, f.now)
	assert.Equal(t, 2, info.MatchCreated)
	assert.Equal(t, 8, info.PlayersMatched)

	seen := map[string]bool{}
	for _, group := range f.requester.Formed() {
		assert.Len(t, group.Players, 4)
		for _, id := range group.UserIDs() {
			assert.False(t, seen[id], "player %s matched twice", id)
			seen[id] = true
		}
	}
	assert.Equal(t, 3, f.queue.Stats().Total)
	for _, id := range []string{"p08", "p09", "p10"} {
		assert.True(t, f.queue.IsQueued(id))
	}
}

func TestTick_DeterministicOrder(t *testing.T) {
	run := func() []string {
		f := newQueueFixture(t)
		for i, skill := range []float64{1000, 1000, 1010, 1010, 1020, 1020, 1030, 1030} {
			f.join(t, fmt.Sprintf("p%d", i), skill)
		}
		f.queue.Tick(testsetup.NewTestScope(), f.now)

		var order []string
		for _, g := range f.requester.Formed() {
			order = append(order, g.UserIDs()...)
		}
		return order
	}

	first := run()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run())
	}
	assert.Equal(t, []string{"p0", "p1", "p2", "p3"}, first[:4])
}

func TestTick_QueueTimeout(t *testing.T) {
	f := newQueueFixture(t)
	f.join(t, "a", 1000)

	info := f.queue.Tick(testsetup.NewTestScope(), f.now.Add(5*time.Minute+time.Second))
	assert.Equal(t, 1, info.PlayersTimedOut)
	assert.False(t, f.queue.IsQueued("a"))
	assert.Equal(t, []string{constants.EventQueueJoined, constants.EventQueueTimeout}, f.notifier.Events("a"))

	_, err := f.queue.Join(testsetup.NewTestScope(), "a", models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1000})
	assert.NoError(t, err)
}

func TestTick_RequesterFailureRequeuesWithOriginalJoinTime(t *testing.T) {
	f := newQueueFixture(t)
	f.requester.Err = models.ErrCapacityExhausted
	joinedAt := f.now

	for _, id := range []string{"a", "b", "c", "d"} {
		f.join(t, id, 1000)
	}

	info := f.queue.Tick(testsetup.NewTestScope(), f.now.Add(30*time.Second))
	assert.Equal(t, 0, info.MatchCreated)
	assert.Equal(t, 4, info.PlayersRequeued)

	for _, e := range f.queue.Entries() {
		assert.Equal(t, joinedAt, e.JoinedAt)
		assert.Equal(t, float64(125), e.CurrentTolerance)
	}

	f.requester.Err = nil
	info = f.queue.Tick(testsetup.NewTestScope(), f.now.Add(32*time.Second))
	assert.Equal(t, 1, info.MatchCreated)
}

func TestTick_OverlapIsSkipped(t *testing.T) {
	f := newQueueFixture(t)
	f.queue.tickMu.Lock()
	info := f.queue.Tick(testsetup.NewTestScope(), f.now)
	f.queue.tickMu.Unlock()

	assert.True(t, info.Skipped)
}

func TestTick_PartyStaysTogether(t *testing.T) {
	f := newQueueFixture(t)
	scope := testsetup.NewTestScope()
	parties := f.queue.Parties()

	party, err := parties.CreateParty(scope, "leader")
	require.NoError(t, err)
	invite, err := parties.Invite(scope, party.PartyID, "leader", "friend")
	require.NoError(t, err)
	_, err = parties.AcceptInvite(scope, invite.InviteID, "friend")
	require.NoError(t, err)

	_, err = f.queue.Join(scope, "leader", models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1000, PartyID: party.PartyID})
	require.NoError(t, err)
	f.join(t, "s1", 1000)
	f.join(t, "s2", 1010)

	// friend has not queued yet, the party is incomplete
	info := f.queue.Tick(scope, f.now)
	assert.Equal(t, 0, info.MatchCreated)

	_, err = f.queue.Join(scope, "friend", models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1020, PartyID: party.PartyID})
	require.NoError(t, err)

	info = f.queue.Tick(scope, f.now)
	require.Equal(t, 1, info.MatchCreated)

	group := f.requester.Formed()[0]
	for _, team := range group.Teams {
		hasLeader := utils.Contains(team.UserIDs, "leader")
		hasFriend := utils.Contains(team.UserIDs, "friend")
		assert.Equal(t, hasLeader, hasFriend, "party split across teams: %v", group.Teams)
	}
}

func TestJoin_PartyRules(t *testing.T) {
	f := newQueueFixture(t)
	scope := testsetup.NewTestScope()
	parties := f.queue.Parties()

	party, err := parties.CreateParty(scope, "leader")
	require.NoError(t, err)
	for _, member := range []string{"m1", "m2"} {
		invite, inviteErr := parties.Invite(scope, party.PartyID, "leader", member)
		require.NoError(t, inviteErr)
		_, inviteErr = parties.AcceptInvite(scope, invite.InviteID, member)
		require.NoError(t, inviteErr)
	}

	_, err = f.queue.Join(scope, "outsider", models.JoinRequest{GameMode: "competitive", Region: "na-east", Skill: 1, PartyID: party.PartyID})
	assert.ErrorIs(t, err, models.ErrNotInParty)

	// classic teams hold 2 players
	_, err = f.queue.Join(scope, "m1", models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1, PartyID: party.PartyID})
	assert.ErrorIs(t, err, models.ErrPartyTooLarge)

	_, err = f.queue.Join(scope, "m1", models.JoinRequest{GameMode: "competitive", Region: "na-east", Skill: 1, PartyID: party.PartyID})
	require.NoError(t, err)
	_, err = f.queue.Join(scope, "m2", models.JoinRequest{GameMode: "competitive", Region: "eu-west", Skill: 1, PartyID: party.PartyID})
	assert.ErrorIs(t, err, models.ErrPartyBucketMismatch)

	// a member leaving drops the queued members of the party
	require.NoError(t, parties.LeaveParty(scope, "m2"))
	assert.False(t, f.queue.IsQueued("m1"))
}

func TestAcceptInvite_DropsQueuedPartyMembers(t *testing.T) {
	f := newQueueFixture(t)
	scope := testsetup.NewTestScope()
	parties := f.queue.Parties()

	party, err := parties.CreateParty(scope, "leader")
	require.NoError(t, err)
	invite, err := parties.Invite(scope, party.PartyID, "leader", "m1")
	require.NoError(t, err)
	_, err = parties.AcceptInvite(scope, invite.InviteID, "m1")
	require.NoError(t, err)

	classic := models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1000, PartyID: party.PartyID}
	for _, member := range []string{"leader", "m1"} {
		_, err = f.queue.Join(scope, member, classic)
		require.NoError(t, err)
	}

	late, err := parties.Invite(scope, party.PartyID, "leader", "m2")
	require.NoError(t, err)
	_, err = parties.AcceptInvite(scope, late.InviteID, "m2")
	require.NoError(t, err)

	assert.False(t, f.queue.IsQueued("leader"))
	assert.False(t, f.queue.IsQueued("m1"))
	left, ok := f.notifier.Last("m1", constants.EventQueueLeft)
	require.True(t, ok)
	assert.Equal(t, "party_changed", left.Payload.(map[string]string)["reason"])

	// classic teams hold 2 players
	_, err = f.queue.Join(scope, "m2", classic)
	assert.ErrorIs(t, err, models.ErrPartyTooLarge)
}

func TestRestore(t *testing.T) {
	f := newQueueFixture(t)
	f.join(t, "a", 1000)
	f.join(t, "b", 1100)

	restarted := NewQueueManager(config.Default(), f.store, f.notifier, f.sessions, testsetup.NewMetrics())
	restored, err := restarted.Restore(testsetup.NewTestScope())
	require.NoError(t, err)
	assert.Equal(t, 2, restored)
	assert.True(t, restarted.IsQueued("a"))

	result, err := restarted.Join(testsetup.NewTestScope(), "late", models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Position)
	assert.Greater(t, result.Entry.Seq, uint64(2))
}

func TestDisconnect(t *testing.T) {
	f := newQueueFixture(t)
	scope := testsetup.NewTestScope()

	party, err := f.queue.Parties().CreateParty(scope, "a")
	require.NoError(t, err)
	_, err = f.queue.Join(scope, "a", models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1000, PartyID: party.PartyID})
	require.NoError(t, err)

	f.queue.Disconnect(scope, "a")
	assert.False(t, f.queue.IsQueued("a"))
	_, ok := f.queue.Parties().PartyOf("a")
	assert.False(t, ok)

	// nothing queued and no party is fine
	f.queue.Disconnect(scope, "ghost")
}

func TestRequesterMissing(t *testing.T) {
	f := newQueueFixture(t)
	f.queue.SetMatchRequester(nil)
	for _, id := range []string{"a", "b", "c", "d"} {
		f.join(t, id, 1000)
	}
	info := f.queue.Tick(testsetup.NewTestScope(), f.now)
	assert.Equal(t, 4, info.PlayersRequeued)
	assert.Equal(t, 4, f.queue.Stats().Total)
}

func TestNewQueueManager_DefaultsToSharedClock(t *testing.T) {
	frozen := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	restore := common.Now
	common.Now = func() time.Time { return frozen }
	defer func() { common.Now = restore }()

	queue := NewQueueManager(config.Default(), nil, &testsetup.RecordingNotifier{}, nil, testsetup.NewMetrics())
	result, err := queue.Join(testsetup.NewTestScope(), "p1", models.JoinRequest{GameMode: "classic", Region: "na-east", Skill: 1000})
	require.NoError(t, err)
	assert.Equal(t, frozen, result.Entry.JoinedAt)

	party, err := queue.Parties().CreateParty(testsetup.NewTestScope(), "leader")
	require.NoError(t, err)
	assert.Equal(t, frozen, party.CreatedAt)
}
