// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
	"github.com/AccelByte/extend-arena-backend/pkg/storage/memory"
)

func TestSessionAuthority_PlayerStanding(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	records := memory.NewRecordStore()
	require.NoError(t, records.SaveBan(ctx, models.Ban{PlayerID: "perm", Action: models.ActionPermanentBan, IssuedAt: now}))
	require.NoError(t, records.SaveBan(ctx, models.Ban{PlayerID: "expired", Action: models.ActionTemporaryBan, IssuedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour)}))
	require.NoError(t, records.SaveTrustFactor(ctx, "shady", 0.3))

	authority := NewSessionAuthority(records, memory.NewSessionRevoker())
	authority.now = func() time.Time { return now }

	tests := []struct {
		userID string
		want   models.Standing
	}{
		{userID: "clean", want: models.Standing{TrustFactor: 1}},
		{userID: "perm", want: models.Standing{Banned: true, TrustFactor: 1}},
		{userID: "expired", want: models.Standing{TrustFactor: 1}},
		{userID: "shady", want: models.Standing{TrustFactor: 0.3}},
	}
	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			standing, err := authority.PlayerStanding(ctx, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, standing)
		})
	}
}

func TestSessionAuthority_InvalidateSessions(t *testing.T) {
	revoker := memory.NewSessionRevoker()
	authority := NewSessionAuthority(memory.NewRecordStore(), revoker)

	require.NoError(t, authority.InvalidateSessions(context.Background(), "cheater"))
	assert.True(t, revoker.Revoked("cheater"))
	assert.False(t, revoker.Revoked("someone-else"))
}
