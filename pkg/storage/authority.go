// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package storage wires the record store and a session revoker into a collaborator.SessionAuthority.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-arena-backend/pkg/collaborator"
	"github.com/AccelByte/extend-arena-backend/pkg/common"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

const defaultTrustFactor = 1.0

// SessionRevoker drops every session a player holds.
type SessionRevoker interface {
	RevokeSessions(ctx context.Context, userID string) error
}

// SessionAuthority answers ban and trust lookups from the record store.
type SessionAuthority struct {
	records collaborator.RecordStore
	revoker SessionRevoker
	now     func() time.Time
}

func NewSessionAuthority(records collaborator.RecordStore, revoker SessionRevoker) *SessionAuthority {
	return &SessionAuthority{
		records: records,
		revoker: revoker,
		now:     common.Now,
	}
}

func (a *SessionAuthority) PlayerStanding(ctx context.Context, userID string) (models.Standing, error) {
	standing := models.Standing{TrustFactor: defaultTrustFactor}

	ban, err := a.records.GetBan(ctx, userID)
	if err != nil {
		return standing, fmt.Errorf("lookup ban: %w", err)
	}
	if ban != nil && ban.Active(a.now()) {
		standing.Banned = true
	}

	trust, ok, err := a.records.GetTrustFactor(ctx, userID)
	if err != nil {
		return standing, fmt.Errorf("lookup trust factor: %w", err)
	}
	if ok {
		standing.TrustFactor = trust
	}

	return standing, nil
}

func (a *SessionAuthority) InvalidateSessions(ctx context.Context, userID string) error {
	if a.revoker == nil {
		return nil
	}
	return a.revoker.RevokeSessions(ctx, userID)
}
