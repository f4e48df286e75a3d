// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"context"
	"sync"

	"github.com/AccelByte/extend-arena-backend/pkg/envelope"
	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

// StubSessionAuthority answers standings from a map. Unknown players are in good standing.
type StubSessionAuthority struct {
	mu          sync.Mutex
	Standings   map[string]models.Standing
	Invalidated []string
}

func (s *StubSessionAuthority) PlayerStanding(_ context.Context, userID string) (models.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if standing, ok := s.Standings[userID]; ok {
		return standing, nil
	}
	return models.Standing{TrustFactor: 1}, nil
}

func (s *StubSessionAuthority) InvalidateSessions(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Invalidated = append(s.Invalidated, userID)
	return nil
}

func (s *StubSessionAuthority) InvalidatedUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.Invalidated...)
}

// StubMatchRequester records the groups handed over by the queue tick.
type StubMatchRequester struct {
	mu     sync.Mutex
	Groups []models.MatchGroup
	Err    error
}

func (s *StubMatchRequester) RequestMatch(_ *envelope.Scope, group models.MatchGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}
	s.Groups = append(s.Groups, group)
	return nil
}

func (s *StubMatchRequester) Formed() []models.MatchGroup {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.MatchGroup(nil), s.Groups...)
}

// StubMatchLookup answers InMatch from a fixed set of booked players.
type StubMatchLookup struct {
	mu     sync.Mutex
	booked map[string]struct{}
}

func (s *StubMatchLookup) Book(userIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.booked == nil {
		s.booked = make(map[string]struct{})
	}
	for _, userID := range userIDs {
		s.booked[userID] = struct{}{}
	}
}

func (s *StubMatchLookup) InMatch(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.booked[userID]
	return ok
}
