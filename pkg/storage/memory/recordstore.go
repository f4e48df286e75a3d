// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package memory

import (
	"context"
	"sync"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

// RecordStore is an in-process collaborator.RecordStore.
type RecordStore struct {
	mu           sync.RWMutex
	matches      map[string]models.MatchRecord
	violations   map[string][]models.Violation
	bans         map[string]models.Ban
	trustFactors map[string]float64
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		matches:      make(map[string]models.MatchRecord),
		violations:   make(map[string][]models.Violation),
		bans:         make(map[string]models.Ban),
		trustFactors: make(map[string]float64),
	}
}

// SaveMatch keeps the record with the latest UpdatedAt, writes may arrive out of order.
func (s *RecordStore) SaveMatch(_ context.Context, record models.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.matches[record.MatchID]; ok && existing.UpdatedAt.After(record.UpdatedAt) {
		return nil
	}
	s.matches[record.MatchID] = record
	return nil
}

func (s *RecordStore) GetMatch(_ context.Context, matchID string) (*models.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.matches[matchID]
	if !ok {
		return nil, models.ErrMatchNotFound
	}
	return &record, nil
}

func (s *RecordStore) SaveViolation(_ context.Context, violation models.Violation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.violations[violation.PlayerID] = append(s.violations[violation.PlayerID], violation)
	return nil
}

// ListViolations returns the newest violations first.
func (s *RecordStore) ListViolations(_ context.Context, playerID string, limit int) ([]models.Violation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.violations[playerID]
	result := make([]models.Violation, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, stored[i])
	}
	return result, nil
}

func (s *RecordStore) SaveBan(_ context.Context, ban models.Ban) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bans[ban.PlayerID] = ban
	return nil
}

func (s *RecordStore) GetBan(_ context.Context, playerID string) (*models.Ban, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ban, ok := s.bans[playerID]
	if !ok {
		return nil, nil
	}
	return &ban, nil
}

func (s *RecordStore) SaveTrustFactor(_ context.Context, playerID string, trustFactor float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trustFactors[playerID] = trustFactor
	return nil
}

func (s *RecordStore) GetTrustFactor(_ context.Context, playerID string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trust, ok := s.trustFactors[playerID]
	return trust, ok, nil
}
