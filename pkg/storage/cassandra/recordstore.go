// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package cassandra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/AccelByte/extend-arena-backend/pkg/models"
)

const defaultQueryTimeout = 5 * time.Second

// RecordStore is a collaborator.RecordStore on Cassandra.
type RecordStore struct {
	client  *Client
	timeout time.Duration
}

func NewRecordStore(client *Client, timeout time.Duration) *RecordStore {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &RecordStore{client: client, timeout: timeout}
}

// queryContext applies the store timeout unless the caller already set a deadline.
func (s *RecordStore) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *RecordStore) query(ctx context.Context, statement string, values ...interface{}) *gocql.Query {
	return s.client.session.Query(fmt.Sprintf(statement, s.client.keyspace), values...).WithContext(ctx)
}

func (s *RecordStore) SaveMatch(ctx context.Context, record models.MatchRecord) error {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	result, err := encodeJSON(record.Result)
	if err != nil {
		return err
	}

	// writes may arrive out of order, the newest update wins
	err = s.query(ctx, `INSERT INTO %s.matches (match_id, server_id, game_mode, region, players, status, reason, result, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) USING TIMESTAMP ?`,
		record.MatchID, record.ServerID, record.GameMode, record.Region, record.Players,
		string(record.Status), record.Reason, result, record.UpdatedAt, record.UpdatedAt.UnixMicro(),
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to save match %s: %w", record.MatchID, err)
	}
	return nil
}

func (s *RecordStore) GetMatch(ctx context.Context, matchID string) (*models.MatchRecord, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var (
		record models.MatchRecord
		status string
		result string
	)
	err := s.query(ctx, `SELECT match_id, server_id, game_mode, region, players, status, reason, result, updated_at
		FROM %s.matches WHERE match_id = ?`, matchID,
	).Scan(&record.MatchID, &record.ServerID, &record.GameMode, &record.Region, &record.Players,
		&status, &record.Reason, &result, &record.UpdatedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, models.ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %s: %w", matchID, err)
	}

	record.Status = models.MatchStatus(status)
	if result != "" {
		record.Result = &models.MatchResult{}
		if err = json.Unmarshal([]byte(result), record.Result); err != nil {
			return nil, fmt.Errorf("failed to decode result of match %s: %w", matchID, err)
		}
	}

	return &record, nil
}

func (s *RecordStore) SaveViolation(ctx context.Context, violation models.Violation) error {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	details, err := encodeJSON(violation.Details)
	if err != nil {
		return err
	}

	err = s.query(ctx, `INSERT INTO %s.violations (player_id, violation_id, match_id, type, confidence, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		violation.PlayerID, violation.ID, violation.MatchID, string(violation.Type), violation.Confidence,
		details, violation.Timestamp,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to save violation %s: %w", violation.ID, err)
	}
	return nil
}

// ListViolations returns the latest violations of playerID, newest first.
func (s *RecordStore) ListViolations(ctx context.Context, playerID string, limit int) ([]models.Violation, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	iter := s.query(ctx, `SELECT violation_id, match_id, type, confidence, details, created_at
		FROM %s.violations WHERE player_id = ? LIMIT ?`, playerID, limit,
	).Iter()

	var (
		violations []models.Violation
		v          models.Violation
		kind       string
		details    string
	)
	for iter.Scan(&v.ID, &v.MatchID, &kind, &v.Confidence, &details, &v.Timestamp) {
		v.PlayerID = playerID
		v.Type = models.ViolationType(kind)
		v.Details = nil
		if details != "" {
			if err := json.Unmarshal([]byte(details), &v.Details); err != nil {
				_ = iter.Close()
				return nil, fmt.Errorf("failed to decode violation %s: %w", v.ID, err)
			}
		}
		violations = append(violations, v)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list violations of %s: %w", playerID, err)
	}

	return violations, nil
}

func (s *RecordStore) SaveBan(ctx context.Context, ban models.Ban) error {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var expiresAt interface{}
	if !ban.ExpiresAt.IsZero() {
		expiresAt = ban.ExpiresAt
	}

	err := s.query(ctx, `INSERT INTO %s.bans (player_id, action, reason, issued_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		ban.PlayerID, string(ban.Action), ban.Reason, ban.IssuedAt, expiresAt,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to save ban of %s: %w", ban.PlayerID, err)
	}
	return nil
}

func (s *RecordStore) GetBan(ctx context.Context, playerID string) (*models.Ban, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var (
		ban    models.Ban
		action string
	)
	err := s.query(ctx, `SELECT player_id, action, reason, issued_at, expires_at FROM %s.bans WHERE player_id = ?`, playerID).
		Scan(&ban.PlayerID, &action, &ban.Reason, &ban.IssuedAt, &ban.ExpiresAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ban of %s: %w", playerID, err)
	}

	ban.Action = models.EnforcementAction(action)
	return &ban, nil
}

func (s *RecordStore) SaveTrustFactor(ctx context.Context, playerID string, trustFactor float64) error {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	err := s.query(ctx, `INSERT INTO %s.trust_factors (player_id, trust_factor, updated_at) VALUES (?, ?, ?)`,
		playerID, trustFactor, time.Now(),
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to save trust factor of %s: %w", playerID, err)
	}
	return nil
}

func (s *RecordStore) GetTrustFactor(ctx context.Context, playerID string) (float64, bool, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var trust float64
	err := s.query(ctx, `SELECT trust_factor FROM %s.trust_factors WHERE player_id = ?`, playerID).Scan(&trust)
	if errors.Is(err, gocql.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get trust factor of %s: %w", playerID, err)
	}
	return trust, true, nil
}

// encodeJSON returns an empty string for nil values so the column stays unset.
func encodeJSON(value interface{}) (string, error) {
	if value == nil {
		return "", nil
	}
	switch v := value.(type) {
	case *models.MatchResult:
		if v == nil {
			return "", nil
		}
	case map[string]interface{}:
		if len(v) == 0 {
			return "", nil
		}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode %T: %w", value, err)
	}
	return string(data), nil
}
