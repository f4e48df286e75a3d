// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package cassandra keeps match records, violations, bans and trust factors in Cassandra.
package cassandra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

// Options are the connection settings of the Cassandra session.
type Options struct {
	Hosts       []string
	Keyspace    string
	Consistency string
	Username    string
	Password    string
	Timeout     time.Duration
	MaxRetries  int
}

// Client wraps a gocql.Session bound to the arena keyspace.
type Client struct {
	session  *gocql.Session
	keyspace string
}

// NewClient connects and creates the keyspace and tables when they are missing.
func NewClient(opts Options) (*Client, error) {
	if len(opts.Hosts) == 0 {
		return nil, errors.New("at least one cassandra host is required")
	}
	if !validKeyspace(opts.Keyspace) {
		return nil, fmt.Errorf("invalid keyspace name %q", opts.Keyspace)
	}

	cluster := gocql.NewCluster(opts.Hosts...)
	cluster.Timeout = opts.Timeout
	cluster.ConnectTimeout = opts.Timeout
	cluster.Consistency = parseConsistency(opts.Consistency)
	cluster.RetryPolicy = RetryPolicy(opts.MaxRetries)
	cluster.NumConns = 2
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	if opts.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: opts.Username,
			Password: opts.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create cassandra session: %w", err)
	}

	client := &Client{session: session, keyspace: opts.Keyspace}
	if err = client.initializeSchema(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"hosts":    opts.Hosts,
		"keyspace": opts.Keyspace,
	}).Info("connected to cassandra")

	return client, nil
}

func (c *Client) Close() {
	if c.session != nil {
		c.session.Close()
	}
}

func (c *Client) initializeSchema() error {
	for i, statement := range schema(c.keyspace) {
		if err := c.session.Query(statement).Exec(); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}

func schema(keyspace string) []string {
	return []string{
		fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
			WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.matches (
			match_id text PRIMARY KEY,
			server_id text,
			game_mode text,
			region text,
			players list<text>,
			status text,
			reason text,
			result text,
			updated_at timestamp
		)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.violations (
			player_id text,
			violation_id text,
			match_id text,
			type text,
			confidence double,
			details text,
			created_at timestamp,
			PRIMARY KEY (player_id, violation_id)
		) WITH CLUSTERING ORDER BY (violation_id DESC)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.bans (
			player_id text PRIMARY KEY,
			action text,
			reason text,
			issued_at timestamp,
			expires_at timestamp
		)`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.trust_factors (
			player_id text PRIMARY KEY,
			trust_factor double,
			updated_at timestamp
		)`, keyspace),
	}
}

// validKeyspace accepts the unquoted identifiers Cassandra allows for keyspace names.
func validKeyspace(name string) bool {
	if name == "" || len(name) > 48 {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func parseConsistency(consistency string) gocql.Consistency {
	switch strings.ToUpper(consistency) {
	case "ONE":
		return gocql.One
	case "TWO":
		return gocql.Two
	case "THREE":
		return gocql.Three
	case "QUORUM":
		return gocql.Quorum
	case "ALL":
		return gocql.All
	case "LOCAL_QUORUM":
		return gocql.LocalQuorum
	case "EACH_QUORUM":
		return gocql.EachQuorum
	case "LOCAL_ONE":
		return gocql.LocalOne
	default:
		return gocql.LocalQuorum
	}
}

// RetryPolicy retries timeouts and connection failures up to maxRetries times.
func RetryPolicy(maxRetries int) gocql.RetryPolicy {
	return &transientRetryPolicy{maxRetries: maxRetries}
}

type transientRetryPolicy struct {
	maxRetries int
}

func (p *transientRetryPolicy) Attempt(q gocql.RetryableQuery) bool {
	return q.Attempts() <= p.maxRetries
}

func (p *transientRetryPolicy) GetRetryType(err error) gocql.RetryType {
	if err == nil {
		return gocql.Rethrow
	}
	if errors.Is(err, gocql.ErrTimeoutNoResponse) || errors.Is(err, gocql.ErrConnectionClosed) {
		return gocql.Retry
	}
	message := strings.ToLower(err.Error())
	for _, transient := range []string{"timeout", "connection", "unavailable"} {
		if strings.Contains(message, transient) {
			return gocql.Retry
		}
	}
	return gocql.Rethrow
}
