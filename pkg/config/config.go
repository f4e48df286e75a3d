// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/elliotchance/pie/v2"
)

// Config holds the scalar options of the arena backend. Tables (game modes, weapons, selector weights)
// live in Tables and are overlaid from the optional YAML file, see LoadTables.
type Config struct {
	// matchmaking queue
	MaxWaitTime        time.Duration `env:"MAX_WAIT_TIME"         envDefault:"5m"   envDocs:"queue entries waiting longer than this are removed with a queue_timeout event"`
	QueueTickRate      time.Duration `env:"QUEUE_TICK_RATE"       envDefault:"2s"   envDocs:"interval of the matchmaking tick"`
	SkillTolerance     float64       `env:"SKILL_TOLERANCE"       envDefault:"100"  envDocs:"initial skill tolerance of a queue entry"`
	MaxSkillTolerance  float64       `env:"MAX_SKILL_TOLERANCE"   envDefault:"500"  envDocs:"upper bound of the skill tolerance"`
	ToleranceIncrease  float64       `env:"TOLERANCE_INCREASE"    envDefault:"25"   envDocs:"tolerance added on every tolerance step"`
	ToleranceStep      time.Duration `env:"TOLERANCE_STEP"        envDefault:"20s"  envDocs:"wait time needed for one tolerance increase"`
	MinTrustFactor     float64       `env:"MIN_TRUST_FACTOR"      envDefault:"0.5"  envDocs:"players below this trust factor cannot queue"`
	QueueEntryTTL      time.Duration `env:"QUEUE_ENTRY_TTL"       envDefault:"10m"  envDocs:"expiry of queue entries in the queue store"`
	PartyInviteTimeout time.Duration `env:"PARTY_INVITE_TIMEOUT"  envDefault:"60s"  envDocs:"party invites expire after this duration"`
	MaxPartySize       int           `env:"MAX_PARTY_SIZE"        envDefault:"5"    envDocs:"maximum number of party members"`

	// match lifecycle
	AcceptTimeout  time.Duration `env:"ACCEPT_TIMEOUT"  envDefault:"30s" envDocs:"acceptance window of a pending match"`
	RequeueDelay   time.Duration `env:"REQUEUE_DELAY"   envDefault:"1s"  envDocs:"delay before players who accepted a cancelled match are queued again"`
	MatchRetention time.Duration `env:"MATCH_RETENTION" envDefault:"60s" envDocs:"ended matches are kept for audit this long before being purged"`

	// server fleet
	HeartbeatInterval   time.Duration `env:"HEARTBEAT_INTERVAL"     envDefault:"30s" envDocs:"interval of the heartbeat sweep"`
	ServerTimeout       time.Duration `env:"SERVER_TIMEOUT"         envDefault:"90s" envDocs:"servers without heartbeat for longer than this are marked offline"`
	ServerEvictAfter    time.Duration `env:"SERVER_EVICT_AFTER"     envDefault:"15m" envDocs:"offline servers are removed from the registry after this duration"`
	MaxPlayersPerServer int           `env:"MAX_PLAYERS_PER_SERVER" envDefault:"32"  envDocs:"capacity used when a server registers without one"`

	// anti-cheat
	MaxSpeed           float64       `env:"MAX_SPEED"            envDefault:"320"  envDocs:"maximum movement speed in units per second"`
	MaxAcceleration    float64       `env:"MAX_ACCELERATION"     envDefault:"1000" envDocs:"maximum acceleration in units per second squared"`
	TeleportThreshold  float64       `env:"TELEPORT_THRESHOLD"   envDefault:"100"  envDocs:"displacement slack before a move counts as teleportation"`
	MaxAimSpeed        float64       `env:"MAX_AIM_SPEED"        envDefault:"1800" envDocs:"maximum view angle speed in degrees per second"`
	SnapAngleThreshold float64       `env:"SNAP_ANGLE_THRESHOLD" envDefault:"90"   envDocs:"angle change in degrees that counts as a snap within 100ms"`
	MouseTolerance     float64       `env:"MOUSE_TOLERANCE"      envDefault:"45"   envDocs:"allowed degrees between mouse implied and reported angle change"`
	MaxPing            int           `env:"MAX_PING"             envDefault:"200"  envDocs:"ping ceiling in milliseconds"`
	MinTickRate        int           `env:"MIN_TICK_RATE"        envDefault:"30"   envDocs:"minimum client tick rate"`
	ConfidenceFlag     float64       `env:"CONFIDENCE_FLAG"      envDefault:"0.6"  envDocs:"single violation confidence that flags a player"`
	ConfidenceKick     float64       `env:"CONFIDENCE_KICK"      envDefault:"0.8"  envDocs:"single violation confidence that kicks a player"`
	ConfidenceTempBan  float64       `env:"CONFIDENCE_TEMP_BAN"  envDefault:"0.9"  envDocs:"single violation confidence that temporarily bans a player"`
	ConfidencePermBan  float64       `env:"CONFIDENCE_PERM_BAN"  envDefault:"0.95" envDocs:"single violation confidence that permanently bans a player"`
	TrackingWindow     time.Duration `env:"TRACKING_WINDOW"      envDefault:"30s"  envDocs:"window of violations and telemetry history considered by the escalator"`
	ViolationDecay     time.Duration `env:"VIOLATION_DECAY"      envDefault:"5m"   envDocs:"violations older than this are dropped by the decay sweep"`
	DecaySweepInterval time.Duration `env:"DECAY_SWEEP_INTERVAL" envDefault:"5m"   envDocs:"interval of the violation decay sweep"`
	TempBanDuration    time.Duration `env:"TEMP_BAN_DURATION"    envDefault:"24h"  envDocs:"duration of a temporary ban"`

	// infrastructure
	HTTPAddress          string        `env:"HTTP_ADDRESS"          envDefault:":8080"         envDocs:"listen address of the HTTP API"`
	RedisAddress         string        `env:"REDIS_ADDR"            envDefault:""              envDocs:"redis address, empty keeps queue state and notifications in process"`
	RedisPassword        string        `env:"REDIS_PASSWORD"        envDefault:""              envDocs:"redis password"`
	RedisDB              int           `env:"REDIS_DB"              envDefault:"0"             envDocs:"redis database number"`
	CassandraHosts       []string      `env:"CASSANDRA_HOSTS"       envDefault:""              envDocs:"comma separated cassandra hosts, empty keeps records in process"`
	CassandraKeyspace    string        `env:"CASSANDRA_KEYSPACE"    envDefault:"arena_backend" envDocs:"cassandra keyspace"`
	CassandraTimeout     time.Duration `env:"CASSANDRA_TIMEOUT"     envDefault:"5s"            envDocs:"cassandra query timeout"`
	CassandraConsistency string        `env:"CASSANDRA_CONSISTENCY" envDefault:"LOCAL_QUORUM"  envDocs:"cassandra consistency level"`
	CassandraUsername    string        `env:"CASSANDRA_USERNAME"    envDefault:""              envDocs:"cassandra username, empty disables authentication"`
	CassandraPassword    string        `env:"CASSANDRA_PASSWORD"    envDefault:""              envDocs:"cassandra password"`
	CassandraMaxRetries  int           `env:"CASSANDRA_MAX_RETRIES" envDefault:"3"             envDocs:"retries of timed out cassandra queries"`
	PersistTimeout       time.Duration `env:"PERSIST_TIMEOUT"       envDefault:"3s"            envDocs:"timeout of fire-and-forget persistence writes"`
	ZipkinURL            string        `env:"ZIPKIN_URL"            envDefault:""              envDocs:"zipkin collector url, empty disables trace export"`
	LogLevel             string        `env:"LOG_LEVEL"             envDefault:"info"          envDocs:"logrus level"`
	LogFormat            string        `env:"LOG_FORMAT"            envDefault:"json"          envDocs:"json or text"`
	TablesFile           string        `env:"ARENA_CONFIG"          envDefault:""              envDocs:"optional YAML file with game mode, region and weapon tables"`

	Tables Tables `env:"-"`
}

// Load parses the environment into a Config with default tables, then overlays the tables file if one is set.
// A non-empty tablesFile takes precedence over ARENA_CONFIG.
func Load(tablesFile string) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("unable to parse environment variables: %w", err)
	}
	cfg.Tables = DefaultTables()
	cfg.CassandraHosts = nonEmpty(cfg.CassandraHosts)
	if tablesFile != "" {
		cfg.TablesFile = tablesFile
	}

	if cfg.TablesFile != "" {
		if err := cfg.Tables.LoadFile(cfg.TablesFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration produced by an empty environment. Mostly used by tests.
func Default() *Config {
	cfg := &Config{}
	_ = env.Parse(cfg)
	cfg.Tables = DefaultTables()
	cfg.CassandraHosts = nonEmpty(cfg.CassandraHosts)
	return cfg
}

func nonEmpty(values []string) []string {
	return pie.Filter(values, func(value string) bool { return value != "" })
}

func (c *Config) Validate() error {
	if c.SkillTolerance < 0 || c.MaxSkillTolerance < c.SkillTolerance {
		return errors.New("max skill tolerance must not be lower than skill tolerance")
	}
	if c.ToleranceStep <= 0 {
		return errors.New("tolerance step must be positive")
	}
	if c.QueueTickRate <= 0 || c.HeartbeatInterval <= 0 || c.DecaySweepInterval <= 0 {
		return errors.New("periodic task intervals must be positive")
	}
	if c.AcceptTimeout <= 0 {
		return errors.New("accept timeout must be positive")
	}
	if c.MinTrustFactor < 0 || c.MinTrustFactor > 1 {
		return errors.New("min trust factor must be within [0,1]")
	}
	if !(c.ConfidenceFlag <= c.ConfidenceKick && c.ConfidenceKick <= c.ConfidenceTempBan && c.ConfidenceTempBan <= c.ConfidencePermBan) {
		return errors.New("confidence thresholds must be ascending flag <= kick <= tempBan <= permBan")
	}

	return c.Tables.Validate()
}
