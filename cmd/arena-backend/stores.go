// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-arena-backend/pkg/collaborator"
	"github.com/AccelByte/extend-arena-backend/pkg/config"
	"github.com/AccelByte/extend-arena-backend/pkg/storage"
	"github.com/AccelByte/extend-arena-backend/pkg/storage/cassandra"
	"github.com/AccelByte/extend-arena-backend/pkg/storage/memory"
	"github.com/AccelByte/extend-arena-backend/pkg/storage/redisstore"
)

// stores are the collaborators picked from the configuration. Without REDIS_ADDR or CASSANDRA_HOSTS
// the matching state stays in process.
type stores struct {
	queue    collaborator.QueueStore
	notifier collaborator.Notifier
	inbox    collaborator.Inbox
	records  collaborator.RecordStore
	sessions collaborator.SessionAuthority

	runNotifier func(ctx context.Context)
	closers     []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{}
	var revoker storage.SessionRevoker

	if cfg.RedisAddress != "" {
		client, err := redisstore.NewClient(ctx, redisstore.Options{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() {
			if err := client.Close(); err != nil {
				logrus.Warnf("unable to close redis client: %s", err.Error())
			}
		})

		notifier := redisstore.NewNotifier(client)
		st.queue = redisstore.NewQueueStore(client)
		st.notifier = notifier
		st.inbox = notifier
		st.runNotifier = notifier.Run
		revoker = redisstore.NewSessionRevoker(client)
	} else {
		logrus.Warn("REDIS_ADDR not set, queue entries and notifications are kept in process")
		notifier := memory.NewNotifier()
		st.queue = memory.NewQueueStore()
		st.notifier = notifier
		st.inbox = notifier
		revoker = memory.NewSessionRevoker()
	}

	if len(cfg.CassandraHosts) > 0 {
		client, err := cassandra.NewClient(cassandra.Options{
			Hosts:       cfg.CassandraHosts,
			Keyspace:    cfg.CassandraKeyspace,
			Consistency: cfg.CassandraConsistency,
			Username:    cfg.CassandraUsername,
			Password:    cfg.CassandraPassword,
			Timeout:     cfg.CassandraTimeout,
			MaxRetries:  cfg.CassandraMaxRetries,
		})
		if err != nil {
			st.close()
			return nil, err
		}
		st.closers = append(st.closers, client.Close)
		st.records = cassandra.NewRecordStore(client, cfg.CassandraTimeout)
	} else {
		logrus.Warn("CASSANDRA_HOSTS not set, match records, bans and trust factors are kept in process")
		st.records = memory.NewRecordStore()
	}

	st.sessions = storage.NewSessionAuthority(st.records, revoker)
	return st, nil
}
