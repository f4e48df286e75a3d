// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"gopkg.in/typ.v4/sync2"
)

// Pool reusable objects to reduce garbage collector
type Pool struct {
	QueueEntries *sync2.Pool[[]*QueueEntry]
}

func NewPool() *Pool {
	return &Pool{
		QueueEntries: &sync2.Pool[[]*QueueEntry]{
			New: func() []*QueueEntry {
				return make([]*QueueEntry, 0, 64)
			},
		},
	}
}

// GetQueueEntries returns an empty scratch slice, hand it back with PutQueueEntries.
func (p *Pool) GetQueueEntries() []*QueueEntry {
	return p.QueueEntries.Get()[:0]
}

func (p *Pool) PutQueueEntries(entries []*QueueEntry) {
	clear(entries)
	p.QueueEntries.Put(entries[:0])
}
