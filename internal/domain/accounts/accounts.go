// Copyright 2026 The hafindexer Authors
// This file is part of the hafindexer library.
//
// The hafindexer library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The hafindexer library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the hafindexer library. If not, see <http://www.gnu.org/licenses/>.

// Package accounts is the Accounts sub-processor: it registers account
// names discovered in blocks and tracks which existing accounts need
// reprocessing. Registrations are staged in memory and flushed inside
// the batch transaction, so a failed batch leaves no account rows
// behind. Reputation and stats recomputation happen downstream; this
// owns only registration and the dirty set.
package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/hiveio/hafindexer/internal/ports"
	"github.com/jackc/pgx/v5"
)

// Processor stages new account registrations and tracks which existing
// accounts need reprocessing.
type Processor struct {
	mu     sync.Mutex
	staged map[string]time.Time
	dirty  map[string]ports.DirtyKind
}

// New builds an empty accounts.Processor.
func New() *Processor {
	return &Processor{
		staged: make(map[string]time.Time),
		dirty:  make(map[string]ports.DirtyKind),
	}
}

// Register stages newly-discovered account names, stamped with the head
// date in effect when their block started. A name seen twice in one
// batch keeps its first date.
func (p *Processor) Register(names []string, asOf time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, name := range names {
		if _, ok := p.staged[name]; !ok {
			p.staged[name] = asOf
		}
	}
}

// Dirty marks name for the given reprocessing level. Pass 2 calls this
// for account_update/account_update2 (full) and for comment/vote
// authorship (lite), but only outside initial sync.
func (p *Processor) Dirty(name string, kind ports.DirtyKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.dirty[name]; !ok || kind < existing {
		p.dirty[name] = kind
	}
}

// DirtyCount reports how many distinct accounts are currently marked
// dirty; used only for reporting/tests.
func (p *Processor) DirtyCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.dirty)
}

// StagedCount reports how many registrations await flush.
func (p *Processor) StagedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.staged)
}

// Flush inserts every staged registration inside tx and clears the
// staging buffer. It runs first in the fixed flush order, since posts
// and votes reference accounts by name.
func (p *Processor) Flush(ctx context.Context, tx pgx.Tx) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.staged) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for name, asOf := range p.staged {
		batch.Queue(
			`INSERT INTO accounts (name, created_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			name, asOf)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range p.staged {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}

	p.staged = make(map[string]time.Time)
	return nil
}
