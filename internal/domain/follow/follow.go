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

// Package follow is the Follow sub-processor: follow/unfollow/ignore graph
// deltas and the recount queries that keep follower/following totals
// current. It stages what the custom_json "follow" dialect hands it and
// flushes outside the surrounding transaction, since a partial failure
// here only desynchronises follow counts until a future recount.
package follow

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Delta is one follow-graph mutation: who started following/ignoring whom.
type Delta struct {
	Follower  string
	Following string
	What      string // "blog", "ignore", or "" to clear
}

// Processor buffers follow-graph deltas for one batch, flushed
// non-transactionally once the main batch commits.
type Processor struct {
	pool *pgxpool.Pool
	log  log.Logger

	mu     sync.Mutex
	staged []Delta
	dirty  map[string]bool
}

// New builds an empty follow.Processor backed by pool.
func New(pool *pgxpool.Pool, logger log.Logger) *Processor {
	return &Processor{pool: pool, log: logger, dirty: make(map[string]bool)}
}

// Stage records one follow-graph delta parsed from a custom_json "follow"
// event; CustomOp sub-processor calls this while processing its batch.
func (p *Processor) Stage(d Delta) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staged = append(p.staged, d)
	p.dirty[d.Follower] = true
	p.dirty[d.Following] = true
}

// Flush applies staged deltas and recounts follower/following totals for
// every account touched. It runs outside the surrounding transaction: if
// it fails partway, already-applied deltas stay applied and counts can
// drift until a future recount catches up.
func (p *Processor) Flush(ctx context.Context) error {
	p.mu.Lock()
	staged := p.staged
	dirty := p.dirty
	p.staged = nil
	p.dirty = make(map[string]bool)
	p.mu.Unlock()

	if len(staged) == 0 {
		return nil
	}

	for _, d := range staged {
		if d.What == "" {
			if _, err := p.pool.Exec(ctx,
				`DELETE FROM follows WHERE follower = $1 AND following = $2`,
				d.Follower, d.Following); err != nil {
				return err
			}
			continue
		}
		if _, err := p.pool.Exec(ctx,
			`INSERT INTO follows (follower, following, what) VALUES ($1, $2, $3)
			 ON CONFLICT (follower, following) DO UPDATE SET what = EXCLUDED.what`,
			d.Follower, d.Following, d.What); err != nil {
			return err
		}
	}

	for name := range dirty {
		if _, err := p.pool.Exec(ctx,
			`UPDATE accounts SET follower_count = (SELECT count(*) FROM follows WHERE following = $1),
			 following_count = (SELECT count(*) FROM follows WHERE follower = $1) WHERE name = $1`,
			name); err != nil {
			p.log.Warn("follow recount failed, counts may be stale", "account", name, "err", err)
		}
	}
	return nil
}
