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

// Package votes is the Votes sub-processor: it stages the effective-vote
// pending-payout snapshots the Block Processor hands it for a single
// batched flush. Vote weight computation happens downstream.
package votes

import (
	"context"
	"sync"
	"time"

	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/jackc/pgx/v5"
)

type staged struct {
	key  string
	op   chain.EffectiveCommentVoteOp
	asOf time.Time
}

// Processor buffers effective-vote snapshots for one batch.
type Processor struct {
	mu     sync.Mutex
	staged []staged
}

// New builds an empty votes.Processor.
func New() *Processor { return &Processor{} }

// EffectiveCommentVoteOp stages one effective-vote snapshot. Block
// Processor calls this once per key in the block's effective-votes map,
// so later calls for the same key in later blocks naturally supersede
// earlier ones at flush time.
func (p *Processor) EffectiveCommentVoteOp(key string, op chain.EffectiveCommentVoteOp, asOf time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staged = append(p.staged, staged{key: key, op: op, asOf: asOf})
}

// Flush upserts the pending-payout snapshot for every staged key and
// clears the staging buffer.
func (p *Processor) Flush(ctx context.Context, tx pgx.Tx) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.staged {
		author, permlink, ok := splitKey(s.key)
		if !ok {
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO post_pending_payouts (author, permlink, pending_payout, updated_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (author, permlink) DO UPDATE SET pending_payout = EXCLUDED.pending_payout, updated_at = EXCLUDED.updated_at`,
			author, permlink, s.op.PendingPayout, s.asOf); err != nil {
			return err
		}
	}
	p.staged = nil
	return nil
}

func splitKey(key string) (author, permlink string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}
