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

// Package forkrecovery walks back from the local head comparing block
// hashes against upstream until it finds a match, then pops the
// mismatched tail within a bounded, irreversibility-gated window.
// Recovery beyond a shallow divergence, or before the divergence point
// is irreversible upstream, is refused rather than attempted.
package forkrecovery

import (
	"context"

	"github.com/hiveio/hafindexer/internal/blockstore"
	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/hiveio/hafindexer/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxForkDepth bounds the divergence recovery will attempt: a fork that
// would pop maxForkDepth or more blocks (at most maxForkDepth-1 are
// popped) is treated as a fatal condition an operator must resolve.
const maxForkDepth = 25

// tablesToPop lists, in delete order, every table fork recovery deletes
// from before popping the blocks row itself. post_tags and posts_data
// carry no created_at column and are keyed off posts by (author,
// permlink), so both must delete while the affected posts rows still
// exist to resolve through.
var tablesToPop = []string{
	"notifs", "subscriptions", "roles", "communities", "feed_cache",
	"reblogs", "follows", "post_tags", "posts_data", "posts", "payments",
}

// UpstreamHasher is the narrow upstream surface Recovery needs: the hash
// at a given height, and the last-irreversible height.
type UpstreamHasher interface {
	BlockHash(ctx context.Context, num uint32) (string, error)
	LastIrreversible(ctx context.Context) (uint32, error)
}

// Recovery runs the fork-recovery protocol against a local Block Store.
type Recovery struct {
	store    *blockstore.Store
	pool     *pgxpool.Pool
	upstream UpstreamHasher
}

// New builds a Recovery.
func New(store *blockstore.Store, pool *pgxpool.Pool, upstream UpstreamHasher) *Recovery {
	return &Recovery{store: store, pool: pool, upstream: upstream}
}

// Run executes the startup recovery: walk back from head comparing
// hashes; if a divergence is found, assert it is shallow and already
// irreversible upstream, then pop the mismatched tail in one
// transaction.
func (r *Recovery) Run(ctx context.Context) error {
	head, err := r.store.HeadNum(ctx)
	if err != nil {
		return err
	}
	if head == 0 {
		return nil
	}

	var toPop []chain.Header
	cursor := head
	for {
		local, err := r.store.Get(ctx, cursor)
		if err != nil {
			return err
		}
		upstreamHash, err := r.upstream.BlockHash(ctx, cursor)
		if err != nil {
			return err
		}
		if local.Hash == upstreamHash {
			break
		}
		toPop = append(toPop, local)

		if head-cursor+1 > maxForkDepth {
			return &errs.Consistency{Reason: "fork too deep"}
		}
		if cursor == 0 {
			return &errs.Consistency{Reason: "fork recovery walked back to genesis without a match"}
		}
		cursor--
	}

	if len(toPop) == 0 {
		return nil
	}
	if head-cursor >= maxForkDepth {
		return &errs.Consistency{Reason: "fork too deep"}
	}

	lastIrreversible, err := r.upstream.LastIrreversible(ctx)
	if err != nil {
		return err
	}
	if cursor >= lastIrreversible {
		return &errs.UpstreamRefusal{Reason: "not proceeding until head is irreversible"}
	}

	return r.popAll(ctx, toPop)
}

// popAll deletes every dependent row and the block header for each
// popped header, descending by num, in one transaction. Each pop asserts
// num == head_num() first (head-only popping).
func (r *Recovery) popAll(ctx context.Context, toPop []chain.Header) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &errs.TransientDB{Op: "forkrecovery.popAll.Begin", Err: err}
	}
	defer tx.Rollback(ctx)

	for _, h := range toPop {
		headNum, err := r.store.HeadNumTx(ctx, tx)
		if err != nil {
			return err
		}
		if h.Num != headNum {
			return &errs.Consistency{Reason: "fork recovery: attempted to pop a non-head block"}
		}

		if err := deleteDependents(ctx, tx, h); err != nil {
			return err
		}
		if err := r.store.Pop(ctx, tx, h.Num); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &errs.TransientDB{Op: "forkrecovery.popAll.Commit", Err: err}
	}
	return nil
}

func deleteDependents(ctx context.Context, tx pgx.Tx, h chain.Header) error {
	for _, table := range tablesToPop {
		var err error
		switch table {
		case "post_tags", "posts_data":
			// no created_at here; resolve the affected posts through the
			// predicate first and delete by identity.
			_, err = tx.Exec(ctx,
				`DELETE FROM `+table+` WHERE (author, permlink) IN
				 (SELECT author, permlink FROM posts WHERE created_at >= $1)`, h.CreatedAt)
		case "payments":
			_, err = tx.Exec(ctx, `DELETE FROM payments WHERE block_num = $1`, h.Num)
		default:
			_, err = tx.Exec(ctx, `DELETE FROM `+table+` WHERE created_at >= $1`, h.CreatedAt)
		}
		if err != nil {
			return &errs.TransientDB{Op: "forkrecovery.deleteDependents", Err: err}
		}
	}
	return nil
}
