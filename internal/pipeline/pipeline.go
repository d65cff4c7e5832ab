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

// Package pipeline makes the Batch Driver's flush order a code-readable
// contract instead of an order implicitly encoded across several call
// sites: Pipeline.FlushAll runs every sub-processor flusher in one fixed
// sequence.
package pipeline

import (
	"context"

	"github.com/hiveio/hafindexer/internal/blockstore"
	"github.com/hiveio/hafindexer/internal/ports"
	"github.com/jackc/pgx/v5"
)

// TxFlusher is the slice of a sub-processor the pipeline commands: one
// transactional flush of its staging buffer.
type TxFlusher interface {
	Flush(ctx context.Context, tx pgx.Tx) error
}

// Pipeline holds the transactional flushers the Batch Driver commands at
// the end of a successful batch, plus the Block Store and the
// non-transactional Follow flusher.
type Pipeline struct {
	Accounts      TxFlusher
	PostDataCache TxFlusher
	Tags          TxFlusher
	Votes         TxFlusher
	Posts         TxFlusher
	Payments      TxFlusher
	CustomOps     TxFlusher
	Blocks        *blockstore.Store
	Follow        ports.FollowProcessor
}

// FlushAll runs every transactional flusher inside tx. Accounts flushes
// first because posts and votes reference accounts by name. Posts
// flushes between post-data cache and tags because tags reference posts
// by identity, so posts must be visible first. Payments and custom JSON
// events have no downstream reader in this batch and flush anywhere
// before the block store. The block store flushes last so head-num only
// advances once every side table has succeeded. Follow flushes
// separately, outside tx, after the caller commits.
func (p *Pipeline) FlushAll(ctx context.Context, tx pgx.Tx) error {
	if err := p.Accounts.Flush(ctx, tx); err != nil {
		return err
	}
	if err := p.PostDataCache.Flush(ctx, tx); err != nil {
		return err
	}
	if err := p.Posts.Flush(ctx, tx); err != nil {
		return err
	}
	if err := p.Tags.Flush(ctx, tx); err != nil {
		return err
	}
	if err := p.Votes.Flush(ctx, tx); err != nil {
		return err
	}
	if err := p.Payments.Flush(ctx, tx); err != nil {
		return err
	}
	if err := p.CustomOps.Flush(ctx, tx); err != nil {
		return err
	}
	if err := p.Blocks.Flush(ctx, tx); err != nil {
		return err
	}
	return nil
}

// FlushFollow runs the Follow sub-processor's flush. It is never called
// from inside the batch transaction: a failure here only desynchronises
// follow counts, not a reason to roll back an otherwise-successful batch.
func (p *Pipeline) FlushFollow(ctx context.Context) error {
	return p.Follow.Flush(ctx)
}
