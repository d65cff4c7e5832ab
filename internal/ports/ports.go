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

// Package ports declares the contracts between the ingestion core and the
// domain sub-processors (accounts, posts, votes, payments, follow, tags,
// custom JSON, post-data cache). The sub-processors own their business
// rules and staging buffers; the core only stages work on them and
// commands flush at well-defined points.
package ports

import (
	"context"
	"time"

	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/hiveio/hafindexer/internal/vops"
	"github.com/jackc/pgx/v5"
)

// DirtyKind distinguishes the account-dirtying levels: a full re-check
// (account_update*) versus a lite touch (reputation or stats only, from
// comment/vote authorship).
type DirtyKind int

const (
	DirtyFull DirtyKind = iota
	DirtyLiteStats
	DirtyLiteReputation
)

// AccountRegistrar is the Accounts sub-processor's surface, as used by
// Operation Router Pass 1 (registration) and Pass 2 (dirtying).
type AccountRegistrar interface {
	// Register stages newly-discovered account names, tagged with the
	// head date in effect when this block started.
	Register(names []string, asOf time.Time)
	// Dirty marks an existing account for reprocessing of the given kind.
	Dirty(name string, kind DirtyKind)
	// Flush persists staged registrations inside tx. It runs first in
	// the fixed flush order, since posts and votes reference accounts.
	Flush(ctx context.Context, tx pgx.Tx) error
}

// PostsProcessor is the Posts sub-processor's surface.
type PostsProcessor interface {
	CommentOp(op chain.CommentOp, asOf time.Time)
	DeleteOp(op chain.DeleteCommentOp)
	CommentOptionsOp(op chain.CommentOptionsOp)
	// CommentPayoutOp applies the per-key ordered payout-stage entries
	// produced by the vops preparer and returns per-operation-type
	// counters to merge into ops-stats.
	CommentPayoutOp(agg map[string][]vops.PayoutEntry, asOf time.Time) map[string]uint64
	Flush(ctx context.Context, tx pgx.Tx) error
}

// VotesProcessor is the Votes sub-processor's surface.
type VotesProcessor interface {
	EffectiveCommentVoteOp(key string, op chain.EffectiveCommentVoteOp, asOf time.Time)
	Flush(ctx context.Context, tx pgx.Tx) error
}

// PaymentsProcessor is the Payments sub-processor's surface.
type PaymentsProcessor interface {
	OpTransfer(op chain.TransferOp, txIndex int, blockNum uint32, asOf time.Time)
	Flush(ctx context.Context, tx pgx.Tx) error
}

// CustomOpProcessor handles the deferred custom_json_operation batch,
// run once per block after the main dispatch scan. Events are staged and
// only persisted at Flush, inside the batch transaction.
type CustomOpProcessor interface {
	ProcessOps(ops []chain.CustomJSONOp, blockNum uint32, asOf time.Time) map[string]uint64
	Flush(ctx context.Context, tx pgx.Tx) error
}

// FollowProcessor flushes follow-graph deltas. This runs outside the
// surrounding transaction because its recount queries are expensive; a
// partial failure here leaves follow counts desynchronised until a
// future recount catches up.
type FollowProcessor interface {
	Flush(ctx context.Context) error
}

// TagsProcessor flushes the tags staging buffer.
type TagsProcessor interface {
	Flush(ctx context.Context, tx pgx.Tx) error
}

// PostDataCacheProcessor flushes the post-body cache staging buffer. It
// must be flushed before TagsProcessor and VotesProcessor, since both
// reference posts by identity that only becomes visible once this has
// run.
type PostDataCacheProcessor interface {
	Flush(ctx context.Context, tx pgx.Tx) error
}
