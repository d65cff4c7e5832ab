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

// Package processor is the Block Processor: it advances one block through
// header staging, the two-pass operation scan and virtual-op application,
// staging its results on the domain sub-processors inside a transaction
// the caller already opened. Flushing them is the Batch Driver's job.
package processor

import (
	"context"
	"sync"
	"time"

	"github.com/hiveio/hafindexer/internal/blockstore"
	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/hiveio/hafindexer/internal/errs"
	"github.com/hiveio/hafindexer/internal/ports"
	"github.com/hiveio/hafindexer/internal/router"
	"github.com/hiveio/hafindexer/internal/vops"
)

// VOpsSource supplies a block's virtual operations. During initial sync
// this reads from a preloaded map; otherwise it fetches synchronously
// from the upstream.
type VOpsSource interface {
	VirtualOps(ctx context.Context, num uint32) ([]chain.VirtualOp, error)
}

// Processor is the Block Processor. It caches the head date across
// calls: operations inside block B are tagged with block B-1's
// created_at, matching how the upstream node itself applies operations
// using the last produced block's timestamp.
type Processor struct {
	store    *blockstore.Store
	router   *router.Router
	votes    ports.VotesProcessor
	customOp ports.CustomOpProcessor

	mu       sync.Mutex
	headDate time.Time
	headSet  bool
	opsStats map[string]uint64
}

// New builds a Block Processor over its collaborators.
func New(store *blockstore.Store, rtr *router.Router, votes ports.VotesProcessor, customOp ports.CustomOpProcessor) *Processor {
	return &Processor{store: store, router: rtr, votes: votes, customOp: customOp, opsStats: make(map[string]uint64)}
}

// SeedHeadDate primes the in-memory head-date cache from persisted state
// at startup, so the first block processed this run uses the real
// predecessor's date rather than falling back to its own timestamp.
func (p *Processor) SeedHeadDate(t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.headSet {
		p.headDate = t
		p.headSet = true
	}
}

// OpsStats returns a snapshot of the process-lifetime operation counters.
func (p *Processor) OpsStats() map[string]uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]uint64, len(p.opsStats))
	for k, v := range p.opsStats {
		out[k] = v
	}
	return out
}

// Process runs one block through header staging, account discovery,
// dispatch, deferred custom JSON, and virtual-op application. Must be
// called inside an open transaction; the caller's transaction governs
// whether any of this becomes visible.
func (p *Processor) Process(ctx context.Context, block chain.Block, vopsSrc VOpsSource, isInitialSync bool) (uint32, error) {
	header, err := chain.HeaderOf(block)
	if err != nil {
		return 0, &errs.BlockProcessing{Num: 0, Err: err}
	}
	num := header.Num

	// Step 1: stage header.
	p.store.Stage(header)

	p.mu.Lock()
	if !p.headSet {
		// Step 2: seed head date from this block's own timestamp, since
		// nothing has processed a predecessor yet this run.
		p.headDate = block.Timestamp
		p.headSet = true
	}
	asOf := p.headDate
	p.mu.Unlock()

	ops, err := chain.DecodeTransactions(block.Transactions)
	if err != nil {
		return 0, &errs.BlockProcessing{Num: num, Err: err}
	}

	// Step 3: Pass 1, account discovery, registered with the cached head
	// date (not this block's date).
	if names := router.DiscoverAccounts(ops); len(names) > 0 {
		p.router.Accounts.Register(names, asOf)
	}

	// Step 4: Pass 2, dispatch; custom_json accumulates for a deferred
	// batch run after the main scan and is counted per dialect there, not
	// under a generic key here.
	p.router.InitialSync = isInitialSync
	var customOps []chain.CustomJSONOp
	localStats := make(map[string]uint64)
	for _, op := range ops {
		if key := p.router.Dispatch(ctx, op, op.Tx, num, asOf, &customOps); key != "" {
			localStats[key]++
		}
	}
	if len(customOps) > 0 {
		for k, v := range p.customOp.ProcessOps(customOps, num, asOf) {
			localStats[k] += v
		}
	}

	// Step 5: virtual ops for num, from the preloaded map during initial
	// sync or fetched synchronously otherwise.
	vos, err := vopsSrc.VirtualOps(ctx, num)
	if err != nil {
		return 0, &errs.BlockProcessing{Num: num, Err: err}
	}
	agg := vops.Prepare(vos)

	// Step 6: effective votes to Votes, comment-payout aggregate to Posts
	// in one call; merge returned counters.
	for key, vote := range agg.EffectiveVotes {
		p.votes.EffectiveCommentVoteOp(key, vote, asOf)
	}
	if len(agg.CommentPayoutOps) > 0 {
		payoutStats := p.router.Posts.CommentPayoutOp(agg.CommentPayoutOps, asOf)
		for k, v := range payoutStats {
			localStats[k] += v
		}
	}

	p.mu.Lock()
	for k, v := range localStats {
		p.opsStats[k] += v
	}
	// Step 7: advance cached head date to this block's timestamp.
	p.headDate = block.Timestamp
	p.mu.Unlock()

	return num, nil
}
