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

// Package vops folds a block's raw virtual operations into the two keyed
// aggregates the core hands to Votes and Posts. Prepare is a pure
// function: same input always yields the same output, insertion order
// preserved per key, so downstream accounting stages can replay it safely.
package vops

import "github.com/hiveio/hafindexer/internal/chain"

// PayoutEntry is one {op_type -> value} entry appended to a
// comment-payout aggregate, in the chain-emission order it was observed.
type PayoutEntry struct {
	Type string
	Op   chain.VirtualOp
}

// Aggregates is the pair of maps Prepare produces for one block.
type Aggregates struct {
	// EffectiveVotes maps "author/permlink" to the pending-payout
	// snapshot at this block. A later effective_comment_vote_operation
	// for the same key within one block overwrites the earlier one;
	// downstream only wants the latest snapshot per post.
	EffectiveVotes map[string]chain.EffectiveCommentVoteOp

	// CommentPayoutOps maps "author/permlink" to the ordered sequence of
	// payout-stage entries observed for that post, in chain-emission
	// order (author_reward -> curation_reward -> comment_reward ->
	// comment_payout_update, as whatever order the chain actually
	// emitted them).
	CommentPayoutOps map[string][]PayoutEntry
}

// Prepare folds a block's virtual operations into Aggregates. It performs
// no I/O and reads nothing but its arguments.
func Prepare(ops []chain.VirtualOp) Aggregates {
	agg := Aggregates{
		EffectiveVotes:   make(map[string]chain.EffectiveCommentVoteOp),
		CommentPayoutOps: make(map[string][]PayoutEntry),
	}

	for _, op := range ops {
		key := op.AuthorPermlinkKey()
		if key == "" {
			continue
		}

		switch op.Type {
		case chain.VOpEffectiveCommentVote:
			agg.EffectiveVotes[key] = *op.EffectiveCommentVote
			agg.CommentPayoutOps[key] = append(agg.CommentPayoutOps[key], PayoutEntry{Type: op.Type, Op: op})
		case chain.VOpCurationReward, chain.VOpAuthorReward, chain.VOpCommentReward, chain.VOpCommentPayoutUpdate:
			agg.CommentPayoutOps[key] = append(agg.CommentPayoutOps[key], PayoutEntry{Type: op.Type, Op: op})
		default:
			// not a vop type the preparer folds; ignored.
		}
	}

	return agg
}
