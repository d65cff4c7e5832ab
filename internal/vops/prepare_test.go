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

package vops

import (
	"testing"

	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/stretchr/testify/require"
)

func effVote(author, permlink, pending string) chain.VirtualOp {
	return chain.VirtualOp{
		Type:                 chain.VOpEffectiveCommentVote,
		EffectiveCommentVote: &chain.EffectiveCommentVoteOp{Author: author, Permlink: permlink, PendingPayout: pending},
	}
}

func curationReward(author, permlink, reward string) chain.VirtualOp {
	return chain.VirtualOp{
		Type:           chain.VOpCurationReward,
		CurationReward: &chain.CurationRewardOp{CommentAuthor: author, CommentPermlink: permlink, Reward: reward},
	}
}

func TestPrepare_EffectiveVotesKeepsLastPerKey(t *testing.T) {
	ops := []chain.VirtualOp{
		effVote("alice", "post-1", "1.000 HBD"),
		effVote("alice", "post-1", "2.000 HBD"),
	}
	agg := Prepare(ops)

	require.Equal(t, "2.000 HBD", agg.EffectiveVotes["alice/post-1"].PendingPayout)
	require.Len(t, agg.EffectiveVotes, 1)
}

func TestPrepare_PreservesInsertionOrderPerKey(t *testing.T) {
	ops := []chain.VirtualOp{
		curationReward("alice", "post-1", "1.000 VESTS"),
		curationReward("alice", "post-1", "2.000 VESTS"),
		curationReward("bob", "post-2", "3.000 VESTS"),
	}
	agg := Prepare(ops)

	entries := agg.CommentPayoutOps["alice/post-1"]
	require.Len(t, entries, 2)
	require.Equal(t, "1.000 VESTS", entries[0].Op.CurationReward.Reward)
	require.Equal(t, "2.000 VESTS", entries[1].Op.CurationReward.Reward)

	require.Len(t, agg.CommentPayoutOps["bob/post-2"], 1)
}

func TestPrepare_IsPureAndDeterministic(t *testing.T) {
	ops := []chain.VirtualOp{
		effVote("alice", "post-1", "1.000 HBD"),
		curationReward("alice", "post-1", "1.000 VESTS"),
	}
	first := Prepare(ops)
	second := Prepare(ops)

	require.Equal(t, first.EffectiveVotes, second.EffectiveVotes)
	require.Equal(t, first.CommentPayoutOps, second.CommentPayoutOps)
}

func TestPrepare_IgnoresOpsWithoutCommentIdentity(t *testing.T) {
	ops := []chain.VirtualOp{{Type: "producer_reward_operation"}}
	agg := Prepare(ops)

	require.Empty(t, agg.EffectiveVotes)
	require.Empty(t, agg.CommentPayoutOps)
}
