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

package chain

import "encoding/json"

// Virtual operation tags, as emitted by the upstream node's consensus
// layer (never present in transactions).
const (
	VOpCurationReward       = "curation_reward_operation"
	VOpAuthorReward         = "author_reward_operation"
	VOpCommentReward        = "comment_reward_operation"
	VOpEffectiveCommentVote = "effective_comment_vote_operation"
	VOpCommentPayoutUpdate  = "comment_payout_update_operation"
)

// RawVirtualOp is the wire shape of a single virtual operation.
type RawVirtualOp struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// VirtualOp is the decoded sum type for virtual operations.
type VirtualOp struct {
	Type string

	CurationReward       *CurationRewardOp
	AuthorReward         *AuthorRewardOp
	CommentReward        *CommentRewardOp
	EffectiveCommentVote *EffectiveCommentVoteOp
	CommentPayoutUpdate  *CommentPayoutUpdateOp
}

// AuthorPermlinkKey returns the "author/permlink" aggregation key for a
// virtual op, or "" if this vop type carries no comment identity.
func (v VirtualOp) AuthorPermlinkKey() string {
	switch {
	case v.CurationReward != nil:
		return v.CurationReward.CommentAuthor + "/" + v.CurationReward.CommentPermlink
	case v.AuthorReward != nil:
		return v.AuthorReward.Author + "/" + v.AuthorReward.Permlink
	case v.CommentReward != nil:
		return v.CommentReward.Author + "/" + v.CommentReward.Permlink
	case v.EffectiveCommentVote != nil:
		return v.EffectiveCommentVote.Author + "/" + v.EffectiveCommentVote.Permlink
	case v.CommentPayoutUpdate != nil:
		return v.CommentPayoutUpdate.Author + "/" + v.CommentPayoutUpdate.Permlink
	default:
		return ""
	}
}

// CurationRewardOp is the payload of a curation_reward_operation.
type CurationRewardOp struct {
	CommentAuthor   string `json:"comment_author"`
	CommentPermlink string `json:"comment_permlink"`
	Reward          string `json:"reward"`
}

// AuthorRewardOp is the payload of an author_reward_operation.
type AuthorRewardOp struct {
	Author        string `json:"author"`
	Permlink      string `json:"permlink"`
	HBDPayout     string `json:"hbd_payout"`
	HivePayout    string `json:"hive_payout"`
	VestingPayout string `json:"vesting_payout"`
}

// CommentRewardOp is the payload of a comment_reward_operation.
type CommentRewardOp struct {
	Author                 string `json:"author"`
	Permlink               string `json:"permlink"`
	Payout                 string `json:"payout"`
	AuthorRewards          int64  `json:"author_rewards"`
	TotalPayoutValue       string `json:"total_payout_value"`
	CuratorPayoutValue     string `json:"curator_payout_value"`
	BeneficiaryPayoutValue string `json:"beneficiary_payout_value"`
}

// EffectiveCommentVoteOp is the payload of an
// effective_comment_vote_operation.
type EffectiveCommentVoteOp struct {
	Author        string `json:"author"`
	Permlink      string `json:"permlink"`
	PendingPayout string `json:"pending_payout"`
}

// CommentPayoutUpdateOp is the payload of a
// comment_payout_update_operation. Its mere presence marks the post
// finalised; it carries no extra fields we need.
type CommentPayoutUpdateOp struct {
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
}
