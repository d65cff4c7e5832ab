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

import (
	"encoding/json"
	"fmt"
)

// DecodeVirtualOp decodes a raw virtual operation record. As with
// DecodeOperation, an unrecognised type tag is not an error: it decodes to
// a VirtualOp with every typed field nil.
func DecodeVirtualOp(raw RawVirtualOp) (VirtualOp, error) {
	v := VirtualOp{Type: raw.Type}

	var err error
	switch raw.Type {
	case VOpCurationReward:
		v.CurationReward = new(CurationRewardOp)
		err = json.Unmarshal(raw.Value, v.CurationReward)
	case VOpAuthorReward:
		v.AuthorReward = new(AuthorRewardOp)
		err = json.Unmarshal(raw.Value, v.AuthorReward)
	case VOpCommentReward:
		v.CommentReward = new(CommentRewardOp)
		err = json.Unmarshal(raw.Value, v.CommentReward)
	case VOpEffectiveCommentVote:
		v.EffectiveCommentVote = new(EffectiveCommentVoteOp)
		err = json.Unmarshal(raw.Value, v.EffectiveCommentVote)
	case VOpCommentPayoutUpdate:
		v.CommentPayoutUpdate = new(CommentPayoutUpdateOp)
		err = json.Unmarshal(raw.Value, v.CommentPayoutUpdate)
	default:
		// "other": ignored by the preparer.
	}
	if err != nil {
		return VirtualOp{}, fmt.Errorf("chain: decoding %s virtual op: %w", raw.Type, err)
	}
	return v, nil
}

// DecodeVirtualOps decodes a whole block's worth of virtual operations,
// preserving their original (chain-emission) order.
func DecodeVirtualOps(raw []RawVirtualOp) ([]VirtualOp, error) {
	out := make([]VirtualOp, 0, len(raw))
	for _, r := range raw {
		v, err := DecodeVirtualOp(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
