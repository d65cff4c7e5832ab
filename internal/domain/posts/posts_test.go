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

package posts

import (
	"testing"
	"time"

	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/hiveio/hafindexer/internal/domain/postdatacache"
	"github.com/hiveio/hafindexer/internal/domain/tags"
	"github.com/hiveio/hafindexer/internal/vops"
	"github.com/stretchr/testify/require"
)

type fakeData struct {
	entries []postdatacache.Entry
}

func (f *fakeData) Stage(e postdatacache.Entry) { f.entries = append(f.entries, e) }

type fakeTags struct {
	entries []tags.Entry
}

func (f *fakeTags) Stage(e tags.Entry) { f.entries = append(f.entries, e) }

func TestCommentOp_StagesBodyAndTags(t *testing.T) {
	data := &fakeData{}
	tagStager := &fakeTags{}
	p := New(data, tagStager)

	p.CommentOp(chain.CommentOp{
		Author:       "alice",
		Permlink:     "hello",
		Body:         "first post",
		JSONMetadata: `{"tags":["intro","life"]}`,
	}, time.Now())

	require.Len(t, data.entries, 1)
	require.Equal(t, "first post", data.entries[0].Body)

	require.Len(t, tagStager.entries, 2)
	require.Equal(t, "intro", tagStager.entries[0].Tag)
	require.Equal(t, "life", tagStager.entries[1].Tag)
}

func TestTagsFromMetadata_ToleratesGarbage(t *testing.T) {
	require.Nil(t, tagsFromMetadata(""))
	require.Nil(t, tagsFromMetadata("not json"))
	require.Nil(t, tagsFromMetadata(`{"tags":"oops-a-string"}`))
	require.Equal(t, []string{"a"}, tagsFromMetadata(`{"tags":["a"]}`))
}

func TestCommentPayoutOp_AppliesStagesInOrder(t *testing.T) {
	p := New(nil, nil)

	agg := map[string][]vops.PayoutEntry{
		"alice/hello": {
			{Type: chain.VOpCommentReward, Op: chain.VirtualOp{
				Type:          chain.VOpCommentReward,
				CommentReward: &chain.CommentRewardOp{Author: "alice", Permlink: "hello", TotalPayoutValue: "5.000 HBD"},
			}},
			{Type: chain.VOpCommentPayoutUpdate, Op: chain.VirtualOp{
				Type:                chain.VOpCommentPayoutUpdate,
				CommentPayoutUpdate: &chain.CommentPayoutUpdateOp{Author: "alice", Permlink: "hello"},
			}},
		},
	}
	stats := p.CommentPayoutOp(agg, time.Now())

	require.Equal(t, uint64(1), stats[chain.VOpCommentReward])
	require.Equal(t, uint64(1), stats[chain.VOpCommentPayoutUpdate])
	require.True(t, p.paidOut["alice/hello"])
	require.Equal(t, "5.000 HBD", p.totalPayout["alice/hello"])
}
