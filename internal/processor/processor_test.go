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

package processor

import (
	"context"
	"testing"
	"time"

	"github.com/hiveio/hafindexer/internal/blockstore"
	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/hiveio/hafindexer/internal/ports"
	"github.com/hiveio/hafindexer/internal/router"
	"github.com/hiveio/hafindexer/internal/vops"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	registeredAsOf []time.Time
	dirty          map[string]ports.DirtyKind
}

func newFakeAccounts() *fakeAccounts { return &fakeAccounts{dirty: make(map[string]ports.DirtyKind)} }

func (f *fakeAccounts) Register(names []string, asOf time.Time) {
	f.registeredAsOf = append(f.registeredAsOf, asOf)
}
func (f *fakeAccounts) Dirty(name string, kind ports.DirtyKind) { f.dirty[name] = kind }
func (f *fakeAccounts) Flush(ctx context.Context, tx pgx.Tx) error { return nil }

type fakePosts struct {
	payoutAsOf []time.Time
}

func (f *fakePosts) CommentOp(op chain.CommentOp, asOf time.Time)   {}
func (f *fakePosts) DeleteOp(op chain.DeleteCommentOp)              {}
func (f *fakePosts) CommentOptionsOp(op chain.CommentOptionsOp)     {}
func (f *fakePosts) CommentPayoutOp(agg map[string][]vops.PayoutEntry, asOf time.Time) map[string]uint64 {
	f.payoutAsOf = append(f.payoutAsOf, asOf)
	stats := make(map[string]uint64)
	for _, entries := range agg {
		for _, e := range entries {
			stats[e.Type]++
		}
	}
	return stats
}
func (f *fakePosts) Flush(ctx context.Context, tx pgx.Tx) error { return nil }

type fakePayments struct{}

func (f *fakePayments) OpTransfer(op chain.TransferOp, txIndex int, blockNum uint32, asOf time.Time) {}
func (f *fakePayments) Flush(ctx context.Context, tx pgx.Tx) error                                  { return nil }

type fakeVotes struct {
	keys []string
	asOf []time.Time
}

func (f *fakeVotes) EffectiveCommentVoteOp(key string, op chain.EffectiveCommentVoteOp, asOf time.Time) {
	f.keys = append(f.keys, key)
	f.asOf = append(f.asOf, asOf)
}
func (f *fakeVotes) Flush(ctx context.Context, tx pgx.Tx) error { return nil }

type fakeCustomOp struct {
	calls int
}

func (f *fakeCustomOp) ProcessOps(ops []chain.CustomJSONOp, blockNum uint32, asOf time.Time) map[string]uint64 {
	f.calls++
	return map[string]uint64{"custom_json_operation/follow": uint64(len(ops))}
}
func (f *fakeCustomOp) Flush(ctx context.Context, tx pgx.Tx) error { return nil }

type fakeVOpsSource struct {
	byNum map[uint32][]chain.VirtualOp
}

func (f *fakeVOpsSource) VirtualOps(ctx context.Context, num uint32) ([]chain.VirtualOp, error) {
	return f.byNum[num], nil
}

func blockAt(num uint32, ts time.Time) chain.Block {
	hash := make([]byte, 16)
	hash[0] = byte(num >> 24)
	hash[1] = byte(num >> 16)
	hash[2] = byte(num >> 8)
	hash[3] = byte(num)
	return chain.Block{
		BlockID:   hexString(hash),
		Timestamp: ts,
	}
}

func hexString(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}

func newProcessor() (*Processor, *fakeAccounts, *fakePosts, *fakeVotes, *fakeCustomOp) {
	accounts := newFakeAccounts()
	posts := &fakePosts{}
	payments := &fakePayments{}
	votes := &fakeVotes{}
	customOp := &fakeCustomOp{}
	rtr := router.New(accounts, posts, payments)
	p := New(blockstore.New(nil), rtr, votes, customOp)
	return p, accounts, posts, votes, customOp
}

func TestProcess_FirstBlockSeedsHeadDateFromItself(t *testing.T) {
	p, accounts, _, _, _ := newProcessor()
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	block := blockAt(1, ts)
	block.Transactions = []chain.Transaction{{Operations: []chain.RawOperation{
		{Type: chain.OpAccountCreate, Value: []byte(`{"new_account_name":"alice"}`)},
	}}}

	num, err := p.Process(context.Background(), block, &fakeVOpsSource{}, true)
	require.NoError(t, err)
	require.Equal(t, uint32(1), num)
	require.Len(t, accounts.registeredAsOf, 1)
	require.True(t, accounts.registeredAsOf[0].Equal(ts))
}

func TestProcess_SecondBlockUsesPriorBlockDate(t *testing.T) {
	p, accounts, _, _, _ := newProcessor()
	ts1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ts2 := time.Date(2026, 1, 1, 0, 0, 3, 0, time.UTC)

	block1 := blockAt(1, ts1)
	_, err := p.Process(context.Background(), block1, &fakeVOpsSource{}, true)
	require.NoError(t, err)

	block2 := blockAt(2, ts2)
	block2.Transactions = []chain.Transaction{{Operations: []chain.RawOperation{
		{Type: chain.OpAccountCreate, Value: []byte(`{"new_account_name":"bob"}`)},
	}}}
	_, err = p.Process(context.Background(), block2, &fakeVOpsSource{}, true)
	require.NoError(t, err)

	require.Len(t, accounts.registeredAsOf, 1)
	require.True(t, accounts.registeredAsOf[0].Equal(ts1), "block 2's registration must use block 1's date")
}

func TestProcess_AppliesEffectiveVotesAndPayouts(t *testing.T) {
	p, _, posts, votes, _ := newProcessor()
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	block := blockAt(5, ts)

	vopsSrc := &fakeVOpsSource{byNum: map[uint32][]chain.VirtualOp{
		5: {
			{Type: chain.VOpEffectiveCommentVote, EffectiveCommentVote: &chain.EffectiveCommentVoteOp{Author: "alice", Permlink: "hello", PendingPayout: "1.000 HBD"}},
			{Type: chain.VOpCurationReward, CurationReward: &chain.CurationRewardOp{CommentAuthor: "alice", CommentPermlink: "hello", Reward: "10"}},
		},
	}}

	_, err := p.Process(context.Background(), block, vopsSrc, false)
	require.NoError(t, err)
	require.Equal(t, []string{"alice/hello"}, votes.keys)
	require.Len(t, posts.payoutAsOf, 1)

	stats := p.OpsStats()
	require.Equal(t, uint64(1), stats[chain.VOpEffectiveCommentVote])
	require.Equal(t, uint64(1), stats[chain.VOpCurationReward])
}

func TestProcess_CustomJSONRunsAsDeferredBatch(t *testing.T) {
	p, _, _, _, customOp := newProcessor()
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	block := blockAt(9, ts)
	block.Transactions = []chain.Transaction{{Operations: []chain.RawOperation{
		{Type: chain.OpCustomJSON, Value: []byte(`{"id":"follow","json":"{}"}`)},
	}}}

	_, err := p.Process(context.Background(), block, &fakeVOpsSource{}, false)
	require.NoError(t, err)
	require.Equal(t, 1, customOp.calls)

	stats := p.OpsStats()
	require.Equal(t, uint64(1), stats["custom_json_operation/follow"])
	require.Zero(t, stats[chain.OpCustomJSON], "custom_json must only count under its dialect key")
}
