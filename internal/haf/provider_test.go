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

package haf

import (
	"context"
	"sync"
	"testing"

	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fakeFetcher struct {
	mu    sync.Mutex
	calls []uint32
}

func (f *fakeFetcher) GetBlock(ctx context.Context, num uint32) (chain.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, num)
	return chain.Block{BlockID: "0000000a0000000000000000"}, nil
}

func TestProduceConsume_DeliversEveryBlockInRange(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := NewBatchProvider(fetcher, 3, 2)

	var mu sync.Mutex
	var seen []uint32

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return p.Produce(ctx, 1, 10) })
	g.Go(func() error {
		return p.Consume(ctx, func(_ context.Context, b Batch) error {
			mu.Lock()
			defer mu.Unlock()
			for range b.Blocks {
				seen = append(seen, b.Last)
			}
			return nil
		})
	})

	require.NoError(t, g.Wait())
	require.Len(t, fetcher.calls, 10)
	require.Len(t, seen, 10)
}

func TestProduce_StopsOnCancelledContext(t *testing.T) {
	fetcher := &fakeFetcher{}
	p := NewBatchProvider(fetcher, 1, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Produce(ctx, 1, 1000)
	require.ErrorIs(t, err, context.Canceled)
}
