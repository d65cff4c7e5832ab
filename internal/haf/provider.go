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

	"github.com/hiveio/hafindexer/internal/chain"
)

// Batch is one prefetched slice of consecutive blocks, tagged with the
// num of the last block it contains so the consumer can report progress
// without recomputing it.
type Batch struct {
	Blocks []chain.Block
	Last   uint32
}

// blockFetcher is the slice of Client that BatchProvider needs; kept
// narrow so tests can substitute a fake without a database.
type blockFetcher interface {
	GetBlock(ctx context.Context, num uint32) (chain.Block, error)
}

// BatchProvider prefetches block batches into a bounded channel; the
// channel's capacity is what throttles the producer when the consumer
// falls behind.
type BatchProvider struct {
	client    blockFetcher
	batchSize int
	queue     chan Batch
}

// NewBatchProvider builds a provider that fetches batchSize blocks per
// round and buffers up to queueDepth batches ahead of the consumer.
func NewBatchProvider(client blockFetcher, batchSize, queueDepth int) *BatchProvider {
	return &BatchProvider{client: client, batchSize: batchSize, queue: make(chan Batch, queueDepth)}
}

// Produce fetches blocks [lbound, ubound] in batchSize-sized groups and
// pushes them onto the bounded queue until the range is exhausted or ctx
// is cancelled. It closes the queue on return, signalling the consumer
// there is nothing more to drain.
func (p *BatchProvider) Produce(ctx context.Context, lbound, ubound uint32) error {
	defer close(p.queue)

	for num := lbound; num <= ubound; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := num + uint32(p.batchSize) - 1
		if end > ubound {
			end = ubound
		}

		blocks := make([]chain.Block, 0, end-num+1)
		for n := num; n <= end; n++ {
			b, err := p.client.GetBlock(ctx, n)
			if err != nil {
				return err
			}
			blocks = append(blocks, b)
		}

		select {
		case p.queue <- Batch{Blocks: blocks, Last: end}:
		case <-ctx.Done():
			return ctx.Err()
		}

		if end == ubound {
			return nil
		}
		num = end + 1
	}
	return nil
}

// Consume drains batches from the queue and hands each to process, until
// the queue closes (producer finished) or ctx is cancelled.
func (p *BatchProvider) Consume(ctx context.Context, process func(context.Context, Batch) error) error {
	for {
		select {
		case b, ok := <-p.queue:
			if !ok {
				return nil
			}
			if err := process(ctx, b); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
