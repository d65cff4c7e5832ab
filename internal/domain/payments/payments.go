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

// Package payments is the Payments sub-processor: it records on-chain
// transfers, leaving payment-specific accounting to downstream readers.
package payments

import (
	"context"
	"sync"
	"time"

	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/jackc/pgx/v5"
)

type staged struct {
	op       chain.TransferOp
	txIndex  int
	blockNum uint32
	asOf     time.Time
}

// Processor buffers transfer_operations for one batch.
type Processor struct {
	mu     sync.Mutex
	staged []staged
}

// New builds an empty payments.Processor.
func New() *Processor { return &Processor{} }

// OpTransfer stages one transfer_operation, tagged with its transaction
// index, containing block number and the head date in effect.
func (p *Processor) OpTransfer(op chain.TransferOp, txIndex int, blockNum uint32, asOf time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staged = append(p.staged, staged{op: op, txIndex: txIndex, blockNum: blockNum, asOf: asOf})
}

// Flush inserts every staged transfer in one multi-row statement and
// clears the staging buffer.
func (p *Processor) Flush(ctx context.Context, tx pgx.Tx) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.staged) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, s := range p.staged {
		batch.Queue(
			`INSERT INTO payments (block_num, tx_index, from_account, to_account, amount, memo, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.blockNum, s.txIndex, s.op.From, s.op.To, s.op.Amount, s.op.Memo, s.asOf)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range p.staged {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}

	p.staged = nil
	return nil
}
