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

// Package batch is the Batch Driver: it wraps N blocks in one transaction,
// calls the Block Processor per block, then commands the pipeline's fixed
// flush order once at the end.
package batch

import (
	"context"

	"github.com/ethereum/go-ethereum/log"
	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/hiveio/hafindexer/internal/errs"
	"github.com/hiveio/hafindexer/internal/pipeline"
	"github.com/hiveio/hafindexer/internal/processor"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Driver owns the transaction lifetime for a batch of blocks.
type Driver struct {
	pool     *pgxpool.Pool
	proc     *processor.Processor
	pipeline *pipeline.Pipeline
	log      log.Logger
}

// New builds a Batch Driver.
func New(pool *pgxpool.Pool, proc *processor.Processor, pl *pipeline.Pipeline, logger log.Logger) *Driver {
	return &Driver{pool: pool, proc: proc, pipeline: pl, log: logger}
}

// ProcessMulti wraps blocks in one transaction, processes each in order,
// and on success invokes the pipeline's fixed flush order before
// committing. Any failure propagates after logging the offending height;
// the deferred Rollback is a no-op once Commit has run.
func (d *Driver) ProcessMulti(ctx context.Context, blocks []chain.Block, vopsSrc processor.VOpsSource, isInitialSync bool) (uint32, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return 0, &errs.TransientDB{Op: "batch.ProcessMulti.Begin", Err: err}
	}
	defer tx.Rollback(ctx)

	var lastNum uint32
	for _, block := range blocks {
		height, _ := block.Num()
		num, err := d.proc.Process(ctx, block, vopsSrc, isInitialSync)
		if err != nil {
			d.log.Error("batch processing failed", "block", height, "err", err)
			return 0, err
		}
		lastNum = num
	}

	if err := d.pipeline.FlushAll(ctx, tx); err != nil {
		return 0, &errs.TransientDB{Op: "batch.ProcessMulti.FlushAll", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &errs.TransientDB{Op: "batch.ProcessMulti.Commit", Err: err}
	}

	// Follow flushes non-transactionally, after commit: a partial failure
	// here only desynchronises follow counts.
	if err := d.pipeline.FlushFollow(ctx); err != nil {
		d.log.Warn("follow flush failed after commit, counts may be stale", "err", err)
	}

	return lastNum, nil
}
