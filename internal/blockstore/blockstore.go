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

// Package blockstore is the Block Store: the persistent blocks table.
// It owns header rows exclusively; Batch Driver owns the in-flight
// staging buffer's lifetime but the buffer itself lives here.
package blockstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/hiveio/hafindexer/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Block Store: append-only header persistence plus an
// in-flight staging buffer for the current batch.
type Store struct {
	pool *pgxpool.Pool

	mu     sync.Mutex
	staged []chain.Header
}

// New builds a Store backed by pool.
func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

// HeadNum returns the maximum persisted num, or 0 if the table is empty.
func (s *Store) HeadNum(ctx context.Context) (uint32, error) {
	var num uint32
	err := s.pool.QueryRow(ctx, `SELECT coalesce(max(num), 0) FROM blocks`).Scan(&num)
	if err != nil {
		return 0, &errs.TransientDB{Op: "blockstore.HeadNum", Err: err}
	}
	return num, nil
}

// HeadDate returns created_at at head, or the zero time if the table is
// empty.
func (s *Store) HeadDate(ctx context.Context) (time.Time, error) {
	var createdAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT created_at FROM blocks WHERE num = (SELECT max(num) FROM blocks)`).Scan(&createdAt)
	if err == pgx.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, &errs.TransientDB{Op: "blockstore.HeadDate", Err: err}
	}
	return createdAt, nil
}

// HeadNumTx is HeadNum scoped to an open transaction, so callers that
// mutate the blocks table mid-transaction (fork recovery's head-only
// pop assertion) observe their own uncommitted writes.
func (s *Store) HeadNumTx(ctx context.Context, tx pgx.Tx) (uint32, error) {
	var num uint32
	err := tx.QueryRow(ctx, `SELECT coalesce(max(num), 0) FROM blocks`).Scan(&num)
	if err != nil {
		return 0, &errs.TransientDB{Op: "blockstore.HeadNumTx", Err: err}
	}
	return num, nil
}

// Get fetches one persisted header by num.
func (s *Store) Get(ctx context.Context, num uint32) (chain.Header, error) {
	var h chain.Header
	err := s.pool.QueryRow(ctx,
		`SELECT num, hash, prev, txs, ops, created_at FROM blocks WHERE num = $1`, num,
	).Scan(&h.Num, &h.Hash, &h.Prev, &h.Txs, &h.Ops, &h.CreatedAt)
	if err == pgx.ErrNoRows {
		return chain.Header{}, &errs.Consistency{Reason: fmt.Sprintf("block %d not found in block store", num)}
	}
	if err != nil {
		return chain.Header{}, &errs.TransientDB{Op: "blockstore.Get", Err: err}
	}
	return h, nil
}

// Stage appends a header to the in-flight buffer. No I/O happens here;
// the row becomes durable only at Flush.
func (s *Store) Stage(h chain.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = append(s.staged, h)
}

// StagedCount reports how many headers are currently buffered; used by
// tests.
func (s *Store) StagedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.staged)
}

// Flush writes every staged header in one multi-row insert, in ascending
// num order, and clears the buffer. Stage followed by Flush inside an
// open transaction commits atomically with whatever else tx committed.
func (s *Store) Flush(ctx context.Context, tx pgx.Tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.staged) == 0 {
		return nil
	}

	sortHeadersAsc(s.staged)

	rows := make([][]any, 0, len(s.staged))
	for _, h := range s.staged {
		rows = append(rows, []any{h.Num, h.Hash, h.Prev, h.Txs, h.Ops, h.CreatedAt})
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"blocks"},
		[]string{"num", "hash", "prev", "txs", "ops", "created_at"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return &errs.TransientDB{Op: "blockstore.Flush", Err: err}
	}

	s.staged = nil
	return nil
}

func sortHeadersAsc(headers []chain.Header) {
	sort.Slice(headers, func(i, j int) bool { return headers[i].Num < headers[j].Num })
}

// Pop deletes the header row for num. The caller must already have
// deleted every dependent row and must have asserted num == HeadNum
// before calling (head-only popping).
func (s *Store) Pop(ctx context.Context, tx pgx.Tx, num uint32) error {
	tag, err := tx.Exec(ctx, `DELETE FROM blocks WHERE num = $1`, num)
	if err != nil {
		return &errs.TransientDB{Op: "blockstore.Pop", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &errs.Consistency{Reason: fmt.Sprintf("pop: block %d not present", num)}
	}
	return nil
}

// IsConsistent sanity-checks the table at startup: nums must form a
// contiguous ascending sequence with no gaps, and each header's prev must
// equal its predecessor's hash.
func (s *Store) IsConsistent(ctx context.Context) (bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT num, hash, prev FROM blocks ORDER BY num ASC`)
	if err != nil {
		return false, &errs.TransientDB{Op: "blockstore.IsConsistent", Err: err}
	}
	defer rows.Close()

	var prevNum uint32
	var prevHash string
	first := true
	for rows.Next() {
		var num uint32
		var hash, prev string
		if err := rows.Scan(&num, &hash, &prev); err != nil {
			return false, &errs.TransientDB{Op: "blockstore.IsConsistent", Err: err}
		}
		if !first {
			if num != prevNum+1 {
				return false, nil
			}
			if prev != prevHash {
				return false, nil
			}
		}
		prevNum, prevHash, first = num, hash, false
	}
	if err := rows.Err(); err != nil {
		return false, &errs.TransientDB{Op: "blockstore.IsConsistent", Err: err}
	}
	return true, nil
}
