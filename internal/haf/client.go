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

// Package haf wraps the upstream "HAF" application-context facility: the
// SQL-callable primitives that manage a named cursor over the chain's
// block table, plus the block/vop/irreversibility reads the core needs.
// The stored procedures themselves ship with the upstream; this is the
// client that calls them.
package haf

import (
	"context"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/hiveio/hafindexer/internal/errs"
	"github.com/jackc/pgx/v5/pgxpool"
)

// blockCacheSize bounds the recent-block cache: fork recovery's hash walk
// and the single-mode fetch both tend to revisit blocks near the head.
const blockCacheSize = 256

// Client calls the upstream application-context stored procedures over a
// pool of connections.
type Client struct {
	pool   *pgxpool.Pool
	blocks *lru.Cache[uint32, chain.Block]
}

// New builds a Client backed by pool.
func New(pool *pgxpool.Pool) *Client {
	cache, _ := lru.New[uint32, chain.Block](blockCacheSize)
	return &Client{pool: pool, blocks: cache}
}

// ContextExists reports whether a named application context has already
// been created upstream.
func (c *Client) ContextExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := c.pool.QueryRow(ctx, `SELECT app_context_exists($1)`, name).Scan(&exists); err != nil {
		return false, &errs.TransientDB{Op: "haf.ContextExists", Err: err}
	}
	return exists, nil
}

// CreateContext creates a new named application context upstream.
func (c *Client) CreateContext(ctx context.Context, name string) error {
	if _, err := c.pool.Exec(ctx, `SELECT app_create_context($1)`, name); err != nil {
		return &errs.TransientDB{Op: "haf.CreateContext", Err: err}
	}
	return nil
}

// ContextIsAttached reports whether the named context is currently
// attached (visible to new blocks, maintenance overhead active).
func (c *Client) ContextIsAttached(ctx context.Context, name string) (bool, error) {
	var attached bool
	if err := c.pool.QueryRow(ctx, `SELECT app_context_is_attached($1)`, name).Scan(&attached); err != nil {
		return false, &errs.TransientDB{Op: "haf.ContextIsAttached", Err: err}
	}
	return attached, nil
}

// Detach suspends the context's visibility of new blocks and releases
// index/trigger maintenance overhead, required during any massive run.
func (c *Client) Detach(ctx context.Context, name string) error {
	if _, err := c.pool.Exec(ctx, `SELECT app_context_detach($1)`, name); err != nil {
		return &errs.TransientDB{Op: "haf.Detach", Err: err}
	}
	return nil
}

// Attach re-attaches the context at the given block number, required
// before any single-block operation and after a massive run finishes.
func (c *Client) Attach(ctx context.Context, name string, num uint32) error {
	if _, err := c.pool.Exec(ctx, `SELECT app_context_attach($1, $2)`, name, num); err != nil {
		return &errs.TransientDB{Op: "haf.Attach", Err: err}
	}
	return nil
}

// NextBlockRange queries the inclusive [lbound, ubound] range of blocks
// the named context has not yet processed.
func (c *Client) NextBlockRange(ctx context.Context, name string) (lbound, ubound uint32, err error) {
	row := c.pool.QueryRow(ctx, `SELECT lbound, ubound FROM app_next_block($1)`, name)
	if err := row.Scan(&lbound, &ubound); err != nil {
		return 0, 0, &errs.TransientDB{Op: "haf.NextBlockRange", Err: err}
	}
	return lbound, ubound, nil
}

// LastIrreversible returns the highest block number upstream consensus
// considers irreversible.
func (c *Client) LastIrreversible(ctx context.Context) (uint32, error) {
	var num uint32
	if err := c.pool.QueryRow(ctx, `SELECT num FROM hafd.irreversible_data()`).Scan(&num); err != nil {
		return 0, &errs.TransientDB{Op: "haf.LastIrreversible", Err: err}
	}
	return num, nil
}

// GetBlock fetches one block by number from the upstream block table,
// serving from the recent-block cache when possible.
func (c *Client) GetBlock(ctx context.Context, num uint32) (chain.Block, error) {
	if b, ok := c.blocks.Get(num); ok {
		return b, nil
	}

	var raw json.RawMessage
	err := c.pool.QueryRow(ctx, `SELECT block FROM hafd.blocks WHERE num = $1`, num).Scan(&raw)
	if err != nil {
		return chain.Block{}, &errs.TransientDB{Op: "haf.GetBlock", Err: err}
	}
	var b chain.Block
	if err := json.Unmarshal(raw, &b); err != nil {
		return chain.Block{}, fmt.Errorf("haf: decoding block %d: %w", num, err)
	}
	c.blocks.Add(num, b)
	return b, nil
}

// GetVirtualOperations fetches and decodes the virtual operations for
// one block number, for use outside initial sync.
func (c *Client) GetVirtualOperations(ctx context.Context, num uint32) ([]chain.VirtualOp, error) {
	rows, err := c.pool.Query(ctx, `SELECT op_type, body FROM hafd.operations_view WHERE block_num = $1 AND virtual = true`, num)
	if err != nil {
		return nil, &errs.TransientDB{Op: "haf.GetVirtualOperations", Err: err}
	}
	defer rows.Close()

	var raws []chain.RawVirtualOp
	for rows.Next() {
		var raw chain.RawVirtualOp
		if err := rows.Scan(&raw.Type, &raw.Value); err != nil {
			return nil, &errs.TransientDB{Op: "haf.GetVirtualOperations", Err: err}
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.TransientDB{Op: "haf.GetVirtualOperations", Err: err}
	}
	return chain.DecodeVirtualOps(raws)
}
