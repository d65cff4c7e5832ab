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

// Package chain decodes the wire shape of blocks, transactions and
// operations produced by the upstream chain node, and exposes them as a
// closed set of typed values instead of the raw {type, value} records.
package chain

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// RawOperation is the wire shape of a single operation as it appears inside
// a transaction: a type tag and an opaque value blob.
type RawOperation struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Transaction is one signed transaction within a block.
type Transaction struct {
	Operations []RawOperation `json:"operations"`
}

// Block is the wire shape of a single block as delivered by the upstream
// provider.
type Block struct {
	BlockID      string        `json:"block_id"`
	Previous     string        `json:"previous"`
	Timestamp    time.Time     `json:"timestamp"`
	Transactions []Transaction `json:"transactions"`
}

// Num derives the monotonically increasing block number from the first
// four bytes (eight hex characters) of BlockID, interpreted as a
// big-endian unsigned integer.
func (b Block) Num() (uint32, error) {
	return NumFromHash(b.BlockID)
}

// NumFromHash derives a block number from a block-id-shaped hex string.
func NumFromHash(hash string) (uint32, error) {
	if len(hash) < 8 {
		return 0, fmt.Errorf("chain: block id %q shorter than 8 hex chars", hash)
	}
	raw, err := hex.DecodeString(hash[:8])
	if err != nil {
		return 0, fmt.Errorf("chain: decoding block id prefix %q: %w", hash[:8], err)
	}
	return binary.BigEndian.Uint32(raw), nil
}

// TxCount returns the number of transactions in the block.
func (b Block) TxCount() int {
	return len(b.Transactions)
}

// OpCount returns the sum of operation counts over all transactions.
func (b Block) OpCount() int {
	n := 0
	for _, tx := range b.Transactions {
		n += len(tx.Operations)
	}
	return n
}

// Header is the persisted representation of a block: the row shape of the
// `blocks` table.
type Header struct {
	Num       uint32
	Hash      string
	Prev      string
	Txs       int
	Ops       int
	CreatedAt time.Time
}

// HeaderOf builds the persisted Header for a decoded Block.
func HeaderOf(b Block) (Header, error) {
	num, err := b.Num()
	if err != nil {
		return Header{}, err
	}
	return Header{
		Num:       num,
		Hash:      b.BlockID,
		Prev:      b.Previous,
		Txs:       b.TxCount(),
		Ops:       b.OpCount(),
		CreatedAt: b.Timestamp,
	}, nil
}
