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

// Package errs implements the error taxonomy of the block-ingestion core:
// transient/fatal severity is a first-class property of every error the
// core raises, so callers at the sync-loop boundary can decide whether to
// retry or abort without string-matching messages.
package errs

import "fmt"

// TransientDB wraps a database error encountered mid-batch. The batch is
// aborted and rolled back; the caller may retry the whole range.
type TransientDB struct {
	Op  string
	Err error
}

func (e *TransientDB) Error() string { return fmt.Sprintf("transient db error during %s: %v", e.Op, e.Err) }
func (e *TransientDB) Unwrap() error { return e.Err }
func (e *TransientDB) Fatal() bool   { return false }

// Consistency signals a structural invariant violation: fork too deep,
// popping a non-head block, or a `blocks` table that fails its startup
// sanity check. Always fatal.
type Consistency struct {
	Reason string
}

func (e *Consistency) Error() string { return "consistency violation: " + e.Reason }
func (e *Consistency) Fatal() bool   { return true }

// ContextState signals that the HAF application context was found in an
// unexpected attached/detached state. Always fatal.
type ContextState struct {
	Context string
	Reason  string
}

func (e *ContextState) Error() string {
	return fmt.Sprintf("context %q state violation: %s", e.Context, e.Reason)
}
func (e *ContextState) Fatal() bool { return true }

// UpstreamRefusal signals that the upstream provider refused an operation,
// e.g. fork recovery attempted before the divergence point is irreversible.
// Always fatal.
type UpstreamRefusal struct {
	Reason string
}

func (e *UpstreamRefusal) Error() string { return "upstream refused: " + e.Reason }
func (e *UpstreamRefusal) Fatal() bool   { return true }

// BlockProcessing wraps a failure encountered while processing a specific
// block number. The batch's transaction is rolled back; no head advance is
// visible.
type BlockProcessing struct {
	Num uint32
	Err error
}

func (e *BlockProcessing) Error() string {
	return fmt.Sprintf("processing block %d: %v", e.Num, e.Err)
}
func (e *BlockProcessing) Unwrap() error { return e.Err }
func (e *BlockProcessing) Fatal() bool   { return false }

// fataler is implemented by every error type in this package.
type fataler interface {
	Fatal() bool
}

// IsFatal reports whether err (or anything it wraps) is tagged fatal by
// this taxonomy. An error outside the taxonomy is treated as fatal, since
// the core has no basis to believe it is safe to retry.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var f fataler
	if as(err, &f) {
		return f.Fatal()
	}
	return true
}

// as walks the Unwrap chain looking for the first taxonomy error.
func as(err error, target *fataler) bool {
	for err != nil {
		if f, ok := err.(fataler); ok {
			*target = f
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
