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

// Package postdatacache is the post-data cache sub-processor: it holds
// the body/metadata blob for a post separately from posts so that large
// bodies don't bloat the hot table. It stages bodies as comments arrive
// and flushes right after accounts in the fixed flush order, ahead of
// posts, tags and votes.
package postdatacache

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Entry is one staged post body/metadata snapshot.
type Entry struct {
	Author   string
	Permlink string
	Body     string
	JSONMeta string
}

// Processor buffers post body/metadata writes for one batch.
type Processor struct {
	mu     sync.Mutex
	staged []Entry
}

// New builds an empty postdatacache.Processor.
func New() *Processor { return &Processor{} }

// Stage records one post body/metadata snapshot for the next flush.
func (p *Processor) Stage(e Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staged = append(p.staged, e)
}

// Flush upserts every staged snapshot and clears the staging buffer. It
// runs second in the fixed flush order, right after accounts.
func (p *Processor) Flush(ctx context.Context, tx pgx.Tx) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.staged) == 0 {
		return nil
	}

	for _, e := range p.staged {
		if _, err := tx.Exec(ctx,
			`INSERT INTO posts_data (author, permlink, body, json_metadata)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (author, permlink) DO UPDATE SET body = EXCLUDED.body, json_metadata = EXCLUDED.json_metadata`,
			e.Author, e.Permlink, e.Body, e.JSONMeta); err != nil {
			return err
		}
	}

	p.staged = nil
	return nil
}
