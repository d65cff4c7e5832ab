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

// Package tags is the Tags sub-processor: it persists the tag set
// attached to a post. It stages whatever the Posts sub-processor's
// comment handling hands it and flushes after the post-data cache so tag
// rows can reference posts that are already visible.
package tags

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Entry is one post-to-tag staged association.
type Entry struct {
	Author   string
	Permlink string
	Tag      string
}

// Processor buffers tag associations for one batch.
type Processor struct {
	mu     sync.Mutex
	staged []Entry
}

// New builds an empty tags.Processor.
func New() *Processor { return &Processor{} }

// Stage records one post/tag association for the next flush.
func (p *Processor) Stage(e Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.staged = append(p.staged, e)
}

// Flush replaces the tag set for every staged (author, permlink) pair and
// clears the staging buffer.
func (p *Processor) Flush(ctx context.Context, tx pgx.Tx) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.staged) == 0 {
		return nil
	}

	seen := make(map[[2]string]bool)
	for _, e := range p.staged {
		key := [2]string{e.Author, e.Permlink}
		if !seen[key] {
			seen[key] = true
			if _, err := tx.Exec(ctx, `DELETE FROM post_tags WHERE author = $1 AND permlink = $2`, e.Author, e.Permlink); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO post_tags (author, permlink, tag) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			e.Author, e.Permlink, e.Tag); err != nil {
			return err
		}
	}

	p.staged = nil
	return nil
}
