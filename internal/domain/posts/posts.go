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

// Package posts is the Posts sub-processor: comment/post lifecycle and
// payout-stage bookkeeping. It stages the operations the router forwards
// and applies payout aggregates in the chain order the vops preparer
// guarantees.
package posts

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/hiveio/hafindexer/internal/domain/postdatacache"
	"github.com/hiveio/hafindexer/internal/domain/tags"
	"github.com/hiveio/hafindexer/internal/vops"
	"github.com/jackc/pgx/v5"
)

type stagedComment struct {
	op   chain.CommentOp
	asOf time.Time
}

// DataStager receives post body/metadata snapshots as comments arrive;
// satisfied by the post-data cache sub-processor.
type DataStager interface {
	Stage(e postdatacache.Entry)
}

// TagStager receives post/tag associations; satisfied by the tags
// sub-processor.
type TagStager interface {
	Stage(e tags.Entry)
}

// Processor buffers comment lifecycle events and payout updates for one
// batch, flushed in one statement per kind at Flush.
type Processor struct {
	data DataStager
	tags TagStager

	mu sync.Mutex

	comments    []stagedComment
	deletes     []chain.DeleteCommentOp
	options     []chain.CommentOptionsOp
	paidOut     map[string]bool
	totalPayout map[string]string
}

// New builds a posts.Processor that feeds post bodies to data and tag
// associations to tagStager as comments arrive.
func New(data DataStager, tagStager TagStager) *Processor {
	return &Processor{
		data:        data,
		tags:        tagStager,
		paidOut:     make(map[string]bool),
		totalPayout: make(map[string]string),
	}
}

// CommentOp stages a comment_operation for flush, hands the body blob to
// the post-data cache and the json_metadata tag list to Tags; the fixed
// flush order guarantees tag rows only land once the post is visible.
func (p *Processor) CommentOp(op chain.CommentOp, asOf time.Time) {
	p.mu.Lock()
	p.comments = append(p.comments, stagedComment{op: op, asOf: asOf})
	p.mu.Unlock()

	if p.data != nil {
		p.data.Stage(postdatacache.Entry{
			Author:   op.Author,
			Permlink: op.Permlink,
			Body:     op.Body,
			JSONMeta: op.JSONMetadata,
		})
	}
	if p.tags != nil {
		for _, tag := range tagsFromMetadata(op.JSONMetadata) {
			p.tags.Stage(tags.Entry{Author: op.Author, Permlink: op.Permlink, Tag: tag})
		}
	}
}

// tagsFromMetadata pulls the tag list out of a comment's json_metadata
// blob. Anything unparseable yields no tags; deep dialect validation is a
// domain concern outside this core.
func tagsFromMetadata(meta string) []string {
	if meta == "" {
		return nil
	}
	var parsed struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(meta), &parsed); err != nil {
		return nil
	}
	return parsed.Tags
}

// DeleteOp stages a delete_comment_operation for flush.
func (p *Processor) DeleteOp(op chain.DeleteCommentOp) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deletes = append(p.deletes, op)
}

// CommentOptionsOp stages a comment_options_operation for flush.
func (p *Processor) CommentOptionsOp(op chain.CommentOptionsOp) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.options = append(p.options, op)
}

// CommentPayoutOp applies the per-key ordered payout stages for this
// block. Stages must be walked in the order the vops preparer preserved,
// since comment_reward depends on curation_reward/author_reward having
// already been folded in, and comment_payout_update must be applied last.
func (p *Processor) CommentPayoutOp(agg map[string][]vops.PayoutEntry, asOf time.Time) map[string]uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make(map[string]uint64)
	for key, entries := range agg {
		for _, entry := range entries {
			stats[entry.Type]++
			switch entry.Type {
			case chain.VOpCommentReward:
				p.totalPayout[key] = entry.Op.CommentReward.TotalPayoutValue
			case chain.VOpCommentPayoutUpdate:
				p.paidOut[key] = true
			}
		}
	}
	return stats
}

// Flush persists staged comments, deletes, options and payout state in a
// handful of parameterised statements and clears the staging buffers.
func (p *Processor) Flush(ctx context.Context, tx pgx.Tx) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.comments {
		if _, err := tx.Exec(ctx,
			`INSERT INTO posts (author, permlink, parent_author, created_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (author, permlink) DO UPDATE SET parent_author = EXCLUDED.parent_author`,
			c.op.Author, c.op.Permlink, c.op.ParentAuthor, c.asOf); err != nil {
			return err
		}
	}
	for _, d := range p.deletes {
		if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE author = $1 AND permlink = $2`, d.Author, d.Permlink); err != nil {
			return err
		}
	}
	for _, o := range p.options {
		if _, err := tx.Exec(ctx,
			`UPDATE posts SET max_accepted_payout = $3, allow_votes = $4
			 WHERE author = $1 AND permlink = $2`,
			o.Author, o.Permlink, o.MaxAcceptedPayout, o.AllowVotes); err != nil {
			return err
		}
	}
	for key, paidOut := range p.paidOut {
		if !paidOut {
			continue
		}
		author, permlink, ok := splitKey(key)
		if !ok {
			continue
		}
		if _, err := tx.Exec(ctx,
			`UPDATE posts SET is_paidout = true, total_payout_value = $3
			 WHERE author = $1 AND permlink = $2`,
			author, permlink, p.totalPayout[key]); err != nil {
			return err
		}
	}

	p.comments = nil
	p.deletes = nil
	p.options = nil
	p.paidOut = make(map[string]bool)
	p.totalPayout = make(map[string]string)
	return nil
}

func splitKey(key string) (author, permlink string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}
