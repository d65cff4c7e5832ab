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

// Package customop processes the deferred custom_json_operation batch for
// one block: it counts every dialect by id, stages the raw payload for a
// flush inside the batch transaction, and parses the single-target
// follow envelope into follow-graph deltas. Deeper dialect
// interpretation belongs to the domain sub-processors.
package customop

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/hiveio/hafindexer/internal/domain/follow"
	"github.com/jackc/pgx/v5"
)

// Known custom_json "id" dialects. Their payload schemas are a domain
// concern outside this core.
const (
	IDFollow    = "follow"
	IDReblog    = "reblog"
	IDCommunity = "community"
)

// FollowStager receives follow-graph deltas parsed from the "follow"
// dialect; satisfied by the follow sub-processor.
type FollowStager interface {
	Stage(d follow.Delta)
}

type stagedEvent struct {
	blockNum uint32
	dialect  string
	payload  json.RawMessage
	asOf     time.Time
}

// Processor is the CustomOp sub-processor. Events are staged in memory
// and persisted at Flush, inside the same transaction as the rest of the
// batch.
type Processor struct {
	follow FollowStager

	mu     sync.Mutex
	staged []stagedEvent
}

// New builds a customop.Processor staging parsed follow deltas on
// followStager.
func New(followStager FollowStager) *Processor {
	return &Processor{follow: followStager}
}

// ProcessOps runs the whole deferred batch for one block and returns
// per-dialect counters to merge into ops-stats. The batch runs after the
// main scan because payloads may reference state produced by prior ops
// in the same block.
func (p *Processor) ProcessOps(ops []chain.CustomJSONOp, blockNum uint32, asOf time.Time) map[string]uint64 {
	stats := make(map[string]uint64)
	if len(ops) == 0 {
		return stats
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, op := range ops {
		stats["custom_json_operation/"+op.ID]++

		var payload json.RawMessage
		if err := json.Unmarshal([]byte(op.JSON), &payload); err != nil {
			// malformed dialect payload: counted, not persisted.
			continue
		}
		if op.ID == IDFollow && p.follow != nil {
			if d, ok := parseFollowDelta(payload); ok {
				p.follow.Stage(d)
			}
		}
		p.staged = append(p.staged, stagedEvent{blockNum: blockNum, dialect: op.ID, payload: payload, asOf: asOf})
	}
	return stats
}

// Flush inserts every staged event inside tx and clears the staging
// buffer.
func (p *Processor) Flush(ctx context.Context, tx pgx.Tx) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.staged) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range p.staged {
		batch.Queue(
			`INSERT INTO custom_json_events (block_num, dialect, payload, created_at) VALUES ($1, $2, $3, $4)`,
			e.blockNum, e.dialect, e.payload, e.asOf)
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

// parseFollowDelta recognises the ["follow", {follower, following, what}]
// envelope of the follow dialect. Multi-target "following" lists and the
// dialect's other verbs are domain concerns this core does not interpret;
// anything not matching the single-target shape is skipped.
func parseFollowDelta(raw json.RawMessage) (follow.Delta, bool) {
	var envelope []json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope) != 2 {
		return follow.Delta{}, false
	}
	var verb string
	if err := json.Unmarshal(envelope[0], &verb); err != nil || verb != IDFollow {
		return follow.Delta{}, false
	}
	var body struct {
		Follower  string   `json:"follower"`
		Following string   `json:"following"`
		What      []string `json:"what"`
	}
	if err := json.Unmarshal(envelope[1], &body); err != nil || body.Follower == "" || body.Following == "" {
		return follow.Delta{}, false
	}
	what := ""
	if len(body.What) > 0 {
		what = body.What[0]
	}
	return follow.Delta{Follower: body.Follower, Following: body.Following, What: what}, true
}
