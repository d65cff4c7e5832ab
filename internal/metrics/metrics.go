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

// Package metrics exposes the process-lifetime operation counters
// through go-ethereum's metrics registry. It only registers the gauges
// and counters; collection/export wiring (InfluxDB, expvar, pprof) is
// whatever the operator hangs off the registry.
package metrics

import (
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

// Reporter mirrors the Block Processor's ops-stats map into
// geth-style metrics.Counter values, one per operation type, created
// lazily on first sight since the type set is not known up front.
type Reporter struct {
	head       metrics.Gauge
	blockTime  metrics.Timer
	opCounters map[string]metrics.Counter
	seen       map[string]uint64
}

// NewReporter registers the fixed gauges/timers under the "hafindexer"
// namespace and returns a Reporter ready to track per-operation counters.
func NewReporter() *Reporter {
	// go-ethereum's constructors hand out no-op metrics while its global
	// collection switch is off, so the Reporter turns collection on.
	metrics.Enabled = true
	return &Reporter{
		head:       metrics.NewRegisteredGauge("hafindexer/head", nil),
		blockTime:  metrics.NewRegisteredTimer("hafindexer/block_process_time", nil),
		opCounters: make(map[string]metrics.Counter),
		seen:       make(map[string]uint64),
	}
}

// SetHead records the current head block number.
func (r *Reporter) SetHead(num uint32) {
	r.head.Update(int64(num))
}

// ObserveBlockTime records how long one block took to process.
func (r *Reporter) ObserveBlockTime(d time.Duration) {
	r.blockTime.Update(d)
}

// SyncOpsStats brings the registered counters up to the given cumulative
// ops-stats totals, registering a new geth metrics.Counter the first time
// an operation type is seen. Totals come straight from the Block
// Processor's process-lifetime map, so each call only applies the delta
// since the previous one.
func (r *Reporter) SyncOpsStats(totals map[string]uint64) {
	for opType, total := range totals {
		counter, ok := r.opCounters[opType]
		if !ok {
			counter = metrics.NewRegisteredCounter("hafindexer/ops/"+opType, nil)
			r.opCounters[opType] = counter
		}
		if delta := total - r.seen[opType]; delta > 0 {
			counter.Inc(int64(delta))
			r.seen[opType] = total
		}
	}
}
