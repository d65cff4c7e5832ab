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

package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReporter_TracksHeadAndOpsStats(t *testing.T) {
	r := NewReporter()
	require.NotPanics(t, func() {
		r.SetHead(1234)
		r.ObserveBlockTime(5 * time.Millisecond)
	})

	r.SyncOpsStats(map[string]uint64{"vote_operation": 3})
	r.SyncOpsStats(map[string]uint64{"vote_operation": 5})
	require.Contains(t, r.opCounters, "vote_operation")
	require.Equal(t, int64(5), r.opCounters["vote_operation"].Snapshot().Count(),
		"cumulative totals must not double-count across syncs")
}
