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

package forkrecovery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTablesToPop_BlocksNotIncluded(t *testing.T) {
	// blocks itself is popped separately via store.Pop, last, never by
	// name in this list.
	for _, table := range tablesToPop {
		require.NotEqual(t, "blocks", table)
	}
	require.Contains(t, tablesToPop, "posts")
	require.Contains(t, tablesToPop, "payments")
}

func TestTablesToPop_PostKeyedTablesDeleteBeforePosts(t *testing.T) {
	// post_tags and posts_data resolve their rows through posts by
	// (author, permlink), so posts must still exist when they delete.
	idx := make(map[string]int, len(tablesToPop))
	for i, table := range tablesToPop {
		idx[table] = i
	}
	require.Less(t, idx["post_tags"], idx["posts"])
	require.Less(t, idx["posts_data"], idx["posts"])
}

func TestMaxForkDepth_MatchesRecoveryWindow(t *testing.T) {
	require.Equal(t, 25, maxForkDepth)
}
