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

package blockstore

import (
	"testing"

	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/stretchr/testify/require"
)

func TestStage_BuffersWithoutIO(t *testing.T) {
	s := New(nil)
	require.Equal(t, 0, s.StagedCount())

	s.Stage(chain.Header{Num: 101})
	s.Stage(chain.Header{Num: 102})
	require.Equal(t, 2, s.StagedCount())
}

func TestSortHeadersAsc_OrdersByNum(t *testing.T) {
	headers := []chain.Header{
		{Num: 103, Hash: "c"},
		{Num: 101, Hash: "a"},
		{Num: 102, Hash: "b"},
	}
	sortHeadersAsc(headers)

	require.Equal(t, []uint32{101, 102, 103}, []uint32{headers[0].Num, headers[1].Num, headers[2].Num})
}

func TestSortHeadersAsc_StableOnAlreadySorted(t *testing.T) {
	headers := []chain.Header{{Num: 1}, {Num: 2}, {Num: 3}}
	sortHeadersAsc(headers)
	require.Equal(t, uint32(1), headers[0].Num)
	require.Equal(t, uint32(3), headers[2].Num)
}
