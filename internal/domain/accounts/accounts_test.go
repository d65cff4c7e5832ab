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

package accounts

import (
	"testing"
	"time"

	"github.com/hiveio/hafindexer/internal/ports"
	"github.com/stretchr/testify/require"
)

func TestRegister_FirstDateWinsPerName(t *testing.T) {
	p := New()
	ts1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ts2 := ts1.Add(3 * time.Second)

	p.Register([]string{"alice"}, ts1)
	p.Register([]string{"alice", "bob"}, ts2)

	require.Equal(t, 2, p.StagedCount())
	require.True(t, p.staged["alice"].Equal(ts1), "re-registration must not move the date")
	require.True(t, p.staged["bob"].Equal(ts2))
}

func TestDirty_KeepsStrongestKind(t *testing.T) {
	p := New()
	p.Dirty("alice", ports.DirtyLiteStats)
	p.Dirty("alice", ports.DirtyFull)
	p.Dirty("alice", ports.DirtyLiteReputation)

	require.Equal(t, ports.DirtyFull, p.dirty["alice"])
	require.Equal(t, 1, p.DirtyCount())
}
