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

package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsFatal_Taxonomy(t *testing.T) {
	require.False(t, IsFatal(nil))
	require.False(t, IsFatal(&TransientDB{Op: "x", Err: errors.New("conn reset")}))
	require.False(t, IsFatal(&BlockProcessing{Num: 42, Err: errors.New("bad op")}))
	require.True(t, IsFatal(&Consistency{Reason: "fork too deep"}))
	require.True(t, IsFatal(&ContextState{Context: "hafindexer", Reason: "already attached"}))
	require.True(t, IsFatal(&UpstreamRefusal{Reason: "not irreversible"}))
}

func TestIsFatal_WalksWrapChains(t *testing.T) {
	inner := &Consistency{Reason: "popping a non-head block"}
	wrapped := fmt.Errorf("during recovery: %w", inner)
	require.True(t, IsFatal(wrapped))

	transient := fmt.Errorf("batch 7: %w", &TransientDB{Op: "flush", Err: errors.New("timeout")})
	require.False(t, IsFatal(transient))
}

func TestIsFatal_UnknownErrorsAreFatal(t *testing.T) {
	require.True(t, IsFatal(errors.New("something unclassified")))
}

func TestBlockProcessing_ReportsHeight(t *testing.T) {
	err := &BlockProcessing{Num: 250, Err: errors.New("boom")}
	require.Contains(t, err.Error(), "250")
	require.ErrorContains(t, err, "boom")
}
