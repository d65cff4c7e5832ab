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

package syncmanager

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClampUbound_NoCapReturnsUbound(t *testing.T) {
	require.Equal(t, uint32(500), clampUbound(500, nil))
}

func TestClampUbound_CapBelowUboundWins(t *testing.T) {
	cap := uint32(100)
	require.Equal(t, uint32(100), clampUbound(500, &cap))
}

func TestClampUbound_CapAboveUboundIsNoOp(t *testing.T) {
	cap := uint32(1000)
	require.Equal(t, uint32(500), clampUbound(500, &cap))
}

func TestAllowMassive_NilCapAlwaysAllows(t *testing.T) {
	require.True(t, allowMassive(999999, nil))
}

func TestAllowMassive_RespectsCap(t *testing.T) {
	cap := uint32(1000)
	require.True(t, allowMassive(999, &cap))
	require.False(t, allowMassive(1001, &cap))
}

func TestProviderBatchSize_ConfiguredValueWins(t *testing.T) {
	m := &Manager{}
	require.Equal(t, defaultProviderBatchSize, m.providerBatchSize())

	m.MaxBatch = 500
	require.Equal(t, 500, m.providerBatchSize())
}

func TestNoVOps_AlwaysEmpty(t *testing.T) {
	ops, err := noVOps{}.VirtualOps(nil, 42)
	require.NoError(t, err)
	require.Empty(t, ops)
}
