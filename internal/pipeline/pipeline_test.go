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

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/hiveio/hafindexer/internal/blockstore"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type recordingFlusher struct {
	name    string
	order   *[]string
	failErr error
}

func (f *recordingFlusher) Flush(ctx context.Context, tx pgx.Tx) error {
	*f.order = append(*f.order, f.name)
	return f.failErr
}

type fakeFollow struct {
	called bool
}

func (f *fakeFollow) Flush(ctx context.Context) error {
	f.called = true
	return nil
}

func TestFlushAll_RunsInFixedOrder(t *testing.T) {
	var order []string
	p := &Pipeline{
		Accounts:      &recordingFlusher{name: "accounts", order: &order},
		PostDataCache: &recordingFlusher{name: "postdata", order: &order},
		Posts:         &recordingFlusher{name: "posts", order: &order},
		Tags:          &recordingFlusher{name: "tags", order: &order},
		Votes:         &recordingFlusher{name: "votes", order: &order},
		Payments:      &recordingFlusher{name: "payments", order: &order},
		CustomOps:     &recordingFlusher{name: "customops", order: &order},
		Blocks:        blockstore.New(nil),
		Follow:        &fakeFollow{},
	}

	err := p.FlushAll(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"accounts", "postdata", "posts", "tags", "votes", "payments", "customops"}, order)
}

func TestFlushAll_StopsOnFirstError(t *testing.T) {
	var order []string
	wantErr := errors.New("boom")
	p := &Pipeline{
		Accounts:      &recordingFlusher{name: "accounts", order: &order},
		PostDataCache: &recordingFlusher{name: "postdata", order: &order},
		Posts:         &recordingFlusher{name: "posts", order: &order, failErr: wantErr},
		Tags:          &recordingFlusher{name: "tags", order: &order},
		Votes:         &recordingFlusher{name: "votes", order: &order},
		Payments:      &recordingFlusher{name: "payments", order: &order},
		CustomOps:     &recordingFlusher{name: "customops", order: &order},
		Blocks:        blockstore.New(nil),
		Follow:        &fakeFollow{},
	}

	err := p.FlushAll(context.Background(), nil)
	require.ErrorIs(t, err, wantErr)
	require.Equal(t, []string{"accounts", "postdata", "posts"}, order)
}

func TestFlushFollow_RunsOutsideTransaction(t *testing.T) {
	follow := &fakeFollow{}
	p := &Pipeline{Follow: follow}
	require.NoError(t, p.FlushFollow(context.Background()))
	require.True(t, follow.called)
}
