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

// Package router is the Operation Router: the two-pass classifier that
// turns one block's decoded operations into registrations, dirty marks
// and dispatch calls against the domain sub-processors.
package router

import (
	"context"
	"time"

	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/hiveio/hafindexer/internal/ports"
)

// Router holds the domain sub-processor collaborators Pass 2 dispatches
// to. CustomOps are collected, not dispatched here; the Block Processor
// runs them as a deferred batch after the main scan.
type Router struct {
	Accounts ports.AccountRegistrar
	Posts    ports.PostsProcessor
	Payments ports.PaymentsProcessor

	// InitialSync, when true, suppresses account dirtying; bulk ingestion
	// recomputes account state wholesale afterwards.
	InitialSync bool
}

// New builds a Router over the given domain collaborators.
func New(accounts ports.AccountRegistrar, posts ports.PostsProcessor, payments ports.PaymentsProcessor) *Router {
	return &Router{Accounts: accounts, Posts: posts, Payments: payments}
}

// DiscoverAccounts is Pass 1: scan every operation for ones that
// introduce a new account name. Pass 2 must not run until the caller has
// registered every name this returns, since subsequent ops in the same
// block may reference accounts created in this block.
func DiscoverAccounts(ops []chain.Operation) []string {
	var names []string
	for _, op := range ops {
		if op.IsAccountCreating() {
			if name := op.NewAccountName(); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// Dispatch is Pass 2: route one operation to its domain sub-processor,
// or count it if no sub-processor wants it. txIndex/blockNum/asOf carry the
// transaction coordinates and cached head date Payments needs. It returns
// the ops-stats counter key this operation increments; custom_json
// operations return "" and are appended to customOps instead, since the
// deferred batch counts them per dialect.
func (r *Router) Dispatch(ctx context.Context, op chain.Operation, txIndex int, blockNum uint32, asOf time.Time, customOps *[]chain.CustomJSONOp) string {
	switch op.Type {
	case chain.OpAccountUpdate, chain.OpAccountUpdate2:
		if !r.InitialSync {
			if name := accountUpdateTarget(op); name != "" {
				r.Accounts.Dirty(name, ports.DirtyFull)
			}
		}
	case chain.OpComment:
		r.Posts.CommentOp(*op.Comment, asOf)
		if !r.InitialSync {
			r.Accounts.Dirty(op.Comment.Author, ports.DirtyLiteStats)
		}
	case chain.OpDeleteComment:
		r.Posts.DeleteOp(*op.DeleteComment)
	case chain.OpCommentOptions:
		r.Posts.CommentOptionsOp(*op.CommentOptions)
	case chain.OpVote:
		if !r.InitialSync {
			r.Accounts.Dirty(op.Vote.Author, ports.DirtyLiteReputation)
			r.Accounts.Dirty(op.Vote.Voter, ports.DirtyLiteStats)
		}
	case chain.OpTransfer:
		r.Payments.OpTransfer(*op.Transfer, txIndex, blockNum, asOf)
	case chain.OpCustomJSON:
		*customOps = append(*customOps, *op.CustomJSON)
		return ""
	}
	return op.Type
}

func accountUpdateTarget(op chain.Operation) string {
	if op.AccountUpdate != nil {
		return op.AccountUpdate.Account
	}
	if op.AccountUpdate2 != nil {
		return op.AccountUpdate2.Account
	}
	return ""
}
