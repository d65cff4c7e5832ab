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

// Package syncmanager is the Sync Manager: it queries upstream for the
// next unprocessed block range, decides massive versus single mode,
// manages the HAF application-context detach/attach invariant around
// massive runs, and drives the producer/consumer pair that feeds the
// Batch Driver.
package syncmanager

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/hiveio/hafindexer/internal/batch"
	"github.com/hiveio/hafindexer/internal/chain"
	"github.com/hiveio/hafindexer/internal/errs"
	"github.com/hiveio/hafindexer/internal/haf"
	"golang.org/x/sync/errgroup"
)

// massiveThreshold is the range width past which the manager prefers
// massive mode over single-block processing.
const massiveThreshold = 100

// massiveBatchSize is the block count the Batch Driver is handed per
// transaction during massive mode.
const massiveBatchSize = 1000

// defaultProviderBatchSize is how many blocks the provider fetches per
// round inside one massive-mode batch when no max_batch is configured.
const defaultProviderBatchSize = 100

// providerQueueDepth bounds how many batches the producer may prefetch
// ahead of the consumer; the bounded queue is what throttles the
// producer when the consumer falls behind.
const providerQueueDepth = 4

// periodicCommunityRanksInterval and periodicPayoutStatsInterval are the
// head-num moduli for refreshing community ranks (~10 min at typical
// block time) and regenerating payout stats and mentions (~1 h).
const (
	periodicCommunityRanksInterval = 200
	periodicPayoutStatsInterval    = 1200
)

// PeriodicActions is the collaborator the manager calls on the 200/1200
// block cadence. The manager only owns *when* they run; the rank formula
// and mention extraction live with the domain sub-processors.
type PeriodicActions interface {
	RefreshCommunityRanks(ctx context.Context) error
	RegeneratePayoutStats(ctx context.Context) error
	RegenerateMentions(ctx context.Context) error
}

// Manager is the Sync Manager.
type Manager struct {
	contextName string
	haf         *haf.Client
	driver      *batch.Driver
	periodic    PeriodicActions
	log         log.Logger

	// TestMaxBlock and TestLastBlockForMassive are optional caps for
	// test runs; nil means no cap.
	TestMaxBlock            *uint32
	TestLastBlockForMassive *uint32

	// MaxBatch overrides the provider's per-round fetch size during
	// massive mode; zero keeps the default.
	MaxBatch int

	// CommunityStartBlock suppresses the community-rank periodic action
	// below this height, since no community state exists to rank yet.
	CommunityStartBlock uint32
}

// New builds a Sync Manager.
func New(contextName string, client *haf.Client, driver *batch.Driver, periodic PeriodicActions, logger log.Logger) *Manager {
	return &Manager{contextName: contextName, haf: client, driver: driver, periodic: periodic, log: logger}
}

// ensureContext bootstraps the named HAF application context if it does
// not exist yet.
func (m *Manager) ensureContext(ctx context.Context) error {
	exists, err := m.haf.ContextExists(ctx, m.contextName)
	if err != nil {
		return err
	}
	if !exists {
		m.log.Info("creating application context", "name", m.contextName)
		return m.haf.CreateContext(ctx, m.contextName)
	}
	return nil
}

// clampUbound applies the optional test-mode cap to an upstream-reported
// ubound.
func clampUbound(ubound uint32, testMax *uint32) uint32 {
	if testMax != nil && *testMax < ubound {
		return *testMax
	}
	return ubound
}

// allowMassive reports whether massive mode is still permitted at lbound,
// honouring the optional test boundary past which single-mode is forced.
func allowMassive(lbound uint32, testLastForMassive *uint32) bool {
	return testLastForMassive == nil || lbound <= *testLastForMassive
}

// RunOnce queries the next range and processes it, choosing massive or
// single mode at the threshold. It returns the new head num, or 0 with
// ok=false if there was nothing to do.
func (m *Manager) RunOnce(ctx context.Context) (head uint32, ok bool, err error) {
	if err := m.ensureContext(ctx); err != nil {
		return 0, false, err
	}

	lbound, ubound, err := m.haf.NextBlockRange(ctx, m.contextName)
	if err != nil {
		return 0, false, err
	}
	ubound = clampUbound(ubound, m.TestMaxBlock)
	if lbound > ubound {
		return 0, false, nil
	}

	isInitialSync := ubound-lbound > massiveThreshold && allowMassive(lbound, m.TestLastBlockForMassive)
	if isInitialSync {
		head, err = m.runMassive(ctx, lbound, ubound)
	} else {
		head, err = m.runSingle(ctx, lbound, ubound)
	}
	if err != nil {
		return 0, false, err
	}
	return head, true, nil
}

// runMassive detaches the context, runs the bounded producer/consumer
// pair over [lbound, ubound], then re-attaches the context at the new
// head. A context that cannot be re-attached at the end is fatal.
func (m *Manager) runMassive(ctx context.Context, lbound, ubound uint32) (uint32, error) {
	attached, err := m.haf.ContextIsAttached(ctx, m.contextName)
	if err != nil {
		return 0, err
	}
	if attached {
		if err := m.haf.Detach(ctx, m.contextName); err != nil {
			return 0, err
		}
	}

	provider := haf.NewBatchProvider(m.haf, m.providerBatchSize(), providerQueueDepth)

	var head uint32
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return provider.Produce(gctx, lbound, ubound) })
	g.Go(func() error {
		return provider.Consume(gctx, func(cctx context.Context, b haf.Batch) error {
			for start := 0; start < len(b.Blocks); start += massiveBatchSize {
				end := start + massiveBatchSize
				if end > len(b.Blocks) {
					end = len(b.Blocks)
				}
				last, err := m.driver.ProcessMulti(cctx, b.Blocks[start:end], noVOps{}, true)
				if err != nil {
					return err
				}
				head = last
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := m.haf.Attach(ctx, m.contextName, head); err != nil {
		return 0, &errs.ContextState{Context: m.contextName, Reason: fmt.Sprintf("failed to re-attach after massive run: %v", err)}
	}
	return head, nil
}

// noVOps implements processor.VOpsSource for massive mode: during
// initial sync a block with no preloaded vop entry yields none.
type noVOps struct{}

func (noVOps) VirtualOps(ctx context.Context, num uint32) ([]chain.VirtualOp, error) {
	return nil, nil
}

// liveVOps implements processor.VOpsSource for single-block mode: it
// fetches virtual ops from the upstream synchronously per block.
type liveVOps struct {
	client *haf.Client
}

func (v liveVOps) VirtualOps(ctx context.Context, num uint32) ([]chain.VirtualOp, error) {
	return v.client.GetVirtualOperations(ctx, num)
}

// runSingle fetches and processes one block, then runs whichever
// periodic actions this head-num's modulo calls for.
func (m *Manager) runSingle(ctx context.Context, lbound, ubound uint32) (uint32, error) {
	attached, err := m.haf.ContextIsAttached(ctx, m.contextName)
	if err != nil {
		return 0, err
	}
	if !attached {
		if err := m.haf.Attach(ctx, m.contextName, lbound-1); err != nil {
			return 0, err
		}
	}

	block, err := m.haf.GetBlock(ctx, lbound)
	if err != nil {
		return 0, err
	}

	head, err := m.driver.ProcessMulti(ctx, []chain.Block{block}, liveVOps{client: m.haf}, false)
	if err != nil {
		return 0, err
	}

	if err := m.runPeriodicActions(ctx, head); err != nil {
		m.log.Warn("periodic actions failed", "head", head, "err", err)
	}
	return head, nil
}

// providerBatchSize resolves the massive-mode fetch size: the configured
// max_batch, or the default when unset.
func (m *Manager) providerBatchSize() int {
	if m.MaxBatch > 0 {
		return m.MaxBatch
	}
	return defaultProviderBatchSize
}

// Shutdown detaches then re-attaches the context at the given head so the
// upstream facility resumes maintenance from a clean state before the
// process exits.
func (m *Manager) Shutdown(ctx context.Context, head uint32) error {
	attached, err := m.haf.ContextIsAttached(ctx, m.contextName)
	if err != nil {
		return err
	}
	if attached {
		if err := m.haf.Detach(ctx, m.contextName); err != nil {
			return err
		}
	}
	return m.haf.Attach(ctx, m.contextName, head)
}

func (m *Manager) runPeriodicActions(ctx context.Context, head uint32) error {
	if head%periodicCommunityRanksInterval == 0 && head >= m.CommunityStartBlock {
		if err := m.periodic.RefreshCommunityRanks(ctx); err != nil {
			return err
		}
	}
	if head%periodicPayoutStatsInterval == 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return m.periodic.RegeneratePayoutStats(gctx) })
		g.Go(func() error { return m.periodic.RegenerateMentions(gctx) })
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
