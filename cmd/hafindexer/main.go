// Copyright 2026 The hafindexer Authors
// This file is part of hafindexer.
//
// hafindexer is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// hafindexer is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with hafindexer. If not, see <http://www.gnu.org/licenses/>.

// Command hafindexer runs the block-ingestion core: it advances a
// durable head cursor against an upstream HAF-backed Postgres instance,
// materialising accounts, posts, votes, follows, payouts, tags, custom
// JSON events and payments as it goes. CLI argument parsing depth beyond
// the flags below, and the downstream read API, are out of scope.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/hiveio/hafindexer/internal/batch"
	"github.com/hiveio/hafindexer/internal/blockstore"
	"github.com/hiveio/hafindexer/internal/config"
	"github.com/hiveio/hafindexer/internal/domain/accounts"
	"github.com/hiveio/hafindexer/internal/domain/customop"
	"github.com/hiveio/hafindexer/internal/domain/follow"
	"github.com/hiveio/hafindexer/internal/domain/payments"
	"github.com/hiveio/hafindexer/internal/domain/postdatacache"
	"github.com/hiveio/hafindexer/internal/domain/posts"
	"github.com/hiveio/hafindexer/internal/domain/tags"
	"github.com/hiveio/hafindexer/internal/domain/votes"
	"github.com/hiveio/hafindexer/internal/errs"
	"github.com/hiveio/hafindexer/internal/forkrecovery"
	"github.com/hiveio/hafindexer/internal/haf"
	"github.com/hiveio/hafindexer/internal/metrics"
	"github.com/hiveio/hafindexer/internal/pipeline"
	"github.com/hiveio/hafindexer/internal/processor"
	"github.com/hiveio/hafindexer/internal/router"
	"github.com/hiveio/hafindexer/internal/syncmanager"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	_ "go.uber.org/automaxprocs"
)

// blockPollInterval is how long the main loop waits before re-querying
// upstream when no new blocks are available or after a transient failure.
const blockPollInterval = time.Second

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to a TOML configuration file",
	}
	databaseURLFlag = &cli.StringFlag{
		Name:  "database-url",
		Usage: "Postgres connection string for the HAF-backed instance",
	}
	contextNameFlag = &cli.StringFlag{
		Name:  "context-name",
		Usage: "named HAF application context this indexer owns",
	}
	maxBatchFlag = &cli.IntFlag{
		Name:  "max-batch",
		Usage: "blocks fetched per upstream round during massive sync",
	}
	testMaxBlockFlag = &cli.UintFlag{
		Name:  "test-max-block",
		Usage: "stop processing at this block number (test/debug only)",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "trace|debug|info|warn|error",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "rotate logs to this file instead of stderr",
	}
)

func main() {
	app := &cli.App{
		Name:  "hafindexer",
		Usage: "block-ingestion core for a HAF-backed social indexer",
		Flags: []cli.Flag{
			configFlag, databaseURLFlag, contextNameFlag, maxBatchFlag,
			testMaxBlockFlag, logLevelFlag, logFileFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "hafindexer:", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String(configFlag.Name))
	if err != nil {
		return config.Config{}, err
	}
	if v := c.String(databaseURLFlag.Name); v != "" {
		cfg.DatabaseURL = v
	}
	if v := c.String(contextNameFlag.Name); v != "" {
		cfg.ContextName = v
	}
	if v := c.Int(maxBatchFlag.Name); v != 0 {
		cfg.MaxBatch = v
	}
	if v := c.Uint(testMaxBlockFlag.Name); v != 0 {
		cfg.TestMaxBlock = uint32(v)
	}
	if v := c.String(logLevelFlag.Name); v != "" {
		cfg.LogLevel = v
	}
	if v := c.String(logFileFlag.Name); v != "" {
		cfg.LogFile = v
	}
	return cfg, cfg.Validate()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	case "crit", "critical":
		return log.LevelCrit
	default:
		return log.LevelInfo
	}
}

func setupLogging(cfg config.Config) log.Logger {
	level := parseLevel(cfg.LogLevel)

	var out io.Writer = os.Stderr
	useColor := true
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		useColor = false
	}

	handler := log.NewTerminalHandlerWithLevel(out, level, useColor)
	return log.NewLogger(handler)
}

// noopPeriodic satisfies syncmanager.PeriodicActions without running any
// real rank/payout/mention regeneration: that bookkeeping lives with the
// downstream read stack, not the ingestion binary.
type noopPeriodic struct{ log log.Logger }

func (n noopPeriodic) RefreshCommunityRanks(ctx context.Context) error {
	n.log.Debug("periodic: refresh community ranks (no-op)")
	return nil
}
func (n noopPeriodic) RegeneratePayoutStats(ctx context.Context) error {
	n.log.Debug("periodic: regenerate payout stats (no-op)")
	return nil
}
func (n noopPeriodic) RegenerateMentions(ctx context.Context) error {
	n.log.Debug("periodic: regenerate mentions (no-op)")
	return nil
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg)
	log.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("hafindexer: parsing database url: %w", err)
	}
	poolCfg.MaxConns = cfg.DBPoolMaxConns
	if cfg.LogExplainQueries {
		poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   pgxLogger{log: logger},
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("hafindexer: connecting to database: %w", err)
	}
	defer pool.Close()

	store := blockstore.New(pool)
	if ok, err := store.IsConsistent(ctx); err != nil {
		return err
	} else if !ok {
		return &errs.Consistency{Reason: "blocks table failed startup consistency check"}
	}

	client := haf.New(pool)

	accountsProc := accounts.New()
	tagsProc := tags.New()
	postDataProc := postdatacache.New()
	postsProc := posts.New(postDataProc, tagsProc)
	paymentsProc := payments.New()
	votesProc := votes.New()
	followProc := follow.New(pool, logger)
	customOpProc := customop.New(followProc)

	rtr := router.New(accountsProc, postsProc, paymentsProc)
	proc := processor.New(store, rtr, votesProc, customOpProc)

	if head, err := store.HeadDate(ctx); err == nil && !head.IsZero() {
		proc.SeedHeadDate(head)
	}

	pl := &pipeline.Pipeline{
		Accounts:      accountsProc,
		PostDataCache: postDataProc,
		Tags:          tagsProc,
		Votes:         votesProc,
		Posts:         postsProc,
		Payments:      paymentsProc,
		CustomOps:     customOpProc,
		Blocks:        store,
		Follow:        followProc,
	}
	driver := batch.New(pool, proc, pl, logger)

	recovery := forkrecovery.New(store, pool, upstreamHasher{client: client})
	if err := recovery.Run(ctx); err != nil {
		if errs.IsFatal(err) {
			return err
		}
		logger.Warn("fork recovery hit a transient error, will retry next run", "err", err)
	}

	manager := syncmanager.New(cfg.ContextName, client, driver, noopPeriodic{log: logger}, logger)
	manager.TestMaxBlock = cfg.TestMaxBlockPtr()
	manager.TestLastBlockForMassive = cfg.TestLastBlockForMassivePtr()
	manager.MaxBatch = cfg.MaxBatch
	manager.CommunityStartBlock = cfg.CommunityStartBlock

	reporter := metrics.NewReporter()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutdown signal received, exiting")
			return shutdown(ctx, manager, store, logger)
		default:
		}

		start := time.Now()
		head, ok, err := manager.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// the signal latch, not the sync itself, ended this
				// iteration; exit cleanly.
				logger.Info("shutdown signal received, exiting")
				return shutdown(ctx, manager, store, logger)
			}
			if errs.IsFatal(err) {
				return err
			}
			logger.Warn("sync iteration failed, retrying", "err", err)
			wait(ctx, blockPollInterval)
			continue
		}
		if !ok {
			logger.Debug("no new blocks available")
			wait(ctx, blockPollInterval)
			continue
		}
		logger.Debug("advanced head", "num", head)
		reporter.SetHead(head)
		reporter.ObserveBlockTime(time.Since(start))
		reporter.SyncOpsStats(proc.OpsStats())
	}
}

// wait sleeps for d or until ctx is cancelled, whichever comes first.
func wait(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// shutdown re-establishes the context detach/attach invariant at the
// current head before the process exits. The signal context is already
// cancelled by the time this runs, so the cleanup gets its own deadline.
func shutdown(ctx context.Context, manager *syncmanager.Manager, store *blockstore.Store, logger log.Logger) error {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	head, err := store.HeadNum(sctx)
	if err != nil {
		logger.Warn("could not read head during shutdown", "err", err)
		return nil
	}
	if err := manager.Shutdown(sctx, head); err != nil {
		logger.Warn("context re-attach on shutdown failed", "err", err)
	}
	return nil
}

// pgxLogger adapts the terminal logger to pgx's tracelog facility, used
// when log_explain_queries is enabled.
type pgxLogger struct{ log log.Logger }

func (l pgxLogger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	args := make([]any, 0, len(data)*2)
	for k, v := range data {
		args = append(args, k, v)
	}
	switch level {
	case tracelog.LogLevelError:
		l.log.Error(msg, args...)
	case tracelog.LogLevelWarn:
		l.log.Warn(msg, args...)
	default:
		l.log.Debug(msg, args...)
	}
}

// upstreamHasher adapts haf.Client to forkrecovery.UpstreamHasher.
type upstreamHasher struct {
	client *haf.Client
}

func (u upstreamHasher) BlockHash(ctx context.Context, num uint32) (string, error) {
	block, err := u.client.GetBlock(ctx, num)
	if err != nil {
		return "", err
	}
	return block.BlockID, nil
}

func (u upstreamHasher) LastIrreversible(ctx context.Context) (uint32, error) {
	return u.client.LastIrreversible(ctx)
}
