package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	tagpool "github.com/ydb-platform/ydb-go-tagpool"
	"github.com/ydb-platform/ydb-go-tagpool/fixup"
	"github.com/ydb-platform/ydb-go-tagpool/tag"
	"github.com/ydb-platform/ydb-go-tagpool/testutil"
	"github.com/ydb-platform/ydb-go-tagpool/trace"
)

const applyTagProcedure = "apply_tag"

var errFixupFailed = errors.New("fixup failed")

type runConfig struct {
	workers      int
	duration     time.Duration
	min          int
	max          int
	increment    int
	tags         []tag.Tag
	matchAnyTag  bool
	failRate     float64
	dropRate     float64
	fixupDelay   time.Duration
	createDelay  time.Duration
	queueTimeout time.Duration
	logLevel     string
	logDetails   string
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run workload against the pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readRunConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newZap(cfg.logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return run(cmd.Context(), cmd.OutOrStdout(), logger, cfg)
		},
	}

	flags := cmd.Flags()
	flags.Int("workers", 8, "number of concurrent workers")
	flags.Duration("duration", 10*time.Second, "workload duration")
	flags.Int("min", 0, "pool min sessions")
	flags.Int("max", 4, "pool max sessions")
	flags.Int("increment", 1, "sessions created at once")
	flags.StringSlice("tags", []string{"L=FR", "L=DE", "L=IT"}, "tags requested by workers, empty value requests untagged session")
	flags.Bool("match-any", false, "reconcile any free session to the requested tag")
	flags.Float64("fail-rate", 0, "probability of reconciliation failure")
	flags.Float64("drop-rate", 0, "probability of releasing session with drop")
	flags.Duration("fixup-delay", time.Millisecond, "duration of reconciliation")
	flags.Duration("create-delay", 0, "duration of session creation")
	flags.Duration("queue-timeout", time.Second, "queue timeout of acquire")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-details", `ydb\.tagpool\.lifecycle`, "regexp of logged pool events")

	return cmd
}

func readRunConfig(cmd *cobra.Command) (cfg runConfig, _ error) {
	v, err := newConfig(cmd)
	if err != nil {
		return cfg, err
	}

	cfg = runConfig{
		workers:      v.GetInt("workers"),
		duration:     v.GetDuration("duration"),
		min:          v.GetInt("min"),
		max:          v.GetInt("max"),
		increment:    v.GetInt("increment"),
		matchAnyTag:  v.GetBool("match-any"),
		failRate:     v.GetFloat64("fail-rate"),
		dropRate:     v.GetFloat64("drop-rate"),
		fixupDelay:   v.GetDuration("fixup-delay"),
		createDelay:  v.GetDuration("create-delay"),
		queueTimeout: v.GetDuration("queue-timeout"),
		logLevel:     v.GetString("log-level"),
		logDetails:   v.GetString("log-details"),
	}
	for _, s := range v.GetStringSlice("tags") {
		t, err := tag.Parse(strings.TrimSpace(s))
		if err != nil {
			return cfg, err
		}
		cfg.tags = append(cfg.tags, t)
	}
	if cfg.workers < 1 {
		return cfg, fmt.Errorf("workers must be positive, got %d", cfg.workers)
	}
	if len(cfg.tags) == 0 {
		cfg.tags = []tag.Tag{""}
	}

	return cfg, nil
}

type counters struct {
	acquired        atomic.Int64
	dropped         atomic.Int64
	reconcileFailed atomic.Int64
	capacity        atomic.Int64
	failed          atomic.Int64
}

// procedure applies requested tag in-band on the fake session after a delay,
// failing with given probability
func procedure(delay time.Duration, failRate float64) fixup.Procedure {
	return fixup.Sync("stress", func(ctx context.Context, target fixup.Target, requested, actual tag.Tag) error {
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()

			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if failRate > 0 && rand.Float64() < failRate { //nolint:gosec
			return errFixupFailed
		}

		return target.Session().Call(ctx, applyTagProcedure, requested.String(), actual.String())
	})
}

func run(ctx context.Context, w io.Writer, logger *zap.Logger, cfg runConfig) error {
	backend := testutil.NewBackend(
		testutil.WithCreateDelay(cfg.createDelay),
		testutil.WithHandler(applyTagProcedure, testutil.ApplyTag),
	)

	p, err := tagpool.Open(ctx, backend.Factory(),
		tagpool.WithMin(cfg.min),
		tagpool.WithMax(cfg.max),
		tagpool.WithIncrement(cfg.increment),
		tagpool.WithQueueTimeout(cfg.queueTimeout),
		tagpool.WithDefaultMatchAnyTag(cfg.matchAnyTag),
		tagpool.WithStatistics(true),
		tagpool.WithProcedure(procedure(cfg.fixupDelay, cfg.failRate)),
		tagpool.WithLogger(newLogger(logger),
			trace.MatchDetails(cfg.logDetails, trace.WithDefaultDetails(trace.PoolLifeCycleEvents)),
		),
	)
	if err != nil {
		return err
	}

	logger.Info("workload started",
		zap.Int("workers", cfg.workers),
		zap.Duration("duration", cfg.duration),
		zap.Int("max", cfg.max),
	)

	var c counters
	workloadCtx, cancel := context.WithTimeout(ctx, cfg.duration)
	defer cancel()

	g, gctx := errgroup.WithContext(workloadCtx)
	for i := 0; i < cfg.workers; i++ {
		g.Go(func() error {
			return work(gctx, p, cfg, &c)
		})
	}
	workErr := g.Wait()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()

	stats, _ := p.Statistics()
	if err = p.Close(closeCtx); err != nil {
		return err
	}
	if workErr != nil {
		return workErr
	}

	logger.Info("workload finished", zap.Int64("acquired", c.acquired.Load()))

	return printStatistics(w, &c, stats, backend)
}

func work(ctx context.Context, p *tagpool.Pool, cfg runConfig, c *counters) error {
	for ctx.Err() == nil {
		t := cfg.tags[rand.Intn(len(cfg.tags))] //nolint:gosec
		s, err := p.Acquire(ctx, tagpool.WithTag(t))
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case tagpool.IsCapacityError(err):
			c.capacity.Add(1)

			continue
		default:
			if ok, _ := tagpool.IsReconciliationError(err); ok {
				c.reconcileFailed.Add(1)

				continue
			}
			c.failed.Add(1)

			return err
		}
		c.acquired.Add(1)

		drop := cfg.dropRate > 0 && rand.Float64() < cfg.dropRate //nolint:gosec
		if drop {
			c.dropped.Add(1)
		}
		if err = s.Release(ctx, tagpool.WithDrop(drop)); err != nil {
			return err
		}
	}

	return nil
}

func printStatistics(w io.Writer, c *counters, stats tagpool.Statistics, backend *testutil.Backend) error {
	lines := []string{
		fmt.Sprintf("acquired: %d", c.acquired.Load()),
		fmt.Sprintf("dropped: %d", c.dropped.Load()),
		fmt.Sprintf("reconcile failures: %d", c.reconcileFailed.Load()),
		fmt.Sprintf("capacity errors: %d", c.capacity.Load()),
		fmt.Sprintf("requests: %d", stats.Requests),
		fmt.Sprintf("reconcile calls: %d", stats.ReconcileCalls),
		fmt.Sprintf("enqueued: %d", stats.Enqueued),
		fmt.Sprintf("timeouts: %d", stats.Timeouts),
		fmt.Sprintf("max queue length: %d", stats.MaxQueueLength),
		fmt.Sprintf("time in queue: avg %v, max %v", stats.TimeInQueueAvg, stats.TimeInQueueMax),
		fmt.Sprintf("sessions created: %d", backend.Created()),
		fmt.Sprintf("sessions alive: %d", backend.Alive()),
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))

	return err
}
