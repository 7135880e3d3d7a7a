// Package soak runs randomized operation sequences against independent
// trees and checks every result against a shadow set.
package soak

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xrbtree/lib/infra"
	"github.com/benz9527/xrbtree/lib/tree"
	"github.com/benz9527/xrbtree/observability"
	"github.com/benz9527/xrbtree/report"
	"github.com/benz9527/xrbtree/xlog"
)

var (
	ErrMismatch    = errors.New("tree result differs from shadow set")
	ErrInvalidSize = errors.New("soak sizes must be positive")
)

type Config struct {
	Workers  int
	Rounds   int
	Ops      int
	Keyspace int
	Check    int
	// Seed 0 is replaced by a time based one.
	Seed uint64
}

func (cfg Config) validate() error {
	if cfg.Workers <= 0 || cfg.Rounds <= 0 || cfg.Ops <= 0 || cfg.Keyspace <= 0 || cfg.Check <= 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidSize, cfg)
	}
	return nil
}

type Report struct {
	Seed     uint64
	Rounds   int
	Failed   int
	Inserts  int64
	Deletes  int64
	Searches int64
	Checks   int64
	MaxNodes int64
	Elapsed  time.Duration
}

type counters struct {
	inserts  atomic.Int64
	deletes  atomic.Int64
	searches atomic.Int64
	checks   atomic.Int64
	maxNodes atomic.Int64
}

func (c *counters) observeNodes(n int64) {
	for {
		cur := c.maxNodes.Load()
		if n <= cur || c.maxNodes.CompareAndSwap(cur, n) {
			return
		}
	}
}

type job struct {
	id     int
	seed   uint64
	cfg    Config
	stats  *observability.TreeStats
	counts *counters
}

// Run submits cfg.Rounds jobs to a pool of cfg.Workers goroutines. Every
// job owns its tree, so the trees are never shared across goroutines.
func Run(ctx context.Context, cfg Config, logger xlog.XLogger, stats *observability.TreeStats) (Report, error) {
	if err := cfg.validate(); err != nil {
		return Report{}, infra.WrapErrorStack(err, "soak config")
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	var poolOpts []ants.Option
	if logger != nil {
		poolOpts = append(poolOpts, ants.WithLogger(xlog.NewAntsXLogger(logger)))
	}
	pool, err := ants.NewPool(cfg.Workers, poolOpts...)
	if err != nil {
		return Report{}, infra.WrapErrorStack(err, "soak pool")
	}
	defer pool.Release()

	var (
		start  = time.Now()
		counts = &counters{}
		wg     sync.WaitGroup
		lock   sync.Mutex
		errs   error
		failed int
	)
	for i := 0; i < cfg.Rounds; i++ {
		j := &job{
			id:     i,
			seed:   cfg.Seed + uint64(i),
			cfg:    cfg,
			stats:  stats,
			counts: counts,
		}
		wg.Add(1)
		if err = pool.Submit(func() {
			defer wg.Done()
			jobErr := j.run(ctx)
			if jobErr == nil {
				if logger != nil {
					logger.Debug("soak job passed", zap.Int("job", j.id), zap.Uint64("seed", j.seed))
				}
				return
			}
			if logger != nil {
				logger.ErrorStack(jobErr, "soak job failed", zap.Int("job", j.id))
			}
			lock.Lock()
			defer lock.Unlock()
			errs = multierr.Append(errs, jobErr)
			failed++
		}); err != nil {
			wg.Done()
			lock.Lock()
			errs = multierr.Append(errs, infra.WrapErrorStack(err, fmt.Sprintf("submit soak job %d", i)))
			lock.Unlock()
			break
		}
	}
	wg.Wait()

	rep := Report{
		Seed:     cfg.Seed,
		Rounds:   cfg.Rounds,
		Failed:   failed,
		Inserts:  counts.inserts.Load(),
		Deletes:  counts.deletes.Load(),
		Searches: counts.searches.Load(),
		Checks:   counts.checks.Load(),
		MaxNodes: counts.maxNodes.Load(),
		Elapsed:  time.Since(start),
	}
	if logger != nil {
		logger.Info("soak finished",
			zap.Uint64("seed", rep.Seed),
			zap.Int("rounds", rep.Rounds),
			zap.Int("failed", rep.Failed),
			zap.Int64("inserts", rep.Inserts),
			zap.Int64("deletes", rep.Deletes),
			zap.Int64("searches", rep.Searches),
			zap.Int64("checks", rep.Checks),
			zap.Duration("elapsed", rep.Elapsed),
		)
	}
	return rep, errs
}

func (j *job) run(ctx context.Context) (err error) {
	var (
		rng    = rand.New(rand.NewPCG(j.seed, j.seed^0x9e3779b97f4a7c15))
		rbt    = tree.NewRBTree[int]()
		shadow = make(map[int]struct{}, j.cfg.Keyspace)
	)
	defer func() {
		if r := recover(); r != nil {
			err = infra.WrapErrorStack(fmt.Errorf("panic: %v", r), j.where(-1))
		}
		rbt.Release()
	}()

	for op := 1; op <= j.cfg.Ops; op++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return infra.WrapErrorStack(ctxErr, j.where(op))
		}

		key := rng.IntN(j.cfg.Keyspace)
		_, exists := shadow[key]
		switch kind := rng.IntN(10); {
		case kind < 5:
			ok := rbt.Insert(key)
			j.counts.inserts.Add(1)
			j.stats.Inserted(ctx, ok)
			if ok == exists {
				return infra.WrapErrorStack(fmt.Errorf("%w: insert %d returned %v", ErrMismatch, key, ok), j.where(op))
			}
			shadow[key] = struct{}{}
		case kind < 8:
			ok := rbt.Delete(key)
			j.counts.deletes.Add(1)
			j.stats.Deleted(ctx, ok)
			if ok != exists {
				return infra.WrapErrorStack(fmt.Errorf("%w: delete %d returned %v", ErrMismatch, key, ok), j.where(op))
			}
			delete(shadow, key)
		default:
			node := rbt.Search(key)
			j.counts.searches.Add(1)
			j.stats.Searched(ctx, node != nil)
			if (node != nil) != exists || (node != nil && node.Key() != key) {
				return infra.WrapErrorStack(fmt.Errorf("%w: search %d", ErrMismatch, key), j.where(op))
			}
		}

		if op%j.cfg.Check == 0 || op == j.cfg.Ops {
			if checkErr := j.check(ctx, rbt, shadow); checkErr != nil {
				return infra.WrapErrorStack(checkErr, j.where(op))
			}
		}
	}
	return nil
}

func (j *job) check(ctx context.Context, rbt tree.RBTree[int], shadow map[int]struct{}) error {
	j.counts.checks.Add(1)
	j.counts.observeNodes(rbt.Len())
	if err := tree.Validate[int](rbt); err != nil {
		for _, e := range multierr.Errors(err) {
			j.stats.Violated(ctx, violationKind(e))
		}
		return err
	}
	want := lo.Keys(shadow)
	slices.Sort(want)
	if got := report.InOrder[int](rbt.Root()); !slices.Equal(got, want) {
		return fmt.Errorf("%w: in-order has %d keys, shadow has %d", ErrMismatch, len(got), len(want))
	}
	return nil
}

func (j *job) where(op int) string {
	if op < 0 {
		return fmt.Sprintf("soak job %d (seed %d)", j.id, j.seed)
	}
	return fmt.Sprintf("soak job %d (seed %d) op %d", j.id, j.seed, op)
}

func violationKind(err error) string {
	switch {
	case errors.Is(err, tree.ErrRootColor):
		return "root"
	case errors.Is(err, tree.ErrRedViolation):
		return "red"
	case errors.Is(err, tree.ErrBlackViolation):
		return "black"
	case errors.Is(err, tree.ErrParentLink):
		return "parent"
	case errors.Is(err, tree.ErrOrderViolation):
		return "order"
	default:
	}
	return "unknown"
}
