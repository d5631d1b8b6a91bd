package sweep

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"time"

	"github.com/rustyeddy/exitsweep/market"
	"github.com/rustyeddy/exitsweep/policy"
	"github.com/rustyeddy/exitsweep/results"
	"github.com/rustyeddy/exitsweep/sim"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner drives every (policy, trade) pair through a Simulator.
type Runner struct {
	Simulator *sim.Simulator
	Workers   int
	Logger    *zap.Logger

	// OnResult is called from a single goroutine, in completion order, for
	// every finished policy.
	OnResult func(ordinal int, s results.PolicyStatistics) error
}

// Report is the outcome of a whole sweep. Stats are in source order.
type Report struct {
	Stats    []results.PolicyStatistics
	Trades   int
	Prepared int
	Skipped  results.Skips
	Rejected int
	Elapsed  time.Duration
}

type job struct {
	ordinal int
	policy  policy.ExitPolicy
}

type done struct {
	ordinal int
	stats   results.PolicyStatistics
}

func (r *Runner) Run(ctx context.Context, src Source, trades []market.TradeIntent) (*Report, error) {
	if r.Simulator == nil {
		return nil, errors.New("sweep: Simulator is required")
	}
	if src == nil {
		return nil, errors.New("sweep: policy Source is required")
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	rep := &Report{Trades: len(trades)}

	prepared := make([]sim.Prepared, 0, len(trades))
	for _, t := range trades {
		p, err := r.Simulator.Prepare(t)
		if err != nil {
			rep.Skipped.Count(err)
			continue
		}
		prepared = append(prepared, p)
	}
	rep.Prepared = len(prepared)

	log.Info("sweep starting",
		zap.Int("trades", rep.Trades),
		zap.Int("prepared", rep.Prepared),
		zap.Int("empty_history", rep.Skipped.EmptyHistory),
		zap.Int("entry_out_of_range", rep.Skipped.EntryOutOfRange),
		zap.Int("zero_quantity", rep.Skipped.ZeroQuantity),
		zap.Int("workers", workers),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job, workers)
	out := make(chan done, workers)

	rejected := 0
	g.Go(func() error {
		defer close(jobs)
		for src.Next() {
			p := src.Policy()
			if err := p.Validate(); err != nil {
				rejected++
				log.Warn("policy rejected", zap.Int("ordinal", src.Index()), zap.Error(err))
				continue
			}
			select {
			case jobs <- job{ordinal: src.Index(), policy: p}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for j := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				acc := results.NewAccumulator(j.policy)
				for _, p := range prepared {
					acc.Add(r.Simulator.Run(p, j.policy))
				}
				acc.SetSkipped(rep.Skipped)

				select {
				case out <- done{ordinal: j.ordinal, stats: acc.Statistics()}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- g.Wait()
		close(out)
	}()

	var collected []done
	var cbErr error
	for d := range out {
		collected = append(collected, d)
		if r.OnResult != nil && cbErr == nil {
			if err := r.OnResult(d.ordinal, d.stats); err != nil {
				cbErr = err
				cancel()
			}
		}
	}

	err := <-waitErr
	if cbErr != nil {
		err = cbErr
	}
	if err != nil {
		log.Warn("sweep aborted", zap.Int("completed", len(collected)), zap.Error(err))
		return nil, err
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].ordinal < collected[j].ordinal })
	rep.Stats = make([]results.PolicyStatistics, len(collected))
	for i, d := range collected {
		rep.Stats[i] = d.stats
	}
	rep.Rejected = rejected
	rep.Elapsed = time.Since(start)

	log.Info("sweep finished",
		zap.Int("policies", len(rep.Stats)),
		zap.Int("rejected", rep.Rejected),
		zap.Duration("elapsed", rep.Elapsed),
	)
	return rep, nil
}
