// Package scheduler drives periodic ladder sweeps over the configured pairs.
//
// The configuration document is re-read every cycle, so enabling, disabling
// and interval changes take effect without restarting the daemon. Only
// context cancellation stops the loop.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"dex-liquidity-lab/internal/config"
	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/ladder"
	"dex-liquidity-lab/internal/observability"
	"dex-liquidity-lab/internal/storage"
)

// DefaultIdlePoll is how often a disabled scheduler re-checks the config.
const DefaultIdlePoll = 10 * time.Second

// ConfigStore reads and writes the shared configuration document.
type ConfigStore interface {
	Load() (*config.Document, error)
	Update(fn func(*config.Document) error) error
}

// PairRunner executes one full ladder run for one pair.
type PairRunner interface {
	RunPair(ctx context.Context, pair *domain.TokenPair, baselineUSD int64, usdLadder []int64) (*ladder.RunResult, error)
}

// Scheduler alternates between idle polling (scheduling disabled) and sweep
// cycles (enabled). After every cycle it writes a heartbeat and the cycle's
// error state back into the config document.
type Scheduler struct {
	cfg    ConfigStore
	pairs  storage.PairStore
	runner PairRunner
	logger *log.Logger
	poll   time.Duration
	now    func() time.Time
}

// Options configures Scheduler.
type Options struct {
	Config ConfigStore
	Pairs  storage.PairStore
	Runner PairRunner
	Logger *log.Logger

	// IdlePoll overrides DefaultIdlePoll.
	IdlePoll time.Duration
}

// New creates a new Scheduler.
func New(opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[scheduler] ", log.LstdFlags)
	}
	poll := opts.IdlePoll
	if poll <= 0 {
		poll = DefaultIdlePoll
	}
	return &Scheduler{
		cfg:    opts.Config,
		pairs:  opts.Pairs,
		runner: opts.Runner,
		logger: logger,
		poll:   poll,
		now:    time.Now,
	}
}

// Run loops until ctx is canceled. A failing cycle never stops the loop:
// the error is recorded and the next cycle starts on schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Println("Scheduler started")
	for {
		doc, err := s.cfg.Load()
		if err != nil {
			s.logger.Printf("ERROR: load config: %v", err)
			if err := s.wait(ctx, s.poll); err != nil {
				return err
			}
			continue
		}

		if !doc.ScheduleEnabled {
			if err := s.wait(ctx, s.poll); err != nil {
				return err
			}
			continue
		}

		if err := s.cycle(ctx, doc); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Printf("ERROR: cycle: %v", err)
		}

		interval := time.Duration(doc.ScheduleIntervalSecs) * time.Second
		if err := s.wait(ctx, interval); err != nil {
			return err
		}
	}
}

// cycle sweeps every configured pair once, isolating per-pair failures, then
// writes heartbeat and error state back to the config document. The returned
// error reports cancellation or a config write-back failure; pair failures
// are recorded in the document instead.
func (s *Scheduler) cycle(ctx context.Context, doc *config.Document) error {
	started := s.now()
	pairs, err := s.resolvePairs(ctx, doc)
	if err != nil {
		s.writeBack(fmt.Sprintf("resolve pairs: %v", err))
		observability.RecordSchedulerCycle("error")
		return nil
	}
	if len(pairs) == 0 {
		s.logger.Println("WARN: scheduling enabled but no pairs to sweep")
	}

	failures := 0
	var lastErr error
	for _, pair := range pairs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.runner.RunPair(ctx, pair, doc.LadderBaselineUSD, doc.LadderValues); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failures++
			lastErr = err
			s.logger.Printf("ERROR: run for %s failed: %v", pair.PairAddress, err)
		}
	}

	errMsg := ""
	status := "success"
	if failures > 0 {
		errMsg = fmt.Sprintf("%d of %d pairs failed, last: %v", failures, len(pairs), lastErr)
		status = "partial"
	}
	if err := s.writeBack(errMsg); err != nil {
		return err
	}
	observability.RecordSchedulerCycle(status)
	s.logger.Printf("Cycle finished: %d pairs, %d failures in %s",
		len(pairs), failures, time.Since(started).Round(time.Second))
	return nil
}

// resolvePairs maps the configured pool addresses to stored pairs. An empty
// configuration means every known pair. Unknown addresses are skipped with a
// warning rather than failing the cycle.
func (s *Scheduler) resolvePairs(ctx context.Context, doc *config.Document) ([]*domain.TokenPair, error) {
	if len(doc.PairAddresses) == 0 {
		return s.pairs.List(ctx)
	}

	pairs := make([]*domain.TokenPair, 0, len(doc.PairAddresses))
	for _, addr := range doc.PairAddresses {
		pair, err := s.pairs.GetByPairAddress(ctx, addr)
		if err != nil {
			s.logger.Printf("WARN: configured pair %s not found: %v", addr, err)
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// writeBack stores heartbeat and error state in the config document.
func (s *Scheduler) writeBack(errMsg string) error {
	heartbeat := s.now().Unix()
	err := s.cfg.Update(func(doc *config.Document) error {
		doc.LastSchedulerHeartbeat = heartbeat
		doc.LastSchedulerError = errMsg
		return nil
	})
	if err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}
	observability.UpdateSchedulerHeartbeat(heartbeat)
	return nil
}

func (s *Scheduler) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
