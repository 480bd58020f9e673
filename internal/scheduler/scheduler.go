package scheduler

import (
	"context"
	"errors"
	"sync"

	"fxbot/internal/engine"
	"fxbot/internal/metrics"
	"fxbot/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner executes one backtest. *engine.Engine satisfies it.
type Runner interface {
	RunBacktest(ctx context.Context, req engine.RunRequest) (*types.BacktestResult, error)
}

// Tracker persists the lifecycle of each run. *session.Store and
// *session.Mirror satisfy it.
type Tracker interface {
	Create(ctx context.Context, id string, req engine.RunRequest) error
	SetStatus(ctx context.Context, id string, status types.RunStatus) error
	Status(ctx context.Context, id string) (types.RunStatus, error)
	Complete(ctx context.Context, id string, res *types.BacktestResult) error
	Fail(ctx context.Context, id, message, trace string) error
	Cancel(ctx context.Context, id string) error
}

// Outcome is the terminal state of a submitted run.
type Outcome struct {
	Status types.RunStatus
	Result *types.BacktestResult
	Err    error
}

// Scheduler runs backtests on a bounded number of workers. Every run gets
// its own engine run context, so runs share nothing but the tracker.
// Queued runs start in no particular order.
type Scheduler struct {
	runner  Runner
	tracker Tracker
	logger  *zap.Logger

	group   errgroup.Group
	pending sync.WaitGroup

	mu       sync.Mutex
	outcomes map[string]Outcome
}

func New(runner Runner, tracker Tracker, maxConcurrent int, logger *zap.Logger) *Scheduler {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		runner:   runner,
		tracker:  tracker,
		logger:   logger,
		outcomes: make(map[string]Outcome),
	}
	s.group.SetLimit(maxConcurrent)
	return s
}

// Submit records the run as queued and returns its id. The run starts once a
// worker slot frees up and uses ctx for its whole lifetime.
func (s *Scheduler) Submit(ctx context.Context, req engine.RunRequest) (string, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if err := s.tracker.Create(ctx, req.RunID, req); err != nil {
		return "", err
	}
	s.logger.Info("backtest queued", zap.String("run_id", req.RunID), zap.String("strategy", req.Strategy))

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.group.Go(func() error {
			s.execute(ctx, req)
			return nil
		})
	}()
	return req.RunID, nil
}

// Cancel flags the run as cancelled. A queued run is skipped; a running one
// stops at its next status check and keeps its partial result.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	return s.tracker.Cancel(ctx, id)
}

// Wait blocks until every submitted run has finished.
func (s *Scheduler) Wait() {
	s.pending.Wait()
	_ = s.group.Wait()
}

func (s *Scheduler) Outcome(id string) (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.outcomes[id]
	return out, ok
}

func (s *Scheduler) execute(ctx context.Context, req engine.RunRequest) {
	id := req.RunID
	logger := s.logger.With(zap.String("run_id", id))

	status, err := s.tracker.Status(ctx, id)
	if err != nil {
		logger.Warn("status lookup failed", zap.Error(err))
	} else if !status.IsActive() {
		logger.Info("skipping run", zap.String("status", string(status)))
		s.record(id, Outcome{Status: status})
		return
	}

	if err := s.tracker.SetStatus(ctx, id, types.RunProcessing); err != nil {
		logger.Warn("mark processing failed", zap.Error(err))
	}

	metrics.ActiveRuns.Inc()
	res, err := s.runner.RunBacktest(ctx, req)
	metrics.ActiveRuns.Dec()

	if err != nil {
		var trace string
		var execErr *engine.ExecutionError
		if errors.As(err, &execErr) {
			trace = execErr.Trace
		}
		if ferr := s.tracker.Fail(ctx, id, err.Error(), trace); ferr != nil {
			logger.Warn("record failure failed", zap.Error(ferr))
		}
		s.record(id, Outcome{Status: types.RunFailed, Err: err})
		return
	}

	if cerr := s.tracker.Complete(ctx, id, res); cerr != nil {
		logger.Warn("record result failed", zap.Error(cerr))
	}
	s.record(id, Outcome{Status: res.Status, Result: res})
}

func (s *Scheduler) record(id string, out Outcome) {
	s.mu.Lock()
	s.outcomes[id] = out
	s.mu.Unlock()
}
