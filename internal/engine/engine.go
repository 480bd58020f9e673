package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"fxbot/internal/metrics"
	"fxbot/internal/repository"
	"fxbot/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunRequest names the data and strategy of one backtest. Dates are
// YYYY-MM-DD in UTC and both ends are inclusive.
type RunRequest struct {
	RunID     string
	Exchange  string
	Symbol    string
	Timeframe string
	StartDate string
	EndDate   string
	Strategy  string
}

type Engine struct {
	db      dataStore
	resolve StrategyResolver
	probe   StatusProbe
	config  *RunConfig
	logger  *zap.Logger
}

func NewEngine(db dataStore, resolve StrategyResolver, probe StatusProbe, config *RunConfig, logger *zap.Logger) *Engine {
	if config == nil {
		config = DefaultRunConfig()
	}
	return &Engine{
		db:      db,
		resolve: resolve,
		probe:   probe,
		config:  config,
		logger:  orNop(logger),
	}
}

// RunBacktest validates the request, loads its candles and runs the
// simulation. Validation and data errors abort before any candle is stepped.
func (e *Engine) RunBacktest(ctx context.Context, req RunRequest) (*types.BacktestResult, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	started := time.Now()
	status := types.RunFailed
	defer func() {
		metrics.RunsTotal.WithLabelValues(string(status)).Inc()
		metrics.RunDuration.Observe(time.Since(started).Seconds())
	}()

	in, err := e.validate(req)
	if err != nil {
		return nil, err
	}

	candles, err := e.loadCandles(ctx, in)
	if err != nil {
		return nil, err
	}

	logger := e.logger.With(
		zap.String("run_id", req.RunID),
		zap.String("strategy", req.Strategy),
		zap.String("symbol", in.symbol),
	)
	logger.Info("backtest started", zap.Int("candles", len(candles)))

	res, err := Simulate(ctx, Simulation{
		RunID:     req.RunID,
		Symbol:    in.symbol,
		Timeframe: in.timeframe,
		Candles:   candles,
		Factory:   in.factory,
		Config:    e.config,
		Probe:     e.probe,
		Logger:    e.logger,
	})
	if err != nil {
		logger.Error("backtest failed", zap.Error(err))
		return nil, err
	}

	status = res.Status
	logger.Info("backtest finished",
		zap.String("status", string(res.Status)),
		zap.Int("trades", len(res.Trades)),
		zap.String("final_balance", res.FinalBalance.String()),
	)
	return res, nil
}

type validated struct {
	exchange  string
	symbol    string
	timeframe types.Timeframe
	start     time.Time
	end       time.Time
	factory   Factory
}

func (e *Engine) validate(req RunRequest) (validated, error) {
	var v validated
	if strings.TrimSpace(req.Exchange) == "" {
		return v, &InvalidInputError{Field: "exchange", Value: req.Exchange}
	}
	if strings.TrimSpace(req.Symbol) == "" {
		return v, &InvalidInputError{Field: "symbol", Value: req.Symbol}
	}
	tf, err := types.ParseTimeframe(req.Timeframe)
	if err != nil {
		return v, &InvalidInputError{Field: "timeframe", Value: req.Timeframe, Err: err}
	}
	start, err := time.ParseInLocation(time.DateOnly, req.StartDate, time.UTC)
	if err != nil {
		return v, &InvalidInputError{Field: "start_date", Value: req.StartDate, Err: err}
	}
	end, err := time.ParseInLocation(time.DateOnly, req.EndDate, time.UTC)
	if err != nil {
		return v, &InvalidInputError{Field: "end_date", Value: req.EndDate, Err: err}
	}
	if start.After(end) {
		return v, &InvalidInputError{Field: "date_range", Value: req.StartDate + ".." + req.EndDate}
	}
	if e.resolve == nil {
		return v, &InvalidInputError{Field: "strategy", Value: req.Strategy, Err: ErrUnknownStrategy}
	}
	factory, err := e.resolve(req.Strategy)
	if err != nil {
		return v, &InvalidInputError{Field: "strategy", Value: req.Strategy, Err: err}
	}

	return validated{
		exchange:  req.Exchange,
		symbol:    req.Symbol,
		timeframe: tf,
		start:     start,
		end:       end,
		factory:   factory,
	}, nil
}

func (e *Engine) loadCandles(ctx context.Context, in validated) ([]types.Candle, error) {
	notFound := &DataNotFoundError{
		Exchange:  in.exchange,
		Symbol:    in.symbol,
		Timeframe: in.timeframe,
		Start:     in.start,
		End:       in.end,
	}
	candles, err := e.db.GetCandles(ctx, in.exchange, in.symbol, in.timeframe, in.start.UnixMilli(), in.end.UnixMilli())
	if errors.Is(err, repository.ErrNoCandles) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, notFound
	}
	return candles, nil
}
