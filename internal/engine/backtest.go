package engine

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"fxbot/internal/metrics"
	"fxbot/types"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const probeTimeout = 2 * time.Second

// Simulation is everything one run of the step loop needs.
type Simulation struct {
	RunID     string
	Symbol    string
	Timeframe types.Timeframe
	Candles   []types.Candle
	Factory   Factory
	Config    *RunConfig
	Probe     StatusProbe
	Logger    *zap.Logger
}

type backtester struct {
	runID    string
	symbol   string
	config   *RunConfig
	candles  []types.Candle
	strategy Strategy
	rc       *RunContext
	sandbox  *Sandbox
	probe    StatusProbe
	logger   *zap.Logger
}

// Simulate replays the candles through a fresh strategy and returns the
// accumulated result. A cancelled run is returned with status cancelled and a
// nil error. Panics raised while stepping are returned as *ExecutionError.
func Simulate(ctx context.Context, sim Simulation) (res *types.BacktestResult, err error) {
	if len(sim.Candles) == 0 {
		return nil, &DataNotFoundError{Exchange: SandboxExchange, Symbol: sim.Symbol, Timeframe: sim.Timeframe}
	}
	if sim.Factory == nil {
		return nil, &InvalidInputError{Field: "strategy", Value: "", Err: ErrUnknownStrategy}
	}
	config := sim.Config
	if config == nil {
		config = DefaultRunConfig()
	}
	logger := orNop(sim.Logger).With(zap.String("run_id", sim.RunID))

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &ExecutionError{Message: fmt.Sprint(r), Trace: string(debug.Stack())}
			logger.Error("backtest panicked", zap.Any("panic", r))
		}
	}()

	rc := NewRunContext(sim.RunID, config.initialBalance, config.feeRate)
	sandbox := NewSandbox(rc, logger)
	strat := sim.Factory(sim.Symbol, SandboxExchange, sim.Timeframe, rc)
	strat.core().broker = sandbox
	rc.strategyName = strat.Name()

	b := &backtester{
		runID:    sim.RunID,
		symbol:   sim.Symbol,
		config:   config,
		candles:  sim.Candles,
		strategy: strat,
		rc:       rc,
		sandbox:  sandbox,
		probe:    sim.Probe,
		logger:   logger,
	}

	status, seen, err := b.run(ctx)
	if err != nil {
		return nil, &ExecutionError{Message: err.Error(), Trace: string(debug.Stack()), Err: err}
	}

	final := rc.Balance(SandboxExchange)
	return &types.BacktestResult{
		RunID:          sim.RunID,
		Status:         status,
		Strategy:       rc.strategyName,
		InitialBalance: config.initialBalance,
		FinalBalance:   final,
		PnLPercent:     types.PnLPercent(config.initialBalance, final),
		Trades:         rc.Trades(),
		ClosedTrades:   rc.ClosedTrades(),
		Balances:       rc.Balances(),
		Equity:         rc.Equity(),
		FinalPosition:  rc.Position(SandboxExchange, sim.Symbol),
		CandlesSeen:    seen,
	}, nil
}

func (b *backtester) run(ctx context.Context) (types.RunStatus, int, error) {
	warmup := min(b.config.warmup, len(b.candles))
	status := types.RunCompleted
	seen := 0

	var bar *progressbar.ProgressBar
	if b.config.showProgress {
		bar = initProgressBar(len(b.candles) - warmup)
	}

	b.strategy.SetUp()
	for i := warmup; i < len(b.candles); i++ {
		if (i-warmup)%b.config.cancelEvery == 0 && b.cancelled(ctx) {
			status = types.RunCancelled
			b.logger.Info("backtest cancelled", zap.Int("candle", i))
			break
		}
		if err := b.step(i); err != nil {
			b.strategy.Terminate()
			return types.RunFailed, seen, fmt.Errorf("candle %d at %s: %w", i, b.candles[i].Time().Format(time.RFC3339), err)
		}
		seen++
		metrics.CandlesProcessed.Inc()
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	b.strategy.Terminate()
	if bar != nil {
		_ = bar.Finish()
	}
	return status, seen, nil
}

func (b *backtester) step(i int) error {
	candle := b.candles[i]
	b.rc.setCandle(candle)

	for _, o := range b.config.policy.Sequence(Executable(b.rc.activeOrders(b.symbol), candle), candle) {
		if _, err := b.sandbox.execute(o); err != nil {
			return err
		}
	}

	base := b.strategy.core()
	base.candles = b.candles[:i+1]

	if base.Position().IsOpen() {
		b.strategy.UpdatePosition()
	} else if b.strategy.ShouldCancel() {
		b.sandbox.cancelEntryOrders(b.symbol)
	}

	if b.strategy.ShouldLong() {
		b.strategy.GoLong()
	}
	if b.strategy.ShouldShort() {
		b.strategy.GoShort()
	}

	err := b.placeIntents(base)
	base.clearIntents()
	if err != nil {
		return err
	}
	b.rc.recordBalance(SandboxExchange)
	b.rc.recordEquity(SandboxExchange, b.symbol)
	return nil
}

// placeIntents turns the step's intents into orders: market fills first, then
// the protective orders against whatever position those fills left.
func (b *backtester) placeIntents(base *Base) error {
	price := b.rc.Price()
	for _, in := range base.buy {
		if _, err := b.sandbox.MarketOrder(b.symbol, in.Qty, price, types.SideTypeBuy, false); err != nil {
			return fmt.Errorf("buy intent: %w", err)
		}
	}
	for _, in := range base.sell {
		if _, err := b.sandbox.MarketOrder(b.symbol, in.Qty, price, types.SideTypeSell, false); err != nil {
			return fmt.Errorf("sell intent: %w", err)
		}
	}

	if len(base.stopLoss) == 0 && len(base.takeProfit) == 0 {
		return nil
	}
	pos := base.Position()
	if !pos.IsOpen() {
		b.logger.Warn("dropping stop-loss/take-profit intents without an open position",
			zap.String("symbol", b.symbol),
			zap.Int("stop_loss", len(base.stopLoss)),
			zap.Int("take_profit", len(base.takeProfit)),
		)
		return nil
	}

	side := pos.Side().Opposite()
	for _, in := range base.stopLoss {
		if _, err := b.sandbox.StopOrder(b.symbol, orWhole(in, pos), in.Price, side, true); err != nil {
			return fmt.Errorf("stop-loss intent: %w", err)
		}
	}
	for _, in := range base.takeProfit {
		if _, err := b.sandbox.LimitOrder(b.symbol, orWhole(in, pos), in.Price, side, true); err != nil {
			return fmt.Errorf("take-profit intent: %w", err)
		}
	}
	return nil
}

func orWhole(in types.Intent, pos types.Position) decimal.Decimal {
	if in.Qty.IsZero() {
		return pos.Qty.Abs()
	}
	return in.Qty
}

// cancelled samples the context and the status probe. Probe failures are
// logged and treated as "keep going".
func (b *backtester) cancelled(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	if b.probe == nil {
		return false
	}
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	status, err := b.probe.Status(pctx, b.runID)
	if err != nil {
		b.logger.Warn("status probe failed", zap.Error(err))
		return false
	}
	return status != "" && !status.IsActive()
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
