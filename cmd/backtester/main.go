package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"fxbot/internal/config"
	"fxbot/internal/engine"
	"fxbot/internal/exchange/binance"
	"fxbot/internal/logger"
	"fxbot/internal/repository"
	"fxbot/internal/scheduler"
	"fxbot/internal/session"
	"fxbot/strategies"
	"fxbot/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	mode       string
	exchange   string
	symbol     string
	timeframe  string
	start      string
	end        string
	strategies string
	csvPrefix  string
	metricsOut string
	limit      int
	cancelID   string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to config.yaml (default ./config.yaml if present)")
	flag.StringVar(&o.mode, "mode", "backtest", "backtest | import | sessions")
	flag.StringVar(&o.exchange, "exchange", binance.Name, "exchange the candles were imported from")
	flag.StringVar(&o.symbol, "symbol", "BTC-USDT", "unified symbol, e.g. BTC-USDT")
	flag.StringVar(&o.timeframe, "timeframe", string(types.Hour), "candle timeframe")
	flag.StringVar(&o.start, "start", "", "first day, YYYY-MM-DD")
	flag.StringVar(&o.end, "end", "", "last day (inclusive), YYYY-MM-DD")
	flag.StringVar(&o.strategies, "strategy", "SimpleStrategy", "comma separated strategy names: "+strings.Join(strategies.Names(), ", "))
	flag.StringVar(&o.csvPrefix, "csv", "", "write <prefix>_<run>_trades.csv and _closed_trades.csv")
	flag.StringVar(&o.metricsOut, "metrics-out", "", "write prometheus metrics to this textfile on exit")
	flag.IntVar(&o.limit, "limit", 20, "sessions mode: number of sessions to list")
	flag.StringVar(&o.cancelID, "cancel", "", "sessions mode: cancel this session")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch opts.mode {
	case "backtest":
		err = runBacktests(ctx, cfg, opts, log)
	case "import":
		err = runImport(ctx, cfg, opts, log)
	case "sessions":
		err = runSessions(ctx, cfg, opts)
	default:
		err = fmt.Errorf("unknown mode %q", opts.mode)
	}

	if opts.metricsOut != "" {
		if werr := prometheus.WriteToTextfile(opts.metricsOut, prometheus.DefaultGatherer); werr != nil {
			log.Warn("write metrics", zap.Error(werr))
		}
	}
	if err != nil {
		log.Error("exiting", zap.String("mode", opts.mode), zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func openTracker(cfg *config.Config, log *zap.Logger) (scheduler.Tracker, *session.Store, error) {
	store, err := session.Open(cfg.Sessions.Path, log)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Redis.Addr == "" {
		return store, store, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return session.NewMirror(store, session.NewRedisStatus(client, cfg.Redis.StatusTTL)), store, nil
}

type candleStore interface {
	GetCandles(ctx context.Context, exchange, symbol string, timeframe types.Timeframe, startMs, endMs int64) ([]types.Candle, error)
}

func runBacktests(ctx context.Context, cfg *config.Config, opts options, log *zap.Logger) error {
	var store candleStore
	if cfg.Database.URL != "" {
		db, err := repository.NewDatabase(ctx, cfg.Database.URL, log)
		if err != nil {
			return fmt.Errorf("connect candle store: %w", err)
		}
		defer db.Close()
		store = db
	} else {
		mem, err := fetchIntoMemory(ctx, cfg, opts, log)
		if err != nil {
			return err
		}
		store = mem
	}

	tracker, _, err := openTracker(cfg, log)
	if err != nil {
		return err
	}

	eng := engine.NewEngine(store, strategies.Resolve, tracker, cfg.RunConfig(), log)
	sched := scheduler.New(eng, tracker, cfg.Backtest.MaxConcurrent, log)

	var ids []string
	for _, name := range strings.Split(opts.strategies, ",") {
		id, err := sched.Submit(ctx, engine.RunRequest{
			Exchange:  opts.exchange,
			Symbol:    opts.symbol,
			Timeframe: opts.timeframe,
			StartDate: opts.start,
			EndDate:   opts.end,
			Strategy:  strings.TrimSpace(name),
		})
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	sched.Wait()

	var failed int
	for _, id := range ids {
		out, _ := sched.Outcome(id)
		if out.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "run %s failed: %v\n", id, out.Err)
			continue
		}
		if out.Result == nil {
			fmt.Printf("run %s %s\n", id, out.Status)
			continue
		}
		fmt.Printf("\nrun %s  strategy %s  status %s  final balance %s (%s%%)\n",
			id, out.Result.Strategy, out.Status,
			out.Result.FinalBalance.StringFixed(2), out.Result.PnLPercent.StringFixed(2))
		engine.PrintReport(os.Stdout, engine.NewReport(out.Result))

		if opts.csvPrefix != "" {
			prefix := fmt.Sprintf("%s_%s", opts.csvPrefix, id)
			if err := engine.WriteResultCSVFiles(prefix, out.Result); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(ids))
	}
	return nil
}

// fetchIntoMemory downloads the requested range from Binance when there is no
// database to read it from.
func fetchIntoMemory(ctx context.Context, cfg *config.Config, opts options, log *zap.Logger) (*repository.MemoryStore, error) {
	if opts.exchange != binance.Name {
		return nil, fmt.Errorf("database.url is not configured and %s candles cannot be fetched", opts.exchange)
	}
	tf, startMs, endMs, err := importRange(opts)
	if err != nil {
		return nil, err
	}
	log.Info("no database configured, fetching candles", zap.String("symbol", opts.symbol), zap.String("timeframe", string(tf)))
	candles, err := binance.New(cfg.Exchange.Timeout, log).FetchOHLCV(ctx, opts.symbol, tf, startMs, endMs)
	if err != nil {
		return nil, err
	}
	mem := repository.NewMemoryStore()
	if err := mem.UpsertCandles(ctx, binance.Name, opts.symbol, tf, candles); err != nil {
		return nil, err
	}
	return mem, nil
}

// importRange turns the -start/-end days into a millisecond range covering
// the whole end day. A missing end means now.
func importRange(opts options) (types.Timeframe, int64, int64, error) {
	tf, err := types.ParseTimeframe(opts.timeframe)
	if err != nil {
		return "", 0, 0, err
	}
	start, err := time.ParseInLocation(time.DateOnly, opts.start, time.UTC)
	if err != nil {
		return "", 0, 0, fmt.Errorf("start: %w", err)
	}
	end := time.Now().UTC()
	if opts.end != "" {
		day, err := time.ParseInLocation(time.DateOnly, opts.end, time.UTC)
		if err != nil {
			return "", 0, 0, fmt.Errorf("end: %w", err)
		}
		end = day.Add(24*time.Hour - time.Millisecond)
	}
	return tf, start.UnixMilli(), end.UnixMilli(), nil
}

func runImport(ctx context.Context, cfg *config.Config, opts options, log *zap.Logger) error {
	if cfg.Database.URL == "" {
		return errors.New("database.url is not configured")
	}
	tf, startMs, endMs, err := importRange(opts)
	if err != nil {
		return err
	}

	db, err := repository.NewDatabase(ctx, cfg.Database.URL, log)
	if err != nil {
		return fmt.Errorf("connect candle store: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	market, err := db.GetMarket(ctx, binance.Name, opts.symbol, tf)
	switch {
	case err == nil && market.LastMs >= startMs:
		startMs = market.LastMs + tf.Duration().Milliseconds()
		log.Info("resuming import", zap.Int64("stored", market.Candles), zap.Time("from", time.UnixMilli(startMs).UTC()))
	case err != nil && !errors.Is(err, repository.ErrMarketNotFound):
		return err
	}
	if startMs > endMs {
		log.Info("market is up to date", zap.String("symbol", opts.symbol))
		return nil
	}

	client := binance.New(cfg.Exchange.Timeout, log)
	candles, err := client.FetchOHLCV(ctx, opts.symbol, tf, startMs, endMs)
	if err != nil {
		return err
	}
	if err := db.UpsertCandles(ctx, binance.Name, opts.symbol, tf, candles); err != nil {
		return err
	}
	log.Info("import finished", zap.String("symbol", opts.symbol), zap.String("timeframe", string(tf)), zap.Int("candles", len(candles)))
	return nil
}

func runSessions(ctx context.Context, cfg *config.Config, opts options) error {
	tracker, store, err := openTracker(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	if opts.cancelID != "" {
		return tracker.Cancel(ctx, opts.cancelID)
	}

	sessions, err := store.List(ctx, opts.limit, 0)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSTRATEGY\tSYMBOL\tTIMEFRAME\tRANGE\tPNL %\tCREATED")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s..%s\t%s\t%s\n",
			s.ID, s.Status, s.Strategy, s.Symbol, s.Timeframe, s.StartDate, s.EndDate,
			s.PnLPercent.StringFixed(2), s.CreatedAt.Format(time.DateTime))
	}
	return w.Flush()
}
