package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fxbot/internal/engine"
	"fxbot/types"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFinished = errors.New("session already finished")
)

// Store keeps backtest sessions in a SQL database through gorm. It also acts
// as the engine's status probe.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (or creates) a SQLite database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, fmt.Errorf("open sessions db %s: %w", path, err)
	}
	return NewStore(db, logger)
}

func NewStore(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if err := db.AutoMigrate(&BacktestSession{}); err != nil {
		return nil, fmt.Errorf("migrate sessions: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}, nil
}

// Create records a new queued session for req.
func (s *Store) Create(ctx context.Context, id string, req engine.RunRequest) error {
	sess := &BacktestSession{
		ID:        id,
		Status:    types.RunQueued,
		Exchange:  req.Exchange,
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Strategy:  req.Strategy,
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return fmt.Errorf("create session %s: %w", id, err)
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, id string, status types.RunStatus) error {
	return s.update(ctx, id, map[string]any{"status": status})
}

// Status implements engine.StatusProbe.
func (s *Store) Status(ctx context.Context, id string) (types.RunStatus, error) {
	var sess BacktestSession
	err := s.db.WithContext(ctx).Select("status").Where("id = ?", id).Take(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return "", err
	}
	return sess.Status, nil
}

// Complete stores a finished (completed or cancelled) result with its report.
func (s *Store) Complete(ctx context.Context, id string, res *types.BacktestResult) error {
	trades, err := encodeJSON(res.Trades)
	if err != nil {
		return err
	}
	closed, err := encodeJSON(res.ClosedTrades)
	if err != nil {
		return err
	}
	balances, err := encodeJSON(res.Balances)
	if err != nil {
		return err
	}
	equity, err := encodeJSON(res.Equity)
	if err != nil {
		return err
	}
	report, err := encodeJSON(engine.NewReport(res))
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.update(ctx, id, map[string]any{
		"status":          res.Status,
		"initial_balance": res.InitialBalance,
		"final_balance":   res.FinalBalance,
		"pnl_percent":     res.PnLPercent,
		"trades":          trades,
		"closed_trades":   closed,
		"balances":        balances,
		"equity":          equity,
		"metrics":         report,
		"completed_at":    &now,
	})
}

func (s *Store) Fail(ctx context.Context, id, message, trace string) error {
	now := time.Now().UTC()
	return s.update(ctx, id, map[string]any{
		"status":        types.RunFailed,
		"error_message": message,
		"error_trace":   trace,
		"completed_at":  &now,
	})
}

// Cancel marks a queued or processing session cancelled. The running loop
// notices on its next status check.
func (s *Store) Cancel(ctx context.Context, id string) error {
	tx := s.db.WithContext(ctx).Model(&BacktestSession{}).
		Where("id = ? AND status IN ?", id, []types.RunStatus{types.RunQueued, types.RunProcessing}).
		Update("status", types.RunCancelled)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("cancel %s: %w", id, ErrSessionFinished)
	}
	s.logger.Info("session cancelled", zap.String("id", id))
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*BacktestSession, error) {
	var sess BacktestSession
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// List returns sessions newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]BacktestSession, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []BacktestSession
	err := s.db.WithContext(ctx).
		Omit("trades", "closed_trades", "balances", "equity", "error_trace").
		Order("created_at DESC").Order("id").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tx := s.db.WithContext(ctx).Where("id = ?", id).Delete(&BacktestSession{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	return nil
}

func (s *Store) update(ctx context.Context, id string, fields map[string]any) error {
	tx := s.db.WithContext(ctx).Model(&BacktestSession{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return fmt.Errorf("update session %s: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	return nil
}
