package engine

import (
	"errors"
	"fmt"
	"time"

	"fxbot/types"
)

var (
	ErrDataNotFound    = errors.New("no candles for requested range")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrOrderNotFound   = errors.New("order not found")
)

// DataNotFoundError aborts a run before the loop starts.
type DataNotFoundError struct {
	Exchange  string
	Symbol    string
	Timeframe types.Timeframe
	Start     time.Time
	End       time.Time
}

func (e *DataNotFoundError) Error() string {
	if e.Start.IsZero() && e.End.IsZero() {
		return fmt.Sprintf("no candles for %s on %s (%s)", e.Symbol, e.Exchange, e.Timeframe)
	}
	return fmt.Sprintf("no candles for %s on %s (%s) between %s and %s",
		e.Symbol, e.Exchange, e.Timeframe, e.Start.Format(time.DateOnly), e.End.Format(time.DateOnly))
}

func (e *DataNotFoundError) Unwrap() error { return ErrDataNotFound }

type InvalidInputError struct {
	Field string
	Value string
	Err   error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *InvalidInputError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidInput}
	}
	return []error{ErrInvalidInput, e.Err}
}

// ExecutionError wraps a failure raised while stepping. Trace holds the stack
// captured when a panic was recovered.
type ExecutionError struct {
	Message string
	Trace   string
	Err     error
}

func (e *ExecutionError) Error() string {
	return "backtest execution failed: " + e.Message
}

func (e *ExecutionError) Unwrap() error { return e.Err }
