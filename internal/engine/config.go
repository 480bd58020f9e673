package engine

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	SandboxExchange = "Sandbox"

	defaultWarmup     = 50
	defaultCancelStep = 100
)

var (
	defaultInitialBalance = decimal.NewFromInt(10000)
	defaultFeeRate        = decimal.RequireFromString("0.001")
)

// RunConfig holds the run-level constants of a simulation.
type RunConfig struct {
	initialBalance decimal.Decimal
	feeRate        decimal.Decimal
	warmup         int
	cancelEvery    int
	showProgress   bool
	policy         FillPolicy
}

// NewRunConfig applies defaults for zero or negative values.
func NewRunConfig(initialBalance, feeRate decimal.Decimal, warmup, cancelEvery int) *RunConfig {
	if !initialBalance.IsPositive() {
		initialBalance = defaultInitialBalance
	}
	if feeRate.IsNegative() {
		feeRate = defaultFeeRate
	}
	if warmup < 0 {
		warmup = defaultWarmup
	}
	if cancelEvery <= 0 {
		cancelEvery = defaultCancelStep
	}
	return &RunConfig{
		initialBalance: initialBalance,
		feeRate:        feeRate,
		warmup:         warmup,
		cancelEvery:    cancelEvery,
		policy:         OHLCPathPolicy{},
	}
}

func DefaultRunConfig() *RunConfig {
	return NewRunConfig(defaultInitialBalance, defaultFeeRate, defaultWarmup, defaultCancelStep)
}

func (c *RunConfig) WithProgress(show bool) *RunConfig {
	c.showProgress = show
	return c
}

func (c *RunConfig) WithFillPolicy(policy FillPolicy) *RunConfig {
	if policy != nil {
		c.policy = policy
	}
	return c
}

func (c *RunConfig) InitialBalance() decimal.Decimal { return c.initialBalance }
func (c *RunConfig) FeeRate() decimal.Decimal        { return c.feeRate }
func (c *RunConfig) Warmup() int                     { return c.warmup }

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
