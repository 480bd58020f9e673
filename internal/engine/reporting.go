package engine

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"fxbot/types"

	"github.com/shopspring/decimal"
)

type Report struct {
	// Meta / period info
	StartDate   time.Time     `json:"start_date"`
	TotalPeriod time.Duration `json:"total_period"`
	TotalTrades int           `json:"total_trades"`

	// Absolute performance
	NetProfit            decimal.Decimal `json:"net_profit"`
	NetAvgProfitPerTrade decimal.Decimal `json:"net_avg_profit_per_trade"`
	PnLPercent           decimal.Decimal `json:"pnl_percent"`
	CAGR                 decimal.Decimal `json:"cagr"`

	// Trade-level distribution metrics
	WinRate decimal.Decimal `json:"win_rate"`
	AvgWin  decimal.Decimal `json:"avg_win"`
	AvgLoss decimal.Decimal `json:"avg_loss"`

	// Drawdown & loss streak metrics
	MaxDrawdown          decimal.Decimal `json:"max_drawdown"`
	MaxDrawdownPercent   decimal.Decimal `json:"max_drawdown_percent"`
	MaxDrawdownDays      time.Duration   `json:"max_drawdown_duration"`
	MaxConsecutiveLosses int             `json:"max_consecutive_losses"`

	// Risk-adjusted metrics
	SharpeRatio  decimal.Decimal `json:"sharpe_ratio"`
	ProfitFactor decimal.Decimal `json:"profit_factor"`

	// Costs
	TotalFees decimal.Decimal `json:"total_fees"`
}

func PrintReport(w io.Writer, report *Report) {
	fmt.Fprintln(w, "===== Trading Report =====")
	fmt.Fprintf(w, "Start Date:            %s\n", report.StartDate.Format(time.DateOnly))
	fmt.Fprintf(w, "Total Period:          %d days\n", report.TotalPeriod/(24*time.Hour))
	fmt.Fprintf(w, "Total Trades:          %d\n", report.TotalTrades)

	fmt.Fprintln(w, "\n-- Absolute Performance --")
	fmt.Fprintf(w, "Net Profit:            %s\n", report.NetProfit.StringFixed(2))
	fmt.Fprintf(w, "Avg Profit/Trade:      %s\n", report.NetAvgProfitPerTrade.StringFixed(2))
	fmt.Fprintf(w, "PnL %%:                 %s\n", report.PnLPercent.StringFixed(2))
	fmt.Fprintf(w, "CAGR:                  %s\n", report.CAGR.StringFixed(4))

	fmt.Fprintln(w, "\n-- Trade-Level Metrics --")
	fmt.Fprintf(w, "Win Rate:              %s\n", report.WinRate.StringFixed(4))
	fmt.Fprintf(w, "Avg Win:               %s\n", report.AvgWin.StringFixed(2))
	fmt.Fprintf(w, "Avg Loss:              %s\n", report.AvgLoss.StringFixed(2))

	fmt.Fprintln(w, "\n-- Drawdown Metrics --")
	fmt.Fprintf(w, "Max Drawdown:          %s\n", report.MaxDrawdown.StringFixed(2))
	fmt.Fprintf(w, "Max Drawdown %%:        %s\n", report.MaxDrawdownPercent.StringFixed(4))
	fmt.Fprintf(w, "Max Drawdown Days:     %v\n", report.MaxDrawdownDays)
	fmt.Fprintf(w, "Max Consecutive Losses:%d\n", report.MaxConsecutiveLosses)

	fmt.Fprintln(w, "\n-- Risk-Adjusted Metrics --")
	fmt.Fprintf(w, "Sharpe Ratio:          %s\n", report.SharpeRatio.StringFixed(4))
	fmt.Fprintf(w, "Profit Factor:         %s\n", report.ProfitFactor.StringFixed(4))

	fmt.Fprintln(w, "\n-- Costs --")
	fmt.Fprintf(w, "Total Fees:            %s\n", report.TotalFees.StringFixed(2))

	fmt.Fprintln(w, "==========================")
}

// NewReport summarises a finished or cancelled run. Drawdown, CAGR and Sharpe
// run on the marked-to-market equity series starting from the initial balance.
func NewReport(res *types.BacktestResult) *Report {
	equity := equityCurve(res)

	report := &Report{}
	report.TotalTrades = len(res.ClosedTrades)
	report.PnLPercent = types.PnLPercent(res.InitialBalance, res.FinalBalance)
	if len(equity) > 0 {
		report.StartDate = time.UnixMilli(equity[0].Timestamp).UTC()
		report.TotalPeriod = time.Duration(equity[len(equity)-1].Timestamp-equity[0].Timestamp) * time.Millisecond
	}

	var wg sync.WaitGroup
	wg.Add(7)
	go func() {
		report.TotalFees = calcTotalFees(res.Trades, &wg)
	}()
	go func() {
		report.NetProfit, report.NetAvgProfitPerTrade = calcNetProfit(res.ClosedTrades, res.Trades, &wg)
	}()
	go func() {
		report.WinRate, report.AvgWin, report.AvgLoss, report.ProfitFactor = calcWinLoss(res.ClosedTrades, &wg)
	}()
	go func() {
		report.CAGR = calcCAGR(equity, &wg)
	}()
	go func() {
		report.MaxDrawdown, report.MaxDrawdownPercent, report.MaxDrawdownDays = calcDrawdownMetrics(equity, &wg)
	}()
	go func() {
		report.MaxConsecutiveLosses = calcMaxConsecutiveLosses(res.ClosedTrades, &wg)
	}()
	go func() {
		report.SharpeRatio = calcSharpeRatio(equity, decimal.Zero, &wg)
	}()
	wg.Wait()

	return report
}

// equityCurve prefers the marked-to-market series and falls back to cash
// balances for results that carry none.
func equityCurve(res *types.BacktestResult) []types.BalancePoint {
	points := res.Equity
	if len(points) == 0 {
		points = res.Balances
	}
	if len(points) == 0 {
		return nil
	}
	out := make([]types.BalancePoint, 0, len(points)+1)
	if !points[0].Balance.Equal(res.InitialBalance) {
		out = append(out, types.BalancePoint{Timestamp: points[0].Timestamp, Balance: res.InitialBalance})
	}
	return append(out, points...)
}

func calcTotalFees(trades []types.TradeRecord, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()
	total := decimal.Zero
	for _, tr := range trades {
		total = total.Add(tr.Fee)
	}
	return total
}

// calcNetProfit nets realized pnl against every fee paid, including fees of
// fills whose position is still open.
func calcNetProfit(closed []types.ClosedTradeRecord, trades []types.TradeRecord, wg *sync.WaitGroup) (decimal.Decimal, decimal.Decimal) {
	defer wg.Done()

	gross := decimal.Zero
	for _, ct := range closed {
		gross = gross.Add(ct.PnL)
	}
	fees := decimal.Zero
	for _, tr := range trades {
		fees = fees.Add(tr.Fee)
	}
	net := gross.Sub(fees)
	if len(closed) == 0 {
		return net, decimal.Zero
	}
	return net, net.Div(decimal.NewFromInt(int64(len(closed))))
}

func calcWinLoss(closed []types.ClosedTradeRecord, wg *sync.WaitGroup) (winRate, avgWin, avgLoss, profitFactor decimal.Decimal) {
	defer wg.Done()

	sumWins := decimal.Zero
	sumLosses := decimal.Zero // store absolute loss amounts
	winCount := 0
	lossCount := 0

	for _, ct := range closed {
		switch {
		case ct.PnL.GreaterThan(decimal.Zero):
			sumWins = sumWins.Add(ct.PnL)
			winCount++
		case ct.PnL.LessThan(decimal.Zero):
			sumLosses = sumLosses.Add(ct.PnL.Abs())
			lossCount++
		}
	}

	winRate, avgWin, avgLoss, profitFactor = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	if len(closed) > 0 {
		winRate = decimal.NewFromInt(int64(winCount)).Div(decimal.NewFromInt(int64(len(closed))))
	}
	if winCount > 0 {
		avgWin = sumWins.Div(decimal.NewFromInt(int64(winCount)))
	}
	if lossCount > 0 {
		avgLoss = sumLosses.Div(decimal.NewFromInt(int64(lossCount)))
		profitFactor = sumWins.Div(sumLosses)
	}
	return winRate, avgWin, avgLoss, profitFactor
}

func calcCAGR(equity []types.BalancePoint, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()
	if len(equity) < 2 {
		return decimal.Zero
	}

	start := equity[0]
	end := equity[len(equity)-1]

	// If starting value is <= 0, CAGR is not well-defined
	if !start.Balance.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}

	// time difference in years (using 365.25 days to account for leap years)
	duration := time.Duration(end.Timestamp-start.Timestamp) * time.Millisecond
	years := duration.Hours() / (24.0 * 365.25)
	if years <= 0 {
		return decimal.Zero
	}

	ratio := end.Balance.Div(start.Balance)
	if !ratio.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}

	cagrFloat := math.Pow(ratio.InexactFloat64(), 1.0/years) - 1.0
	// sub-day runs can overflow the exponent
	if math.IsInf(cagrFloat, 0) || math.IsNaN(cagrFloat) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(cagrFloat)
}

func calcDrawdownMetrics(equity []types.BalancePoint, wg *sync.WaitGroup) (decimal.Decimal, decimal.Decimal, time.Duration) {
	defer wg.Done()

	if len(equity) == 0 {
		return decimal.Zero, decimal.Zero, 0
	}

	peak := decimal.Zero
	var peakTime int64

	maxDD := decimal.Zero
	maxDDPct := decimal.Zero
	var maxDDDuration time.Duration

	for i, point := range equity {
		if i == 0 || point.Balance.GreaterThan(peak) {
			peak = point.Balance
			peakTime = point.Timestamp
		}

		if peak.GreaterThan(decimal.Zero) {
			dd := peak.Sub(point.Balance)
			if dd.GreaterThan(maxDD) {
				maxDD = dd
				maxDDPct = dd.Div(peak).Mul(decimal.NewFromInt(100))
				maxDDDuration = time.Duration(point.Timestamp-peakTime) * time.Millisecond
			}
		}
	}

	return maxDD, maxDDPct, maxDDDuration
}

func calcMaxConsecutiveLosses(closed []types.ClosedTradeRecord, wg *sync.WaitGroup) int {
	defer wg.Done()

	ordered := append([]types.ClosedTradeRecord(nil), closed...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ClosedAt < ordered[j].ClosedAt
	})

	maxLossStreak := 0
	currentStreak := 0
	for _, ct := range ordered {
		if ct.PnL.LessThan(decimal.Zero) {
			currentStreak++
			maxLossStreak = max(maxLossStreak, currentStreak)
		} else {
			currentStreak = 0
		}
	}
	return maxLossStreak
}

func calcSharpeRatio(equity []types.BalancePoint, annualRiskFree decimal.Decimal, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()
	monthlyReturns := getMonthlyReturns(equity)
	if len(monthlyReturns) < 2 {
		// Need at least 2 months to compute stddev
		return decimal.Zero
	}

	// rf_monthly = (1 + rf_annual)^(1/12) - 1
	rfMonthlyFloat := math.Pow(1.0+annualRiskFree.InexactFloat64(), 1.0/12.0) - 1.0

	excess := make([]float64, 0, len(monthlyReturns))
	for _, r := range monthlyReturns {
		excess = append(excess, r.InexactFloat64()-rfMonthlyFloat)
	}

	var sum float64
	for _, x := range excess {
		sum += x
	}
	mean := sum / float64(len(excess))

	var varianceSum float64
	for _, x := range excess {
		diff := x - mean
		varianceSum += diff * diff
	}
	stdMonthly := math.Sqrt(varianceSum / float64(len(excess)-1))
	if stdMonthly == 0 {
		return decimal.Zero
	}

	// Monthly Sharpe, annualized by sqrt(12)
	return decimal.NewFromFloat(mean / stdMonthly * math.Sqrt(12.0))
}

// getMonthlyReturns uses the last balance of each calendar month. The series
// is assumed to be in chronological order.
func getMonthlyReturns(equity []types.BalancePoint) []decimal.Decimal {
	var monthEnds []decimal.Decimal
	lastKey := -1
	for _, point := range equity {
		t := time.UnixMilli(point.Timestamp).UTC()
		key := t.Year()*12 + int(t.Month())
		if key != lastKey {
			monthEnds = append(monthEnds, point.Balance)
			lastKey = key
			continue
		}
		monthEnds[len(monthEnds)-1] = point.Balance
	}

	if len(monthEnds) < 2 {
		return nil
	}

	returns := make([]decimal.Decimal, 0, len(monthEnds)-1)
	prev := monthEnds[0]
	for _, curr := range monthEnds[1:] {
		if !prev.GreaterThan(decimal.Zero) {
			prev = curr
			continue
		}
		returns = append(returns, curr.Div(prev).Sub(decimal.NewFromInt(1)))
		prev = curr
	}
	return returns
}
