package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"fxbot/types"
)

// WriteResultCSVFiles writes <prefix>_trades.csv and <prefix>_closed_trades.csv.
func WriteResultCSVFiles(prefix string, res *types.BacktestResult) error {
	if err := writeCSVFile(prefix+"_trades.csv", func(w io.Writer) error { return WriteTradesCSV(w, res.Trades) }); err != nil {
		return err
	}
	return writeCSVFile(prefix+"_closed_trades.csv", func(w io.Writer) error { return WriteClosedTradesCSV(w, res.ClosedTrades) })
}

func writeCSVFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	return write(f)
}

// WriteTradesCSV writes one row per fill.
func WriteTradesCSV(w io.Writer, trades []types.TradeRecord) error {
	cw := csv.NewWriter(w)

	header := []string{"timestamp", "time", "symbol", "side", "type", "qty", "price", "fee"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, tr := range trades {
		record := []string{
			strconv.FormatInt(tr.Timestamp, 10),
			formatMs(tr.Timestamp),
			tr.Symbol,
			string(tr.Side),
			string(tr.Type),
			tr.Qty.String(),
			tr.Price.String(),
			tr.Fee.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteClosedTradesCSV writes one row per closed (or partially closed) position.
func WriteClosedTradesCSV(w io.Writer, closed []types.ClosedTradeRecord) error {
	cw := csv.NewWriter(w)

	header := []string{"opened_at", "closed_at", "strategy", "side", "qty", "entry_price", "exit_price", "pnl", "leverage"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, ct := range closed {
		record := []string{
			formatMs(ct.OpenedAt),
			formatMs(ct.ClosedAt),
			ct.StrategyName,
			string(ct.Side),
			ct.Qty.String(),
			ct.EntryPrice.String(),
			ct.ExitPrice.String(),
			ct.PnL.String(),
			strconv.Itoa(ct.Leverage),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatMs(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
