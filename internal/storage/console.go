package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/fullcount-labs/fullcount/pkg/types"
)

// ConsoleStorage implements Storage by printing to the console. Trades go
// through the structured log; resolutions get a settlement report table.
type ConsoleStorage struct {
	out    io.Writer
	logger *zap.Logger
}

// NewConsoleStorage creates a console storage writing to stdout.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		out:    os.Stdout,
		logger: logger,
	}
}

// StoreTrade logs an executed trade.
func (c *ConsoleStorage) StoreTrade(_ context.Context, receipt *types.TradeReceipt) error {
	c.logger.Info("trade-recorded",
		zap.String("market-id", receipt.MarketID),
		zap.String("bettor", receipt.Bettor.Hex()),
		zap.String("outcome", string(receipt.Outcome)),
		zap.Float64("share-delta", receipt.ShareDelta),
		zap.Float64("cost", receipt.Cost),
		zap.Float64("p-ball", receipt.PBall),
		zap.Float64("p-strike", receipt.PStrike))
	return nil
}

// StoreResolution prints a settlement report for the resolved market.
func (c *ConsoleStorage) StoreResolution(_ context.Context, result *types.ResolutionResult) error {
	fmt.Fprintf(c.out, "\nMARKET RESOLVED  %s  outcome=%s  total payout %.2f\n",
		result.MarketID, result.Outcome, result.TotalPayout)
	fmt.Fprintf(c.out, "resolution %s at %s\n\n",
		result.ID, result.ResolvedAt.Format("2006-01-02 15:04:05"))

	table := tablewriter.NewWriter(c.out)
	table.Header("Side", "Bettor", "Amount", "Session")

	for _, w := range result.Winners {
		table.Append("WIN", w.Address.Hex(), fmt.Sprintf("%+.2f", w.Payout), w.SessionRef)
	}
	for _, l := range result.Losers {
		table.Append("LOSS", l.Address.Hex(), fmt.Sprintf("%+.2f", -l.Loss), l.SessionRef)
	}

	table.Render()
	fmt.Fprintln(c.out)

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
