package cmd

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fullcount-labs/fullcount/internal/engine"
	"github.com/fullcount-labs/fullcount/internal/ledger"
	"github.com/fullcount-labs/fullcount/internal/oracle"
	"github.com/fullcount-labs/fullcount/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run an offline automated game",
	Long: `Runs a self-contained game without a server: markets are created, traded
by scripted bettors, closed and resolved with oracle-drawn outcomes, and the
settlement report is printed per market and per bettor.`,
	RunE: runSimulation,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Int("markets", 9, "Number of pitches to simulate")
	simulateCmd.Flags().Int("bettors", 4, "Number of scripted bettors")
	simulateCmd.Flags().Float64("liquidity", 100, "LMSR liquidity parameter b")
	simulateCmd.Flags().Uint64("seed", 1, "Random seed for outcomes and trades")
}

type simReport struct {
	market  types.Market
	trades  int
	outcome types.Outcome
	payout  float64
}

func runSimulation(cmd *cobra.Command, args []string) error {
	markets, _ := cmd.Flags().GetInt("markets")
	bettorCount, _ := cmd.Flags().GetInt("bettors")
	liquidity, _ := cmd.Flags().GetFloat64("liquidity")
	seed, _ := cmd.Flags().GetUint64("seed")

	if markets <= 0 || bettorCount <= 0 {
		return fmt.Errorf("markets and bettors must be positive")
	}

	logger := zap.NewNop()
	led := ledger.New(logger)
	eng := engine.New(&engine.Config{Logger: logger, Ledger: led})

	rng := rand.New(rand.NewPCG(seed, 0))
	outcomes := oracle.NewRandomSource(rand.New(rand.NewPCG(seed, 1)))

	return simulateGame(os.Stdout, eng, led, rng, outcomes, markets, bettorCount, liquidity)
}

func simulateGame(
	out io.Writer,
	eng *engine.Engine,
	led *ledger.Ledger,
	rng *rand.Rand,
	outcomes oracle.OutcomeSource,
	markets, bettorCount int,
	liquidity float64,
) error {
	bettors := make([]common.Address, bettorCount)
	for i := range bettors {
		bettors[i][19] = byte(i + 1)
	}

	costPaid := make(map[common.Address]float64)
	payouts := make(map[common.Address]float64)
	reports := make([]simReport, 0, markets)

	for i := 0; i < markets; i++ {
		market, err := eng.CreateMarket("simulated-game",
			fmt.Sprintf("Pitch %d: ball or strike?", i+1), liquidity)
		if err != nil {
			return fmt.Errorf("create market: %w", err)
		}
		if _, err := eng.Open(market.ID); err != nil {
			return fmt.Errorf("open market: %w", err)
		}

		trades := 0
		for t := 0; t < 2*bettorCount; t++ {
			bettor := bettors[rng.IntN(bettorCount)]
			outcome := types.OutcomeBall
			if rng.IntN(2) == 1 {
				outcome = types.OutcomeStrike
			}
			delta := float64(rng.IntN(10) + 1)

			if _, err := eng.ApplyTrade(market.ID, bettor, outcome, delta); err != nil {
				return fmt.Errorf("apply trade: %w", err)
			}
			trades++
		}

		if _, err := eng.Close(market.ID); err != nil {
			return fmt.Errorf("close market: %w", err)
		}

		outcome, err := outcomes.Next()
		if err != nil {
			return fmt.Errorf("draw outcome: %w", err)
		}
		result, err := eng.Resolve(market.ID, outcome)
		if err != nil {
			return fmt.Errorf("resolve market: %w", err)
		}

		for _, winner := range result.Winners {
			payouts[winner.Address] += winner.Payout
		}
		for _, pos := range led.Snapshot(market.ID) {
			costPaid[pos.Bettor] += pos.CostPaid
		}

		final, err := eng.Get(market.ID)
		if err != nil {
			return fmt.Errorf("get market: %w", err)
		}
		reports = append(reports, simReport{
			market:  final,
			trades:  trades,
			outcome: outcome,
			payout:  result.TotalPayout,
		})
	}

	printSimulationReport(out, reports, bettors, costPaid, payouts)
	return nil
}

func printSimulationReport(
	out io.Writer,
	reports []simReport,
	bettors []common.Address,
	costPaid, payouts map[common.Address]float64,
) {
	fmt.Fprintf(out, "\nSimulated %d pitches\n\n", len(reports))

	table := tablewriter.NewWriter(out)
	table.Header("Pitch", "Outcome", "Trades", "Pool BALL", "Pool STRIKE", "Payout")
	for i, r := range reports {
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(r.outcome),
			fmt.Sprintf("%d", r.trades),
			fmt.Sprintf("%.1f", r.market.QBall),
			fmt.Sprintf("%.1f", r.market.QStrike),
			fmt.Sprintf("%.2f", r.payout),
		)
	}
	table.Render()

	fmt.Fprintln(out)

	pnl := tablewriter.NewWriter(out)
	pnl.Header("Bettor", "Cost Paid", "Payout", "Net")
	for _, bettor := range bettors {
		cost := costPaid[bettor]
		won := payouts[bettor]
		pnl.Append(
			bettor.Hex(),
			fmt.Sprintf("%.2f", cost),
			fmt.Sprintf("%.2f", won),
			fmt.Sprintf("%+.2f", won-cost),
		)
	}
	pnl.Render()
	fmt.Fprintln(out)
}
