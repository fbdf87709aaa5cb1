package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fullcount-labs/fullcount/internal/app"
	"github.com/fullcount-labs/fullcount/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the market server",
	Long: `Starts the fullcount market server, which will:
1. Serve the market REST API and websocket feed over HTTP
2. Price trades with the LMSR cost function
3. Drive market lifecycles from the oracle schedule when AUTOPLAY_FILE is set
4. Execute payouts against the settlement collaborator when SETTLEMENT_URL is set

Use --no-automation to ignore AUTOPLAY_FILE and drive markets manually.`,
	RunE: runServer,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("no-automation", false, "Disable oracle automation even when AUTOPLAY_FILE is set")
}

func runServer(cmd *cobra.Command, args []string) error {
	// A missing .env is fine; the environment may be set by the deployment.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	noAutomation, _ := cmd.Flags().GetBool("no-automation")

	application, err := app.New(cfg, logger, &app.Options{
		DisableAutomation: noAutomation,
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
