package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "fullcount",
	Short: "Pitch-by-pitch prediction market server",
	Long: `Fullcount runs binary ball/strike prediction markets priced by an LMSR
automated market maker. Each market walks PENDING -> OPEN -> CLOSED ->
RESOLVED, driven manually through the admin API or automatically by the
per-game oracle schedule, with live price and resolution events pushed to
websocket subscribers.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
