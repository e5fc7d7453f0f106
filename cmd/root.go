package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"conciliador/internal/config"
	"conciliador/internal/logger"
)

var version = "1.0.0"

// cfg holds environment settings; flags override them per command
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "conciliador",
	Short: "Conciliador - matches customer payments against open invoices",
	Long: `Conciliador reads an invoice table and a payment table, allocates every
payment to the invoices it most likely settles and writes the resulting
balances, statuses and allocations.

Tables can be CSV, Excel (.xlsx, .xls) files or tabs of a Google Sheet.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("conciliador executed")

		fmt.Fprintln(cmd.OutOrStdout(), "Bienvenido a conciliador.")
		fmt.Fprintln(cmd.OutOrStdout(), "Use --help para ver los comandos disponibles.")
	},
}

// Execute runs the root command with the given configuration
func Execute(c *config.Config) {
	log := logger.WithComponent("cmd")

	if c != nil {
		cfg = c
	}

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
