package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"conciliador/internal/config"
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Print the accepted column headers",
	Long: `Print the header aliases accepted for every input column, in matching order.

The output is a valid column map file: copy it, add aliases and pass it back
with --columns or COLUMN_MAP_FILE. Aliases from the file are tried before the
built-in ones. Matching ignores case, accents and punctuation.`,
	Example: `  # Built-in aliases
  conciliador columns

  # Aliases after merging a custom file
  conciliador columns --columns columnas.yaml`,
	RunE: runColumns,
}

func init() {
	rootCmd.AddCommand(columnsCmd)

	columnsCmd.Flags().String("columns", "", "YAML file with extra column aliases (default: COLUMN_MAP_FILE)")
}

func runColumns(cmd *cobra.Command, args []string) error {
	const op = "columns"

	columns, err := config.LoadColumnMap(stringFlag(cmd, "columns", cfg.ColumnMapFile))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	data, err := yaml.Marshal(columns)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal column map: %w", op, err)
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
