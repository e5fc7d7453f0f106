package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"conciliador/internal/config"
	"conciliador/internal/logger"
	"conciliador/internal/reconciliation"
	"conciliador/internal/sheets"
	"conciliador/internal/table"
	"conciliador/pkg/services"
)

// WorkbookName is the file written for the xlsx output format
const WorkbookName = "conciliacion.xlsx"

var (
	errNoInput         = errors.New("either --invoices and --payments or --sheet-url is required")
	errSheetsNeedURL   = errors.New("--write-sheets requires --sheet-url")
	errInvalidFormat   = errors.New("--format must be csv, xlsx or both")
	errIncompleteFiles = errors.New("--invoices and --payments must be given together")
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Allocate payments to invoices and write balances and allocations",
	Long: `Allocate every payment to the invoices it most likely settles.

Each payment is applied in three passes: invoices whose number appears in the
payment description, then open invoices of the same client oldest first, then
any open invoice oldest first. Whatever cannot be applied is reported as
unallocated.

Input comes either from two files (.csv, .xlsx, .xls) or from two tabs of a
Google Sheet. Three tables are produced: facturas_resultado, pagos_resultado
and asignaciones. Nothing is written when the run fails.

Environment variables (flags take precedence):
  OUTPUT_DIR, OUTPUT_FORMAT, COLUMN_MAP_FILE
  GOOGLE_SHEET_URL, INVOICES_SHEET, PAYMENTS_SHEET, SHEETS_TIMEOUT
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Reconcile two local files as of today
  conciliador reconcile --invoices facturas.xlsx --payments pagos.csv

  # Fixed reference date, CSV and Excel output
  conciliador reconcile --invoices facturas.csv --payments pagos.csv --as-of 2024-06-30 --format both

  # Read from a Google Sheet and write the results back as new tabs
  conciliador reconcile --sheet-url https://docs.google.com/spreadsheets/d/<id>/edit --write-sheets

  # Only print the summary
  conciliador reconcile --invoices facturas.csv --payments pagos.csv --dry-run --json`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	addReconcileFlags(reconcileCmd)
}

func addReconcileFlags(cmd *cobra.Command) {
	cmd.Flags().String("invoices", "", "Invoice table file (.csv, .xlsx, .xls)")
	cmd.Flags().String("payments", "", "Payment table file (.csv, .xlsx, .xls)")
	cmd.Flags().String("sheet-url", "", "Google Sheets URL holding the invoice and payment tabs")
	cmd.Flags().String("invoices-sheet", "", "Tab with the invoices (default: INVOICES_SHEET or Facturas)")
	cmd.Flags().String("payments-sheet", "", "Tab with the payments (default: PAYMENTS_SHEET or Pagos)")
	cmd.Flags().Bool("write-sheets", false, "Write the result tables as tabs of the Google Sheet")
	cmd.Flags().String("as-of", "", "Reference date for overdue days (format: YYYY-MM-DD, default: today)")
	cmd.Flags().String("out-dir", "", "Output directory (default: OUTPUT_DIR or resultado)")
	cmd.Flags().String("format", "", "Output format: csv, xlsx or both (default: OUTPUT_FORMAT or csv)")
	cmd.Flags().String("columns", "", "YAML file with extra column aliases (default: COLUMN_MAP_FILE)")
	cmd.Flags().Bool("dry-run", false, "Reconcile and print the summary without writing output")
	cmd.Flags().Bool("json", false, "Print the summary as JSON")
}

// reconcileOptions is the merged view of flags and configuration
type reconcileOptions struct {
	InvoicesPath  string
	PaymentsPath  string
	SheetURL      string
	InvoicesSheet string
	PaymentsSheet string
	WriteSheets   bool
	AsOf          time.Time
	OutDir        string
	Format        string
	ColumnsFile   string
	DryRun        bool
	JSON          bool
	Timeout       time.Duration
}

func (o reconcileOptions) fromFiles() bool {
	return o.InvoicesPath != "" && o.PaymentsPath != ""
}

func (o reconcileOptions) writesCSV() bool {
	return o.Format == "csv" || o.Format == "both"
}

func (o reconcileOptions) writesXLSX() bool {
	return o.Format == "xlsx" || o.Format == "both"
}

func runReconcile(cmd *cobra.Command, args []string) error {
	const op = "reconcile"
	log := logger.WithComponent("reconcile")

	opts, err := reconcileOptionsFromFlags(cmd, cfg, time.Now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	columns, err := config.LoadColumnMap(opts.ColumnsFile)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info().
		Str("as_of", opts.AsOf.Format("2006-01-02")).
		Bool("from_files", opts.fromFiles()).
		Bool("dry_run", opts.DryRun).
		Str("format", opts.Format).
		Msg("Starting reconciliation run")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var sheetsService *sheets.Service
	if opts.SheetURL != "" && (!opts.fromFiles() || opts.WriteSheets) {
		sheetsService, err = sheets.NewSheetsService(ctx, opts.SheetURL, cfg.GoogleApplicationCredentials, cfg.GoogleCredentials)
		if err != nil {
			return fmt.Errorf("%s: failed to initialize Google Sheets service: %w", op, err)
		}
		log.Info().Msg("Google Sheets service initialized successfully")
	}

	invoices, payments, err := readInputs(ctx, opts, sheetsService)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	outcome, err := reconciliation.NewService(columns).Run(invoices, payments, opts.AsOf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if opts.DryRun {
		log.Info().Msg("Dry run mode: no output written")
		return printSummary(cmd.OutOrStdout(), outcome.Result.Summary, nil, opts.JSON)
	}

	written, err := writeOutputs(opts.OutDir, opts, outcome.Tables)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if opts.WriteSheets {
		writeCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		if err := sheetsService.WriteTables(writeCtx, outcome.Tables...); err != nil {
			return fmt.Errorf("%s: failed to write result tabs: %w", op, err)
		}
		for _, t := range outcome.Tables {
			written = append(written, "sheet:"+t.Name)
		}
	}

	log.Info().
		Str("run_id", outcome.Result.Summary.RunID).
		Strs("outputs", written).
		Msg("Reconciliation run completed")

	return printSummary(cmd.OutOrStdout(), outcome.Result.Summary, written, opts.JSON)
}

// reconcileOptionsFromFlags merges flags over the configuration. now is only
// read when --as-of is not given.
func reconcileOptionsFromFlags(cmd *cobra.Command, c *config.Config, now time.Time) (reconcileOptions, error) {
	flags := cmd.Flags()

	opts := reconcileOptions{
		InvoicesPath:  stringFlag(cmd, "invoices", ""),
		PaymentsPath:  stringFlag(cmd, "payments", ""),
		SheetURL:      stringFlag(cmd, "sheet-url", c.GoogleSheetURL),
		InvoicesSheet: stringFlag(cmd, "invoices-sheet", c.InvoicesSheet),
		PaymentsSheet: stringFlag(cmd, "payments-sheet", c.PaymentsSheet),
		OutDir:        stringFlag(cmd, "out-dir", c.OutputDir),
		Format:        strings.ToLower(stringFlag(cmd, "format", c.OutputFormat)),
		ColumnsFile:   stringFlag(cmd, "columns", c.ColumnMapFile),
		Timeout:       c.SheetsTimeout,
	}
	opts.WriteSheets, _ = flags.GetBool("write-sheets")
	opts.DryRun, _ = flags.GetBool("dry-run")
	opts.JSON, _ = flags.GetBool("json")

	if (opts.InvoicesPath == "") != (opts.PaymentsPath == "") {
		return opts, errIncompleteFiles
	}
	if !opts.fromFiles() && opts.SheetURL == "" {
		return opts, errNoInput
	}
	if opts.WriteSheets && opts.SheetURL == "" {
		return opts, errSheetsNeedURL
	}
	if !opts.writesCSV() && !opts.writesXLSX() {
		return opts, fmt.Errorf("%w: got %q", errInvalidFormat, opts.Format)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.Default().SheetsTimeout
	}

	asOf, err := parseAsOf(stringFlag(cmd, "as-of", ""), now)
	if err != nil {
		return opts, err
	}
	opts.AsOf = asOf

	return opts, nil
}

func stringFlag(cmd *cobra.Command, name, fallback string) string {
	value, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

// parseAsOf returns the reference date at midnight UTC
func parseAsOf(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	asOf, err := reconciliation.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of date. Use YYYY-MM-DD: %w", err)
	}
	return asOf, nil
}

func readInputs(ctx context.Context, opts reconcileOptions, sheetsService *sheets.Service) (*table.Table, *table.Table, error) {
	const op = "readInputs"

	if opts.fromFiles() {
		invoices, err := table.ReadFile(opts.InvoicesPath)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: invoices: %w", op, err)
		}
		payments, err := table.ReadFile(opts.PaymentsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: payments: %w", op, err)
		}
		return invoices, payments, nil
	}

	readCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	invoices, err := sheetsService.ReadTable(readCtx, opts.InvoicesSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: invoices: %w", op, err)
	}
	payments, err := sheetsService.ReadTable(readCtx, opts.PaymentsSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: payments: %w", op, err)
	}
	return invoices, payments, nil
}

// writeOutputs writes the result tables to dir and returns the written paths
func writeOutputs(dir string, opts reconcileOptions, tables []*table.Table) ([]string, error) {
	const op = "writeOutputs"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: failed to create output directory: %w", op, err)
	}

	var written []string
	if opts.writesCSV() {
		for _, t := range tables {
			path, err := table.WriteCSVFile(dir, t)
			if err != nil {
				return written, fmt.Errorf("%s: %w", op, err)
			}
			written = append(written, path)
		}
	}
	if opts.writesXLSX() {
		path := filepath.Join(dir, WorkbookName)
		if err := table.WriteWorkbookFile(path, tables...); err != nil {
			return written, fmt.Errorf("%s: %w", op, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func printSummary(w io.Writer, s services.Summary, written []string, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "                    CONCILIACIÓN")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Fecha de corte: %s\n", s.AsOf.Format("2006-01-02"))
	fmt.Fprintf(w, "Facturas: %d (pagadas %d, parciales %d, pendientes %d, en mora %d)\n",
		s.Invoices, s.Paid, s.Partial, s.Pending, s.Overdue)
	fmt.Fprintf(w, "Pagos: %d, asignaciones: %d\n", s.Payments, s.Allocations)
	fmt.Fprintf(w, "Facturado: %s\n", s.Invoiced.StringFixed(2))
	fmt.Fprintf(w, "Aplicado: %s\n", s.Applied.StringFixed(2))
	fmt.Fprintf(w, "Saldo pendiente: %s\n", s.Outstanding.StringFixed(2))
	fmt.Fprintf(w, "No asignado: %s\n", s.Unallocated.StringFixed(2))
	if !s.ClientMatching {
		fmt.Fprintln(w, "Aviso: sin columna Cliente en ambas tablas, no se asignó por cliente")
	}
	if len(written) > 0 {
		fmt.Fprintln(w)
		for _, path := range written {
			fmt.Fprintf(w, "Escrito: %s\n", path)
		}
	}
	_, err := fmt.Fprintln(w, strings.Repeat("=", 60))
	return err
}
