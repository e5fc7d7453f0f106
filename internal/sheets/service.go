package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"conciliador/internal/logger"
	"conciliador/internal/table"
)

var (
	// ErrInvalidURL is returned when a spreadsheet URL carries no spreadsheet ID.
	ErrInvalidURL = errors.New("invalid Google Sheets URL format")

	// ErrNoCredentials is returned when neither a credentials file nor inline JSON is configured.
	ErrNoCredentials = errors.New("neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set")
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Service reads and writes whole tables in one Google spreadsheet
type Service struct {
	sheetsService *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// NewSheetsService creates a Google Sheets service for the spreadsheet at
// sheetURL. credsFile takes precedence over credsJSON.
func NewSheetsService(ctx context.Context, sheetURL, credsFile, credsJSON string) (*Service, error) {
	const op = "NewSheetsService"

	log := logger.WithComponent("sheets")

	spreadsheetID, err := extractSpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to extract spreadsheet ID: %w", op, err)
	}

	log.Debug().Str("spreadsheet_id", spreadsheetID).Msg("Extracted spreadsheet ID")

	creds, err := credentials(credsFile, credsJSON)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	config, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	client := config.Client(ctx)
	sheetsService, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &Service{
		sheetsService: sheetsService,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

func credentials(credsFile, credsJSON string) ([]byte, error) {
	switch {
	case credsFile != "":
		creds, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		return creds, nil
	case credsJSON != "":
		return []byte(credsJSON), nil
	default:
		return nil, ErrNoCredentials
	}
}

// extractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func extractSpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", ErrInvalidURL
	}
	return matches[1], nil
}

// ReadTable reads a whole sheet as a table. The first non-empty row is the
// header row. Cells are read as displayed in the sheet.
func (s *Service) ReadTable(ctx context.Context, sheetName string) (*table.Table, error) {
	const op = "ReadTable"

	values, err := s.ReadRange(ctx, quoteSheet(sheetName))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	t, err := table.FromRecords(sheetName, valuesToRecords(values))
	if err != nil {
		return nil, fmt.Errorf("%s: sheet %s: %w", op, sheetName, err)
	}

	s.log.Info().
		Str("sheet", sheetName).
		Int("columns", len(t.Headers)).
		Int("rows", t.Len()).
		Msg("Read table from Google Sheet")

	return t, nil
}

// ReadRange reads values from a specified range in the spreadsheet
func (s *Service) ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	const op = "ReadRange"

	s.log.Debug().
		Str("range", rangeSpec).
		Msg("Reading range from spreadsheet")

	resp, err := s.sheetsService.Spreadsheets.Values.Get(s.spreadsheetID, rangeSpec).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read range %s: %w", op, rangeSpec, err)
	}

	s.log.Debug().
		Int("rows", len(resp.Values)).
		Str("range", rangeSpec).
		Msg("Successfully read range from spreadsheet")

	return resp.Values, nil
}

// WriteTables writes every table to the sheet of the same name
func (s *Service) WriteTables(ctx context.Context, tables ...*table.Table) error {
	for _, t := range tables {
		if err := s.WriteTable(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable replaces the content of the sheet named after the table,
// creating the sheet when it does not exist yet.
func (s *Service) WriteTable(ctx context.Context, t *table.Table) error {
	const op = "WriteTable"

	sheetID, err := s.ensureSheet(ctx, t.Name)
	if err != nil {
		return fmt.Errorf("%s: failed to ensure sheet exists: %w", op, err)
	}

	target := quoteSheet(t.Name)
	_, err = s.sheetsService.Spreadsheets.Values.Clear(
		s.spreadsheetID,
		target,
		&sheets.ClearValuesRequest{},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to clear sheet %s: %w", op, t.Name, err)
	}

	values := tableToValues(t)
	_, err = s.sheetsService.Spreadsheets.Values.Update(
		s.spreadsheetID,
		target+"!A1",
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to write sheet %s: %w", op, t.Name, err)
	}

	if err := s.formatHeaders(ctx, sheetID, int64(len(t.Headers))); err != nil {
		s.log.Warn().Err(err).Str("sheet", t.Name).Msg("Failed to format headers, continuing anyway")
	}

	s.log.Info().
		Str("sheet", t.Name).
		Int("rows_written", len(values)).
		Msg("Successfully wrote table to Google Sheet")

	return nil
}

// ensureSheet returns the ID of the named sheet, adding it when missing
func (s *Service) ensureSheet(ctx context.Context, sheetName string) (int64, error) {
	const op = "ensureSheet"

	spreadsheet, err := s.sheetsService.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to get spreadsheet: %w", op, err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return sheet.Properties.SheetId, nil
		}
	}

	s.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheetName},
			}},
		},
	}

	resp, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to create sheet: %w", op, err)
	}

	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// formatHeaders makes the header row bold and resizes the written columns
func (s *Service) formatHeaders(ctx context.Context, sheetID, columns int64) error {
	const op = "formatHeaders"

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   columns,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold: true,
						},
						BackgroundColor: &sheets.Color{
							Red:   0.9,
							Green: 0.9,
							Blue:  0.9,
						},
					},
				},
				Fields: "userEnteredFormat(textFormat,backgroundColor)",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   columns,
				},
			},
		},
	}

	batchUpdateReq := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	_, err := s.sheetsService.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateReq).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to format headers: %w", op, err)
	}

	return nil
}

// quoteSheet quotes a sheet name for A1 notation ("Hoja 1" -> "'Hoja 1'")
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func valuesToRecords(values [][]interface{}) [][]string {
	records := make([][]string, len(values))
	for i, row := range values {
		record := make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				record[j] = fmt.Sprint(cell)
			}
		}
		records[i] = record
	}
	return records
}

func tableToValues(t *table.Table) [][]interface{} {
	values := make([][]interface{}, 0, t.Len()+1)
	values = append(values, stringsToValues(t.Headers))
	for row := range t.Rows {
		values = append(values, stringsToValues(t.Record(row)))
	}
	return values
}

func stringsToValues(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
