package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFile loads the first sheet of a .csv, .xlsx or .xls file. The table is
// named after the file without its extension.
func ReadFile(path string) (*Table, error) {
	const op = "ReadFile"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var t *Table
	switch ext {
	case ".csv", ".txt":
		t, err = ReadCSV(bytes.NewReader(data))
	case ".xlsx", ".xlsm":
		t, err = ReadXLSX(bytes.NewReader(data))
	case ".xls":
		t, err = ReadXLS(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, path, err)
	}

	t.Name = name
	return t, nil
}

// ReadCSV parses comma or semicolon separated text. The delimiter is taken
// from the header line; a UTF-8 byte order mark is ignored.
func ReadCSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return FromRecords("", records)
}

func sniffDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	if bytes.Count(header, []byte{';'}) > bytes.Count(header, []byte{','}) {
		return ';'
	}
	return ','
}

// ReadXLSX reads the first worksheet of an Excel workbook. Cells are read raw,
// so dates arrive as Excel serial numbers and amounts without number formats.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptyTable
	}

	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	return FromRecords(sheet, records)
}

// ReadXLS reads the first worksheet of a legacy BIFF (.xls) workbook
func ReadXLS(r io.ReadSeeker) (*Table, error) {
	book, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, err
	}

	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyTable
	}

	records := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for col := range cells {
			cells[col] = row.Col(col)
		}
		records = append(records, cells)
	}
	return FromRecords(sheet.Name, records)
}

// xlsRow returns nil for rows absent from the sheet; WorkSheet.Row
// dereferences the missing row instead of reporting it.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}
