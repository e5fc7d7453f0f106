package table

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const csvBufferSize = 32 * 1024

// WriteCSV writes the header row and every data row as comma separated UTF-8
func WriteCSV(w io.Writer, t *Table) error {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)

	if err := writer.Write(t.Headers); err != nil {
		return err
	}
	for i := range t.Rows {
		if err := writer.Write(t.Record(i)); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return buf.Flush()
}

// WriteCSVFile writes t to dir/<t.Name>.csv and returns the file path
func WriteCSVFile(dir string, t *Table) (string, error) {
	const op = "WriteCSVFile"

	path := filepath.Join(dir, t.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return "", fmt.Errorf("%s: %s: %w", op, path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, path, err)
	}
	return path, nil
}

// WriteWorkbook writes every table to its own worksheet, in order, with a
// bold header row
func WriteWorkbook(w io.Writer, tables ...*Table) error {
	const op = "WriteWorkbook"

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for i, t := range tables {
		name := sheetName(t.Name, i)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if err := writeSheet(f, name, t); err != nil {
			return fmt.Errorf("%s: sheet %s: %w", op, name, err)
		}

		if len(t.Headers) > 0 {
			last, err := excelize.CoordinatesToCellName(len(t.Headers), 1)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// WriteWorkbookFile writes the workbook to path
func WriteWorkbookFile(path string, tables ...*Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWorkbook(f, tables...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeSheet(f *excelize.File, sheet string, t *Table) error {
	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i := range t.Rows {
		record := t.Record(i)
		values := make([]interface{}, len(record))
		for j, v := range record {
			values[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// sheetName keeps worksheet names within Excel's 31 character limit
func sheetName(name string, index int) string {
	if name == "" {
		name = fmt.Sprintf("Hoja%d", index+1)
	}
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	return name
}
