package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"avlmap/pkg/table"
)

// ParseXLSX reads one worksheet of an XLSX workbook into a table. The first
// row is the header. An empty sheet name selects the first sheet.
func ParseXLSX(data []byte, sheet string) (*ParseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyFile
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	headers := cleanHeaders(rows[0])
	var body [][]string
	var warnings []ParseWarning
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		if len(row) > len(headers) {
			warnings = append(warnings, ParseWarning{
				Row:     i + 2,
				Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(row), len(headers)),
			})
		}
		body = append(body, row)
	}
	if len(body) == 0 {
		return nil, ErrNoDataRows
	}

	tbl, err := table.FromRows(headers, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build table: %w", err)
	}

	return &ParseResult{
		Table:    tbl,
		Encoding: EncodingXLSX,
		Warnings: warnings,
	}, nil
}

// Parse picks a parser from the file name extension.
func Parse(name string, data []byte, sheet string) (*ParseResult, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return ParseCSV(data)
	case ".xlsx", ".xlsm":
		return ParseXLSX(data, sheet)
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnsupported)
	}
}
