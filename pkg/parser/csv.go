package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"avlmap/pkg/table"
)

var (
	ErrEmptyFile   = errors.New("empty file: no header row found")
	ErrNoDataRows  = errors.New("file contains no data rows")
	ErrUnsupported = errors.New("unsupported file type")
)

// ParseWarning represents a non-fatal issue encountered during parsing.
type ParseWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ParseResult contains the parsed table alongside any warnings.
type ParseResult struct {
	Table    *table.Table   `json:"-"`
	Encoding string         `json:"encoding"`
	Warnings []ParseWarning `json:"warnings"`
}

// ParseCSV decodes CSV bytes into a table. Rows with too few cells are padded,
// rows with too many are truncated, and unreadable rows are skipped; each
// case is reported as a warning. Empty cells become nulls.
func ParseCSV(data []byte) (*ParseResult, error) {
	decoded, enc, err := DetectAndDecode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	// Padding/truncation is handled below.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	headers = cleanHeaders(headers)

	headerCount := len(headers)
	var rows [][]string
	var warnings []ParseWarning
	rowNum := 1 // header is row 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++

		if err != nil {
			warnings = append(warnings, ParseWarning{
				Row:     rowNum,
				Message: fmt.Sprintf("parse error: %v", err),
			})
			continue
		}

		if isBlankRow(row) {
			continue
		}

		if len(row) < headerCount {
			warnings = append(warnings, ParseWarning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; padding with empty values", len(row), headerCount),
			})
		} else if len(row) > headerCount {
			warnings = append(warnings, ParseWarning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(row), headerCount),
			})
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrNoDataRows
	}

	tbl, err := table.FromRows(headers, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build table: %w", err)
	}

	return &ParseResult{
		Table:    tbl,
		Encoding: enc,
		Warnings: warnings,
	}, nil
}

// cleanHeaders trims header cells, names blank ones after their position and
// suffixes repeated names with ".1", ".2", ... in order of appearance.
func cleanHeaders(headers []string) []string {
	out := make([]string, len(headers))
	counts := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		// A generated name may itself collide ("Notes.1" already present).
		for n := counts[h]; n > 0; n = counts[h] {
			counts[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n)
		}
		counts[h] = 1
		out[i] = h
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
