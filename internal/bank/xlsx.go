package bank

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding questions in XLSX bank files.
const SheetName = "Questions"

var xlsxHeader = []any{"Category", "Question", "Answer", "Difficulty"}

// ReadXLSX decodes a bank from the Questions sheet of a workbook. The first
// row is a header; blank rows are skipped.
func ReadXLSX(r io.Reader) (*Bank, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", SheetName, err)
	}

	b := &Bank{}
	for i, row := range rows {
		if i == 0 || isBlank(row) {
			continue
		}
		if len(row) < 4 {
			return nil, fmt.Errorf("row %d: want 4 columns, got %d", i+1, len(row))
		}
		difficulty, err := strconv.Atoi(strings.TrimSpace(row[3]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid difficulty %q", i+1, row[3])
		}
		category := strings.TrimSpace(row[0])
		if category == "" {
			return nil, fmt.Errorf("row %d: category is empty", i+1)
		}
		b.Merge(&Bank{Categories: []CategoryEntry{{
			Type: category,
			Questions: []Entry{{
				Question:   strings.TrimSpace(row[1]),
				Answer:     strings.TrimSpace(row[2]),
				Difficulty: difficulty,
			}},
		}}})
	}
	return b, nil
}

// WriteXLSX encodes b as a workbook with a single Questions sheet.
func WriteXLSX(w io.Writer, b *Bank) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &xlsxHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := 2
	for _, c := range b.Categories {
		for _, q := range c.Questions {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			values := []any{c.Type, q.Question, q.Answer, q.Difficulty}
			if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
