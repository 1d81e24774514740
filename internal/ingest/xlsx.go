package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"eflyt-phone-lookup/internal/common/errors"
	"eflyt-phone-lookup/internal/models"
)

const minColumns = 3

// ParseXLSX reads the active sheet. The first row is a header. Data rows
// give case, national ID and name in the first three columns. Blank rows
// are skipped. The column check applies to the sheet, not the row: a sheet
// whose widest row has fewer than three cells is rejected, while a single
// row missing its trailing name cell is accepted with an empty name, since
// excelize drops trailing empty cells.
func ParseXLSX(filename string, content []byte) ([]*models.WorkRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, errors.NewParseError(filename, fmt.Sprintf("not a readable workbook: %v", err))
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewParseError(filename, fmt.Sprintf("read sheet %q: %v", sheet, err))
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	// GetRows drops trailing empty cells, so the sheet width is the widest row.
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width < minColumns {
		return nil, errors.NewParseError(filename, fmt.Sprintf("sheet %q has %d columns, need at least %d (case, national ID, name)", sheet, width, minColumns))
	}

	var records []*models.WorkRecord
	for i, row := range rows[1:] {
		line := i + 2
		if isBlank(row) {
			continue
		}

		cells := make([]string, minColumns)
		copy(cells, row)

		record := models.NewWorkRecord(cells[0], cells[1], cells[2])
		if record.CaseID == "" || record.NationalID == "" {
			return nil, errors.NewParseError(filename, fmt.Sprintf("row %d: case and national ID are required", line))
		}
		records = append(records, record)
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
