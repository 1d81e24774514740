// Package report renders processed records as the XLSX sent back to the requester.
package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"eflyt-phone-lookup/internal/common/errors"
	"eflyt-phone-lookup/internal/models"
)

var Header = []string{"Case No.", "National ID", "Name", "Phone numbers"}

const (
	phoneColumn    = 4
	numberSep      = ", "
	commentAuthor  = "eflyt-robot"
	minColumnWidth = 10
	maxColumnWidth = 80
)

// Row is one report line. Note carries the marker for rows without numbers.
type Row struct {
	CaseID       string
	NationalID   string
	Name         string
	PhoneNumbers string
	Note         string
}

func (r Row) Cells() []string {
	return []string{r.CaseID, r.NationalID, r.Name, r.PhoneNumbers}
}

type Report struct {
	Filename string
	Rows     []Row
	Content  []byte
}

type Writer struct {
	filename string
	sheet    string
}

func NewWriter(filename, sheet string) *Writer {
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &Writer{filename: filename, sheet: sheet}
}

// Write renders records in the order given. The same records always give the
// same cell contents.
func (w *Writer) Write(records []*models.WorkRecord) (*Report, error) {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			CaseID:       r.CaseID,
			NationalID:   r.NationalID,
			Name:         r.Name,
			PhoneNumbers: strings.Join(r.PhoneNumbers, numberSep),
			Note:         r.Note,
		})
	}

	content, err := w.render(rows)
	if err != nil {
		return nil, errors.NewReportWriteError(err)
	}

	return &Report{
		Filename: w.filename,
		Rows:     rows,
		Content:  content,
	}, nil
}

func (w *Writer) render(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if w.sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", w.sheet); err != nil {
			return nil, fmt.Errorf("name sheet: %w", err)
		}
	}

	// Pin workbook properties so no creation time is embedded.
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:  commentAuthor,
		Created:  "2000-01-01T00:00:00Z",
		Modified: "2000-01-01T00:00:00Z",
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	widths := make([]int, len(Header))
	track := func(cells []string) {
		for i, c := range cells {
			if n := utf8.RuneCountInString(c); n > widths[i] {
				widths[i] = n
			}
		}
	}

	header := toRow(Header)
	if err := f.SetSheetRow(w.sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	track(Header)

	for i, row := range rows {
		cells := row.Cells()
		line := i + 2
		values := toRow(cells)
		if err := f.SetSheetRow(w.sheet, fmt.Sprintf("A%d", line), &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", line, err)
		}
		track(cells)

		if row.PhoneNumbers == "" && row.Note != "" {
			cell, _ := excelize.CoordinatesToCellName(phoneColumn, line)
			if err := f.AddComment(w.sheet, excelize.Comment{
				Cell:   cell,
				Author: commentAuthor,
				Text:   row.Note,
			}); err != nil {
				return nil, fmt.Errorf("annotate row %d: %w", line, err)
			}
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(Header), 1)
	if err := f.SetCellStyle(w.sheet, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(w.sheet, col, col, columnWidth(width)); err != nil {
			return nil, fmt.Errorf("size column %s: %w", col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidth(chars int) float64 {
	w := chars + 2
	if w < minColumnWidth {
		w = minColumnWidth
	}
	if w > maxColumnWidth {
		w = maxColumnWidth
	}
	return float64(w)
}

// toRow keeps every cell as text so IDs with leading zeros survive.
func toRow(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
