package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"eflyt-phone-lookup/internal/common/errors"
	"eflyt-phone-lookup/internal/models"
)

// ParseDelimited reads "national-id,case-id" lines. There is no header and
// no name column.
//
// Deprecated: only reachable when Options.LegacyDelimited is set.
func ParseDelimited(filename string, content []byte) ([]*models.WorkRecord, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var records []*models.WorkRecord
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParseError(filename, err.Error())
		}
		if isBlank(fields) {
			continue
		}

		line, _ := r.FieldPos(0)
		if len(fields) < 2 {
			return nil, errors.NewParseError(filename, fmt.Sprintf("line %d: want national-id,case-id", line))
		}

		record := models.NewWorkRecord(fields[1], fields[0], "")
		if record.CaseID == "" || record.NationalID == "" {
			return nil, errors.NewParseError(filename, fmt.Sprintf("line %d: case and national ID are required", line))
		}
		records = append(records, record)
	}
	return records, nil
}
