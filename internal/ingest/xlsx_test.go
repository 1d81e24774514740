package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eflyt-phone-lookup/internal/common/errors"
)

func TestParseXLSX(t *testing.T) {
	content := buildXLSX(t, [][]interface{}{
		header,
		{"123", "010101-0101", "A"},
		{nil, nil, nil},
		{"124", "0202020202"},
		{456, "030303-0303", "C"},
		{"123", "010101-0101", "A"},
	})

	records, err := ParseXLSX("input.xlsx", content)
	require.NoError(t, err)
	require.Len(t, records, 4, "header and blank row dropped, duplicates kept")

	assert.Equal(t, "123", records[0].CaseID)
	assert.Equal(t, "0101010101", records[0].NationalID)
	assert.Equal(t, "A", records[0].Name)

	assert.Equal(t, "124", records[1].CaseID)
	assert.Empty(t, records[1].Name, "missing name is padded")

	assert.Equal(t, "456", records[2].CaseID, "numeric cells are read as text")
	assert.Equal(t, records[0].Key(), records[3].Key())
}

func TestParseXLSX_HeaderOnly(t *testing.T) {
	records, err := ParseXLSX("input.xlsx", buildXLSX(t, [][]interface{}{header}))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseXLSX_ShortRowInWideSheet(t *testing.T) {
	records, err := ParseXLSX("input.xlsx", buildXLSX(t, [][]interface{}{
		{"Sagsnr", "CPR", "Navn"},
		{"123", "010101-0101"},
	}))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0101010101", records[0].NationalID)
	assert.Empty(t, records[0].Name)
}

func TestParseXLSX_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		detail  string
	}{
		{
			name:    "not a workbook",
			content: []byte("hello"),
			detail:  "not a readable workbook",
		},
		{
			name:    "only two columns",
			content: buildXLSX(t, [][]interface{}{{"Sagsnr", "CPR"}, {"123", "0101010101"}}),
			detail:  "need at least 3",
		},
		{
			name:    "missing national id",
			content: buildXLSX(t, [][]interface{}{header, {"123", "", "A"}}),
			detail:  "row 2",
		},
		{
			name:    "missing case",
			content: buildXLSX(t, [][]interface{}{header, {"123", "1", "A"}, {"", "0101010101", "B"}}),
			detail:  "row 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := ParseXLSX("input.xlsx", tt.content)
			require.Error(t, err)
			assert.Nil(t, records)
			assert.Equal(t, errors.ErrCodeParse, errors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}

func TestParseDelimited(t *testing.T) {
	records, err := ParseDelimited("legacy.csv", []byte("010101-0101,123\n\n0202020202 ,124\n"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "123", records[0].CaseID)
	assert.Equal(t, "0101010101", records[0].NationalID)
	assert.Equal(t, "0202020202", records[1].NationalID)

	_, err = ParseDelimited("legacy.csv", []byte("0101010101\n"))
	assert.Equal(t, errors.ErrCodeParse, errors.CodeOf(err))
}
