package report

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"eflyt-phone-lookup/internal/models"
)

func readBack(t *testing.T, rep *Report, sheet string) (*excelize.File, [][]string) {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(rep.Content))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return f, rows
}

func sampleRecords() []*models.WorkRecord {
	found := models.NewWorkRecord("123", "010101-0101", "A")
	found.MarkFound([]string{"12345678"})

	both := models.NewWorkRecord("124", "0202020202", "B")
	both.MarkFound([]string{"11111111", "22222222"})

	none := models.NewWorkRecord("125", "0303030303", "C")
	none.MarkNotFound()

	failed := models.NewWorkRecord("126", "0404040404", "")
	failed.MarkFailed("case not found")

	return []*models.WorkRecord{found, both, none, failed}
}

func TestWriter_Write(t *testing.T) {
	w := NewWriter("eflyt_telefonnumre.xlsx", "Telefonnumre")

	rep, err := w.Write(sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, "eflyt_telefonnumre.xlsx", rep.Filename)
	require.Len(t, rep.Rows, 4)
	assert.Equal(t, models.NoteNotFound, rep.Rows[2].Note)

	f, rows := readBack(t, rep, "Telefonnumre")
	want := [][]string{
		{"Case No.", "National ID", "Name", "Phone numbers"},
		{"123", "0101010101", "A", "12345678"},
		{"124", "0202020202", "B", "11111111, 22222222"},
		{"125", "0303030303", "C"},
		{"126", "0404040404"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("report rows mismatch (-want +got):\n%s", diff)
	}

	styleID, err := f.GetCellStyle("Telefonnumre", "D1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	comments, err := f.GetComments("Telefonnumre")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	notes := map[string]string{}
	for _, c := range comments {
		notes[c.Cell] = c.Text
	}
	assert.Contains(t, notes["D4"], models.NoteNotFound)
	assert.Contains(t, notes["D5"], "lookup failed: case not found")

	width, err := f.GetColWidth("Telefonnumre", "D")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, width, float64(len("11111111, 22222222")))
}

func TestWriter_ScenarioA(t *testing.T) {
	r := models.NewWorkRecord("123", "010101-0101", "A")
	r.MarkFound([]string{"12345678"})

	rep, err := NewWriter("out.xlsx", "").Write([]*models.WorkRecord{r})
	require.NoError(t, err)

	_, rows := readBack(t, rep, "Sheet1")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"123", "0101010101", "A", "12345678"}, rows[1])
}

func TestWriter_Deterministic(t *testing.T) {
	w := NewWriter("out.xlsx", "")

	first, err := w.Write(sampleRecords())
	require.NoError(t, err)
	second, err := w.Write(sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)

	_, a := readBack(t, first, "Sheet1")
	_, b := readBack(t, second, "Sheet1")
	assert.Equal(t, a, b)
}

func TestWriter_Empty(t *testing.T) {
	rep, err := NewWriter("out.xlsx", "").Write(nil)
	require.NoError(t, err)
	assert.Empty(t, rep.Rows)

	_, rows := readBack(t, rep, "Sheet1")
	assert.Equal(t, [][]string{Header}, rows)
}

func TestColumnWidth(t *testing.T) {
	assert.Equal(t, float64(minColumnWidth), columnWidth(1))
	assert.Equal(t, float64(22), columnWidth(20))
	assert.Equal(t, float64(maxColumnWidth), columnWidth(500))
}
