package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeNationalID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"010101-0101", "0101010101"},
		{"0101010101", "0101010101"},
		{" 010101 - 0101 ", "0101010101"},
		{"01-01-01-0101", "0101010101"},
		{"", ""},
		{"--", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			once := NormalizeNationalID(tt.in)
			assert.Equal(t, tt.want, once)
			assert.Equal(t, once, NormalizeNationalID(once), "normalization must be idempotent")
		})
	}
}

func TestWorkRecord_Lifecycle(t *testing.T) {
	r := NewWorkRecord(" 123 ", "010101-0101", " A ")
	assert.Equal(t, "123", r.CaseID)
	assert.Equal(t, "0101010101", r.NationalID)
	assert.Equal(t, "A", r.Name)
	assert.False(t, r.Processed())
	assert.Equal(t, OutcomePending, r.Outcome)
	assert.Equal(t, "123/0101010101", r.Key())

	numbers := []string{"12345678"}
	r.MarkFound(numbers)
	numbers[0] = "changed"
	assert.True(t, r.Processed())
	assert.Equal(t, []string{"12345678"}, r.PhoneNumbers)
	assert.Equal(t, OutcomeFound, r.Outcome)
}

func TestWorkRecord_MarkNotFoundAndFailed(t *testing.T) {
	nf := NewWorkRecord("1", "2", "")
	nf.MarkNotFound()
	require.NotNil(t, nf.PhoneNumbers)
	assert.Empty(t, nf.PhoneNumbers)
	assert.True(t, nf.Processed())
	assert.Equal(t, NoteNotFound, nf.Note)

	failed := NewWorkRecord("1", "2", "")
	failed.MarkFailed("case not found")
	assert.True(t, failed.Processed())
	assert.Equal(t, OutcomeFailed, failed.Outcome)
	assert.Equal(t, "lookup failed: case not found", failed.Note)

	bare := NewWorkRecord("1", "2", "")
	bare.MarkFailed("")
	assert.Equal(t, NoteLookupFailed, bare.Note)
}

func TestRecordStore(t *testing.T) {
	a := NewWorkRecord("1", "111", "A")
	b := NewWorkRecord("2", "222", "B")
	dup := NewWorkRecord("1", "111", "A")

	s := NewRecordStore(a, nil, b)
	s.Append(dup)
	assert.Equal(t, 3, s.Len(), "nil is skipped, duplicates are kept")
	assert.Same(t, b, s.At(1))

	b.MarkNotFound()
	assert.Equal(t, []*WorkRecord{a, dup}, s.Pending())
	assert.Equal(t, []*WorkRecord{b}, s.Processed())

	all := s.All()
	all[0] = nil
	assert.Same(t, a, s.At(0), "All returns a copy of the slice")

	counts := s.CountByOutcome()
	assert.Equal(t, 2, counts[OutcomePending])
	assert.Equal(t, 1, counts[OutcomeNotFound])
}
