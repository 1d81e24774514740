package models

import (
	"strings"
	"unicode"
)

// Outcome classifies a processed record for reporting.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "failed"
)

// Report markers for records that were processed without a number.
const (
	NoteNotFound     = "no phone number found"
	NoteLookupFailed = "lookup failed"
)

// WorkRecord is one (case, national ID) pair to resolve.
//
// PhoneNumbers is nil until the record has been processed. Once it is
// non-nil (possibly empty) the record is terminal.
type WorkRecord struct {
	CaseID       string   `json:"caseId"`
	NationalID   string   `json:"nationalId"`
	Name         string   `json:"name,omitempty"`
	PhoneNumbers []string `json:"phoneNumbers"`
	Outcome      Outcome  `json:"outcome"`
	Note         string   `json:"note,omitempty"`
}

// NewWorkRecord normalizes the national ID and trims the other fields.
func NewWorkRecord(caseID, nationalID, name string) *WorkRecord {
	return &WorkRecord{
		CaseID:     strings.TrimSpace(caseID),
		NationalID: NormalizeNationalID(nationalID),
		Name:       strings.TrimSpace(name),
		Outcome:    OutcomePending,
	}
}

func (r *WorkRecord) Processed() bool {
	return r.PhoneNumbers != nil
}

// Key is the record identity. Duplicates share a key and are kept.
func (r *WorkRecord) Key() string {
	return r.CaseID + "/" + r.NationalID
}

// MarkFound stores the numbers in lookup order.
func (r *WorkRecord) MarkFound(numbers []string) {
	r.PhoneNumbers = append([]string{}, numbers...)
	r.Outcome = OutcomeFound
	r.Note = ""
}

// MarkNotFound records the handled "no number" outcome.
func (r *WorkRecord) MarkNotFound() {
	r.PhoneNumbers = []string{}
	r.Outcome = OutcomeNotFound
	r.Note = NoteNotFound
}

// MarkFailed records a per-row fault. reason is appended to the marker.
func (r *WorkRecord) MarkFailed(reason string) {
	r.PhoneNumbers = []string{}
	r.Outcome = OutcomeFailed
	r.Note = NoteLookupFailed
	if reason != "" {
		r.Note += ": " + reason
	}
}

// NormalizeNationalID strips separators ("-") and whitespace.
func NormalizeNationalID(id string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, id)
}
