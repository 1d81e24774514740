package models

// RecordStore holds the ordered records of one run. Records are stored by
// pointer so the pipeline can mutate them in place; the store itself is not
// safe for concurrent use.
type RecordStore struct {
	records []*WorkRecord
}

func NewRecordStore(records ...*WorkRecord) *RecordStore {
	s := &RecordStore{}
	s.Append(records...)
	return s
}

func (s *RecordStore) Append(records ...*WorkRecord) {
	for _, r := range records {
		if r != nil {
			s.records = append(s.records, r)
		}
	}
}

func (s *RecordStore) Len() int {
	return len(s.records)
}

func (s *RecordStore) At(i int) *WorkRecord {
	return s.records[i]
}

// All returns the records in input order.
func (s *RecordStore) All() []*WorkRecord {
	out := make([]*WorkRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Pending returns the records not yet processed, in input order.
func (s *RecordStore) Pending() []*WorkRecord {
	return s.filter(func(r *WorkRecord) bool { return !r.Processed() })
}

// Processed returns the terminal records, in input order.
func (s *RecordStore) Processed() []*WorkRecord {
	return s.filter(func(r *WorkRecord) bool { return r.Processed() })
}

// CountByOutcome tallies processed records.
func (s *RecordStore) CountByOutcome() map[Outcome]int {
	counts := map[Outcome]int{}
	for _, r := range s.records {
		counts[r.Outcome]++
	}
	return counts
}

func (s *RecordStore) filter(keep func(*WorkRecord) bool) []*WorkRecord {
	var out []*WorkRecord
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
