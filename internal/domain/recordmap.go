package domain

// RecordMap holds records keyed by registry identity in first-seen order.
//
// Records are built incrementally across pages: Upsert hands back the record
// already stored under key (if any) and callers overwrite the fields they
// extract, so the last page wins per field. Fields a later page does not set
// keep their earlier value.
type RecordMap[T any] struct {
	order []string
	items map[string]*T
}

func NewRecordMap[T any]() *RecordMap[T] {
	return &RecordMap[T]{items: make(map[string]*T)}
}

// Upsert returns the record stored under key, creating it when absent.
// existed reports whether key had already been seen in this run.
func (m *RecordMap[T]) Upsert(key string) (rec *T, existed bool) {
	if rec, ok := m.items[key]; ok {
		return rec, true
	}
	rec = new(T)
	m.items[key] = rec
	m.order = append(m.order, key)
	return rec, false
}

func (m *RecordMap[T]) Get(key string) (*T, bool) {
	rec, ok := m.items[key]
	return rec, ok
}

// Values returns the records in insertion order.
func (m *RecordMap[T]) Values() []*T {
	if m == nil {
		return nil
	}
	out := make([]*T, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.items[k])
	}
	return out
}

func (m *RecordMap[T]) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

func (m *RecordMap[T]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}
