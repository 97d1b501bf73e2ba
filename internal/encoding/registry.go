package encoding

import "sync/atomic"

// SelectionRegistry remembers the most recently chosen non-default encoding
// and biases the selection menu toward it. Selections are recorded from the
// UI and read during menu rendering; the value is advisory (it only affects
// menu order), so a plain atomic with relaxed visibility is all the
// coordination needed and a stale read is harmless.
type SelectionRegistry struct {
	last atomic.Int32
}

// NewSelectionRegistry returns a registry with no recorded selection; the
// ordered list starts out in canonical order.
func NewSelectionRegistry() *SelectionRegistry {
	return &SelectionRegistry{}
}

// RecordSelection stores enc as the most recent explicit choice.
// Last write wins.
func (r *SelectionRegistry) RecordSelection(enc Encoding) {
	r.last.Store(int32(enc))
}

// OrderedList returns every supported encoding exactly once: UTF-8 first,
// then the last recorded selection (when it is not UTF-8), then the rest in
// canonical order.
func (r *SelectionRegistry) OrderedList() []Encoding {
	last := fromInt(r.last.Load())

	result := make([]Encoding, 0, len(CanonicalOrder))
	result = append(result, Utf8)
	if last == Utf8 {
		return append(result, CanonicalOrder[1:]...)
	}
	result = append(result, last)
	for _, enc := range CanonicalOrder {
		if enc != Utf8 && enc != last {
			result = append(result, enc)
		}
	}
	return result
}
