package registry

// store is sparse-set storage for resolved records keyed by producer
// identity. Records live contiguously in the dense arrays; the sparse array
// maps identity to dense index and grows on first reference, so the producer
// can pick any identity under the configured ceiling without preallocating
// the whole range.
type store[T any] struct {
	denseIDs  []int
	denseRecs []T
	sparse    []int
}

func (s *store[T]) has(id int) bool {
	if id < 0 || id >= len(s.sparse) {
		return false
	}
	idx := s.sparse[id]
	return idx >= 0 && idx < len(s.denseIDs) && s.denseIDs[idx] == id
}

func (s *store[T]) get(id int) (T, bool) {
	if !s.has(id) {
		var zero T
		return zero, false
	}
	return s.denseRecs[s.sparse[id]], true
}

func (s *store[T]) set(id int, rec T) {
	if id < 0 {
		return
	}
	for id >= len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if s.has(id) {
		s.denseRecs[s.sparse[id]] = rec
		return
	}
	s.denseIDs = append(s.denseIDs, id)
	s.denseRecs = append(s.denseRecs, rec)
	s.sparse[id] = len(s.denseIDs) - 1
}

// ids returns the dense identity list in first-reference order.
func (s *store[T]) ids() []int {
	return s.denseIDs
}

func (s *store[T]) len() int {
	return len(s.denseIDs)
}
