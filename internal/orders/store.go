package orders

// Store owns the single State of a session. It is not safe for concurrent
// use; the owning session serialises access.
type Store struct {
	state State
}

// NewStore creates a store holding an empty cart for table.
func NewStore(table string) *Store {
	return &Store{state: NewState(table)}
}

// Dispatch applies a to the held state. The state is left untouched on error.
func (s *Store) Dispatch(a Action) error {
	next, err := Reduce(s.state, a)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// Snapshot returns a copy that shares nothing with the store.
func (s *Store) Snapshot() State {
	return s.state.clone()
}
