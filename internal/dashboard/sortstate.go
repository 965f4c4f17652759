package dashboard

// SortState is the column-header toggle. The zero value is unsorted; the first
// click on a column sorts ascending, a second click on the same column flips
// the direction and a click on another column starts that one ascending.
type SortState struct {
	spec SortSpec
}

// Click registers a header click on key and returns the new spec.
func (s *SortState) Click(key SortKey) SortSpec {
	if s.spec.Key == key {
		if s.spec.Direction == Asc {
			s.spec.Direction = Desc
		} else {
			s.spec.Direction = Asc
		}
		return s.spec
	}
	s.spec = SortSpec{Key: key, Direction: Asc}
	return s.spec
}

// Spec returns the current sort request.
func (s *SortState) Spec() SortSpec {
	return s.spec
}

// Set forces a spec, e.g. one restored from a request URL.
func (s *SortState) Set(spec SortSpec) {
	s.spec = spec
}

// Reset returns to the unsorted state.
func (s *SortState) Reset() {
	s.spec = SortSpec{}
}

// Next reports the SortSpec a click on key would produce, without changing s.
// Used to build header links.
func (s SortState) Next(key SortKey) SortSpec {
	return s.Click(key)
}
