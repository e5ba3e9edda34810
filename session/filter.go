package session

// FilterSelection is one chosen catalog filter, stored as structured data in
// ChatState instead of a delimiter-joined scratch string.
type FilterSelection struct {
	Attribute string `json:"attribute"`
	ID        int64  `json:"id"`
	Label     string `json:"label"`
}

const DataKeyFilters = "filters"

// Filters reads the accumulated filter selections from the chat state.
func (s *ChatState) Filters() []FilterSelection {
	var out []FilterSelection
	if ok, err := s.GetData(DataKeyFilters, &out); !ok || err != nil {
		return nil
	}
	return out
}

// AddFilter appends a selection, replacing any prior selection for the same
// attribute.
func (s *ChatState) AddFilter(sel FilterSelection) error {
	filters := s.Filters()
	replaced := false
	for i := range filters {
		if filters[i].Attribute == sel.Attribute {
			filters[i] = sel
			replaced = true
			break
		}
	}
	if !replaced {
		filters = append(filters, sel)
	}
	return s.SetData(DataKeyFilters, filters)
}

// RemoveFilter drops the selection for one attribute, if present.
func (s *ChatState) RemoveFilter(attribute string) error {
	filters := s.Filters()
	kept := filters[:0]
	for _, f := range filters {
		if f.Attribute != attribute {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		s.DeleteData(DataKeyFilters)
		return nil
	}
	return s.SetData(DataKeyFilters, kept)
}

// ClearFilters drops all selections.
func (s *ChatState) ClearFilters() { s.DeleteData(DataKeyFilters) }
