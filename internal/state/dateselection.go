package state

import "time"

// DateSelectionStore holds the date the dashboard is looking at.
type DateSelectionStore struct {
	date *Subject[time.Time]
}

// NewDateSelectionStore returns a store seeded with initial.
func NewDateSelectionStore(initial time.Time) *DateSelectionStore {
	return &DateSelectionStore{date: NewBehaviorSubject(initial)}
}

// SetSelectedDate replaces the selected date.
func (s *DateSelectionStore) SetSelectedDate(date time.Time) {
	s.date.Set(date)
}

// SelectedDate streams the selected date.
func (s *DateSelectionStore) SelectedDate() Observable[time.Time] {
	return s.date
}
