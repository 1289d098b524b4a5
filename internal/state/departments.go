package state

import (
	"github.com/i474232898/temperature-dashboard/internal/models"
)

// DepartmentsStore holds the canonical department list and the current selection.
type DepartmentsStore struct {
	departments *Subject[[]models.Department]
	selected    *Subject[*models.Department]
}

// NewDepartmentsStore returns a store with an empty list and no selection.
func NewDepartmentsStore() *DepartmentsStore {
	return &DepartmentsStore{
		departments: NewBehaviorSubject([]models.Department{}),
		selected:    NewBehaviorSubject[*models.Department](nil),
	}
}

// SetDepartments replaces the department list.
func (s *DepartmentsStore) SetDepartments(departments []models.Department) {
	list := make([]models.Department, len(departments))
	for i, d := range departments {
		list[i] = d.Clone()
		list[i].TMoy = nil
	}
	s.departments.Set(list)
}

// Departments streams the department list. Consumers must not mutate the emitted slice.
func (s *DepartmentsStore) Departments() Observable[[]models.Department] {
	return s.departments
}

// SetSelectedDepartment records the selection; nil clears it.
func (s *DepartmentsStore) SetSelectedDepartment(d *models.Department) {
	if d == nil {
		s.selected.Set(nil)
		return
	}
	c := d.Clone()
	s.selected.Set(&c)
}

// SelectedDepartment streams the current selection, nil when nothing is selected.
func (s *DepartmentsStore) SelectedDepartment() Observable[*models.Department] {
	return s.selected
}

// FindByCode looks a department up in the current list.
func (s *DepartmentsStore) FindByCode(code string) (models.Department, bool) {
	list, _ := s.departments.Value()
	for _, d := range list {
		if d.Code == code {
			return d.Clone(), true
		}
	}
	return models.Department{}, false
}
