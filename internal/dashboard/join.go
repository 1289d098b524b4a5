package dashboard

import (
	"time"

	"github.com/i474232898/temperature-dashboard/internal/common"
	"github.com/i474232898/temperature-dashboard/internal/models"
)

// CloneDepartments deep-copies a department list.
func CloneDepartments(departments []models.Department) []models.Department {
	out := make([]models.Department, len(departments))
	for i, d := range departments {
		out[i] = d.Clone()
	}
	return out
}

// FindTemperature returns the first observation for code.
func FindTemperature(temps []models.TemperatureDepartment, code string) (models.TemperatureDepartment, bool) {
	for _, t := range temps {
		if t.DepartmentCode == code {
			return t, true
		}
	}
	return models.TemperatureDepartment{}, false
}

// JoinTemperatures returns a copy of departments with TMoy set from the matching
// observation. Departments without a match keep a nil TMoy. The input is not modified.
func JoinTemperatures(departments []models.Department, temps []models.TemperatureDepartment) []models.Department {
	byCode := make(map[string]float64, len(temps))
	for _, t := range temps {
		if _, seen := byCode[t.DepartmentCode]; !seen {
			byCode[t.DepartmentCode] = t.TMoy
		}
	}

	out := CloneDepartments(departments)
	for i := range out {
		if v, ok := byCode[out[i].Code]; ok {
			out[i].TMoy = &v
		} else {
			out[i].TMoy = nil
		}
	}
	return out
}

// Window returns the history interval centred on date: months*30 days wide,
// with the end clamped to the day of now.
func Window(date time.Time, months int, now time.Time) (from, to time.Time) {
	if months <= 0 {
		months = 3
	}
	half := months * 30 / 2

	day := common.StartOfDay(date)
	from = day.AddDate(0, 0, -half)
	to = day.AddDate(0, 0, half)

	if today := common.StartOfDay(now); to.After(today) && !today.Before(from) {
		to = today
	}
	return from, to
}
