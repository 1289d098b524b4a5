package dashboard

import (
	"context"
	"time"

	"github.com/i474232898/temperature-dashboard/internal/models"
)

// DepartmentsAPI abstracts the source of the département list.
type DepartmentsAPI interface {
	GetAllDepartments(ctx context.Context) ([]models.Department, error)
}

// TemperaturesAPI abstracts the source of daily temperature observations.
type TemperaturesAPI interface {
	GetDepartmentsTemperatureForDate(ctx context.Context, date time.Time) (models.TemperatureResults, error)
	GetTemperaturesForDepartmentAndInterval(ctx context.Context, code string, from, to time.Time) (models.TemperatureResults, error)
}
