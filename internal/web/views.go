package web

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/i474232898/temperature-dashboard/internal/charts"
	"github.com/i474232898/temperature-dashboard/internal/common"
	"github.com/i474232898/temperature-dashboard/internal/dashboard"
	"github.com/i474232898/temperature-dashboard/internal/models"
	"github.com/i474232898/temperature-dashboard/internal/state"
)

type indexView struct {
	Title        string
	Date         string
	SelectedCode string
	Departments  departmentsView
	Selection    selectionView
	Chart        chartView
}

type chartView struct {
	Div    template.HTML
	Script template.HTML
}

type departmentsView struct {
	Rows   []departmentRow
	Loaded bool
}

type departmentRow struct {
	Code     string
	Name     string
	TMoy     string
	Selected bool
}

type selectionView struct {
	Date           string
	Department     *models.Department
	HasTemperature bool
	TMoy           string
	TMin           string
	TMax           string
}

func formatTemp(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// departmentsViewFor renders the joined list when the selected date is loaded,
// and the bare list otherwise.
func departmentsViewFor(facade *dashboard.Facade) departmentsView {
	selected, _ := state.Current(facade.SelectedDepartment())

	rows, loaded := state.Current(facade.DepartmentsWithTemperatureForSelectedDate())
	if !loaded {
		rows, _ = state.Current(facade.Departments())
	}
	return newDepartmentsView(rows, selected, loaded)
}

func newDepartmentsView(departments []models.Department, selected *models.Department, loaded bool) departmentsView {
	view := departmentsView{Loaded: loaded, Rows: make([]departmentRow, 0, len(departments))}
	for _, d := range departments {
		row := departmentRow{
			Code:     d.Code,
			Name:     d.Name,
			TMoy:     "–",
			Selected: selected != nil && selected.Code == d.Code,
		}
		if d.TMoy != nil {
			row.TMoy = formatTemp(*d.TMoy)
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

func selectionViewFor(facade *dashboard.Facade) selectionView {
	date, _ := state.Current(facade.SelectedDate())
	department, _ := state.Current(facade.SelectedDepartment())

	view := selectionView{Date: common.FormatDay(date), Department: department}
	if department == nil {
		return view
	}
	if t, ok := state.Current(facade.SelectedDepartmentTemperatureForSelectedDate()); ok {
		view.HasTemperature = true
		view.TMoy = formatTemp(t.TMoy)
		view.TMin = formatTemp(t.TMin)
		view.TMax = formatTemp(t.TMax)
	}
	return view
}

func newChartView(chart *charts.LineChart) (chartView, error) {
	snippet, err := chart.Snippet()
	if err != nil {
		return chartView{}, err
	}
	return chartView{
		Div:    template.HTML(snippet.Div),
		Script: template.HTML(snippet.Script),
	}, nil
}

func (s *Server) render(name string, data any) (string, error) {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
