package httpapi

import (
	"github.com/i474232898/temperature-dashboard/internal/common"
	"github.com/i474232898/temperature-dashboard/internal/dashboard"
	"github.com/i474232898/temperature-dashboard/internal/models"
	"github.com/i474232898/temperature-dashboard/internal/state"
)

type dateRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type departmentRequest struct {
	Code string `json:"code" validate:"required,max=3"`
}

type pngQuery struct {
	Width  int `query:"width" validate:"min=100,max=2000"`
	Height int `query:"height" validate:"min=100,max=2000"`
}

func (q *pngQuery) defaults() {
	if q.Width == 0 {
		q.Width = 800
	}
	if q.Height == 0 {
		q.Height = 300
	}
}

type selectionResponse struct {
	Date       string             `json:"date"`
	Department *models.Department `json:"department"`
}

func currentSelection(facade *dashboard.Facade) selectionResponse {
	date, _ := state.Current(facade.SelectedDate())
	department, _ := state.Current(facade.SelectedDepartment())
	return selectionResponse{
		Date:       common.FormatDay(date),
		Department: department,
	}
}

type statusResponse struct {
	Date   string `json:"date"`
	Status string `json:"status"`
	Count  int    `json:"count"`
	Error  string `json:"error,omitempty"`
}

func newStatusResponse(e state.TemperatureEntry) statusResponse {
	resp := statusResponse{
		Date:   e.Date,
		Status: e.Status.String(),
		Count:  e.Count,
	}
	if e.Err != nil {
		resp.Error = e.Err.Error()
	}
	return resp
}
