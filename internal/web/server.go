package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	ds "github.com/starfederation/datastar-go/datastar"

	"github.com/i474232898/temperature-dashboard/internal/charts"
	"github.com/i474232898/temperature-dashboard/internal/common"
	"github.com/i474232898/temperature-dashboard/internal/dashboard"
	"github.com/i474232898/temperature-dashboard/internal/logger"
	"github.com/i474232898/temperature-dashboard/internal/models"
	"github.com/i474232898/temperature-dashboard/internal/state"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

const chartID = "history-chart"

var errBadSignals = errors.New("invalid signals")

// Server serves the live dashboard page and its datastar endpoints.
type Server struct {
	title     string
	facade    *dashboard.Facade
	l         *logger.Logger
	templates *template.Template
	handler   *http.ServeMux
	srv       *http.Server
	cancel    context.CancelFunc
}

func NewServer(title string, facade *dashboard.Facade, l *logger.Logger) (*Server, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}

	s := &Server{
		title:     title,
		facade:    facade,
		l:         l,
		templates: templates,
	}

	handler := http.NewServeMux()
	handler.HandleFunc("GET /{$}", s.IndexHandler)
	handler.HandleFunc("GET /updates", s.UpdatesHandler)
	handler.HandleFunc("POST /actions/date", s.DateHandler)
	handler.HandleFunc("POST /actions/department", s.DepartmentHandler)
	s.handler = handler

	// Streams end with the base context, so Shutdown does not wait on open SSE connections.
	base, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.srv = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.srv.Addr = addr
	s.l.Info("ui listening", map[string]any{"addr": addr})
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.srv.Shutdown(ctx)
}

// IndexHandler renders the full page from the current state.
func (s *Server) IndexHandler(w http.ResponseWriter, r *http.Request) {
	chart, err := newChartView(charts.NewLineChart(chartID))
	if err != nil {
		s.l.Error(err, map[string]any{"handler": "index"})
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	selection := selectionViewFor(s.facade)
	view := indexView{
		Title:       s.title,
		Date:        selection.Date,
		Departments: departmentsViewFor(s.facade),
		Selection:   selection,
		Chart:       chart,
	}
	if selection.Department != nil {
		view.SelectedCode = selection.Department.Code
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index", view); err != nil {
		s.l.Error(err, map[string]any{"handler": "index"})
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// UpdatesHandler streams patches for as long as the client stays connected.
func (s *Server) UpdatesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sse := ds.NewSSE(w, r)
	chart := charts.NewLineChart(chartID)

	tableCh, cancelTable := state.Latest(s.facade.DepartmentsWithTemperatureForSelectedDate())
	defer cancelTable()
	selectionCh, cancelSelection := state.Latest(state.CombineLatest2(s.facade.SelectedDepartment(), s.facade.SelectedDate()))
	defer cancelSelection()
	temperatureCh, cancelTemperature := state.Latest(s.facade.SelectedDepartmentTemperatureForSelectedDate())
	defer cancelTemperature()
	historyCh, cancelHistory := state.Latest(s.facade.TemperaturesForSelectedDepartmentAroundSelectedDate(ctx))
	defer cancelHistory()

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case <-tableCh:
			err = s.patch(sse, "departments", departmentsViewFor(s.facade))
		case <-selectionCh:
			if err = s.patch(sse, "selection", selectionViewFor(s.facade)); err == nil {
				err = s.patch(sse, "departments", departmentsViewFor(s.facade))
			}
		case <-temperatureCh:
			err = s.patch(sse, "selection", selectionViewFor(s.facade))
		case history := <-historyCh:
			err = s.updateChart(sse, chart, history)
		}
		if err != nil {
			s.l.Debug("updates stream closed", map[string]any{"cause": err})
			return
		}
	}
}

func (s *Server) patch(sse *ds.ServerSentEventGenerator, name string, data any) error {
	html, err := s.render(name, data)
	if err != nil {
		s.l.Error(err, map[string]any{"template": name})
		return nil
	}
	return sse.PatchElements(html)
}

func (s *Server) updateChart(sse *ds.ServerSentEventGenerator, chart *charts.LineChart, history []models.TemperatureDepartment) error {
	if err := chart.SetData(history); err != nil {
		s.l.Error(err, map[string]any{"chart": chartID})
		return nil
	}
	script, err := chart.UpdateScript()
	if err != nil || script == "" {
		return nil
	}
	return sse.ExecuteScript(script)
}

type dateSignals struct {
	Date string `json:"date"`
}

// DateHandler changes the selected date.
func (s *Server) DateHandler(w http.ResponseWriter, r *http.Request) {
	var sig dateSignals
	if err := ds.ReadSignals(r, &sig); err != nil {
		s.l.Debug("error reading signals", map[string]any{"cause": err})
		http.Error(w, errBadSignals.Error(), http.StatusBadRequest)
		return
	}

	date, err := common.ParseDay(sig.Date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.facade.SetSelectedDate(date)
	w.WriteHeader(http.StatusNoContent)
}

type departmentSignals struct {
	Department string `json:"department"`
}

// DepartmentHandler changes or clears the selected département.
func (s *Server) DepartmentHandler(w http.ResponseWriter, r *http.Request) {
	var sig departmentSignals
	if err := ds.ReadSignals(r, &sig); err != nil {
		s.l.Debug("error reading signals", map[string]any{"cause": err})
		http.Error(w, errBadSignals.Error(), http.StatusBadRequest)
		return
	}

	if sig.Department == "" {
		s.facade.ClearSelectedDepartment()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := s.facade.SelectDepartmentByCode(sig.Department); err != nil {
		if errors.Is(err, dashboard.ErrUnknownDepartment) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.l.Error(err, map[string]any{"handler": "department"})
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
