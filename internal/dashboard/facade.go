package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/temperature-dashboard/internal/common"
	"github.com/i474232898/temperature-dashboard/internal/logger"
	"github.com/i474232898/temperature-dashboard/internal/models"
	"github.com/i474232898/temperature-dashboard/internal/state"
	"github.com/i474232898/temperature-dashboard/internal/store"
)

var (
	// ErrUnknownDepartment is returned when a code matches no loaded département.
	ErrUnknownDepartment = errors.New("unknown department")
	// ErrNoSelection is returned when an operation needs a selected département.
	ErrNoSelection = errors.New("no department selected")
	// ErrNotLoaded is returned when the selected date has no cached temperatures yet.
	ErrNotLoaded = errors.New("temperatures not loaded for selected date")
)

// Facade is the single entry point views use to read and change dashboard state.
// It owns no state itself: it wires the stores to the upstream APIs.
type Facade struct {
	departmentsAPI  DepartmentsAPI
	temperaturesAPI TemperaturesAPI

	departments   *state.DepartmentsStore
	temperatures  *state.TemperatureStore
	dateSelection *state.DateSelectionStore

	historyMonths int
	history       *store.HistoryCache
	now           func() time.Time
	l             *logger.Logger
}

// Option customises a Facade.
type Option func(*Facade)

// WithHistoryMonths sets the width of the history window around the selected date.
func WithHistoryMonths(months int) Option {
	return func(f *Facade) {
		if months > 0 {
			f.historyMonths = months
		}
	}
}

// WithHistoryCache caches history windows so reselecting a département does not refetch.
func WithHistoryCache(c *store.HistoryCache) Option {
	return func(f *Facade) { f.history = c }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Facade) { f.now = now }
}

// WithLogger sets the logger; the default discards.
func WithLogger(l *logger.Logger) Option {
	return func(f *Facade) { f.l = l }
}

func NewFacade(
	departmentsAPI DepartmentsAPI,
	temperaturesAPI TemperaturesAPI,
	departments *state.DepartmentsStore,
	temperatures *state.TemperatureStore,
	dateSelection *state.DateSelectionStore,
	opts ...Option,
) *Facade {
	f := &Facade{
		departmentsAPI:  departmentsAPI,
		temperaturesAPI: temperaturesAPI,
		departments:     departments,
		temperatures:    temperatures,
		dateSelection:   dateSelection,
		historyMonths:   3,
		now:             time.Now,
		l:               logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// LoadDepartments fetches the département list and replaces the stored one.
func (f *Facade) LoadDepartments(ctx context.Context) error {
	departments, err := f.departmentsAPI.GetAllDepartments(ctx)
	if err != nil {
		f.l.Error(err, map[string]any{"operation": "load_departments"})
		return fmt.Errorf("load departments: %w", err)
	}

	f.departments.SetDepartments(departments)
	f.l.Info("departments loaded", map[string]any{"count": len(departments)})
	return nil
}

func (f *Facade) Departments() state.Observable[[]models.Department] {
	return f.departments.Departments()
}

func (f *Facade) SelectedDepartment() state.Observable[*models.Department] {
	return f.departments.SelectedDepartment()
}

func (f *Facade) SetSelectedDepartment(d models.Department) {
	f.departments.SetSelectedDepartment(&d)
}

// SelectDepartmentByCode selects the loaded département with the given code.
func (f *Facade) SelectDepartmentByCode(code string) error {
	d, ok := f.departments.FindByCode(code)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDepartment, code)
	}
	f.departments.SetSelectedDepartment(&d)
	return nil
}

func (f *Facade) ClearSelectedDepartment() {
	f.departments.SetSelectedDepartment(nil)
}

func (f *Facade) SelectedDate() state.Observable[time.Time] {
	return f.dateSelection.SelectedDate()
}

// SetSelectedDate selects the day containing date.
func (f *Facade) SetSelectedDate(date time.Time) {
	f.dateSelection.SetSelectedDate(common.StartOfDay(date))
}

// LoadTemperaturesForSelectedDateIfNotLoaded watches the selected date and fetches its
// temperatures whenever it is neither cached nor already being fetched. The watch runs
// until stop is called or ctx is done; fetches use ctx.
func (f *Facade) LoadTemperaturesForSelectedDateIfNotLoaded(ctx context.Context) (stop func()) {
	watch := state.CombineLatest2(f.dateSelection.SelectedDate(), f.temperatures.LoadedDates())

	cancel := watch.Subscribe(func(p state.Pair[time.Time, []string]) {
		if ctx.Err() != nil {
			return
		}
		date, loaded := p.First, p.Second
		key := f.temperatures.FormatDate(date)
		if slices.Contains(loaded, key) {
			return
		}

		token, ok := f.temperatures.Begin(key)
		if !ok {
			return
		}
		f.l.Debug("loading temperatures", map[string]any{"date": key})
		go func() {
			_ = f.loadDate(ctx, date, key, token)
		}()
	})

	var once sync.Once
	stopWatch := func() { once.Do(cancel) }
	unregister := context.AfterFunc(ctx, stopWatch)
	return func() {
		unregister()
		stopWatch()
	}
}

// LoadTemperaturesForDate fetches and stores the temperatures of every département on date,
// replacing whatever is cached for it. A load started later for the same date wins.
func (f *Facade) LoadTemperaturesForDate(ctx context.Context, date time.Time) error {
	key := f.temperatures.FormatDate(date)
	token := f.temperatures.BeginForced(key)
	return f.loadDate(ctx, date, key, token)
}

func (f *Facade) loadDate(ctx context.Context, date time.Time, key, token string) error {
	res, err := f.temperaturesAPI.GetDepartmentsTemperatureForDate(ctx, date)
	if err != nil {
		_ = f.temperatures.Fail(key, token, err)
		f.l.Error(err, map[string]any{"operation": "load_temperatures", "date": key})
		return fmt.Errorf("load temperatures for %s: %w", key, err)
	}

	if err := f.temperatures.Complete(key, token, res.Results); err != nil {
		f.l.Debug("discarding superseded temperature load", map[string]any{"date": key})
		return nil
	}
	f.l.Info("temperatures loaded", map[string]any{"date": key, "count": len(res.Results)})
	return nil
}

// TemperatureStatus reports the cache state of date.
func (f *Facade) TemperatureStatus(date time.Time) state.TemperatureEntry {
	return f.temperatures.Entry(f.temperatures.FormatDate(date))
}

// TemperatureEntries reports the cache state of every known date, newest first.
func (f *Facade) TemperatureEntries() []state.TemperatureEntry {
	return f.temperatures.Entries()
}

// TemperatureDepartmentsForSelectedDate streams the cached observations of the selected
// date. Nothing is emitted while that date is not loaded.
func (f *Facade) TemperatureDepartmentsForSelectedDate() state.Observable[[]models.TemperatureDepartment] {
	byDate := state.SwitchMap(f.dateSelection.SelectedDate(), func(date time.Time) state.Observable[[]models.TemperatureDepartment] {
		return f.temperatures.ForDate(f.temperatures.FormatDate(date))
	})
	return state.Filter(byDate, func(data []models.TemperatureDepartment) bool { return data != nil })
}

// TemperaturesForSelectedDate is the current value of TemperatureDepartmentsForSelectedDate.
func (f *Facade) TemperaturesForSelectedDate() ([]models.TemperatureDepartment, error) {
	data, ok := state.Current(f.TemperatureDepartmentsForSelectedDate())
	if !ok {
		return nil, ErrNotLoaded
	}
	return data, nil
}

// SelectedDepartmentTemperatureForSelectedDate streams the observation of the selected
// département on the selected date. Nothing is emitted without a selection or a match.
func (f *Facade) SelectedDepartmentTemperatureForSelectedDate() state.Observable[models.TemperatureDepartment] {
	joined := state.CombineLatest2(f.departments.SelectedDepartment(), f.TemperatureDepartmentsForSelectedDate())

	return state.ObservableFunc[models.TemperatureDepartment](func(emit func(models.TemperatureDepartment)) func() {
		return joined.Subscribe(func(p state.Pair[*models.Department, []models.TemperatureDepartment]) {
			if p.First == nil {
				return
			}
			t, ok := FindTemperature(p.Second, p.First.Code)
			if !ok {
				f.l.Debug("no temperature for selected department", map[string]any{"department": p.First.Code})
				return
			}
			emit(t)
		})
	})
}

// DepartmentsWithTemperatureForSelectedDate streams copies of the département list
// carrying the mean temperature of the selected date.
func (f *Facade) DepartmentsWithTemperatureForSelectedDate() state.Observable[[]models.Department] {
	joined := state.CombineLatest2(f.departments.Departments(), f.TemperatureDepartmentsForSelectedDate())
	return state.Map(joined, func(p state.Pair[[]models.Department, []models.TemperatureDepartment]) []models.Department {
		return JoinTemperatures(p.First, p.Second)
	})
}

// TemperaturesForSelectedDepartmentAroundSelectedDate streams the history of the selected
// département around the selected date. Each change of either selection cancels the
// previous fetch; failures are logged and produce no emission.
func (f *Facade) TemperaturesForSelectedDepartmentAroundSelectedDate(ctx context.Context) state.Observable[[]models.TemperatureDepartment] {
	selection := state.Filter(
		state.CombineLatest2(f.departments.SelectedDepartment(), f.dateSelection.SelectedDate()),
		func(p state.Pair[*models.Department, time.Time]) bool { return p.First != nil },
	)

	return state.SwitchMap(selection, func(p state.Pair[*models.Department, time.Time]) state.Observable[[]models.TemperatureDepartment] {
		code, date := p.First.Code, p.Second
		return state.FromFunc(ctx, func(ctx context.Context) ([]models.TemperatureDepartment, error) {
			return f.TemperaturesAround(ctx, code, date)
		}, func(err error) {
			f.l.Error(err, map[string]any{"operation": "load_history", "department": code})
		})
	})
}

// TemperaturesForSelectedDepartment fetches the history of the current selection.
func (f *Facade) TemperaturesForSelectedDepartment(ctx context.Context) ([]models.TemperatureDepartment, error) {
	d, _ := state.Current(f.departments.SelectedDepartment())
	if d == nil {
		return nil, ErrNoSelection
	}
	date, _ := state.Current(f.dateSelection.SelectedDate())
	return f.TemperaturesAround(ctx, d.Code, date)
}

// TemperaturesAround fetches the observations of code inside Window(date), newest first.
func (f *Facade) TemperaturesAround(ctx context.Context, code string, date time.Time) ([]models.TemperatureDepartment, error) {
	from, to := Window(date, f.historyMonths, f.now())
	key := store.HistoryKey{Code: code, From: common.FormatDay(from), To: common.FormatDay(to)}

	if f.history != nil {
		if cached, err := f.history.Get(key); err == nil {
			return cached, nil
		}
	}

	res, err := f.temperaturesAPI.GetTemperaturesForDepartmentAndInterval(ctx, code, from, to)
	if err != nil {
		return nil, fmt.Errorf("load history of %s: %w", code, err)
	}

	out := make([]models.TemperatureDepartment, len(res.Results))
	copy(out, res.Results)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })

	if f.history != nil {
		f.history.Save(key, out)
	}
	return out, nil
}
