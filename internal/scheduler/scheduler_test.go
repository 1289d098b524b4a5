package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/i474232898/temperature-dashboard/internal/logger"
	"github.com/i474232898/temperature-dashboard/internal/state"
)

type fakeDashboard struct {
	mu          sync.Mutex
	departments int
	dates       []time.Time
	date        *state.Subject[time.Time]
	err         error
}

func (f *fakeDashboard) LoadDepartments(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.departments++
	return f.err
}

func (f *fakeDashboard) LoadTemperaturesForDate(_ context.Context, date time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dates = append(f.dates, date)
	return f.err
}

func (f *fakeDashboard) SelectedDate() state.Observable[time.Time] {
	return f.date
}

func TestRefreshReloadsDepartmentsAndSelectedDate(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d := &fakeDashboard{date: state.NewBehaviorSubject(day)}

	s := New(time.Hour, d, logger.Nop())
	s.Refresh()

	assert.Equal(t, 1, d.departments)
	assert.Equal(t, []time.Time{day}, d.dates)
}

func TestRefreshLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := &fakeDashboard{date: state.NewBehaviorSubject(time.Now()), err: errors.New("upstream down")}

	s := New(time.Hour, d, logger.NewWithCore("test", "test", core))
	s.Refresh()

	assert.Equal(t, 2, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestStartAndStop(t *testing.T) {
	d := &fakeDashboard{date: state.NewBehaviorSubject(time.Now())}

	s := New(time.Hour, d, logger.Nop())
	assert.NoError(t, s.Start())
	s.Stop()

	assert.Zero(t, d.departments, "first run waits for the schedule")
}
