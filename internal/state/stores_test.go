package state

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/temperature-dashboard/internal/models"
)

func TestTemperatureStoreBeginRefusesInFlightAndLoaded(t *testing.T) {
	s := NewTemperatureStore()

	token, ok := s.Begin("2024-01-01")
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok = s.Begin("2024-01-01")
	assert.False(t, ok, "in-flight date must not be fetched twice")

	require.NoError(t, s.Complete("2024-01-01", token, []models.TemperatureDepartment{{DepartmentCode: "75", TMoy: 4}}))

	_, ok = s.Begin("2024-01-01")
	assert.False(t, ok, "loaded date must not be fetched again")
	assert.Equal(t, Loaded, s.Entry("2024-01-01").Status)
	assert.Equal(t, 1, s.Entry("2024-01-01").Count)
}

func TestTemperatureStoreFailedDateCanBeRetried(t *testing.T) {
	s := NewTemperatureStore()

	token, ok := s.Begin("2024-01-01")
	require.True(t, ok)
	require.NoError(t, s.Fail("2024-01-01", token, errors.New("upstream down")))

	entry := s.Entry("2024-01-01")
	assert.Equal(t, Failed, entry.Status)
	assert.EqualError(t, entry.Err, "upstream down")

	_, ok = s.Begin("2024-01-01")
	assert.True(t, ok)
}

func TestTemperatureStoreRejectsStaleCompletion(t *testing.T) {
	s := NewTemperatureStore()
	s.AddTemperatureDepartmentsForDate("2024-01-01", []models.TemperatureDepartment{{DepartmentCode: "75"}})

	first := s.BeginForced("2024-01-01")
	second := s.BeginForced("2024-01-01")

	assert.ErrorIs(t, s.Complete("2024-01-01", first, []models.TemperatureDepartment{{DepartmentCode: "69"}}), ErrStaleLoad)
	require.NoError(t, s.Complete("2024-01-01", second, []models.TemperatureDepartment{{DepartmentCode: "13"}}))
	assert.ErrorIs(t, s.Complete("2024-01-01", first, nil), ErrStaleLoad)

	data, ok := Current(s.ForDate("2024-01-01"))
	require.True(t, ok)
	require.Len(t, data, 1)
	assert.Equal(t, "13", data[0].DepartmentCode)
}

func TestTemperatureStoreSupersededLoadFillsEmptyDate(t *testing.T) {
	s := NewTemperatureStore()

	first, _ := s.Begin("2024-01-01")
	second := s.BeginForced("2024-01-01")

	require.NoError(t, s.Complete("2024-01-01", first, []models.TemperatureDepartment{{DepartmentCode: "69"}}))
	assert.Equal(t, Loading, s.Entry("2024-01-01").Status, "newer load still pending")
	data, _ := Current(s.ForDate("2024-01-01"))
	require.Len(t, data, 1)
	assert.Equal(t, "69", data[0].DepartmentCode)

	require.NoError(t, s.Complete("2024-01-01", second, []models.TemperatureDepartment{{DepartmentCode: "13"}}))
	data, _ = Current(s.ForDate("2024-01-01"))
	require.Len(t, data, 1)
	assert.Equal(t, "13", data[0].DepartmentCode)
	assert.Equal(t, Loaded, s.Entry("2024-01-01").Status)
}

func TestTemperatureStoreSupersededLoadRecoversFailedDate(t *testing.T) {
	s := NewTemperatureStore()

	first, _ := s.Begin("2024-01-01")
	second := s.BeginForced("2024-01-01")
	require.NoError(t, s.Fail("2024-01-01", second, errors.New("timeout")))
	assert.Equal(t, Failed, s.Entry("2024-01-01").Status)

	require.NoError(t, s.Complete("2024-01-01", first, []models.TemperatureDepartment{{DepartmentCode: "75"}}))

	entry := s.Entry("2024-01-01")
	assert.Equal(t, Loaded, entry.Status)
	assert.NoError(t, entry.Err)
	assert.Equal(t, 1, entry.Count)
	loaded, _ := Current(s.LoadedDates())
	assert.Equal(t, []string{"2024-01-01"}, loaded)
}

func TestTemperatureStoreFailedRefreshKeepsData(t *testing.T) {
	s := NewTemperatureStore()
	s.AddTemperatureDepartmentsForDate("2024-01-01", []models.TemperatureDepartment{{DepartmentCode: "75"}})

	token := s.BeginForced("2024-01-01")
	require.NoError(t, s.Fail("2024-01-01", token, errors.New("timeout")))

	assert.Equal(t, Loaded, s.Entry("2024-01-01").Status)
	data, _ := Current(s.ForDate("2024-01-01"))
	assert.Len(t, data, 1)
}

func TestTemperatureStoreForDateDistinguishesAbsentFromEmpty(t *testing.T) {
	s := NewTemperatureStore()

	data, ok := Current(s.ForDate("2030-01-01"))
	require.True(t, ok)
	assert.Nil(t, data)

	s.AddTemperatureDepartmentsForDate("2030-01-01", nil)
	data, _ = Current(s.ForDate("2030-01-01"))
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestTemperatureStoreLoadedDatesSorted(t *testing.T) {
	s := NewTemperatureStore()
	s.AddTemperatureDepartmentsForDate("2024-03-01", nil)
	s.AddTemperatureDepartmentsForDate("2024-01-01", nil)

	dates, _ := Current(s.LoadedDates())
	assert.Equal(t, []string{"2024-01-01", "2024-03-01"}, dates)

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-03-01", entries[0].Date)
}

func TestTemperatureStoreFormatDate(t *testing.T) {
	s := NewTemperatureStore()
	assert.Equal(t, "2024-02-09", s.FormatDate(time.Date(2024, 2, 9, 13, 0, 0, 0, time.UTC)))
}

func TestDepartmentsStoreKeepsCanonicalListClean(t *testing.T) {
	s := NewDepartmentsStore()

	tmoy := 3.5
	input := []models.Department{{Code: "75", Name: "Paris", TMoy: &tmoy}}
	s.SetDepartments(input)
	input[0].Name = "changed"

	list, _ := Current(s.Departments())
	require.Len(t, list, 1)
	assert.Equal(t, "Paris", list[0].Name)
	assert.Nil(t, list[0].TMoy)

	d, ok := s.FindByCode("75")
	assert.True(t, ok)
	assert.Equal(t, "Paris", d.Name)

	_, ok = s.FindByCode("99")
	assert.False(t, ok)
}

func TestDepartmentsStoreSelection(t *testing.T) {
	s := NewDepartmentsStore()

	sel, ok := Current(s.SelectedDepartment())
	require.True(t, ok)
	assert.Nil(t, sel)

	d := models.Department{Code: "13", Name: "Bouches-du-Rhône"}
	s.SetSelectedDepartment(&d)
	d.Name = "changed"

	sel, _ = Current(s.SelectedDepartment())
	require.NotNil(t, sel)
	assert.Equal(t, "Bouches-du-Rhône", sel.Name)

	s.SetSelectedDepartment(nil)
	sel, _ = Current(s.SelectedDepartment())
	assert.Nil(t, sel)
}

func TestDateSelectionStore(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewDateSelectionStore(start)

	got, _ := Current(s.SelectedDate())
	assert.True(t, got.Equal(start))

	next := start.AddDate(0, 0, 1)
	s.SetSelectedDate(next)
	got, _ = Current(s.SelectedDate())
	assert.True(t, got.Equal(next))
}

func TestTemperatureStoreForDateIgnoresOtherDates(t *testing.T) {
	s := NewTemperatureStore()
	s.AddTemperatureDepartmentsForDate("2024-01-01", []models.TemperatureDepartment{{DepartmentCode: "75"}})

	var emissions int
	cancel := s.ForDate("2024-01-01").Subscribe(func([]models.TemperatureDepartment) { emissions++ })
	defer cancel()

	s.AddTemperatureDepartmentsForDate("2024-01-02", nil)
	assert.Equal(t, 1, emissions)

	s.AddTemperatureDepartmentsForDate("2024-01-01", []models.TemperatureDepartment{{DepartmentCode: "13"}})
	assert.Equal(t, 2, emissions)
}
