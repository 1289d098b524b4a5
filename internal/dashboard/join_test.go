package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/temperature-dashboard/internal/models"
)

func TestJoinTemperatures(t *testing.T) {
	departments := []models.Department{{Code: "75", Name: "Paris"}, {Code: "69", Name: "Rhône"}, {Code: "2A", Name: "Corse-du-Sud"}}
	temps := []models.TemperatureDepartment{
		{DepartmentCode: "69", TMoy: 9.8},
		{DepartmentCode: "75", TMoy: 12.3},
		{DepartmentCode: "75", TMoy: 99},
	}

	joined := JoinTemperatures(departments, temps)

	require.Len(t, joined, 3)
	require.NotNil(t, joined[0].TMoy)
	assert.Equal(t, 12.3, *joined[0].TMoy, "first match wins")
	require.NotNil(t, joined[1].TMoy)
	assert.Equal(t, 9.8, *joined[1].TMoy)
	assert.Nil(t, joined[2].TMoy)

	for _, d := range departments {
		assert.Nil(t, d.TMoy, "source list must not be mutated")
	}
}

func TestJoinTemperaturesClearsStaleValues(t *testing.T) {
	stale := 1.0
	departments := []models.Department{{Code: "75", TMoy: &stale}}

	joined := JoinTemperatures(departments, nil)
	assert.Nil(t, joined[0].TMoy)
	assert.Equal(t, 1.0, *departments[0].TMoy)
}

func TestCloneDepartmentsIsDeep(t *testing.T) {
	v := 3.0
	src := []models.Department{{Code: "01", TMoy: &v}}

	cp := CloneDepartments(src)
	*cp[0].TMoy = 4

	assert.Equal(t, 3.0, *src[0].TMoy)
}

func TestFindTemperature(t *testing.T) {
	temps := []models.TemperatureDepartment{{DepartmentCode: "13", TMoy: 11}}

	got, ok := FindTemperature(temps, "13")
	assert.True(t, ok)
	assert.Equal(t, 11.0, got.TMoy)

	_, ok = FindTemperature(temps, "75")
	assert.False(t, ok)
}

func TestWindow(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		date     time.Time
		months   int
		now      time.Time
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:     "centred in the past",
			date:     day(2024, 1, 15),
			months:   3,
			now:      day(2025, 1, 1),
			wantFrom: day(2023, 12, 1),
			wantTo:   day(2024, 2, 29),
		},
		{
			name:     "end clamped to today",
			date:     day(2024, 6, 1),
			months:   3,
			now:      day(2024, 6, 10),
			wantFrom: day(2024, 4, 17),
			wantTo:   day(2024, 6, 10),
		},
		{
			name:     "default width",
			date:     day(2024, 1, 15),
			months:   0,
			now:      day(2025, 1, 1),
			wantFrom: day(2023, 12, 1),
			wantTo:   day(2024, 2, 29),
		},
		{
			name:     "time of day ignored",
			date:     time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC),
			months:   1,
			now:      day(2025, 1, 1),
			wantFrom: day(2023, 12, 31),
			wantTo:   day(2024, 1, 30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := Window(tt.date, tt.months, tt.now)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}
