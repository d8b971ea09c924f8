package engine_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stundenwerk/timetrack-engine/engine"
)

// =============================================================================
// DAY
// =============================================================================

func TestDayOf_TruncatesToLocalMidnight(t *testing.T) {
	at := time.Date(2024, time.March, 13, 23, 45, 12, 0, time.Local)
	d := engine.DayOf(at)

	assert.Equal(t, "2024-03-13", d.String())
	assert.True(t, d.Contains(at))
	assert.False(t, d.Contains(d.NextMidnight()))
	assert.True(t, d.Contains(d.Start()))
}

func TestDay_JSONRoundTrip(t *testing.T) {
	d := engine.NewDay(2024, time.February, 29)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-02-29"`, string(data))

	var back engine.Day
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, d.Equal(back))

	assert.Error(t, json.Unmarshal([]byte(`"29.02.2024"`), &back))
}

func TestParseDay_RejectsMalformed(t *testing.T) {
	_, err := engine.ParseDay("2024-03-13")
	assert.NoError(t, err)
	_, err = engine.ParseDay("13/03/2024")
	assert.Error(t, err)
}

func TestDay_ISOWeekKey_YearBoundary(t *testing.T) {
	// The nearest-Thursday rule puts the last days of December into week 1
	// of the next year, and early January into week 52/53 of the prior one.
	tests := []struct {
		day  engine.Day
		want string
	}{
		{engine.NewDay(2024, time.December, 31), "2025-W01"}, // Tuesday
		{engine.NewDay(2025, time.January, 1), "2025-W01"},
		{engine.NewDay(2023, time.January, 1), "2022-W52"}, // Sunday
		{engine.NewDay(2024, time.March, 13), "2024-W11"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.day.ISOWeekKey(), "day %s", tt.day)
	}
}

// =============================================================================
// STANDARD WINDOWS
// =============================================================================

func TestWeekWindow_MondayThroughSunday(t *testing.T) {
	// Any day of the week maps to the same Monday-Sunday window.
	for offset := 0; offset < 7; offset++ {
		d := engine.NewDay(2024, time.March, 11).AddDays(offset) // Mon..Sun
		w := engine.WeekWindow(d)

		assert.Equal(t, "2024-03-11", w.Start.String(), "from %s", d)
		assert.Equal(t, "2024-03-17", w.End.String(), "from %s", d)
	}

	// A Sunday belongs to the week opened by the preceding Monday.
	sunday := engine.NewDay(2024, time.March, 10)
	w := engine.WeekWindow(sunday)
	assert.Equal(t, "2024-03-04", w.Start.String())
	assert.Equal(t, "2024-03-10", w.End.String())
}

func TestMonthWindow_HandlesLeapFebruary(t *testing.T) {
	w := engine.MonthWindow(engine.NewDay(2024, time.February, 15))
	assert.Equal(t, "2024-02-01", w.Start.String())
	assert.Equal(t, "2024-02-29", w.End.String())
	assert.Len(t, w.Days(), 29)
}

func TestLastMonthWindow_CrossesYearBoundary(t *testing.T) {
	w := engine.LastMonthWindow(engine.NewDay(2024, time.January, 15))
	assert.Equal(t, "2023-12-01", w.Start.String())
	assert.Equal(t, "2023-12-31", w.End.String())
}

// =============================================================================
// WINDOW ARITHMETIC
// =============================================================================

func TestWindow_Intersect(t *testing.T) {
	march := engine.MonthWindow(engine.NewDay(2024, time.March, 1))

	overlapping := engine.Window{
		Start: engine.NewDay(2024, time.March, 29),
		End:   engine.NewDay(2024, time.April, 2),
	}
	clipped, ok := march.Intersect(overlapping)
	require.True(t, ok)
	assert.Equal(t, "2024-03-29", clipped.Start.String())
	assert.Equal(t, "2024-03-31", clipped.End.String())

	disjoint := engine.Window{
		Start: engine.NewDay(2024, time.May, 1),
		End:   engine.NewDay(2024, time.May, 5),
	}
	_, ok = march.Intersect(disjoint)
	assert.False(t, ok)

	// Single shared day.
	touching := engine.Window{
		Start: engine.NewDay(2024, time.March, 31),
		End:   engine.NewDay(2024, time.April, 30),
	}
	clipped, ok = march.Intersect(touching)
	require.True(t, ok)
	assert.True(t, clipped.Start.Equal(clipped.End))
}

func TestWindow_ContainsInstant_UsesLocalDay(t *testing.T) {
	w := engine.DayWindow(engine.NewDay(2024, time.March, 13))

	assert.True(t, w.ContainsInstant(time.Date(2024, time.March, 13, 0, 0, 0, 0, time.Local)))
	assert.True(t, w.ContainsInstant(time.Date(2024, time.March, 13, 23, 59, 59, 0, time.Local)))
	assert.False(t, w.ContainsInstant(time.Date(2024, time.March, 14, 0, 0, 0, 0, time.Local)))
}
