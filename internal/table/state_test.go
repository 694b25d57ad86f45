package table

import (
	"testing"
	"time"

	"chanlytics/internal/calls"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedVisibility(t *testing.T) {
	wide := SeedVisibility(1024)
	assert.Equal(t, len(Columns), wide.VisibleCount())

	narrow := SeedVisibility(500)
	assert.Equal(t, 3, narrow.VisibleCount())
	assert.True(t, narrow[ColumnPhoneNumber])
	assert.True(t, narrow[ColumnCallTime])
	assert.True(t, narrow[ColumnActions])
	assert.False(t, narrow[ColumnDuration])

	assert.Equal(t, len(Columns), SeedVisibility(MobileBreakpoint).VisibleCount())
}

func TestResize_ReseedsOnlyWhenCrossingBreakpoint(t *testing.T) {
	st := NewState(1024)
	require.True(t, st.ToggleColumn(ColumnRating))
	require.False(t, st.Visibility[ColumnRating])

	// still wide: manual toggle survives
	assert.False(t, st.Resize(900))
	assert.False(t, st.Visibility[ColumnRating])

	assert.True(t, st.Resize(500))
	assert.Equal(t, 3, st.Visibility.VisibleCount())
	assert.False(t, st.Visibility[ColumnDuration])

	assert.False(t, st.Resize(600))

	// crossing back reseeds rather than restoring the old toggles
	assert.True(t, st.Resize(1024))
	assert.True(t, st.Visibility[ColumnRating])
	assert.Equal(t, len(Columns), st.Visibility.VisibleCount())

	assert.False(t, st.Resize(0))
	assert.Equal(t, 1024, st.ViewportWidth)
}

func TestToggleColumn_FloorProtectsHighPriority(t *testing.T) {
	st := NewState(500)
	require.Equal(t, 3, st.Visibility.VisibleCount())

	assert.False(t, st.ToggleColumn(ColumnCallTime))
	assert.True(t, st.Visibility[ColumnCallTime])

	// showing a column lifts the count above the floor
	require.True(t, st.ToggleColumn(ColumnDuration))
	assert.Equal(t, 4, st.Visibility.VisibleCount())
	assert.True(t, st.ToggleColumn(ColumnCallTime))
	assert.False(t, st.Visibility[ColumnCallTime])
	assert.Equal(t, 3, st.Visibility.VisibleCount())

	// low-priority columns are never protected
	assert.True(t, st.ToggleColumn(ColumnDuration))
	assert.Equal(t, 2, st.Visibility.VisibleCount())

	// below the floor the identifying columns still cannot be hidden
	assert.False(t, st.ToggleColumn(ColumnPhoneNumber))
	assert.False(t, st.ToggleColumn(ColumnActions))
	assert.True(t, st.Visibility[ColumnPhoneNumber])
	assert.True(t, st.Visibility[ColumnActions])
	assert.Equal(t, 2, st.Visibility.VisibleCount())

	assert.False(t, st.ToggleColumn("missing"))
}

func TestApply_RunsEveryChange(t *testing.T) {
	st := NewState(1280)
	term := "555"
	sel := "a"
	out := st.Apply(Event{
		Search:            &term,
		Sort:              ColumnDuration,
		ToggleAppointment: calls.AppointmentYes,
		ViewportWidth:     400,
		ToggleColumn:      ColumnActions,
		Select:            &sel,
	})

	assert.False(t, out.SortIgnored)
	assert.False(t, out.FilterIgnored)
	assert.True(t, out.VisibilityReseeded)
	assert.True(t, out.ColumnRefused)
	assert.Equal(t, "555", st.Search)
	assert.Equal(t, ColumnDuration, st.SortKey)
	assert.Equal(t, []string{calls.AppointmentYes}, st.AppointmentFilter)
	assert.Equal(t, "a", st.Selected)

	empty := ""
	out = st.Apply(Event{Sort: ColumnActions, ToggleAppointment: "x", Select: &empty})
	assert.True(t, out.SortIgnored)
	assert.True(t, out.FilterIgnored)
	assert.Empty(t, st.Selected)
}

func TestReset_KeepsVisibility(t *testing.T) {
	st := NewState(500)
	st.SetSearch("x")
	st.ToggleSort(ColumnRating)
	st.ToggleAppointmentFilter(calls.AppointmentNo)
	st.Select("a")
	st.ToggleColumn(ColumnDuration)

	st.Reset()
	assert.Empty(t, st.Search)
	assert.Empty(t, st.SortKey)
	assert.Equal(t, SortAsc, st.SortDir)
	assert.Empty(t, st.AppointmentFilter)
	assert.Empty(t, st.Selected)
	assert.True(t, st.Visibility[ColumnDuration])
	assert.Equal(t, 500, st.ViewportWidth)
}

func TestClone_DoesNotShareMaps(t *testing.T) {
	st := NewState(1280)
	st.ToggleAppointmentFilter(calls.AppointmentYes)
	cp := st.Clone()
	cp.Visibility[ColumnRating] = false
	cp.AppointmentFilter[0] = calls.AppointmentNo
	assert.True(t, st.Visibility[ColumnRating])
	assert.Equal(t, calls.AppointmentYes, st.AppointmentFilter[0])
}

func TestRender_EmptyShowsMessage(t *testing.T) {
	v := Render(nil, NewState(1280), time.UTC)
	assert.True(t, v.Empty)
	assert.Equal(t, EmptyMessage, v.Message)
	assert.Zero(t, v.Total)
	assert.NotNil(t, v.Rows)
	assert.Len(t, v.Columns, len(Columns))
}

func TestRender_FormatsRows(t *testing.T) {
	v := Render(fixture(), NewState(500), time.UTC)
	require.Equal(t, 4, v.Total)
	assert.False(t, v.Empty)
	assert.Empty(t, v.Message)
	require.Len(t, v.Columns, 3)
	assert.Equal(t, ColumnPhoneNumber, v.Columns[0].Key)

	a := v.Rows[0]
	assert.Equal(t, "02:00", a.Duration)
	assert.Equal(t, "4", a.Rating)
	assert.Equal(t, "Yes", a.AppointmentBooked)
	assert.Equal(t, "May 1, 2024 09:30", a.CallTime)

	b := v.Rows[1]
	assert.Equal(t, "00:00", b.Duration)
	assert.Nil(t, b.DurationSeconds)
	assert.Equal(t, "N/A", b.Rating)
}
