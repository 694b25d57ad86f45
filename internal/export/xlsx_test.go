package export

import (
	"bytes"
	"testing"
	"time"

	"chanlytics/internal/calls"
	"chanlytics/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func secs(n int) *int { return &n }

func TestWriteXLSX(t *testing.T) {
	records := []calls.Record{
		{ID: "a", PhoneNumber: "+15550101111", Duration: secs(125), CallType: calls.CallTypeIncoming, AppointmentBooked: true, Rating: 4, CallTime: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)},
		{ID: "b", PhoneNumber: "+12123334444", CallType: calls.CallTypeMissed, CallTime: time.Date(2024, 5, 2, 14, 5, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, records, table.Columns, time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Phone Number", "Duration", "Call Type", "Appointment", "Rating", "Call Time"}, rows[0])
	assert.Equal(t, []string{"+15550101111", "02:05", "Incoming", "Yes", "4", "May 1, 2024 09:30"}, rows[1])
	assert.Equal(t, []string{"+12123334444", "00:00", "Missed", "No", "N/A", "May 2, 2024 14:05"}, rows[2])
}

func TestWriteXLSX_OnlyVisibleColumns(t *testing.T) {
	vis := table.SeedVisibility(400)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil, table.VisibleColumns(vis), time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Phone Number", "Call Time"}, rows[0])
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "calls_2024-05-01.xlsx", Filename(now, nil))
	assert.Equal(t, "calls_2024-05-02.xlsx", Filename(now, time.FixedZone("UTC+2", 2*3600)))
}
