package export

import (
	"fmt"
	"io"
	"time"

	"chanlytics/internal/calls"
	"chanlytics/internal/table"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Calls"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteXLSX writes rows as a single-sheet workbook with one column per
// entry of columns. The actions column has no data and is skipped.
func WriteXLSX(w io.Writer, rows []calls.Record, columns []table.Column, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cols := make([]table.Column, 0, len(columns))
	for _, c := range columns {
		if c.Key != table.ColumnActions {
			cols = append(cols, c)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.Label
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if len(cols) > 0 {
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		last, _ := excelize.ColumnNumberToName(len(cols))
		if err := f.SetCellStyle(SheetName, "A1", last+"1", bold); err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, "A", last, 20); err != nil {
			return err
		}
	}

	for i, r := range rows {
		vals := make([]any, len(cols))
		for j, c := range cols {
			vals[j] = cellValue(r, c.Key, loc)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &vals); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(r calls.Record, key table.ColumnKey, loc *time.Location) any {
	switch key {
	case table.ColumnID:
		return r.ID
	case table.ColumnPhoneNumber:
		return r.PhoneNumber
	case table.ColumnDuration:
		return calls.FormatDuration(r.Seconds())
	case table.ColumnCallType:
		return string(r.CallType)
	case table.ColumnAppointmentBooked:
		return r.AppointmentLabel()
	case table.ColumnRating:
		if r.Rating == 0 {
			return "N/A"
		}
		return r.Rating
	case table.ColumnCallTime:
		if r.CallTime.IsZero() {
			return ""
		}
		return r.CallTime.In(loc).Format(calls.LayoutTable)
	case table.ColumnTranscript:
		if r.Transcript == nil {
			return ""
		}
		return *r.Transcript
	case table.ColumnRecordingURL:
		if r.RecordingURL == nil {
			return ""
		}
		return *r.RecordingURL
	}
	return ""
}

// Filename is the attachment name for an export generated at now.
func Filename(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return "calls_" + now.In(loc).Format(calls.LayoutDate) + ".xlsx"
}
