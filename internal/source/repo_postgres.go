package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chanlytics/internal/calls"
)

// PostgresRepo reads the calls table directly. The *sql.DB is expected to
// use the pgx stdlib driver (see utils.OpenPostgres).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const listSinceQuery = `
SELECT ` + calls.Columns + `
FROM calls
WHERE start_time >= $1
ORDER BY start_time DESC
`

func (r *PostgresRepo) ListSince(ctx context.Context, since time.Time) ([]calls.Record, error) {
	rows, err := r.db.QueryContext(ctx, listSinceQuery, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	out := make([]calls.Record, 0)
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		out = append(out, calls.FromRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (calls.Row, error) {
	var (
		row      calls.Row
		booked   sql.NullBool
		callType sql.NullString
	)
	err := s.Scan(
		&row.ID,
		&row.Summary,
		&row.Transcript,
		&row.RecordingURL,
		&row.StartTime,
		&row.EndTime,
		&row.Duration,
		&row.FromNumber,
		&row.ToNumber,
		&row.AgentID,
		&booked,
		&row.Rating,
		&callType,
		&row.CallReason,
		&row.CreatedAt,
		&row.UserSentiment,
	)
	row.AppointmentBooked = booked.Bool
	row.CallType = calls.CallType(callType.String)
	return row, err
}
