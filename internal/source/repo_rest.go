package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chanlytics/internal/calls"
)

var ErrUpstream = errors.New("source: upstream error")

// RESTRepo queries the calls table through the backend's PostgREST endpoint.
// Requests carry the anon key and, when present in ctx, the user's token.
type RESTRepo struct {
	baseURL string
	anonKey string
	client  *http.Client
}

func NewRESTRepo(baseURL, anonKey string, client *http.Client) *RESTRepo {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &RESTRepo{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  client,
	}
}

func (r *RESTRepo) ListSince(ctx context.Context, since time.Time) ([]calls.Record, error) {
	q := url.Values{}
	q.Set("select", strings.ReplaceAll(calls.Columns, " ", ""))
	q.Set("start_time", "gte."+since.UTC().Format(time.RFC3339Nano))
	q.Set("order", "start_time.desc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/rest/v1/calls?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	bearer := r.anonKey
	if tok, ok := AccessToken(ctx); ok {
		bearer = tok
	}
	req.Header.Set("apikey", r.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rows []restRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode calls: %w", err)
	}
	out := make([]calls.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, calls.FromRow(row.toRow()))
	}
	return out, nil
}

// restRow matches PostgREST output, whose timestamps may lack a zone offset.
type restRow struct {
	ID                string         `json:"id"`
	Summary           *string        `json:"summary"`
	Transcript        *string        `json:"transcript"`
	RecordingURL      *string        `json:"recording_url"`
	StartTime         pgTime         `json:"start_time"`
	EndTime           *pgTime        `json:"end_time"`
	Duration          *int           `json:"duration"`
	FromNumber        *string        `json:"from_number"`
	ToNumber          *string        `json:"to_number"`
	AgentID           *string        `json:"agent_id"`
	AppointmentBooked *bool          `json:"appointment_booked"`
	Rating            *int           `json:"rating"`
	CallType          calls.CallType `json:"call_type"`
	CallReason        *string        `json:"call_reason"`
	CreatedAt         pgTime         `json:"created_at"`
	UserSentiment     *string        `json:"user_sentiment"`
}

func (r restRow) toRow() calls.Row {
	row := calls.Row{
		ID:                r.ID,
		Summary:           r.Summary,
		Transcript:        r.Transcript,
		RecordingURL:      r.RecordingURL,
		StartTime:         time.Time(r.StartTime),
		Duration:          r.Duration,
		FromNumber:        r.FromNumber,
		ToNumber:          r.ToNumber,
		AgentID:           r.AgentID,
		AppointmentBooked: r.AppointmentBooked != nil && *r.AppointmentBooked,
		Rating:            r.Rating,
		CallType:          r.CallType,
		CallReason:        r.CallReason,
		CreatedAt:         time.Time(r.CreatedAt),
		UserSentiment:     r.UserSentiment,
	}
	if r.EndTime != nil {
		t := time.Time(*r.EndTime)
		row.EndTime = &t
	}
	return row
}

type pgTime time.Time

var pgTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
}

func (t *pgTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range pgTimeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			*t = pgTime(v)
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
