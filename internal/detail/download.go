package detail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"chanlytics/internal/calls"
	"chanlytics/internal/metrics"
	"chanlytics/pkg/logger"
)

var ErrDownload = errors.New("detail: recording download failed")

// Recording is an open recording stream. The caller must Close it.
type Recording struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Filename      string
}

func (r Recording) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Downloader fetches recordings. Failures are not retried.
type Downloader struct {
	client  *http.Client
	metrics *metrics.Metrics
	loc     *time.Location
}

func NewDownloader(client *http.Client, m *metrics.Metrics, loc *time.Location) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Downloader{client: client, metrics: m, loc: loc}
}

// Download opens the record's recording. A record without a URL is a
// no-op: it is logged and reported with ok=false and a nil error.
func (d *Downloader) Download(ctx context.Context, r calls.Record) (Recording, bool, error) {
	log := logger.From(ctx).With(slog.String("call_id", r.ID))
	if !r.HasRecording() {
		d.metrics.ObserveDownload(metrics.ResultSkipped)
		log.Info("download skipped: no recording url")
		return Recording{}, false, nil
	}
	src := *r.RecordingURL

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		d.metrics.ObserveDownload(metrics.ResultError)
		log.Error("download failed", slog.Any("err", err))
		return Recording{}, false, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		d.metrics.ObserveDownload(metrics.ResultError)
		log.Error("download failed", slog.Any("err", err))
		return Recording{}, false, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		d.metrics.ObserveDownload(metrics.ResultError)
		log.Error("download failed", slog.Int("status", resp.StatusCode))
		return Recording{}, false, fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	d.metrics.ObserveDownload(metrics.ResultOK)
	return Recording{
		Body:          resp.Body,
		ContentType:   ct,
		ContentLength: resp.ContentLength,
		Filename:      Filename(r, ExtFromURL(src), d.loc),
	}, true, nil
}
