package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chanlytics/internal/audit"
	"chanlytics/internal/auth"
	"chanlytics/internal/billing"
	"chanlytics/internal/calls"
	"chanlytics/internal/config"
	"chanlytics/internal/dashboard"
	"chanlytics/internal/detail"
	"chanlytics/internal/export"
	"chanlytics/internal/metrics"
	"chanlytics/internal/source"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type stubProvider struct {
	updateErr error
}

func (p *stubProvider) SignInWithPassword(ctx context.Context, email, password string) (auth.ProviderSession, error) {
	if password != "hunter2" {
		return auth.ProviderSession{}, fmt.Errorf("%w: bad password", auth.ErrInvalidCredentials)
	}
	return auth.ProviderSession{
		AccessToken: "p-access",
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        auth.User{ID: "u-1", Email: email, CompanyName: "Acme Dental"},
	}, nil
}

func (p *stubProvider) RefreshSession(ctx context.Context, refreshToken string) (auth.ProviderSession, error) {
	return auth.ProviderSession{}, errors.New("not used")
}

func (p *stubProvider) SignOut(ctx context.Context, accessToken string) error { return nil }

func (p *stubProvider) GetUser(ctx context.Context, accessToken string) (auth.User, error) {
	return auth.User{ID: "u-1", Email: "jane@example.com", CompanyName: "Acme Dental"}, nil
}

func (p *stubProvider) UpdateUser(ctx context.Context, accessToken string, metadata map[string]any) (auth.User, error) {
	if p.updateErr != nil {
		return auth.User{}, p.updateErr
	}
	name, _ := metadata["company_name"].(string)
	return auth.User{ID: "u-1", Email: "jane@example.com", CompanyName: name}, nil
}

type env struct {
	router   *gin.Engine
	handlers Handlers
	provider *stubProvider
	auth     *auth.Context
	repo     *source.MemoryRepo
	audio    *httptest.Server
}

func strPtr(s string) *string { return &s }
func secs(n int) *int         { return &n }

func newEnv(t *testing.T, start bool) *env {
	t.Helper()

	audio := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "broken.mp3") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	}))
	t.Cleanup(audio.Close)

	now := time.Now()
	repo := source.NewMemoryRepo(
		calls.Record{ID: "a", PhoneNumber: "+15550101111", Duration: secs(120), CallType: calls.CallTypeIncoming, AppointmentBooked: true, Rating: 5, CallTime: now.Add(-time.Hour), RecordingURL: strPtr(audio.URL + "/rec/a.mp3"), Transcript: strPtr("hello")},
		calls.Record{ID: "b", PhoneNumber: "+12123334444", Duration: secs(60), CallType: calls.CallTypeOutgoing, Rating: 3, CallTime: now.Add(-2 * time.Hour)},
		calls.Record{ID: "c", PhoneNumber: "+13105550000", CallType: calls.CallTypeMissed, CallTime: now.Add(-3 * time.Hour), RecordingURL: strPtr(audio.URL + "/rec/broken.mp3")},
	)

	tokens, err := auth.NewManager(config.SessionConfig{Secret: "test-secret", Issuer: "chanlytics", AccessTTL: 15 * time.Minute, RefreshTTL: time.Hour})
	require.NoError(t, err)

	m := metrics.New()
	provider := &stubProvider{}
	ac := auth.NewContext(provider, auth.NewMemoryStore(), tokens, auth.WithMetrics(m))
	if start {
		require.NoError(t, ac.Start(context.Background()))
	}

	src := source.New(repo, source.WithMetrics(m))
	h := Handlers{
		Auth:       ac,
		Dashboard:  dashboard.NewService(src, dashboard.WithMetrics(m)),
		Downloader: detail.NewDownloader(audio.Client(), m, time.UTC),
		Billing:    billing.NewService(src, billing.Rate{PerMinuteMinor: 50}),
		Audit:      audit.NewService(audit.NewMemoryRepo(20)),
		Clock:      func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	}

	r := gin.New()
	Register(r, h, m)
	return &env{router: r, handlers: h, provider: provider, auth: ac, repo: repo, audio: audio}
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) login(t *testing.T) (access, refresh string) {
	t.Helper()
	w := e.do(http.MethodPost, "/v1/auth/login", "", gin.H{"email": "jane@example.com", "password": "hunter2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.AccessToken, out.RefreshToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	e := newEnv(t, false)
	w := e.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["auth_ready"])
}

func TestHealth_DBDown(t *testing.T) {
	e := newEnv(t, true)
	e.handlers.DBCheck = func(context.Context) error { return errors.New("db ping failed") }
	r := gin.New()
	Register(r, e.handlers, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", decode(t, w)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t, true)
	w := e.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtected_LoadingBeforeStart(t *testing.T) {
	e := newEnv(t, false)
	w := e.do(http.MethodGet, "/v1/dashboard", "whatever", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestProtected_RedirectsWithoutSession(t *testing.T) {
	e := newEnv(t, true)
	w := e.do(http.MethodGet, "/v1/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, auth.LoginPath, decode(t, w)["redirect"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	e := newEnv(t, true)

	w := e.do(http.MethodPost, "/v1/auth/login", "", gin.H{"email": "jane@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid login credentials", decode(t, w)["error"])

	w = e.do(http.MethodPost, "/v1/auth/login", "", gin.H{"email": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginAndProfile(t *testing.T) {
	e := newEnv(t, true)
	access, _ := e.login(t)

	w := e.do(http.MethodGet, "/v1/me", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, "Acme Dental", me["display_name"])
	assert.Equal(t, "AD", me["initials"])
}

func TestUpdateCompany(t *testing.T) {
	e := newEnv(t, true)
	access, _ := e.login(t)

	w := e.do(http.MethodPut, "/v1/me/company", access, gin.H{"company_name": "Bright Smile"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bright Smile", decode(t, w)["company_name"])

	e.provider.updateErr = errors.New("upstream down")
	w = e.do(http.MethodPut, "/v1/me/company", access, gin.H{"company_name": "Other"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRefreshRotatesTokens(t *testing.T) {
	e := newEnv(t, true)
	_, refresh := e.login(t)

	w := e.do(http.MethodPost, "/v1/auth/refresh", "", gin.H{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["access_token"])

	w = e.do(http.MethodPost, "/v1/auth/refresh", "", gin.H{"refresh_token": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboard(t *testing.T) {
	e := newEnv(t, true)
	access, _ := e.login(t)

	w := e.do(http.MethodGet, "/v1/dashboard", access, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var ov dashboard.Overview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ov))
	assert.Equal(t, 3, ov.KPIs.TotalCalls)
	assert.Equal(t, 1, ov.KPIs.AppointmentsBooked)
	assert.Equal(t, 90, ov.KPIs.AverageDurationSeconds)
	assert.Equal(t, 3, ov.Table.Total)
}

func TestUpdateView(t *testing.T) {
	e := newEnv(t, true)
	access, _ := e.login(t)

	w := e.do(http.MethodPatch, "/v1/calls/view", access, gin.H{"search": "2123"})
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Table struct {
			Total int `json:"total"`
			Rows  []struct {
				ID string `json:"id"`
			} `json:"rows"`
		} `json:"table"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, 1, out.Table.Total)
	assert.Equal(t, "b", out.Table.Rows[0].ID)

	w = e.do(http.MethodGet, "/v1/calls", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["total"])
}

func TestCallDetail(t *testing.T) {
	e := newEnv(t, true)
	access, _ := e.login(t)

	w := e.do(http.MethodGet, "/v1/calls/a", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Call Details: +15550101111", decode(t, w)["title"])

	w = e.do(http.MethodGet, "/v1/calls/zzz", access, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecording(t *testing.T) {
	e := newEnv(t, true)
	access, _ := e.login(t)

	w := e.do(http.MethodGet, "/v1/calls/a/recording", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "call_+15550101111_")
	assert.Equal(t, "ID3audio", w.Body.String())

	w = e.do(http.MethodGet, "/v1/calls/b/recording", access, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodGet, "/v1/calls/c/recording", access, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestExport(t *testing.T) {
	e := newEnv(t, true)
	access, _ := e.login(t)

	w := e.do(http.MethodGet, "/v1/calls/export", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="calls_2024-05-01.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.NotZero(t, w.Body.Len())
}

func TestBilling(t *testing.T) {
	e := newEnv(t, true)
	access, _ := e.login(t)

	w := e.do(http.MethodGet, "/v1/billing", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var est billing.Estimate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &est))
	assert.Equal(t, 3, est.Calls)
	assert.Equal(t, 180, est.TotalSeconds)
}

func TestLogout(t *testing.T) {
	e := newEnv(t, true)
	access, _ := e.login(t)

	w := e.do(http.MethodPost, "/v1/auth/logout", access, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(http.MethodGet, "/v1/me", access, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActivity(t *testing.T) {
	e := newEnv(t, true)
	access, _ := e.login(t)

	w := e.do(http.MethodGet, "/v1/calls/a/recording", access, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/v1/me/activity", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Events []audit.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Events, 2)
	assert.Equal(t, audit.EventRecordingDownloaded, out.Events[0].Type)
	assert.Equal(t, "a", out.Events[0].CallID)
	assert.Equal(t, audit.EventSignIn, out.Events[1].Type)

	w = e.do(http.MethodGet, "/v1/me/activity?limit=x", access, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
