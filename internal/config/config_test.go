package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:       AppConfig{Env: "local", Port: 8080},
		Backend:   BackendConfig{URL: "https://example.supabase.co", AnonKey: "anon"},
		Dashboard: DashboardConfig{FetchWindowDays: 30},
		Billing:   BillingConfig{RatePerMinuteMinor: 50},
	}
}

func TestValidate_ReportsMissingBackend(t *testing.T) {
	c := Config{App: AppConfig{Port: 8080}, Dashboard: DashboardConfig{FetchWindowDays: 30}}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "SUPABASE_URL is required") || !strings.Contains(msg, "SUPABASE_ANON_KEY is required") {
		t.Fatalf("expected both backend errors aggregated, got %q", msg)
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validConfig()
	c.App.Env = ""
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.App.Env != "local" {
		t.Fatalf("expected local env, got %q", c.App.Env)
	}
	if c.App.Location != time.UTC {
		t.Fatalf("expected UTC location, got %v", c.App.Location)
	}
	if c.Session.Secret == "" || !c.Session.Ephemeral {
		t.Fatalf("expected generated session secret")
	}
	if c.Session.AccessTTL != 15*time.Minute || c.Session.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected ttl defaults: %v %v", c.Session.AccessTTL, c.Session.RefreshTTL)
	}
	if c.Backend.HTTPTimeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %v", c.Backend.HTTPTimeout)
	}
	if c.Billing.Currency != "USD" {
		t.Fatalf("expected USD, got %q", c.Billing.Currency)
	}
}

func TestValidate_ProductionRequiresSessionSecret(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "SESSION_SECRET") {
		t.Fatalf("expected SESSION_SECRET error, got %v", err)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	c := validConfig()
	c.App.Env = "qa"
	c.App.Timezone = "Mars/Olympus"
	c.Backend.URL = "not a url"
	c.Session.AccessTTL = time.Hour
	c.Session.RefreshTTL = time.Minute
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected errors")
	}
	for _, want := range []string{"APP_ENV", "APP_TIMEZONE", "SUPABASE_URL", "SESSION_REFRESH_TTL"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %q", want, err.Error())
		}
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_TIMEZONE", "America/New_York")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("FETCH_WINDOW_DAYS", "14")
	t.Setenv("BILLING_RATE_PER_MINUTE_MINOR", "75")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "5s")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.App.Port != 9090 || c.HTTPAddr() != ":9090" {
		t.Fatalf("unexpected port %d", c.App.Port)
	}
	if c.App.Location.String() != "America/New_York" {
		t.Fatalf("unexpected location %v", c.App.Location)
	}
	if c.Session.Ephemeral {
		t.Fatalf("explicit secret must not be ephemeral")
	}
	if c.Dashboard.FetchWindowDays != 14 || c.Billing.RatePerMinuteMinor != 75 {
		t.Fatalf("unexpected dashboard/billing config: %+v %+v", c.Dashboard, c.Billing)
	}
	if c.Backend.HTTPTimeout != 5*time.Second {
		t.Fatalf("unexpected timeout %v", c.Backend.HTTPTimeout)
	}
}

func TestLoad_ParseErrorsAggregate(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("SESSION_ACCESS_TTL", "soon")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected parse errors")
	}
	if !strings.HasPrefix(err.Error(), "config errors:") {
		t.Fatalf("expected aggregated errors, got %q", err.Error())
	}
}
