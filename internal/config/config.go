package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds all configuration required by the API process.
// All values come from env (or the .env files loaded by cmd/api before Load).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	Backend   BackendConfig
	DB        DBConfig
	Redis     RedisConfig
	Session   SessionConfig
	Dashboard DashboardConfig
	Billing   BillingConfig
}

type AppConfig struct {
	Env  string
	Port int

	// Timezone names the IANA zone used for day buckets and display times.
	Timezone string
	Location *time.Location
}

// BackendConfig points at the managed backend (auth + PostgREST).
type BackendConfig struct {
	URL         string
	AnonKey     string
	HTTPTimeout time.Duration
}

type DBConfig struct {
	// URL is optional; when empty calls are read through the REST API.
	URL string
}

type RedisConfig struct {
	// Addr is optional; when empty sessions are kept in process memory.
	Addr     string
	Password string
}

type SessionConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Ephemeral is set when Secret was generated at startup.
	Ephemeral bool
}

type DashboardConfig struct {
	FetchWindowDays int
}

type BillingConfig struct {
	RatePerMinuteMinor int64
	Currency           string
}

const (
	defaultPort            = 8080
	defaultFetchWindowDays = 30
	defaultRateMinor       = 50
	defaultHTTPTimeout     = 15 * time.Second
	defaultAccessTTL       = 15 * time.Minute
	defaultRefreshTTL      = 7 * 24 * time.Hour
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := optionalInt("APP_PORT", defaultPort)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.Timezone = strings.TrimSpace(os.Getenv("APP_TIMEZONE"))

	c.Backend.URL = strings.TrimSpace(os.Getenv("SUPABASE_URL"))
	c.Backend.AnonKey = strings.TrimSpace(os.Getenv("SUPABASE_ANON_KEY"))
	{
		d, err := optionalDuration("HTTP_CLIENT_TIMEOUT")
		parseErrs = appendErr(parseErrs, err)
		c.Backend.HTTPTimeout = d
	}

	c.DB.URL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	c.Redis.Addr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")

	c.Session.Secret = os.Getenv("SESSION_SECRET")
	c.Session.Issuer = strings.TrimSpace(os.Getenv("SESSION_ISSUER"))
	{
		d, err := optionalDuration("SESSION_ACCESS_TTL")
		parseErrs = appendErr(parseErrs, err)
		c.Session.AccessTTL = d

		d, err = optionalDuration("SESSION_REFRESH_TTL")
		parseErrs = appendErr(parseErrs, err)
		c.Session.RefreshTTL = d
	}

	{
		n, err := optionalInt("FETCH_WINDOW_DAYS", defaultFetchWindowDays)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Dashboard.FetchWindowDays = n
	}
	{
		n, err := optionalInt("BILLING_RATE_PER_MINUTE_MINOR", defaultRateMinor)
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Billing.RatePerMinuteMinor = int64(n)
	}
	c.Billing.Currency = strings.TrimSpace(os.Getenv("BILLING_CURRENCY"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		c.App.Env = "local"
	}
	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.Timezone == "" {
		c.App.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("APP_TIMEZONE is not a known zone: %q", c.App.Timezone))
	} else {
		c.App.Location = loc
	}

	if c.Backend.URL == "" {
		errs = append(errs, errors.New("SUPABASE_URL is required"))
	} else if u, err := url.Parse(c.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("SUPABASE_URL must be an absolute URL, got %q", c.Backend.URL))
	}
	if c.Backend.AnonKey == "" {
		errs = append(errs, errors.New("SUPABASE_ANON_KEY is required"))
	}
	if c.Backend.HTTPTimeout <= 0 {
		c.Backend.HTTPTimeout = defaultHTTPTimeout
	}

	if c.Session.Secret == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("SESSION_SECRET is required in production"))
		} else {
			secret, err := randomSecret()
			if err != nil {
				errs = append(errs, fmt.Errorf("generate session secret: %w", err))
			}
			c.Session.Secret = secret
			c.Session.Ephemeral = true
		}
	}
	if c.Session.Issuer == "" {
		c.Session.Issuer = "chanlytics"
	}
	if c.Session.AccessTTL <= 0 {
		c.Session.AccessTTL = defaultAccessTTL
	}
	if c.Session.RefreshTTL <= 0 {
		c.Session.RefreshTTL = defaultRefreshTTL
	}
	if c.Session.RefreshTTL <= c.Session.AccessTTL {
		errs = append(errs, errors.New("SESSION_REFRESH_TTL must be greater than SESSION_ACCESS_TTL"))
	}

	if c.Dashboard.FetchWindowDays <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_WINDOW_DAYS must be positive, got %d", c.Dashboard.FetchWindowDays))
	}
	if c.Billing.RatePerMinuteMinor < 0 {
		errs = append(errs, fmt.Errorf("BILLING_RATE_PER_MINUTE_MINOR must not be negative, got %d", c.Billing.RatePerMinuteMinor))
	}
	if c.Billing.Currency == "" {
		c.Billing.Currency = "USD"
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func optionalInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, v)
	}
	return d, nil
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func appendErr(errs []error, err error) []error {
	if err != nil {
		errs = append(errs, err)
	}
	return errs
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
