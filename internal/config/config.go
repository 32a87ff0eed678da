package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds every setting the API and worker read from the environment.
type Config struct {
	Env      string
	Addr     string
	RunLocal bool

	AWSRegion        string
	AWSEndpoint      string
	BillsTable       string
	IdempotencyTable string
	ExportQueueURL   string
	MetricsNamespace string
	IdempotencyTTL   time.Duration

	PaymentDelay   time.Duration
	VerifyDelay    time.Duration
	PrepDuration   time.Duration
	OTPWindow      time.Duration
	OTPMaxAttempts int
	OTPMaxResends  int
	DeclineRate    float64
	DemoMode       bool
	TaxRate        decimal.Decimal

	AllowedOrigins []string

	SessionIdleTTL      time.Duration
	SessionReapInterval time.Duration
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	r := reader{getenv: getenv}
	env := r.str("APP_ENV", "prod")
	cfg := Config{
		Env:      env,
		Addr:     r.str("ADDR", ":8080"),
		RunLocal: r.boolean("RUN_LOCAL", false),

		AWSRegion:        r.str("AWS_REGION", ""),
		AWSEndpoint:      r.str("AWS_ENDPOINT_OVERRIDE", ""),
		BillsTable:       r.str("BILLS_TABLE", ""),
		IdempotencyTable: r.str("IDEMPOTENCY_TABLE", ""),
		ExportQueueURL:   r.str("BILL_EXPORT_QUEUE_URL", ""),
		MetricsNamespace: r.str("METRICS_NAMESPACE", ""),
		IdempotencyTTL:   r.duration("IDEMPOTENCY_TTL", 48*time.Hour),

		PaymentDelay:   r.duration("PAYMENT_DELAY", 3*time.Second),
		VerifyDelay:    r.duration("VERIFY_DELAY", 2*time.Second),
		PrepDuration:   r.duration("PREP_DURATION", 15*time.Second),
		OTPWindow:      r.duration("OTP_WINDOW", 5*time.Minute),
		OTPMaxAttempts: r.integer("OTP_MAX_ATTEMPTS", 5),
		OTPMaxResends:  r.integer("OTP_MAX_RESENDS", 3),
		DeclineRate:    r.float("PAYMENT_DECLINE_RATE", 0),
		DemoMode:       r.boolean("DEMO_MODE", env == "dev"),
		TaxRate:        r.decimal("TAX_RATE", "0.18"),

		AllowedOrigins: r.list("ALLOWED_ORIGINS", []string{"*"}),

		SessionIdleTTL:      r.duration("SESSION_IDLE_TTL", 2*time.Hour),
		SessionReapInterval: r.duration("SESSION_REAP_INTERVAL", time.Minute),
	}
	if r.err != nil {
		return Config{}, r.err
	}
	if cfg.DeclineRate < 0 || cfg.DeclineRate > 1 {
		return Config{}, fmt.Errorf("PAYMENT_DECLINE_RATE must be within [0,1], got %v", cfg.DeclineRate)
	}
	if cfg.TaxRate.IsNegative() {
		return Config{}, fmt.Errorf("TAX_RATE must not be negative, got %s", cfg.TaxRate)
	}
	return cfg, nil
}

// reader records the first parse error and keeps returning defaults after it.
type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return d
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return f
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return b
}

func (r *reader) decimal(key, def string) decimal.Decimal {
	d, err := decimal.NewFromString(r.str(key, def))
	if err != nil {
		r.fail(key, err)
		return decimal.RequireFromString(def)
	}
	return d
}

func (r *reader) list(key string, def []string) []string {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
