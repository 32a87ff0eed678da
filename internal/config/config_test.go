package config

import (
	"testing"
	"time"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.RunLocal {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.PaymentDelay != 3*time.Second || cfg.VerifyDelay != 2*time.Second || cfg.PrepDuration != 15*time.Second {
		t.Fatalf("unexpected delay defaults: %v %v %v", cfg.PaymentDelay, cfg.VerifyDelay, cfg.PrepDuration)
	}
	if cfg.OTPWindow != 5*time.Minute || cfg.OTPMaxAttempts != 5 {
		t.Fatalf("unexpected otp defaults")
	}
	if cfg.TaxRate.String() != "0.18" {
		t.Fatalf("expected tax rate 0.18, got %s", cfg.TaxRate)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.OTPMaxResends != 3 || cfg.SessionIdleTTL != 2*time.Hour || cfg.SessionReapInterval != time.Minute {
		t.Fatalf("unexpected session defaults: %+v", cfg)
	}
	if cfg.DemoMode {
		t.Fatal("demo mode must be off outside dev")
	}
}

func TestFromEnv_DemoModeFollowsEnv(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"APP_ENV": "dev"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.DemoMode {
		t.Fatal("demo mode should default on in dev")
	}

	cfg, err = FromEnv(env(map[string]string{"APP_ENV": "dev", "DEMO_MODE": "false"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DemoMode {
		t.Fatal("explicit DEMO_MODE=false ignored")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"RUN_LOCAL":             "true",
		"PREP_DURATION":         "90s",
		"OTP_MAX_ATTEMPTS":      "3",
		"PAYMENT_DECLINE_RATE":  "0.25",
		"BILL_EXPORT_QUEUE_URL": "https://sqs.local/q",
		"ALLOWED_ORIGINS":       "https://a.example, https://b.example",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.RunLocal || cfg.PrepDuration != 90*time.Second || cfg.OTPMaxAttempts != 3 || cfg.DeclineRate != 0.25 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ExportQueueURL != "https://sqs.local/q" {
		t.Fatalf("queue url not applied")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"duration":     {"PAYMENT_DELAY": "soon"},
		"integer":      {"OTP_MAX_ATTEMPTS": "many"},
		"decline rate": {"PAYMENT_DECLINE_RATE": "1.5"},
		"tax rate":     {"TAX_RATE": "-0.1"},
		"bool":         {"DEMO_MODE": "perhaps"},
	}
	for name, vars := range cases {
		if _, err := FromEnv(env(vars)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
