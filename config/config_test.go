package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseCurrency != "USD" || cfg.Workers != 4 || cfg.ParseTimeout != 30*time.Second || cfg.RateLookbackDays != 5 || cfg.RatesFile != "" {
		t.Errorf("Load() = %+v, want the defaults", cfg)
	}
	if src, err := cfg.Rates(); src != nil || err != nil {
		t.Errorf("Rates() = %v, %v, want no source", src, err)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "rates.jsonl", `{"on":"2025-05-27","base":"EUR","quote":"USD","rate":"1.10"}`+"\n")
	path := write(t, dir, "folio.yaml", `base_currency: eur
workers: 2
parse_timeout: 5s
rates_file: `+filepath.Join(dir, "rates.jsonl")+`
securities:
  AAPL: US0378331005
`)
	t.Setenv("FOLIO_WORKERS", "8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseCurrency != "EUR" || cfg.ParseTimeout != 5*time.Second {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8 from the environment", cfg.Workers)
	}
	if len(cfg.Securities) != 1 {
		t.Errorf("Securities = %v, want one link", cfg.Securities)
	}
	for ticker, isin := range cfg.Securities {
		if !strings.EqualFold(ticker, "AAPL") || isin != "US0378331005" {
			t.Errorf("Securities = %v", cfg.Securities)
		}
	}
	if src, err := cfg.Rates(); src == nil || err != nil {
		t.Errorf("Rates() = %v, %v, want a source", src, err)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	write(t, dir, ".env", "FOLIO_RATE_LOOKBACK_DAYS=9\n")
	t.Cleanup(func() { os.Unsetenv("FOLIO_RATE_LOOKBACK_DAYS") })

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RateLookbackDays != 9 {
		t.Errorf("RateLookbackDays = %d, want 9 from .env", cfg.RateLookbackDays)
	}
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	write(t, dir, ".env", "FOLIO-WORKERS=2\n")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), ".env") {
		t.Errorf("Load() error = %v, want a .env error", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name, content, want string
	}{
		{"currency", "base_currency: ABC\n", "invalid base_currency"},
		{"workers", "workers: 0\n", "workers must be positive"},
		{"securities", "securities:\n  XYZ: US123\n", "securities: xyz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, dir, tt.name+".yaml", tt.content)
			if _, err := Load(path); err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want %q", err, tt.want)
			}
		})
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load(missing file) want an error")
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := (&Config{LogLevel: "warn"}).Logger(&buf)
	log.Info().Msg("hidden")
	log.Warn().Str("source", "ubs.txt").Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, `"source":"ubs.txt"`) || !strings.Contains(out, `"message":"shown"`) {
		t.Errorf("warn message missing: %s", out)
	}
}
