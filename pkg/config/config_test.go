package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://backend:8000
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Environment != "development" || c.Server.Port != 8080 {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if c.Query.StaleTime != 5*time.Minute || c.Query.GCTime != 10*time.Minute || c.Query.Retry != 1 {
		t.Fatalf("query defaults: %+v", c.Query)
	}
	if c.Query.GCSchedule != "@every 1m" || c.Diagnostics.Capacity != 256 {
		t.Fatalf("got %+v %+v", c.Query, c.Diagnostics)
	}
	if c.Logger.Level != "info" || !c.Server.CORS {
		t.Fatalf("logger/server defaults: %+v %+v", c.Logger, c.Server)
	}
	if c.Refetch.Burst != 5 || c.Refetch.PerSecond != 0.5 || c.Refetch.IdleAfter != 10*time.Minute {
		t.Fatalf("refetch defaults: %+v", c.Refetch)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
environment: production
server:
  port: 9090
  cors: false
backend:
  base_url: https://api.example.com
  timeout: 3s
query:
  stale_time: 30s
  retry: 0
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Environment != "production" || c.Server.Port != 9090 || c.Server.CORS {
		t.Fatalf("server: %+v", c.Server)
	}
	if c.Backend.Timeout != 3*time.Second || c.Query.StaleTime != 30*time.Second {
		t.Fatalf("durations: %v %v", c.Backend.Timeout, c.Query.StaleTime)
	}
	if c.Query.Retry != 0 {
		t.Fatalf("explicit zero retry overwritten: %d", c.Query.Retry)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"missing backend": `environment: development`,
		"bad environment": "environment: moon\nbackend:\n  base_url: http://b\n",
		"bad log level":   "logger:\n  level: loud\nbackend:\n  base_url: http://b\n",
		"bad port":        "server:\n  port: 70000\nbackend:\n  base_url: http://b\n",
		"retry above one": "query:\n  retry: 2\nbackend:\n  base_url: http://b\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "backend:\n  base_url: http://file:8000\n")
	t.Setenv("DIVDASH_BACKEND_URL", "http://env:8000")
	t.Setenv("DIVDASH_API_TOKEN", "secret")
	t.Setenv("DIVDASH_PORT", "8181")
	t.Setenv("DIVDASH_STALE_TIME", "1m")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Backend.BaseURL != "http://env:8000" || c.Backend.APIToken != "secret" {
		t.Fatalf("backend: %+v", c.Backend)
	}
	if c.Server.Port != 8181 || c.Query.StaleTime != time.Minute {
		t.Fatalf("port %d stale %v", c.Server.Port, c.Query.StaleTime)
	}
}

func TestLoadWithEnvRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "backend:\n  base_url: http://file:8000\n")
	t.Setenv("DIVDASH_GC_TIME", "soon")
	if _, err := LoadWithEnv(path); err == nil {
		t.Fatal("expected error")
	}
}
