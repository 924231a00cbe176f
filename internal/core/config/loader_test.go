package config

import (
	"os"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := tmpFile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad_EnvSubstitution(t *testing.T) {
	os.Setenv("TEST_DETAIL_URL", "https://api.example.com/care/v1/cares/detail")
	defer os.Unsetenv("TEST_DETAIL_URL")

	path := writeTempConfig(t, `
api:
  detail_url: ${TEST_DETAIL_URL}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.DetailURL != "https://api.example.com/care/v1/cares/detail" {
		t.Errorf("Expected expanded detail URL, got %s", cfg.API.DetailURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeTempConfig(t, `
logging:
  level: info
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.RequestInterval != 400*time.Millisecond {
		t.Errorf("RequestInterval = %v, want 400ms", cfg.API.RequestInterval)
	}
	if cfg.API.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.API.MaxRetries)
	}
	if cfg.API.MaxConsecutive != 10 {
		t.Errorf("MaxConsecutive = %d, want 10", cfg.API.MaxConsecutive)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.Auth.TokenEnv != "TOKEN" || cfg.Auth.MemberEnv != "MEMBERUUID" {
		t.Errorf("auth env defaults not applied: %+v", cfg.Auth)
	}

	// The default interval must stay under both API ceilings.
	perSecond := float64(time.Second) / float64(cfg.API.RequestInterval)
	perHour := float64(time.Hour) / float64(cfg.API.RequestInterval)
	if perSecond > 20 {
		t.Errorf("interval %v exceeds 20 req/s ceiling", cfg.API.RequestInterval)
	}
	if perHour > 10000 {
		t.Errorf("interval %v exceeds 10000 req/h ceiling", cfg.API.RequestInterval)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_Regions(t *testing.T) {
	path := writeTempConfig(t, `
regions:
  - code: FL
    zip_file: zipcodes/zipcode_fl.txt
  - code: GA
    zip_file: zipcodes/zipcode_ga.txt
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(cfg.Regions))
	}
	if cfg.Regions[0].Code != "FL" || cfg.Regions[0].ZipFile != "zipcodes/zipcode_fl.txt" {
		t.Errorf("unexpected region[0]: %+v", cfg.Regions[0])
	}
}
