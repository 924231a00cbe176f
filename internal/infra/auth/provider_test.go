package auth

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rxmeter/collector/internal/core/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		LoginCommand: "./grab_token.sh",
		TokenEnv:     "TEST_COLLECTOR_TOKEN",
		MemberEnv:    "TEST_COLLECTOR_MEMBER",
	}
}

func clearEnv(t *testing.T, cfg config.AuthConfig) {
	t.Helper()
	os.Unsetenv(cfg.TokenEnv)
	os.Unsetenv(cfg.MemberEnv)
	t.Cleanup(func() {
		os.Unsetenv(cfg.TokenEnv)
		os.Unsetenv(cfg.MemberEnv)
	})
}

func TestGet_FromEnvironment(t *testing.T) {
	cfg := testAuthConfig()
	clearEnv(t, cfg)
	os.Setenv(cfg.TokenEnv, `  "tok-123"  `)
	os.Setenv(cfg.MemberEnv, "'member-456'")

	p := NewProvider(cfg)
	p.runLogin = func(context.Context) (string, error) {
		t.Fatal("login helper should not run when env is set")
		return "", nil
	}

	creds, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if creds.Token != "tok-123" || creds.MemberUUID != "member-456" {
		t.Errorf("credentials not cleaned: %+v", creds)
	}
}

func TestGet_RunsHelperWhenEnvMissing(t *testing.T) {
	cfg := testAuthConfig()
	clearEnv(t, cfg)

	p := NewProvider(cfg)
	calls := 0
	p.runLogin = func(context.Context) (string, error) {
		calls++
		return "TOKEN=fresh-tok\nMEMBERUUID=fresh-member\n", nil
	}

	creds, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("login helper ran %d times, want 1", calls)
	}
	if creds.Token != "fresh-tok" || creds.MemberUUID != "fresh-member" {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	// Environment mirror updated for collaborators.
	if os.Getenv(cfg.TokenEnv) != "fresh-tok" {
		t.Error("token not mirrored into environment")
	}

	// Second Get returns the cached pair without re-running the helper.
	if _, err := p.Get(context.Background()); err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("login helper re-ran on cached Get: %d calls", calls)
	}
}

func TestRefresh_AtomicReplace(t *testing.T) {
	cfg := testAuthConfig()
	clearEnv(t, cfg)

	p := NewProvider(cfg)
	p.runLogin = func(context.Context) (string, error) {
		return "TOKEN=t1\nMEMBERUUID=m1\n", nil
	}
	old, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// A refresh yielding only half the pair must not replace anything.
	p.runLogin = func(context.Context) (string, error) {
		os.Unsetenv(cfg.MemberEnv)
		return "TOKEN=t2\n", nil
	}
	if _, err := p.Refresh(context.Background()); !errors.Is(err, ErrCredentialUnavailable) {
		t.Fatalf("Refresh error = %v, want ErrCredentialUnavailable", err)
	}

	got, err := p.Get(context.Background())
	if err != nil {
		t.Fatalf("Get after failed refresh: %v", err)
	}
	if got != old {
		t.Errorf("failed refresh replaced credentials: %+v", got)
	}
}

func TestRefresh_HelperError(t *testing.T) {
	cfg := testAuthConfig()
	clearEnv(t, cfg)

	p := NewProvider(cfg)
	p.runLogin = func(context.Context) (string, error) {
		return "", errors.New("exit status 1")
	}

	if _, err := p.Refresh(context.Background()); err == nil {
		t.Fatal("expected error from failing helper")
	}
}
