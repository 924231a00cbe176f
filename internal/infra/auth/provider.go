// Package auth owns the credential lifecycle for the upstream API: a
// token plus member identifier pair acquired from the environment or an
// external login helper, refreshed on demand when the API rejects them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rxmeter/collector/internal/core/config"
	"github.com/rxmeter/collector/internal/core/domain"
)

// ErrCredentialUnavailable is returned when neither the environment nor
// the login helper yields a usable credential pair.
var ErrCredentialUnavailable = errors.New("credentials unavailable")

// Provider supplies the current credentials and can refresh them.
//
// The engine runs a single sequential loop, so no locking is needed;
// a refresh simply constructs a complete new Credentials value and
// swaps it in, never updating fields individually.
type Provider struct {
	cfg   config.AuthConfig
	creds domain.Credentials

	// runLogin executes the login helper and returns its stdout.
	// Overridable in tests.
	runLogin func(ctx context.Context) (string, error)
}

// NewProvider creates a provider using the given auth configuration.
func NewProvider(cfg config.AuthConfig) *Provider {
	p := &Provider{cfg: cfg}
	p.runLogin = p.execLogin
	return p
}

// Get returns the current valid credentials, acquiring them on first
// use: explicit environment values win, otherwise the login helper is
// invoked and its output parsed for both halves of the pair.
func (p *Provider) Get(ctx context.Context) (domain.Credentials, error) {
	if p.creds.Valid() {
		return p.creds, nil
	}

	token := cleanValue(os.Getenv(p.cfg.TokenEnv))
	member := cleanValue(os.Getenv(p.cfg.MemberEnv))
	if token != "" && member != "" {
		slog.Info("Using credentials from environment")
		p.creds = domain.Credentials{Token: token, MemberUUID: member, IssuedAt: time.Now()}
		return p.creds, nil
	}

	slog.Info("Credentials not in environment, running login helper", "command", p.cfg.LoginCommand)
	return p.Refresh(ctx)
}

// Refresh forces re-acquisition through the login helper and atomically
// replaces the active credentials on success. It also mirrors the new
// values back into the process environment so subsequent collaborators
// see them. Failures are returned to the caller, never fatal here.
func (p *Provider) Refresh(ctx context.Context) (domain.Credentials, error) {
	out, err := p.runLogin(ctx)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("login helper failed: %w", err)
	}

	var token, member string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if v, ok := strings.CutPrefix(line, "TOKEN="); ok {
			token = cleanValue(v)
		} else if v, ok := strings.CutPrefix(line, "MEMBERUUID="); ok {
			member = cleanValue(v)
		}
	}

	// The helper may export instead of print; fall back to the
	// environment before giving up.
	if token == "" {
		token = cleanValue(os.Getenv(p.cfg.TokenEnv))
	}
	if member == "" {
		member = cleanValue(os.Getenv(p.cfg.MemberEnv))
	}

	creds := domain.Credentials{Token: token, MemberUUID: member, IssuedAt: time.Now()}
	if !creds.Valid() {
		return domain.Credentials{}, fmt.Errorf("%w: login helper output had no %s/%s",
			ErrCredentialUnavailable, p.cfg.TokenEnv, p.cfg.MemberEnv)
	}

	p.creds = creds
	os.Setenv(p.cfg.TokenEnv, creds.Token)
	os.Setenv(p.cfg.MemberEnv, creds.MemberUUID)
	slog.Info("Credentials refreshed")

	return creds, nil
}

func (p *Provider) execLogin(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, p.cfg.LoginCommand)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s: %w (stderr: %s)",
				p.cfg.LoginCommand, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s: %w", p.cfg.LoginCommand, err)
	}
	return string(out), nil
}

// cleanValue strips whitespace and stray shell quoting from a value.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, `"`)
	v = strings.Trim(v, `'`)
	return v
}
