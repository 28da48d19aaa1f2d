// Package secrets resolves the vendor API credential pair. Retrieval is
// behind a Provider interface so the poller never cares where credentials
// live; the composition root picks an implementation and wraps it in Cached.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Credentials is the vendor API credential pair.
type Credentials struct {
	// SiteID scopes OData filters to one tenant site.
	SiteID string

	// AccessToken authorizes requests against the vendor API.
	AccessToken string
}

// Provider resolves the credential pair.
type Provider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// EnvProvider reads credentials from the SITE_ID and API_ACCESS_TOKEN
// environment variables. Intended for local development.
type EnvProvider struct{}

// Credentials implements Provider.
func (EnvProvider) Credentials(ctx context.Context) (Credentials, error) {
	_ = ctx
	creds := Credentials{
		SiteID:      os.Getenv("SITE_ID"),
		AccessToken: os.Getenv("API_ACCESS_TOKEN"),
	}
	if creds.SiteID == "" || creds.AccessToken == "" {
		return Credentials{}, fmt.Errorf("SITE_ID and API_ACCESS_TOKEN must be set")
	}
	return creds, nil
}

// FileProvider reads credentials from mounted secret files, one value per
// file, as delivered by a container secret mount.
type FileProvider struct {
	SiteIDPath      string
	AccessTokenPath string
}

// Credentials implements Provider.
func (p FileProvider) Credentials(ctx context.Context) (Credentials, error) {
	_ = ctx
	siteID, err := readSecretFile(p.SiteIDPath)
	if err != nil {
		return Credentials{}, fmt.Errorf("read site id: %w", err)
	}
	token, err := readSecretFile(p.AccessTokenPath)
	if err != nil {
		return Credentials{}, fmt.Errorf("read access token: %w", err)
	}
	return Credentials{SiteID: siteID, AccessToken: token}, nil
}

func readSecretFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("secret file path not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("secret file %s is empty", path)
	}
	return value, nil
}

// Cached memoizes the first successful load from the wrapped provider for the
// life of the process. Credentials are never mutated after the first load, so
// concurrent readers are safe.
type Cached struct {
	provider Provider

	mu     sync.Mutex
	loaded bool
	creds  Credentials
}

// NewCached wraps provider with process-lifetime memoization.
func NewCached(provider Provider) *Cached {
	return &Cached{provider: provider}
}

// Credentials returns the cached pair, loading it on first use. A failed load
// is not cached, so a transient secret-store error does not poison the process.
func (c *Cached) Credentials(ctx context.Context) (Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.creds, nil
	}

	creds, err := c.provider.Credentials(ctx)
	if err != nil {
		return Credentials{}, err
	}

	c.creds = creds
	c.loaded = true
	return c.creds, nil
}
