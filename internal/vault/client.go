// Package vault retrieves signing secrets from HashiCorp Vault. When Vault
// is disabled the secrets come from configuration instead, which is the
// normal setup for development and small deployments.
package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"
)

// Config holds Vault connection settings
type Config struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	SecretPath string `json:"secret_path"`
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

// Secrets are the signing keys the application needs at startup.
type Secrets struct {
	LicenseSigningKey string
	AuthJWTSecret     string
}

// Client wraps the HashiCorp Vault client
type Client struct {
	client *api.Client
	config Config

	mu     sync.RWMutex
	cached *Secrets
}

// NewClient creates a new Vault client
func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{
			CACert: cfg.CACert,
		}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(cfg.Token)

	return &Client{client: client, config: cfg}, nil
}

// Enabled reports whether secrets are served from Vault.
func (c *Client) Enabled() bool {
	return c.config.Enabled
}

// GetSecrets reads the signing keys from Vault. Results are cached for the
// process lifetime; key rotation requires a restart. Secret values are never
// included in returned errors.
func (c *Client) GetSecrets(ctx context.Context) (*Secrets, error) {
	if !c.config.Enabled {
		return nil, fmt.Errorf("vault is disabled")
	}

	c.mu.RLock()
	if c.cached != nil {
		defer c.mu.RUnlock()
		return c.cached, nil
	}
	c.mu.RUnlock()

	path := c.config.SecretPath
	if path == "" {
		path = "secret/data/ca-backoffice"
	}

	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("no secrets found at vault path %s", path)
	}

	// KV v2 wraps the payload in a "data" field.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		data = secret.Data
	}

	s := &Secrets{}
	if v, ok := data["license_signing_key"].(string); ok {
		s.LicenseSigningKey = v
	}
	if v, ok := data["auth_jwt_secret"].(string); ok {
		s.AuthJWTSecret = v
	}
	if s.LicenseSigningKey == "" {
		return nil, fmt.Errorf("license_signing_key missing at vault path %s", path)
	}
	if s.AuthJWTSecret == "" {
		return nil, fmt.Errorf("auth_jwt_secret missing at vault path %s", path)
	}

	c.mu.Lock()
	c.cached = s
	c.mu.Unlock()

	return s, nil
}

// StoreSecrets writes the signing keys to Vault, used by initial provisioning.
func (c *Client) StoreSecrets(ctx context.Context, s Secrets) error {
	if !c.config.Enabled {
		return fmt.Errorf("vault is disabled")
	}

	path := c.config.SecretPath
	if path == "" {
		path = "secret/data/ca-backoffice"
	}

	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"license_signing_key": s.LicenseSigningKey,
			"auth_jwt_secret":     s.AuthJWTSecret,
		},
	}

	if _, err := c.client.Logical().WriteWithContext(ctx, path, payload); err != nil {
		return fmt.Errorf("failed to store secrets in vault: %w", err)
	}

	c.mu.Lock()
	c.cached = &s
	c.mu.Unlock()

	return nil
}
