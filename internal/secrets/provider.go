package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// Source selects where marketplace secrets are read from
type Source string

const (
	SourceEnvironment Source = "environment"
	SourceVault       Source = "vault"
	// SourceAuto uses the vault outside development
	SourceAuto Source = "auto"
)

// Name identifies one secret the API consumes: its Key Vault name and the
// environment variable that overrides it in any source.
type Name struct {
	Vault    string
	Env      string
	Required bool
}

var (
	DatabaseHost     = Name{Vault: "POSTGRES-MAIN-HOST", Env: "DATABASE_HOST"}
	DatabaseUser     = Name{Vault: "POSTGRES-MAIN-USER", Env: "DATABASE_USER"}
	DatabasePassword = Name{Vault: "POSTGRES-MAIN-PASSWORD", Env: "DATABASE_PASSWORD"}
	JWTSigningSecret = Name{Vault: "JWT-SIGNING-SECRET", Env: "JWT_SECRET", Required: true}
	AMQPURL          = Name{Vault: "RABBITMQ-URL", Env: "AMQP_URL"}
)

// Bundle is the resolved set of marketplace secrets. An empty field means the
// secret was not found and the configured default stays in place.
type Bundle struct {
	DatabaseHost     string
	DatabaseUser     string
	DatabasePassword string
	JWTSigningSecret string
	AMQPURL          string
}

// fetcher is satisfied by VaultClient
type fetcher interface {
	GetSecret(ctx context.Context, secretName string) (string, error)
}

// Provider resolves the marketplace secrets from the environment or Azure Key Vault
type Provider struct {
	source Source
	vault  fetcher
	getenv func(string) string
	logger *zap.Logger
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       Source
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ResolveSource turns SourceAuto into a concrete source for the environment
func ResolveSource(source Source, environment string) Source {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "development", "local", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates a provider, connecting to Key Vault when the resolved source is the vault
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)

	var vault fetcher
	if source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}
		client, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		vault = client
	}

	logger.Info("Secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)

	return newProvider(source, vault, os.Getenv, logger), nil
}

func newProvider(source Source, vault fetcher, getenv func(string) string, logger *zap.Logger) *Provider {
	return &Provider{source: source, vault: vault, getenv: getenv, logger: logger}
}

// Lookup returns one secret. The environment override wins; otherwise the
// vault is asked when it is the source.
func (p *Provider) Lookup(ctx context.Context, name Name) (string, error) {
	if value := p.getenv(name.Env); value != "" {
		p.logger.Debug("Using environment variable override", zap.String("env_name", name.Env))
		return value, nil
	}

	switch p.source {
	case SourceEnvironment:
		return "", fmt.Errorf("environment variable '%s' not set", name.Env)
	case SourceVault:
		if p.vault == nil {
			return "", fmt.Errorf("vault client not initialized")
		}
		return p.vault.GetSecret(ctx, name.Vault)
	default:
		return "", fmt.Errorf("unknown secret source: %s", p.source)
	}
}

// Resolve looks up every marketplace secret. Optional secrets that cannot be
// found are left empty; a missing required secret fails the whole lookup.
func (p *Provider) Resolve(ctx context.Context) (*Bundle, error) {
	var bundle Bundle
	targets := []struct {
		name Name
		dst  *string
	}{
		{DatabaseHost, &bundle.DatabaseHost},
		{DatabaseUser, &bundle.DatabaseUser},
		{DatabasePassword, &bundle.DatabasePassword},
		{JWTSigningSecret, &bundle.JWTSigningSecret},
		{AMQPURL, &bundle.AMQPURL},
	}

	for _, target := range targets {
		value, err := p.Lookup(ctx, target.name)
		if err == nil && value == "" {
			err = errors.New("empty value")
		}
		if err != nil {
			if target.name.Required {
				return nil, fmt.Errorf("%s could not be resolved: %w", target.name.Vault, err)
			}
			p.logger.Debug("Optional secret not found, keeping configured value",
				zap.String("secret_name", target.name.Vault),
				zap.Error(err),
			)
			continue
		}
		*target.dst = value
	}

	return &bundle, nil
}

// Source returns the current secret source
func (p *Provider) Source() Source {
	return p.source
}

// IsVaultEnabled returns true if secrets are loaded from vault
func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}
