package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVault struct {
	values map[string]string
	calls  int
}

func (f *fakeVault) GetSecret(_ context.Context, name string, _ string, _ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	f.calls++
	value, ok := f.values[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, errors.New("secret not found")
	}
	var resp azsecrets.GetSecretResponse
	resp.Value = &value
	return resp, nil
}

func TestVaultClient_CachesUntilTTL(t *testing.T) {
	fake := &fakeVault{values: map[string]string{"JWT-SIGNING-SECRET": "s3cret"}}
	client := newVaultClient(fake, &VaultConfig{VaultName: "kv", CacheEnabled: true, CacheTTL: time.Minute}, zap.NewNop())

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	value, err := client.GetSecret(context.Background(), "JWT-SIGNING-SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", value)

	_, err = client.GetSecret(context.Background(), "JWT-SIGNING-SECRET")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls)

	now = now.Add(2 * time.Minute)
	_, err = client.GetSecret(context.Background(), "JWT-SIGNING-SECRET")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
}

func TestVaultClient_NoCache(t *testing.T) {
	fake := &fakeVault{values: map[string]string{"a": "1"}}
	client := newVaultClient(fake, &VaultConfig{VaultName: "kv"}, zap.NewNop())

	for i := 0; i < 3; i++ {
		_, err := client.GetSecret(context.Background(), "a")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, fake.calls)
}

func TestVaultClient_MissingSecret(t *testing.T) {
	client := newVaultClient(&fakeVault{values: map[string]string{}}, &VaultConfig{VaultName: "kv", CacheEnabled: true}, zap.NewNop())

	_, err := client.GetSecret(context.Background(), "missing")
	assert.Error(t, err)
}

type mapEnv map[string]string

func (m mapEnv) get(key string) string { return m[key] }

func TestResolveSource(t *testing.T) {
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, "development"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceAuto, ""))
	assert.Equal(t, SourceVault, ResolveSource(SourceAuto, "staging"))
	assert.Equal(t, SourceVault, ResolveSource(SourceAuto, "production"))
	assert.Equal(t, SourceEnvironment, ResolveSource(SourceEnvironment, "production"))
}

func TestProvider_ResolveFromVault(t *testing.T) {
	fake := &fakeVault{values: map[string]string{
		"POSTGRES-MAIN-HOST":     "pg.internal",
		"POSTGRES-MAIN-PASSWORD": "pw",
		"JWT-SIGNING-SECRET":     "signing",
		"RABBITMQ-URL":           "amqp://mq.internal",
	}}
	vault := newVaultClient(fake, &VaultConfig{VaultName: "kv"}, zap.NewNop())
	env := mapEnv{"DATABASE_PASSWORD": "override"}
	provider := newProvider(SourceVault, vault, env.get, zap.NewNop())

	bundle, err := provider.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &Bundle{
		DatabaseHost:     "pg.internal",
		DatabasePassword: "override",
		JWTSigningSecret: "signing",
		AMQPURL:          "amqp://mq.internal",
	}, bundle)
}

func TestProvider_ResolveFromEnvironment(t *testing.T) {
	env := mapEnv{"JWT_SECRET": "dev-secret", "DATABASE_USER": "dev"}
	provider := newProvider(SourceEnvironment, nil, env.get, zap.NewNop())
	assert.False(t, provider.IsVaultEnabled())

	bundle, err := provider.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dev-secret", bundle.JWTSigningSecret)
	assert.Equal(t, "dev", bundle.DatabaseUser)
	assert.Empty(t, bundle.DatabaseHost)

	_, err = provider.Lookup(context.Background(), AMQPURL)
	assert.Error(t, err)
}

func TestProvider_MissingJWTSecretFails(t *testing.T) {
	vault := newVaultClient(&fakeVault{values: map[string]string{"POSTGRES-MAIN-HOST": "pg"}}, &VaultConfig{VaultName: "kv"}, zap.NewNop())
	provider := newProvider(SourceVault, vault, mapEnv{}.get, zap.NewNop())

	_, err := provider.Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT-SIGNING-SECRET")
}

func TestProvider_EnvironmentSourceForDevelopment(t *testing.T) {
	provider, err := NewProvider(&ProviderConfig{Source: SourceAuto, Environment: "development"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SourceEnvironment, provider.Source())
}

func TestProvider_VaultRequiresName(t *testing.T) {
	_, err := NewProvider(&ProviderConfig{Source: SourceVault, Environment: "production"}, zap.NewNop())
	assert.Error(t, err)
}
