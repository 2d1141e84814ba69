package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"epages-rest-layer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetExtendReset(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Get(ModuleClient))

	s.Set(map[string]any{KeyHost: "www.meinshop.de", KeyShop: "DemoShop"}, ModuleClient)
	s.Extend(map[string]any{KeyShop: "OtherShop", KeyToken: "secret"}, ModuleClient)
	assert.Equal(t, map[string]any{KeyHost: "www.meinshop.de", KeyShop: "OtherShop", KeyToken: "secret"}, s.Get(ModuleClient))

	got := s.Get(ModuleClient)
	got[KeyHost] = "changed"
	assert.Equal(t, "www.meinshop.de", s.Get(ModuleClient)[KeyHost])

	s.Set(nil, ModuleClient)
	assert.NotNil(t, s.Get(ModuleClient))
	assert.Empty(t, s.Get(ModuleClient))

	s.Reset(ModuleClient)
	assert.Nil(t, s.Get(ModuleClient))
}

func TestClientConfigFrom(t *testing.T) {
	s := NewStore()
	_, err := ClientConfigFrom(s)
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)

	s.Set(map[string]any{KeyHost: "www.meinshop.de"}, ModuleClient)
	_, err = ClientConfigFrom(s)
	assert.ErrorIs(t, err, domain.ErrConfigurationIncomplete)
	assert.Contains(t, err.Error(), "shop is required")

	s.Extend(map[string]any{
		KeyShop:           "DemoShop",
		KeyTLS:            "false",
		KeyTimeout:        "45s",
		KeyConnectTimeout: 5,
		KeyRateLimit:      "2.5",
	}, ModuleClient)
	cfg, err := ClientConfigFrom(s)
	require.NoError(t, err)
	assert.Equal(t, ClientConfig{
		Host:           "www.meinshop.de",
		Shop:           "DemoShop",
		TLS:            false,
		Timeout:        45 * time.Second,
		ConnectTimeout: 5 * time.Second,
		RateLimit:      2.5,
		RateBurst:      1,
	}, cfg)
}

func TestClientConfigFrom_InvalidValue(t *testing.T) {
	s := NewStore()
	s.Set(map[string]any{KeyHost: "h", KeyShop: "s", KeyTLS: "maybe", KeyRateBurst: "many"}, ModuleClient)

	_, err := ClientConfigFrom(s)

	assert.ErrorIs(t, err, domain.ErrConfigurationIncomplete)
	assert.Contains(t, err.Error(), "tls has invalid value maybe")
	assert.Contains(t, err.Error(), "rateBurst has invalid value many")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
client:
  host: www.meinshop.de
  shop: DemoShop
  tls: true
  timeout: 20
connector:
  cacheWait: 5m
  resultsPerPage: 50
`), 0o600))
	s := NewStore()

	require.NoError(t, LoadFile(s, path))

	cfg, err := ClientConfigFrom(s)
	require.NoError(t, err)
	assert.True(t, cfg.TLS)
	assert.Equal(t, 20*time.Second, cfg.Timeout)

	conn, err := ConnectorConfigFrom(s)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, conn.CacheWait)
	assert.Equal(t, 50, conn.ResultsPerPage)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, LoadFile(NewStore(), filepath.Join(dir, "missing.yaml")))

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("payments:\n  key: x\n"), 0o600))
	assert.ErrorContains(t, LoadFile(NewStore(), path), `unknown module "payments"`)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("EPAGES_SHOP=FromFile\nEPAGES_REDIS_ADDR=localhost:6379\n"), 0o600))
	t.Setenv("EPAGES_HOST", "www.meinshop.de")
	t.Setenv("EPAGES_SHOP", "FromEnv")
	t.Setenv("EPAGES_TOKEN", "secret")
	// godotenv sets these for the rest of the process; t.Setenv restores them.
	t.Setenv("EPAGES_REDIS_ADDR", "")
	require.NoError(t, os.Unsetenv("EPAGES_REDIS_ADDR"))

	s := NewStore()
	require.NoError(t, LoadEnv(s, envFile, filepath.Join(dir, "absent.env")))

	cfg, err := ClientConfigFrom(s)
	require.NoError(t, err)
	assert.Equal(t, "www.meinshop.de", cfg.Host)
	assert.Equal(t, "FromEnv", cfg.Shop)
	assert.Equal(t, "secret", cfg.Token)

	conn, err := ConnectorConfigFrom(s)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", conn.RedisAddr)
}
