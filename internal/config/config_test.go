package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testConfigYAML = `
service:
  name: subscription-service
  environment: test
  client_url: http://localhost:3000
  xendit:
    api_key: file-api-key
    callback_token: file-callback-token
database:
  host: localhost
  port: 5432
  user: postgres
  password: file-password
  name: subscriptions
  conn_max_lifetime: 5m
  conn_max_idle_time: 90s
server:
  http:
    host: 0.0.0.0
    port: 8080
jwt:
  secret: file-jwt-secret
`

func writeTestConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subscription.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfig_ReadsYAML(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeTestConfig(t, testConfigYAML))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "subscription-service", cfg.Service.Name)
	assert.Equal(t, "file-callback-token", cfg.Service.Xendit.CallbackToken)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime.Std())
	assert.Equal(t, 90*time.Second, cfg.Database.ConnMaxIdleTime.Std())
}

func TestLoadConfig_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeTestConfig(t, testConfigYAML))
	t.Setenv("XENDIT_CALLBACK_TOKEN", "env-callback-token")
	t.Setenv("JWT_SECRET", "env-jwt-secret")
	t.Setenv("DB_PASSWORD", "env-password")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "env-callback-token", cfg.Service.Xendit.CallbackToken)
	assert.Equal(t, "env-jwt-secret", cfg.JWT.Secret)
	assert.Equal(t, "env-password", cfg.Database.Password)
	// non-secret values stay as configured
	assert.Equal(t, "file-api-key", cfg.Service.Xendit.APIKey)
}

func TestLoadConfig_MissingCallbackToken(t *testing.T) {
	cfgYAML := `
service:
  name: subscription-service
jwt:
  secret: s
`
	t.Setenv("CONFIG_PATH", writeTestConfig(t, cfgYAML))

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "callback token")
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	var out struct {
		Lifetime Duration `yaml:"lifetime"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("lifetime: 2h30m"), &out))
	assert.Equal(t, 2*time.Hour+30*time.Minute, out.Lifetime.Std())

	err := yaml.Unmarshal([]byte("lifetime: not-a-duration"), &out)
	require.Error(t, err)
}
