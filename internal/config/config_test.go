package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, ":8080", c.Addr())
	assert.Equal(t, "http://localhost:5678/webhook", c.Webhook.BaseURL)
	assert.Equal(t, 60*time.Second, c.WebhookTimeout())
	assert.Equal(t, int64(25<<20), c.MaxUploadBytes())
	assert.False(t, c.AuditEnabled())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  port: 9000
webhook:
  base_url: http://flows.internal/webhook/
  timeout_sec: 5
log:
  level: debug
database:
  host: db.internal
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("PORT", "9100")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CASECHAT_TIMEOUT_SEC", "not-a-number")

	c := Load(path)
	assert.Equal(t, ":9100", c.Addr())
	assert.Equal(t, "http://flows.internal/webhook", c.Webhook.BaseURL)
	assert.Equal(t, 5*time.Second, c.WebhookTimeout())
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "s3cret", c.Auth.JWTSecret)
	assert.Equal(t, 60*time.Second, c.ClientTimeout())
	assert.True(t, c.AuditEnabled())
}
