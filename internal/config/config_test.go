package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Setenv("DOTENV_PATH", filepath.Join(t.TempDir(), "missing.env"))
	c := FromEnv()
	assert.Equal(t, ModeOffline, c.Mode)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.False(t, c.StrictQuizGate)
	assert.Equal(t, 256, c.NotifyQueueSize)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3010"}, c.CORSOrigins())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOTENV_PATH", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("MODE", "online")
	t.Setenv("STRICT_QUIZ_GATE", "true")
	t.Setenv("NOTIFY_QUEUE_SIZE", "8")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , https://b.example ")

	c := FromEnv()
	assert.Equal(t, ModeOnline, c.Mode)
	assert.True(t, c.StrictQuizGate)
	assert.Equal(t, 8, c.NotifyQueueSize)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins())
}

func TestDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_NAME=Academy\nSENDGRID_API_KEY=sg-key\n"), 0o600))
	t.Setenv("DOTENV_PATH", path)
	// godotenv never overrides variables that are already set
	t.Setenv("APP_NAME", "")
	os.Unsetenv("APP_NAME")
	t.Cleanup(func() { os.Unsetenv("SENDGRID_API_KEY") })

	c := FromEnv()
	assert.Equal(t, "Academy", c.AppName)
	assert.Equal(t, "sg-key", c.SendGridAPIKey)
}
