package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  driver: postgres
  host: db.internal
  port: 5432
  user: risklens
  password: s3cret
  name: risklens
  sslMode: require
openai:
  apiKey: sk-test
  model: gpt-4o-2024-08-06
auth:
  jwtSecret: topsecret
  tokenTTLHours: 48
analysis:
  initialCredits: 3
  sharedClientHistory: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, 48, cfg.Auth.TokenTTLHrs)
	assert.Equal(t, 3, cfg.Analysis.InitialCredits)
	assert.True(t, cfg.Analysis.SharedClientHistory)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 168, cfg.Auth.TokenTTLHrs)
	assert.Equal(t, 5, cfg.Analysis.InitialCredits)
	assert.False(t, cfg.Analysis.SharedClientHistory)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("JWT_SECRET", "env-secret")

	path := writeConfig(t, `
openai:
  apiKey: sk-from-file
auth:
  jwtSecret: file-secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.OpenAI.APIKey)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestDSNHelpers(t *testing.T) {
	var cfg Config
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = 3306
	cfg.Database.User = "risklens"
	cfg.Database.Password = "s3cret"
	cfg.Database.Name = "risklens"

	assert.Equal(t,
		"risklens:s3cret@tcp(db.internal:3306)/risklens?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.MySQLDSN())

	cfg.Database.Port = 5432
	assert.Equal(t,
		"host=db.internal port=5432 user=risklens password=s3cret dbname=risklens sslmode=disable",
		cfg.PostgresDSN())

	cfg.Database.SSLMode = "require"
	assert.Contains(t, cfg.PostgresDSN(), "sslmode=require")
}
