package config

import (
	"os"
	"path/filepath"
	"testing"

	"interviewiq-go/internal/classifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
server:
  port: "9000"
  mode: release
database:
  driver: sqlite
  sqlite:
    path: /tmp/test.db
jwt:
  secret: s3cret
classifier:
  follow_up_probability: 0.5
  categories:
    - name: general
      keywords: [interview]
      templates: ["general reply"]
    - name: technical
      keywords: [golang, goroutine]
      templates: ["tech reply"]
      follow_ups: ["tech follow-up"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.Database.SQLite.Path)
	assert.Equal(t, 24, cfg.JWT.AccessTokenExpireHours)

	require.Len(t, cfg.Classifier.Categories, 2)
	assert.Equal(t, classifier.Technical, cfg.Classifier.Categories[1].Name)
	assert.Equal(t, []string{"tech follow-up"}, cfg.Classifier.Categories[1].FollowUps)
	assert.Equal(t, 0.5, cfg.Classifier.FollowUpProbability)
	assert.Equal(t, 0.7, cfg.Classifier.Confidence.Fallback)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("INTERVIEWIQ_SERVER_PORT", "7777")
	t.Setenv("INTERVIEWIQ_JWT_SECRET", "from-env")

	cfg, err := Load(writeConfig(t, testYAML))
	require.NoError(t, err)
	assert.Equal(t, "7777", cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

func TestLoad_MissingClassifierUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: \"8080\"\n"))
	require.NoError(t, err)
	assert.Equal(t, classifier.DefaultConfig(), cfg.Classifier)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownCategory(t *testing.T) {
	_, err := Load(writeConfig(t, `
classifier:
  categories:
    - name: general
      keywords: [interview]
    - name: sales
      keywords: [quota]
`))
	assert.ErrorContains(t, err, "sales")

	_, err = Load(writeConfig(t, `
classifier:
  categories:
    - name: technical
      keywords: [golang]
    - name: technical
      keywords: [rust]
`))
	assert.ErrorContains(t, err, "technical")
}
