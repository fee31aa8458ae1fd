package providers

import (
	"clanwatch/internal/structures"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYaml = `
clan:
  name: "  Lorem Ipsum  "
logger:
  level: info
  mode: 0644
  dir: /tmp
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNewConfigProvider_Defaults(t *testing.T) {
	path := writeConfig(t, minimalYaml)

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, "Lorem Ipsum", conf.Clan.Name)
	assert.Equal(t, 15, conf.Clan.RateLimitPerMinute)
	assert.Equal(t, 0, conf.Clan.LogsSkip)
	assert.Equal(t, 500, conf.Clan.LogsLimit)
	assert.Equal(t, 250*time.Millisecond, conf.Api.Slack)
	assert.Equal(t, float64(12), conf.Analytics.OfflineThresholdHours)
	assert.Equal(t, "America/Los_Angeles", conf.Analytics.Timezone)
	assert.Equal(t, "Update data", conf.Publish.Git.CommitMessage)
	assert.Equal(t, path, conf.Path)
}

func TestNewConfigProvider_Overrides(t *testing.T) {
	path := writeConfig(t, minimalYaml+`
api:
  slack: 1s
schedule:
  enabled: true
  interval: 30m
`)
	t.Setenv("CLANWATCH_RATE_LIMIT", "30")

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path, DebugMode: true})
	require.NoError(t, err)

	assert.Equal(t, 30, conf.Clan.RateLimitPerMinute)
	assert.Equal(t, time.Second, conf.Api.Slack)
	assert.True(t, conf.Schedule.Enabled)
	assert.Equal(t, 30*time.Minute, conf.Schedule.Interval)
	assert.True(t, conf.Debug)
}

func TestNewConfigProvider_MissingClanName(t *testing.T) {
	path := writeConfig(t, `
clan:
  name: "   "
logger:
  level: info
  mode: 0644
  dir: /tmp
`)

	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path})
	assert.Error(t, err)
}

func TestNewConfigProvider_MissingFile(t *testing.T) {
	_, err := NewConfigProvider(&structures.CliFlags{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}
