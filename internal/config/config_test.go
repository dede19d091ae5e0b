package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"face-restore-studio/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	path := filepath.Join(t.TempDir(), "absent.toml")

	cfg, resolved, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, path, resolved)

	assert.Equal(t, "http://localhost:8000/api/v1/images/enhance", cfg.EnhanceURL())
	assert.Equal(t, 5*time.Minute, cfg.RequestTimeout())
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes())
}

func TestLoadParsesFileAndExpandsHome(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
[service]
base_url = "https://restore.example.com/api/v1/"
timeout_seconds = 90

[intake]
max_upload_mb = 4

[output]
download_dir = "~/restored"

[app]
debug = true
`)

	cfg, _, exists, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "https://restore.example.com/api/v1/images/enhance", cfg.EnhanceURL())
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout())
	assert.Equal(t, int64(4*1024*1024), cfg.MaxUploadBytes())
	assert.Equal(t, filepath.Join(home, "restored"), cfg.Output.DownloadDir)
	assert.True(t, cfg.App.Debug)
}

func TestLoadEnvOverridesBaseURL(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "http://gpu-box:9000/api/v1")
	path := writeConfig(t, "[service]\nbase_url = \"http://ignored:1\"\n")

	cfg, _, _, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:9000/api/v1", cfg.Service.BaseURL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	cases := map[string]string{
		"scheme":   "[service]\nbase_url = \"ftp://host\"\n",
		"timeout":  "[service]\ntimeout_seconds = 0\n",
		"max size": "[intake]\nmax_upload_mb = -1\n",
		"unknown":  "[service]\nbogus = 1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, _, err := config.Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestEncodeRoundTripsThroughLoad(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	cfg := config.Default()
	cfg.Service.TimeoutSeconds = 42

	data, err := cfg.Encode()
	require.NoError(t, err)

	loaded, _, _, err := config.Load(writeConfig(t, string(data)))
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, loaded.RequestTimeout())
}
