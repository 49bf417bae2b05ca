package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	TargetUrl string `json:"target_url"`
	Interval  int    `json:"interval_seconds"`
}

func TestReadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(
		filepath.Join(dir, "config.json5"),
		[]byte(`{target_url: "https://example.com/camp", interval_seconds: 5}`),
		0600,
	)
	require.NoError(t, err)
	err = os.WriteFile(
		filepath.Join(dir, "config.local.json5"),
		[]byte(`{interval_seconds: 60}`),
		0600,
	)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://example.com/camp", cfg.TargetUrl)
	require.Equal(t, 60, cfg.Interval)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(
		filepath.Join(dir, "config.local.json5"),
		[]byte(`{target_url: "https://example.com"}`),
		0600,
	)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://example.com", cfg.TargetUrl)
}

func TestLocalVariant(t *testing.T) {
	require.Equal(t, "config.local.json5", localVariant("config.json5"))
	require.Equal(t,
		filepath.Join("some", "dir", "config.local.json5"),
		localVariant(filepath.Join("some", "dir", "config.json5")),
	)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	err := os.WriteFile(
		filepath.Join(root, "config.json5"),
		[]byte(`{target_url: "https://example.com/camp"}`),
		0600,
	)
	require.NoError(t, err)

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0700))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(cwd)

	cfg, err := ReadRecursively[testConfig]("config.json5")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/camp", cfg.TargetUrl)
}

func TestEnvString(t *testing.T) {
	t.Setenv("CAMPWATCH_TEST_KEY", "set")
	require.Equal(t, "set", EnvString("CAMPWATCH_TEST_KEY", "fallback"))
	require.Equal(t, "fallback", EnvString("CAMPWATCH_TEST_UNSET_KEY", "fallback"))
}
