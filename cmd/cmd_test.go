package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/betakeys/keybot/internal/domain/ledger"
	"github.com/betakeys/keybot/internal/domain/settings"
	"github.com/betakeys/keybot/keybot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCLI(t *testing.T, keys ...string) {
	t.Helper()
	dir := t.TempDir()

	keyFile := filepath.Join(dir, "fresh_keys.txt")
	require.NoError(t, os.WriteFile(keyFile, []byte(strings.Join(keys, "\n")+"\n"), 0o600))

	cfg := keybot.DefaultConfig()
	cfg.Log.Level = slog.LevelError
	cfg.DB.Path = filepath.Join(dir, "keys.db")
	cfg.Ingest.File = keyFile

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, keybot.WriteConfig(path, cfg))

	configPath = path
	t.Cleanup(func() { configPath = "config.toml" })
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	grantUnchecked = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_SyncGrantAndStats(t *testing.T) {
	setupCLI(t, "K1", "K2", "")

	out, err := runCLI(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "2 new keys, 2 unclaimed")

	out, err = runCLI(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "0 new keys, 2 unclaimed")

	first, err := runCLI(t, "grant", "alice")
	require.NoError(t, err)
	assert.Contains(t, []string{"K1\n", "K2\n"}, first)

	_, err = runCLI(t, "grant", "alice")
	assert.ErrorIs(t, err, ledger.ErrAlreadyClaimedThisRound)

	second, err := runCLI(t, "grant", "--unchecked", "alice")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	_, err = runCLI(t, "grant", "bob")
	assert.ErrorIs(t, err, ledger.ErrPoolExhausted)

	out, err = runCLI(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "keys remaining: 0")
	assert.Contains(t, out, "active round:   1")
}

func TestCLI_Rounds(t *testing.T) {
	setupCLI(t)

	out, err := runCLI(t, "round", "open", "2")
	require.NoError(t, err)
	assert.Equal(t, "Round set to 2\n", out)

	out, err = runCLI(t, "round", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "1\tcompleted")
	assert.Contains(t, out, "2\tactive")

	_, err = runCLI(t, "round", "open", "two")
	assert.Error(t, err)
}

func TestCLI_Settings(t *testing.T) {
	setupCLI(t)

	_, err := runCLI(t, "settings", "set", settings.KeyAgeBound, "7")
	require.NoError(t, err)

	out, err := runCLI(t, "settings", "get", settings.KeyAgeBound)
	require.NoError(t, err)
	assert.Equal(t, "age_bound\t7\n", out)

	_, err = runCLI(t, "settings", "set", "--", settings.KeyAgeBound, "-1")
	assert.ErrorIs(t, err, settings.ErrInvalidValue)

	_, err = runCLI(t, "settings", "set", settings.KeyRound, "3")
	assert.ErrorIs(t, err, settings.ErrReadOnlyKey)
}
