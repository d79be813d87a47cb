package component

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
memo:
  bound: 128
record_store:
  url: redis://localhost:6379
  history_cap: 32
  connect_timeout: 2s
introspection:
  monitor_all: true
seed: 42
`))
	require.NoError(t, err)

	require.NotNil(t, cfg.Memo)
	assert.Equal(t, 128, cfg.Memo.Bound)
	require.NotNil(t, cfg.RecordStore)
	assert.Equal(t, "redis://localhost:6379", cfg.RecordStore.URL)
	assert.Equal(t, 32, cfg.RecordStore.HistoryCap)
	require.NotNil(t, cfg.Introspection)
	assert.True(t, cfg.Introspection.MonitorAll)
	assert.Equal(t, uint64(42), cfg.Seed)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Nil(t, cfg.Memo)
	assert.Nil(t, cfg.RecordStore)
}

func TestParseInvalid(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("memo: ["))
		require.Error(t, err)
	})

	t.Run("negative bound", func(t *testing.T) {
		_, err := Parse([]byte("memo:\n  bound: -1\n"))
		require.Error(t, err)
	})

	t.Run("negative history cap", func(t *testing.T) {
		_, err := Parse([]byte("record_store:\n  history_cap: -5\n"))
		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtime.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 7\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cfg.Seed)

	_, err = Load(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
}
