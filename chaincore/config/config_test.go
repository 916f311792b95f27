package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyGavinZJU/miningbot-sub001/core/memorystore"
	"github.com/tyGavinZJU/miningbot-sub001/core/persistencestore"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxCallDepth, cfg.MaxCallDepth)
	assert.Equal(t, StoreTrie, cfg.Store.Kind)
	assert.Equal(t, 4096, cfg.Store.NodeCacheSize)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_StringValues(t *testing.T) {
	v := viper.New()
	v.Set("vm.max_call_depth", "12")
	v.Set("store.kind", "MEMORY")
	v.Set("logging.console", "true")
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.MaxCallDepth)
	assert.Equal(t, StoreMemory, cfg.Store.Kind)
	assert.True(t, cfg.Logging.Console)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{name: "zero depth", key: "vm.max_call_depth", val: 0},
		{name: "unknown store", key: "store.kind", val: "rocks"},
		{name: "negative cache", key: "store.node_cache_size", val: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestReadConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "vm.yaml")
	data := []byte("vm:\n  max_call_depth: 8\nstore:\n  kind: memory\n")
	require.NoError(t, os.WriteFile(file, data, 0644))

	cfg, err := ReadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxCallDepth)
	assert.Same(t, cfg, Configuration)

	_, err = ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	cfg := &Config{MaxCallDepth: 1, Store: StoreConfig{Kind: StoreMemory}}
	s, err := cfg.OpenStore()
	require.NoError(t, err)
	assert.IsType(t, &memorystore.MemoryBackingStore{}, s)

	cfg.Store = StoreConfig{Kind: StoreTrie, Dir: t.TempDir()}
	s, err = cfg.OpenStore()
	require.NoError(t, err)
	ts, ok := s.(*persistencestore.TrieStore)
	require.True(t, ok)
	require.NoError(t, ts.Close())
}
