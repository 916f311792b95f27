package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/tyGavinZJU/miningbot-sub001/core/common"
	"github.com/tyGavinZJU/miningbot-sub001/core/datastore"
	"github.com/tyGavinZJU/miningbot-sub001/core/memorystore"
	"github.com/tyGavinZJU/miningbot-sub001/core/persistencestore"
)

// store kinds
const (
	StoreMemory = "memory"
	StoreTrie   = "trie"
)

// DefaultMaxCallDepth is the nesting limit of contract calls.
const DefaultMaxCallDepth = 64

//ErrInvalidConfig - a configuration value is out of range
var ErrInvalidConfig = common.NewError("invalid_config", "invalid configuration")

/*StoreConfig - where contract state is kept */
type StoreConfig struct {
	Kind          string
	Dir           string
	NodeCacheSize int
}

/*LoggingConfig - logging options, read by logging.InitLogging as well */
type LoggingConfig struct {
	Level   string
	Console bool
	Dir     string
}

/*Config - runtime configuration */
type Config struct {
	MaxCallDepth int
	Store        StoreConfig
	Logging      LoggingConfig
	Genesis      string
}

/*Configuration - the loaded configuration */
var Configuration = &Config{}

// SetDefaults registers the default of every option on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("vm.max_call_depth", DefaultMaxCallDepth)
	v.SetDefault("vm.genesis", "")
	v.SetDefault("store.kind", StoreTrie)
	v.SetDefault("store.dir", "")
	v.SetDefault("store.node_cache_size", 4096)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", false)
	v.SetDefault("logging.dir", "log")
}

// ReadConfig reads a config file into the global viper instance and loads it.
func ReadConfig(file string) (*Config, error) {
	SetDefaults(viper.GetViper())
	viper.SetConfigFile(file)
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("cannot read the config file %v: %w", file, err)
	}
	cfg, err := Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	Configuration = cfg
	return cfg, nil
}

// Load builds a Config from v. Values set as strings (environment, flags)
// are converted leniently.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	cfg := &Config{
		MaxCallDepth: cast.ToInt(v.Get("vm.max_call_depth")),
		Genesis:      cast.ToString(v.Get("vm.genesis")),
		Store: StoreConfig{
			Kind:          strings.ToLower(cast.ToString(v.Get("store.kind"))),
			Dir:           cast.ToString(v.Get("store.dir")),
			NodeCacheSize: cast.ToInt(v.Get("store.node_cache_size")),
		},
		Logging: LoggingConfig{
			Level:   cast.ToString(v.Get("logging.level")),
			Console: cast.ToBool(v.Get("logging.console")),
			Dir:     cast.ToString(v.Get("logging.dir")),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option ranges.
func (c *Config) Validate() error {
	if c.MaxCallDepth <= 0 {
		return common.Wrap(ErrInvalidConfig, "vm.max_call_depth must be positive, got %d", c.MaxCallDepth)
	}
	switch c.Store.Kind {
	case StoreMemory, StoreTrie:
	default:
		return common.Wrap(ErrInvalidConfig, "unknown store.kind %q", c.Store.Kind)
	}
	if c.Store.NodeCacheSize < 0 {
		return common.Wrap(ErrInvalidConfig, "store.node_cache_size must not be negative")
	}
	return nil
}

// OpenStore creates the backing store the configuration selects.
func (c *Config) OpenStore() (datastore.BackingStore, error) {
	switch c.Store.Kind {
	case StoreMemory:
		return memorystore.New(), nil
	case StoreTrie:
		return persistencestore.NewTrieStore(c.Store.Dir, c.Store.NodeCacheSize)
	}
	return nil, common.Wrap(ErrInvalidConfig, "unknown store.kind %q", c.Store.Kind)
}
