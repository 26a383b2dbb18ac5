package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/luminaworld/lumina-go-node/cmd/utils"
	"github.com/spf13/viper"
)

const (
	// LogFormatPlain is a format for colored text
	LogFormatPlain = "plain"
	// LogFormatJSON is a format for json output
	LogFormatJSON = "json"

	defaultConfigDir = "config"
	defaultDataDir   = "data"

	defaultConfigFileName  = "config.toml"
	defaultGenesisJSONName = "genesis.json"
	defaultNodeKeyName     = "node_key.json"
)

var (
	defaultConfigFilePath  = filepath.Join(defaultConfigDir, defaultConfigFileName)
	defaultGenesisJSONPath = filepath.Join(defaultConfigDir, defaultGenesisJSONName)
	defaultNodeKeyPath     = filepath.Join(defaultConfigDir, defaultNodeKeyName)
)

// Config defines the top level configuration for a node
type Config struct {
	// The root directory for all data
	RootDir string `mapstructure:"home"`

	// Path to the JSON file containing the genesis state
	Genesis string `mapstructure:"genesis_file"`

	// Path to the JSON file containing the producer private key
	NodeKey string `mapstructure:"node_key_file"`

	// A custom human readable name for this node
	Moniker string `mapstructure:"moniker"`

	// Output level for logging
	LogLevel string `mapstructure:"log_level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log_format"`

	// Log destination: 'stdout' or a file path
	LogPath string `mapstructure:"log_path"`

	// Database backend: goleveldb | memdb
	DBBackend string `mapstructure:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir"`

	// Address to listen for API connections
	APIListenAddress string `mapstructure:"api_listen_addr"`

	// Per-client API requests per second, 0 to disable limiting
	APIRateLimit int `mapstructure:"api_rate_limit"`

	// How many last state versions are kept, 0 for all
	KeepLastStates int64 `mapstructure:"keep_last_states"`

	StateCacheSize int `mapstructure:"state_cache_size"`

	// Max transactions queued in the pool
	MempoolSize int `mapstructure:"mempool_size"`

	// Max transactions collected into one block
	MaxBlockTxs int `mapstructure:"max_block_txs"`

	// Seconds between block slots
	BlockIntervalSeconds int `mapstructure:"block_interval"`
}

// DefaultConfig returns the default node configuration
func DefaultConfig() *Config {
	return &Config{
		Genesis:              defaultGenesisJSONPath,
		NodeKey:              defaultNodeKeyPath,
		Moniker:              defaultMoniker,
		LogLevel:             "info",
		LogFormat:            LogFormatPlain,
		LogPath:              "stdout",
		DBBackend:            "goleveldb",
		DBPath:               "data",
		APIListenAddress:     "tcp://0.0.0.0:8841",
		APIRateLimit:         100,
		KeepLastStates:       120,
		StateCacheSize:       1000000,
		MempoolSize:          10000,
		MaxBlockTxs:          1000,
		BlockIntervalSeconds: 5,
	}
}

// GetConfig loads the configuration for the node home directory, writing
// the default config file on first run
func GetConfig() *Config {
	cfg := DefaultConfig()

	home := utils.GetLuminaHome()
	cfg.RootDir = home
	EnsureRoot(home)

	v := viper.New()
	v.SetConfigFile(utils.GetLuminaConfigPath())
	if err := v.ReadInConfig(); err == nil {
		if err := v.Unmarshal(cfg); err != nil {
			panic(err)
		}
	}

	cfg.RootDir = home
	return cfg
}

// BlockInterval returns the slot duration
func (cfg *Config) BlockInterval() time.Duration {
	return time.Duration(cfg.BlockIntervalSeconds) * time.Second
}

// GenesisFile returns the full path to the genesis.json file
func (cfg *Config) GenesisFile() string {
	return rootify(cfg.Genesis, cfg.RootDir)
}

// NodeKeyFile returns the full path to the node_key.json file
func (cfg *Config) NodeKeyFile() string {
	return rootify(cfg.NodeKey, cfg.RootDir)
}

// DBDir returns the full path to the database directory
func (cfg *Config) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

var defaultMoniker = getDefaultMoniker()

// getDefaultMoniker returns a default moniker, which is the host name. If
// runtime fails to get the host name, "anonymous" will be returned.
func getDefaultMoniker() string {
	moniker, err := os.Hostname()
	if err != nil {
		moniker = "anonymous"
	}
	return moniker
}
