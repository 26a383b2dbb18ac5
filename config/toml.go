package config

import (
	"bytes"
	"path/filepath"
	"text/template"

	tmos "github.com/tendermint/tendermint/libs/os"
)

var configTemplate *template.Template

func init() {
	var err error
	if configTemplate, err = template.New("configFileTemplate").Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

// EnsureRoot creates the root, config, and data directories if they don't
// exist, and panics if it fails
func EnsureRoot(rootDir string) {
	if err := tmos.EnsureDir(rootDir, 0700); err != nil {
		panic(err)
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultConfigDir), 0700); err != nil {
		panic(err)
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultDataDir), 0700); err != nil {
		panic(err)
	}

	configFilePath := filepath.Join(rootDir, defaultConfigFilePath)

	// Write default config file if missing.
	if !tmos.FileExists(configFilePath) {
		WriteConfigFile(configFilePath, DefaultConfig())
	}
}

// WriteConfigFile renders config using the template and writes it to
// configFilePath
func WriteConfigFile(configFilePath string, config *Config) {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, config); err != nil {
		panic(err)
	}

	tmos.MustWriteFile(configFilePath, buffer.Bytes(), 0644)
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

##### main base config options #####

# A custom human readable name for this node
moniker = "{{ .Moniker }}"

# Path to the JSON file containing the genesis state
genesis_file = "{{ .Genesis }}"

# Path to the JSON file containing the producer private key
node_key_file = "{{ .NodeKey }}"

# Address to listen for API connections
api_listen_addr = "{{ .APIListenAddress }}"

# Per-client API requests per second, 0 to disable limiting
api_rate_limit = {{ .APIRateLimit }}

# If set to non-zero only that many last state versions are kept
keep_last_states = {{ .KeepLastStates }}

# State cache size
state_cache_size = {{ .StateCacheSize }}

# Max transactions queued in the pool
mempool_size = {{ .MempoolSize }}

# Max transactions collected into one block
max_block_txs = {{ .MaxBlockTxs }}

# Seconds between block slots
block_interval = {{ .BlockIntervalSeconds }}

##### db settings #####

# Database backend: goleveldb | memdb
db_backend = "{{ .DBBackend }}"

# Database directory
db_dir = "{{ .DBPath }}"

##### log settings #####

# Output level for logging
log_level = "{{ .LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log_format = "{{ .LogFormat }}"

# Log destination: 'stdout' or a file path
log_path = "{{ .LogPath }}"
`
