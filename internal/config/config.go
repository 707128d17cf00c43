package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMixerAddress = "0x841099f40f01F220A79a81f9a463922B875fB0Ce"
	DefaultTokenAddress = "0x700509775B89e6695Da271c79c976d65846A0180"
)

// Settings keeps all configuration options. Defaults, then the optional YAML
// file named by MIXER_CONFIG, then the environment (upper or lower case keys).
type Settings struct {
	RPCURL            string `yaml:"rpc_url"`
	ChainID           int64  `yaml:"chain_id"`
	MixerAddress      string `yaml:"mixer_address"`
	TokenAddress      string `yaml:"token_address"`
	TokenSymbol       string `yaml:"token_symbol"`
	FromBlock         uint64 `yaml:"from_block"`
	LogChunkBlocks    uint64 `yaml:"log_chunk_blocks"`
	LookupConcurrency int    `yaml:"lookup_concurrency"`
	RPCRetries        int    `yaml:"rpc_retries"`
	PrivateKeyHex     string `yaml:"-"` // env only
	QuickStorePath    string `yaml:"quick_store"`
	MetricsAddr       string `yaml:"metrics_addr"`
	LogLevel          string `yaml:"log_level"`
}

func Defaults() Settings {
	return Settings{
		RPCURL:            "https://eth.llamarpc.com",
		ChainID:           1,
		MixerAddress:      DefaultMixerAddress,
		TokenAddress:      DefaultTokenAddress,
		TokenSymbol:       "PRVX",
		LookupConcurrency: 8,
		RPCRetries:        3,
		QuickStorePath:    "quick_withdraw.json",
		MetricsAddr:       ":9102",
		LogLevel:          "info",
	}
}

// LoadDotEnv loads .env and lets .env.local override it. Missing files are fine.
func LoadDotEnv() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")
}

// Load builds Settings from defaults, the MIXER_CONFIG file and the environment.
func Load() (Settings, error) {
	st := Defaults()
	if path := get([]string{"mixer_config", "MIXER_CONFIG"}, ""); path != "" {
		if err := st.mergeFile(path); err != nil {
			return st, err
		}
	}

	st.RPCURL = get([]string{"rpc_url", "RPC_URL"}, st.RPCURL)
	st.ChainID = getInt64([]string{"chain_id", "CHAIN_ID"}, st.ChainID)
	st.MixerAddress = get([]string{"mixer_address", "MIXER_ADDRESS"}, st.MixerAddress)
	st.TokenAddress = get([]string{"token_address", "TOKEN_ADDRESS"}, st.TokenAddress)
	st.TokenSymbol = get([]string{"token_symbol", "TOKEN_SYMBOL"}, st.TokenSymbol)
	st.FromBlock = getUint64([]string{"from_block", "FROM_BLOCK"}, st.FromBlock)
	st.LogChunkBlocks = getUint64([]string{"log_chunk_blocks", "LOG_CHUNK_BLOCKS"}, st.LogChunkBlocks)
	st.LookupConcurrency = getInt([]string{"lookup_concurrency", "LOOKUP_CONCURRENCY"}, st.LookupConcurrency)
	st.RPCRetries = getInt([]string{"rpc_retries", "RPC_RETRIES"}, st.RPCRetries)
	st.PrivateKeyHex = get([]string{"private_key", "PRIVATE_KEY"}, "")
	st.QuickStorePath = get([]string{"quick_store", "QUICK_STORE"}, st.QuickStorePath)
	st.MetricsAddr = get([]string{"metrics_addr", "METRICS_ADDR"}, st.MetricsAddr)
	st.LogLevel = get([]string{"log_level", "LOG_LEVEL"}, st.LogLevel)

	return st, st.Validate()
}

func (st *Settings) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(b, st); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// Validate checks everything that can be checked without a network call.
func (st Settings) Validate() error {
	if strings.TrimSpace(st.RPCURL) == "" {
		return fmt.Errorf("RPC_URL is empty")
	}
	if st.ChainID <= 0 {
		return fmt.Errorf("CHAIN_ID must be positive, got %d", st.ChainID)
	}
	if !common.IsHexAddress(st.MixerAddress) {
		return fmt.Errorf("MIXER_ADDRESS: invalid address %q", st.MixerAddress)
	}
	if !common.IsHexAddress(st.TokenAddress) {
		return fmt.Errorf("TOKEN_ADDRESS: invalid address %q", st.TokenAddress)
	}
	return nil
}

func (st Settings) Mixer() common.Address { return common.HexToAddress(st.MixerAddress) }
func (st Settings) Token() common.Address { return common.HexToAddress(st.TokenAddress) }
func (st Settings) ChainIDBig() *big.Int { return big.NewInt(st.ChainID) }

func get(keys []string, def string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

func getInt(keys []string, def int) int {
	s := get(keys, "")
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func getInt64(keys []string, def int64) int64 {
	s := get(keys, "")
	if s == "" {
		return def
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return def
}

func getUint64(keys []string, def uint64) uint64 {
	s := get(keys, "")
	if s == "" {
		return def
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return n
	}
	return def
}
