package config

import (
	"fmt"
	"log"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rxtech-lab/swapit-router/internal/constants"
	"gopkg.in/yaml.v3"
)

// Default account addresses of the router and the simulated AMM inside the ledger
const (
	DefaultRouterAddress = "0x5F5eDfc0B4C7A02B8a8E4E1c3a3D9f6F1C0a7e11"
	DefaultAMMAddress    = "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"
	DefaultPort          = 8080
)

// Config application configuration
type Config struct {
	Router RouterConfig `yaml:"router"`
	Chain  ChainConfig  `yaml:"chain"`
	Server ServerConfig `yaml:"server"`
	Auth   AuthConfig   `yaml:"auth"`
	Market MarketConfig `yaml:"market"`
	// Pools seed the simulated AMM on startup when the pair has no pool yet
	Pools []PoolConfig `yaml:"pools" validate:"dive"`
}

// RouterConfig fee router accounts
type RouterConfig struct {
	Address      string `yaml:"address" validate:"required,eth_addr"`
	AMMAddress   string `yaml:"ammAddress" validate:"required,eth_addr"`
	FeeRecipient string `yaml:"feeRecipient" validate:"required,eth_addr"`
	Owner        string `yaml:"owner" validate:"required,eth_addr"`
	// RequireSignature rejects HTTP swaps without a personal_sign signature of the swap intent
	RequireSignature bool `yaml:"requireSignature"`
}

// ChainConfig selects the token tables and, when RPCURL is set, the on-chain quoter
type ChainConfig struct {
	ChainID uint64 `yaml:"chainId" validate:"required"`
	RPCURL  string `yaml:"rpcUrl" validate:"omitempty,url"`
}

type ServerConfig struct {
	Port        int    `yaml:"port" validate:"gt=0,lte=65535"`
	PostgresURL string `yaml:"postgresUrl"`
}

// AuthConfig admin route authentication. Empty JwksURI disables auth.
type AuthConfig struct {
	JwksURI    string `yaml:"jwksUri" validate:"omitempty,url"`
	ResourceID string `yaml:"resourceId"`
	// AuthorizationServer is advertised in the protected resource metadata
	AuthorizationServer string `yaml:"authorizationServer" validate:"omitempty,url"`
	// AdminScope, when set, must be granted to tokens calling admin routes
	AdminScope string `yaml:"adminScope"`
}

type MarketConfig struct {
	CoinGeckoURL string `yaml:"coinGeckoUrl" validate:"omitempty,url"`
	GasAPIURL    string `yaml:"gasApiUrl" validate:"omitempty,url"`
	// Disabled stops the background pollers
	Disabled bool `yaml:"disabled"`
}

// PoolConfig initial liquidity, amounts in smallest units
type PoolConfig struct {
	TokenA  string `yaml:"tokenA" validate:"required"`
	TokenB  string `yaml:"tokenB" validate:"required"`
	AmountA string `yaml:"amountA" validate:"required,numeric"`
	AmountB string `yaml:"amountB" validate:"required,numeric"`
}

// Amounts parses the pool amounts
func (p PoolConfig) Amounts() (*big.Int, *big.Int, error) {
	a, ok := new(big.Int).SetString(p.AmountA, 10)
	if !ok {
		return nil, nil, fmt.Errorf("invalid amountA %q", p.AmountA)
	}
	b, ok := new(big.Int).SetString(p.AmountB, 10)
	if !ok {
		return nil, nil, fmt.Errorf("invalid amountB %q", p.AmountB)
	}
	return a, b, nil
}

// AuthEnabled reports whether admin routes require a bearer token
func (c *Config) AuthEnabled() bool {
	return c.Auth.JwksURI != ""
}

// Load reads the optional YAML file at path, overlays the environment (including a .env file),
// applies defaults and validates the result
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv loads the file named by CONFIG_FILE, if any
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv("CONFIG_FILE"))
}

func (c *Config) applyEnv() error {
	setString := func(key string, target *string) {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			*target = value
		}
	}

	setString("ROUTER_ADDRESS", &c.Router.Address)
	setString("AMM_ADDRESS", &c.Router.AMMAddress)
	setString("FEE_RECIPIENT", &c.Router.FeeRecipient)
	setString("FEE_OWNER", &c.Router.Owner)
	setString("ETH_RPC_URL", &c.Chain.RPCURL)
	setString("POSTGRES_URL", &c.Server.PostgresURL)
	setString("JWKS_URI", &c.Auth.JwksURI)
	setString("AUTH_RESOURCE_ID", &c.Auth.ResourceID)
	setString("AUTH_SERVER_URL", &c.Auth.AuthorizationServer)
	setString("AUTH_ADMIN_SCOPE", &c.Auth.AdminScope)
	setString("COINGECKO_URL", &c.Market.CoinGeckoURL)
	setString("GAS_API_URL", &c.Market.GasAPIURL)

	if value := os.Getenv("CHAIN_ID"); value != "" {
		chainID, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CHAIN_ID %q: %w", value, err)
		}
		c.Chain.ChainID = chainID
	}
	if value := os.Getenv("PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", value, err)
		}
		c.Server.Port = port
	}
	if value := os.Getenv("REQUIRE_SWAP_SIGNATURE"); value != "" {
		required, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid REQUIRE_SWAP_SIGNATURE %q: %w", value, err)
		}
		c.Router.RequireSignature = required
	}
	return nil
}

// setDefaults sets default values
func (c *Config) setDefaults() {
	if c.Router.Address == "" {
		c.Router.Address = DefaultRouterAddress
	}
	if c.Router.AMMAddress == "" {
		c.Router.AMMAddress = DefaultAMMAddress
	}
	if c.Router.Owner == "" {
		c.Router.Owner = c.Router.FeeRecipient
	}
	if c.Chain.ChainID == 0 {
		c.Chain.ChainID = constants.ChainIDEthereum
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
}

// Validate validates configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if name, unsupported := constants.UnsupportedUniswapChains[c.Chain.ChainID]; unsupported {
		return fmt.Errorf("chain %d (%s) has no Uniswap V2 deployment", c.Chain.ChainID, name)
	}
	if _, ok := constants.WrappedNative(c.Chain.ChainID); !ok {
		return fmt.Errorf("chain %d has no wrapped native token configured", c.Chain.ChainID)
	}
	for i, pool := range c.Pools {
		if _, _, err := pool.Amounts(); err != nil {
			return fmt.Errorf("pools[%d]: %w", i, err)
		}
	}
	return nil
}
