// Package config loads the configuration of a node from its folder.
//
// The folder may contain a stake.yaml file and a .env file. Values are
// resolved in this order, the last one winning: defaults, the yaml file, the
// .env file, then the STAKE_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.missionstake.io/stake/core/access"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// FileName is the name of the configuration file in the node folder.
const FileName = "stake.yaml"

// EnvFileName is the name of the dotenv file in the node folder.
const EnvFileName = ".env"

// Environment variables overriding the file values.
const (
	EnvDB        = "STAKE_DB"
	EnvLogLevel  = "STAKE_LOG_LEVEL"
	EnvListen    = "STAKE_HTTP_LISTEN"
	EnvJWTSecret = "STAKE_JWT_SECRET"
	EnvPool      = "STAKE_REWARD_POOL"
	EnvMinter    = "STAKE_REWARD_MINTER"
)

const (
	defaultDB       = "stake.db"
	defaultBucket   = "stake"
	defaultTokenTTL = 24 * time.Hour
)

// Config is the configuration of a node.
type Config struct {
	// DB is the path of the bbolt database. A relative path is resolved
	// against the node folder.
	DB string `yaml:"db"`

	// Bucket is the name of the bucket holding the ledger state.
	Bucket string `yaml:"bucket"`

	// LogLevel is one of trace, debug, info, warn, error or none.
	LogLevel string `yaml:"log_level"`

	HTTP struct {
		// Listen is the address of the HTTP API. The API is disabled when it
		// is empty.
		Listen string `yaml:"listen"`

		// JWTSecret is the HS256 key of the bearer tokens.
		JWTSecret string `yaml:"jwt_secret"`

		// TokenTTL is the lifetime of the tokens issued by the node.
		TokenTTL time.Duration `yaml:"token_ttl"`
	} `yaml:"http"`

	Reward struct {
		// Pool is the address holding the escrowed rewards.
		Pool string `yaml:"pool"`

		// Minter is the only address allowed to fund accounts.
		Minter string `yaml:"minter"`
	} `yaml:"reward"`
}

// Default returns the configuration used when the folder is empty.
func Default() *Config {
	cfg := &Config{
		DB:     defaultDB,
		Bucket: defaultBucket,
	}

	cfg.HTTP.TokenTTL = defaultTokenTTL

	return cfg
}

// Load reads the configuration of the folder and applies the environment of
// the process.
func Load(dir string) (*Config, error) {
	return load(dir, os.LookupEnv)
}

func load(dir string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil && !os.IsNotExist(err) {
		return nil, xerrors.Errorf("failed to read config: %v", err)
	}

	if err == nil {
		err = yaml.UnmarshalStrict(data, cfg)
		if err != nil {
			return nil, xerrors.Errorf("invalid config yaml: %v", err)
		}
	}

	dotenv, err := godotenv.Read(filepath.Join(dir, EnvFileName))
	if err != nil && !os.IsNotExist(err) {
		return nil, xerrors.Errorf("failed to read env file: %v", err)
	}

	get := func(name string) (string, bool) {
		value, found := lookup(name)
		if found {
			return value, true
		}

		value, found = dotenv[name]
		return value, found
	}

	override(get, EnvDB, &cfg.DB)
	override(get, EnvLogLevel, &cfg.LogLevel)
	override(get, EnvListen, &cfg.HTTP.Listen)
	override(get, EnvJWTSecret, &cfg.HTTP.JWTSecret)
	override(get, EnvPool, &cfg.Reward.Pool)
	override(get, EnvMinter, &cfg.Reward.Minter)

	if cfg.DB != "" && !filepath.IsAbs(cfg.DB) {
		cfg.DB = filepath.Join(dir, cfg.DB)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, xerrors.Errorf("invalid config: %v", err)
	}

	return cfg, nil
}

func override(get func(string) (string, bool), name string, field *string) {
	value, found := get(name)
	if found {
		*field = value
	}
}

// Validate checks that the configuration can start a node.
func (c *Config) Validate() error {
	if c.DB == "" {
		return xerrors.New("db is required")
	}

	if c.Bucket == "" {
		return xerrors.New("bucket is required")
	}

	if c.HTTP.Listen != "" && c.HTTP.JWTSecret == "" {
		return xerrors.New("http.jwt_secret is required to serve the API")
	}

	if c.HTTP.TokenTTL < 0 {
		return xerrors.Errorf("negative token ttl %v", c.HTTP.TokenTTL)
	}

	_, err := c.PoolAddress()
	if err != nil {
		return err
	}

	_, err = c.MinterAddress()
	if err != nil {
		return err
	}

	return nil
}

// PoolAddress returns the address of the reward pool, or the zero address
// when it is not configured.
func (c *Config) PoolAddress() (access.Address, error) {
	return optionalAddress("reward.pool", c.Reward.Pool)
}

// MinterAddress returns the address allowed to fund accounts, or the zero
// address when funding is disabled.
func (c *Config) MinterAddress() (access.Address, error) {
	return optionalAddress("reward.minter", c.Reward.Minter)
}

func optionalAddress(name, text string) (access.Address, error) {
	if text == "" {
		return access.Address{}, nil
	}

	addr, err := access.ParseAddress(text)
	if err != nil {
		return addr, xerrors.Errorf("invalid %s: %v", name, err)
	}

	return addr, nil
}
