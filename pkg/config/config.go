// Package config loads bankpda configuration from YAML, with environment
// variable overrides applied on top of the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/Overclock-Validator/bankpda/pkg/accountsdb"
	"github.com/Overclock-Validator/bankpda/pkg/bank"
	"github.com/Overclock-Validator/bankpda/pkg/guard"
	"github.com/Overclock-Validator/bankpda/pkg/pda"
	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

const (
	EnvProgramID     = "BANKPDA_PROGRAM_ID"
	EnvStoreBackend  = "BANKPDA_STORE_BACKEND"
	EnvStorePath     = "BANKPDA_STORE_PATH"
	EnvStoreCapacity = "BANKPDA_STORE_CAPACITY_BYTES"
	EnvRpcEndpoint   = "BANKPDA_RPC_ENDPOINT"
)

const DefaultRpcEndpoint = "https://api.devnet.solana.com"

type StoreConfig struct {
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path"`
	CapacityBytes uint64 `yaml:"capacity_bytes"`
}

type GuardConfig struct {
	MaxPayloadLen uint64 `yaml:"max_payload_len"`
}

type RpcConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type Config struct {
	ProgramID string      `yaml:"program_id"`
	Store     StoreConfig `yaml:"store"`
	Derive    pda.Limits  `yaml:"derive"`
	Guard     GuardConfig `yaml:"guard"`
	Rpc       RpcConfig   `yaml:"rpc"`
}

func Default() Config {
	return Config{
		ProgramID: bank.ProgramIDStr,
		Store: StoreConfig{
			Backend: accountsdb.BackendBadger,
			Path:    "bankpda-ledger",
		},
		Derive: pda.DefaultLimits(),
		Guard:  GuardConfig{MaxPayloadLen: guard.MaxPermittedDataLen},
		Rpc:    RpcConfig{Endpoint: DefaultRpcEndpoint},
	}
}

// Load returns the defaults overlaid with the file at path (if path is
// non-empty) and then with environment overrides. A missing file is an
// error; an empty path is not.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvProgramID); v != "" {
		c.ProgramID = v
	}
	if v := os.Getenv(EnvStoreBackend); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv(EnvStorePath); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvStoreCapacity); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStoreCapacity, err)
		}
		c.Store.CapacityBytes = n
	}
	if v := os.Getenv(EnvRpcEndpoint); v != "" {
		c.Rpc.Endpoint = v
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error

	if _, err := solana.PublicKeyFromBase58(c.ProgramID); err != nil {
		errs = append(errs, fmt.Errorf("program_id: %w", err))
	}

	switch c.Store.Backend {
	case accountsdb.BackendMemory:
	case accountsdb.BackendBadger, accountsdb.BackendPebble:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required for backend %s", c.Store.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}

	if err := c.Derive.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("derive: %w", err))
	}

	if c.Guard.MaxPayloadLen == 0 || c.Guard.MaxPayloadLen > guard.MaxPermittedDataLen {
		errs = append(errs, fmt.Errorf("guard.max_payload_len must be within [1, %d], got %d",
			guard.MaxPermittedDataLen, c.Guard.MaxPayloadLen))
	}

	return errors.Join(errs...)
}

func (c Config) ProgramKey() solana.PublicKey {
	return solana.MustPublicKeyFromBase58(c.ProgramID)
}
