// Package env builds the program, guard and ledger a command runs against
// from the config file and the root command's persistent flags.
package env

import (
	"github.com/Overclock-Validator/bankpda/pkg/accounts"
	"github.com/Overclock-Validator/bankpda/pkg/accountsdb"
	"github.com/Overclock-Validator/bankpda/pkg/bank"
	"github.com/Overclock-Validator/bankpda/pkg/config"
	"github.com/Overclock-Validator/bankpda/pkg/guard"
	"github.com/Overclock-Validator/bankpda/pkg/pda"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

var (
	configPath   string
	storeBackend string
	storePath    string
	programID    string
)

func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&storeBackend, "store-backend", "", "Ledger backend (memory, badger, pebble); overrides the config file")
	flags.StringVar(&storePath, "store-path", "", "Ledger directory; overrides the config file")
	flags.StringVar(&programID, "program-id", "", "Program id addresses are derived under; overrides the config file")
}

// LoadConfig reads the config file and applies flag overrides.
func LoadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	if storeBackend != "" {
		cfg.Store.Backend = storeBackend
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}
	if programID != "" {
		cfg.ProgramID = programID
	}

	return cfg, cfg.Validate()
}

type Env struct {
	Config  config.Config
	Deriver *pda.Deriver
	Ledger  accounts.Accounts
	Guard   *guard.Guard
	Program *bank.Program
}

// Open loads the config and opens its ledger. reg may be nil.
func Open(reg prometheus.Registerer) (*Env, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	deriver, err := pda.NewDeriver(cfg.ProgramKey(), cfg.Derive)
	if err != nil {
		return nil, err
	}

	ledger, err := accountsdb.OpenDb(cfg.Store.Backend, cfg.Store.Path, cfg.Store.CapacityBytes)
	if err != nil {
		return nil, err
	}

	g := guard.NewGuard(deriver, ledger)
	g.MaxPayloadLen = cfg.Guard.MaxPayloadLen
	if reg != nil {
		g.Metrics = guard.NewMetrics(reg)
	}

	klog.V(2).Infof("program %s, ledger %s", cfg.ProgramID, cfg.Store.Backend)

	return &Env{
		Config:  cfg,
		Deriver: deriver,
		Ledger:  ledger,
		Guard:   g,
		Program: bank.NewProgram(g),
	}, nil
}

func (e *Env) Close() {
	if err := e.Ledger.Close(); err != nil {
		klog.Errorf("failed to close ledger: %s", err)
	}
}
