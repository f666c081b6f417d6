package utils

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/goblinstake/goblin-stake/clients/cluster"
	"github.com/goblinstake/goblin-stake/clients/cluster/rpc"
	"github.com/goblinstake/goblin-stake/config"
	"github.com/goblinstake/goblin-stake/types"
)

// ReadConfig will process a configuration: embedded defaults, then the config file (if any), then the environment
func ReadConfig(cfg *types.Config, path string) error {
	err := yaml.Unmarshal([]byte(config.DefaultConfigYml), cfg)
	if err != nil {
		return fmt.Errorf("error decoding default config: %w", err)
	}

	err = readConfigFile(cfg, path)
	if err != nil {
		return err
	}

	err = readConfigEnv(cfg)
	if err != nil {
		return fmt.Errorf("error reading config from environment: %w", err)
	}

	return normalizeConfig(cfg)
}

func readConfigFile(cfg *types.Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error opening config file %v: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	err = decoder.Decode(cfg)
	if err != nil {
		return fmt.Errorf("error decoding config file %v: %w", path, err)
	}

	return nil
}

func readConfigEnv(cfg *types.Config) error {
	return envconfig.Process("", cfg)
}

// normalizeConfig resolves cluster monikers, applies fallbacks and validates the result.
func normalizeConfig(cfg *types.Config) error {
	endpoint, err := cluster.ResolveURL(cfg.Provider.Url)
	if err != nil {
		return err
	}
	cfg.Provider.Url = endpoint

	if _, err := rpc.ParseCommitment(cfg.Provider.Commitment); err != nil {
		return fmt.Errorf("invalid provider.commitment: %w", err)
	}
	if _, err := rpc.ParseCommitment(cfg.Provider.PreflightCommitment); err != nil {
		return fmt.Errorf("invalid provider.preflightCommitment: %w", err)
	}

	if cfg.Provider.ConfirmTimeout <= 0 {
		cfg.Provider.ConfirmTimeout = 30 * time.Second
	}
	if cfg.Provider.PollInterval <= 0 {
		cfg.Provider.PollInterval = 500 * time.Millisecond
	}
	if cfg.Provider.RateLimit < 0 {
		return fmt.Errorf("invalid provider.rateLimit: must not be negative")
	}
	if cfg.Provider.Ssh != nil && cfg.Provider.Ssh.Host == "" {
		return fmt.Errorf("missing provider.ssh.host")
	}

	if cfg.Program.ID == "" {
		return fmt.Errorf("missing program.id")
	}
	if _, err := solana.PublicKeyFromBase58(cfg.Program.ID); err != nil {
		return fmt.Errorf("invalid program.id %q: %w", cfg.Program.ID, err)
	}

	if cfg.Journal.CacheSize <= 0 {
		cfg.Journal.CacheSize = 8
	}

	logrus.WithFields(logrus.Fields{
		"cluster":    cluster.NameForURL(cfg.Provider.Url),
		"url":        cfg.Provider.Url,
		"programId":  cfg.Program.ID,
		"commitment": cfg.Provider.Commitment,
	}).Debugf("did init config")

	return nil
}
