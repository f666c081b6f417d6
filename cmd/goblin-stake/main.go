package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/goblinstake/goblin-stake/clients/cluster"
	"github.com/goblinstake/goblin-stake/harness"
	"github.com/goblinstake/goblin-stake/metrics"
	"github.com/goblinstake/goblin-stake/types"
	"github.com/goblinstake/goblin-stake/utils"
)

var rootCmd = &cobra.Command{
	Use:           "goblin-stake",
	Short:         "GoblinStake program client",
	Long:          "Client and test harness for the GoblinStake staking program",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the config file, if empty string defaults will be used")
	rootCmd.PersistentFlags().StringP("url", "u", "", "Cluster url or moniker (localnet, devnet, testnet, mainnet-beta), overrides ANCHOR_PROVIDER_URL")
	rootCmd.PersistentFlags().StringP("wallet", "w", "", "Path to the wallet keypair file, overrides ANCHOR_WALLET")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the per command runtime: config, logger and (optionally) the harness.
type app struct {
	cfg       *types.Config
	logger    *logrus.Logger
	logWriter *utils.LogWriter
	metrics   *http.Server
	harness   *harness.Harness
}

func loadConfig(cmd *cobra.Command) (*types.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	url, _ := cmd.Flags().GetString("url")
	wallet, _ := cmd.Flags().GetString("wallet")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg := &types.Config{}
	if err := utils.ReadConfig(cfg, configPath); err != nil {
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	if url != "" {
		endpoint, err := cluster.ResolveURL(url)
		if err != nil {
			return nil, err
		}
		cfg.Provider.Url = endpoint
	}
	if wallet != "" {
		cfg.Provider.Wallet = wallet
	}
	if verbose {
		cfg.Logging.OutputLevel = "debug"
	}

	return cfg, nil
}

// newApp reads the config and sets up logging. The harness is only created when withHarness is set.
func newApp(cmd *cobra.Command, withHarness bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logWriter, logger, err := utils.InitLogger(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		logWriter: logWriter,
	}

	if cfg.Metrics.Enabled {
		srv, err := metrics.StartMetricsServer(logger.WithField("module", "metrics"), cfg.Metrics.Host, cfg.Metrics.Port)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("error starting metrics server: %w", err)
		}
		a.metrics = srv
	}

	if withHarness {
		h, err := harness.New(cfg, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.harness = h
	}

	return a, nil
}

func (a *app) Close() {
	if a.harness != nil {
		if err := a.harness.Close(); err != nil {
			a.logger.Warnf("error closing harness: %v", err)
		}
	}
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.logger.Warnf("error stopping metrics server: %v", err)
		}
	}
	a.logWriter.Dispose()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return utils.SignalContext(ctx)
}
