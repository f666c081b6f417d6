package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/goblinstake/goblin-stake/anchor"
	"github.com/goblinstake/goblin-stake/clients/cluster"
	"github.com/goblinstake/goblin-stake/config"
	"github.com/goblinstake/goblin-stake/goblinstake"
	"github.com/goblinstake/goblin-stake/journal"
	"github.com/goblinstake/goblin-stake/types"
	"github.com/goblinstake/goblin-stake/utils"
)

// Harness holds everything needed to call the goblin-stake program with one explicit config.
type Harness struct {
	logger  logrus.FieldLogger
	client  *cluster.Client
	goblin  *goblinstake.Client
	journal *journal.Store
}

func New(cfg *types.Config, logger logrus.FieldLogger) (*Harness, error) {
	if cfg == nil {
		return nil, fmt.Errorf("missing config")
	}
	logger = logger.WithField("module", "harness")

	client, err := cluster.NewClient(&cluster.ClientConfig{
		URL:       cfg.Provider.Url,
		Headers:   cfg.Provider.Headers,
		RateLimit: cfg.Provider.RateLimit,
		RateBurst: cfg.Provider.RateBurst,
		Ssh:       cfg.Provider.Ssh,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("could not create cluster client: %w", err)
	}

	h := &Harness{
		logger: logger,
		client: client,
	}
	if err := h.setup(cfg); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (h *Harness) setup(cfg *types.Config) error {
	wallet, err := cluster.LoadWallet(cfg.Provider.Wallet)
	if err != nil {
		return err
	}

	opts, err := anchor.ProviderOptionsFromConfig(&cfg.Provider)
	if err != nil {
		return err
	}
	provider := anchor.NewProvider(h.client.GetRPCClient(), wallet, opts, h.logger.WithField("module", "provider"))

	idl, err := loadIdl(cfg)
	if err != nil {
		return err
	}

	programID := goblinstake.ProgramID
	if cfg.Program.ID != "" {
		programID, err = solana.PublicKeyFromBase58(cfg.Program.ID)
		if err != nil {
			return fmt.Errorf("invalid program id %q: %w", cfg.Program.ID, err)
		}
	}

	program, err := anchor.NewProgram(idl, programID, provider)
	if err != nil {
		return err
	}

	h.goblin = goblinstake.NewClient(program)

	if cfg.Journal.Path != "" {
		store, err := journal.Open(cfg.Journal.Path, cfg.Journal.CacheSize)
		if err != nil {
			return err
		}
		store.RegisterMetrics()
		h.journal = store
	}
	provider.SetObserver(journal.NewObserver(h.journal, h.client.GetName(), h.logger.WithField("module", "journal")))

	h.logger.WithFields(logrus.Fields{
		"cluster": h.client.GetName(),
		"wallet":  wallet.PublicKey().String(),
		"program": programID.String(),
	}).Debugf("harness ready")

	return nil
}

func loadIdl(cfg *types.Config) (*anchor.Idl, error) {
	if cfg.Program.IdlPath != "" {
		return anchor.LoadIdl(cfg.Program.IdlPath)
	}
	return anchor.ParseIdl(config.GoblinStakeIdlJson)
}

func (h *Harness) Close() error {
	var err error
	if h.journal != nil {
		err = h.journal.Close()
	}
	if cerr := h.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func (h *Harness) Client() *cluster.Client {
	return h.client
}

func (h *Harness) GoblinStake() *goblinstake.Client {
	return h.goblin
}

// Journal is nil when no journal path is configured.
func (h *Harness) Journal() *journal.Store {
	return h.journal
}

// RunInitialize calls the program's initialize instruction and logs the resulting signature.
func (h *Harness) RunInitialize(ctx context.Context) (solana.Signature, error) {
	signature, err := h.goblin.Initialize(ctx)
	if err != nil {
		return signature, err
	}
	if signature.IsZero() {
		return signature, &anchor.RemoteCallError{
			Method: goblinstake.MethodInitialize,
			Err:    anchor.ErrEmptySignature,
		}
	}

	h.logger.Infof("Your transaction signature %v", signature)
	return signature, nil
}

// Case is a single named check of a suite.
type Case struct {
	Name string
	Run  func(ctx context.Context, h *Harness) error
}

type Suite struct {
	Name  string
	Cases []Case
}

type CaseResult struct {
	Name     string
	Err      error
	Duration time.Duration
}

func (r *CaseResult) Passed() bool {
	return r.Err == nil
}

type SuiteResult struct {
	Name    string
	Results []*CaseResult
}

func (r *SuiteResult) Failed() int {
	failed := 0
	for _, res := range r.Results {
		if !res.Passed() {
			failed++
		}
	}
	return failed
}

func (r *SuiteResult) Passed() bool {
	return r.Failed() == 0
}

// DefaultSuite is the goblin-stake suite with its single initialize case.
func DefaultSuite() Suite {
	return Suite{
		Name: "goblin-stake",
		Cases: []Case{
			{
				Name: "Is initialized!",
				Run: func(ctx context.Context, h *Harness) error {
					_, err := h.RunInitialize(ctx)
					return err
				},
			},
		},
	}
}

// RunSuite runs the cases in order. A failing case does not stop the suite.
func (h *Harness) RunSuite(ctx context.Context, suite Suite) *SuiteResult {
	result := &SuiteResult{
		Name:    suite.Name,
		Results: make([]*CaseResult, 0, len(suite.Cases)),
	}

	for _, tc := range suite.Cases {
		caseLogger := h.logger.WithFields(logrus.Fields{
			"suite": suite.Name,
			"case":  tc.Name,
		})

		started := time.Now()
		err := tc.Run(ctx, h)
		res := &CaseResult{
			Name:     tc.Name,
			Err:      err,
			Duration: time.Since(started),
		}
		result.Results = append(result.Results, res)

		if err != nil {
			utils.LogError(caseLogger, err, fmt.Sprintf("failed after %v", res.Duration), 0)
		} else {
			caseLogger.Infof("passed (%v)", res.Duration)
		}
	}

	return result
}
