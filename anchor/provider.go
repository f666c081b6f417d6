package anchor

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/goblinstake/goblin-stake/clients/cluster"
	"github.com/goblinstake/goblin-stake/clients/cluster/rpc"
	"github.com/goblinstake/goblin-stake/types"
)

// Connection is the subset of the cluster rpc api the provider needs.
type Connection interface {
	GetLatestBlockhash(ctx context.Context, commitment solrpc.CommitmentType) (*rpc.BlockhashInfo, error)
	GetBlockHeight(ctx context.Context, commitment solrpc.CommitmentType) (uint64, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction, opts solrpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatus(ctx context.Context, signature solana.Signature) (*solrpc.SignatureStatusesResult, error)
	GetAccountData(ctx context.Context, account solana.PublicKey, commitment solrpc.CommitmentType) ([]byte, error)
}

// TxObserver is notified about every transaction the provider sends.
type TxObserver interface {
	OnSubmitted(method string, signature solana.Signature)
	OnSettled(signature solana.Signature, slot uint64, err error)
}

type ProviderOptions struct {
	Commitment          solrpc.CommitmentType
	PreflightCommitment solrpc.CommitmentType
	SkipPreflight       bool
	ConfirmTimeout      time.Duration
	PollInterval        time.Duration
}

func DefaultProviderOptions() ProviderOptions {
	return ProviderOptions{
		Commitment:          solrpc.CommitmentProcessed,
		PreflightCommitment: solrpc.CommitmentProcessed,
		ConfirmTimeout:      30 * time.Second,
		PollInterval:        500 * time.Millisecond,
	}
}

func ProviderOptionsFromConfig(cfg *types.ProviderConfig) (ProviderOptions, error) {
	opts := DefaultProviderOptions()

	commitment, err := rpc.ParseCommitment(cfg.Commitment)
	if err != nil {
		return opts, err
	}
	preflight, err := rpc.ParseCommitment(cfg.PreflightCommitment)
	if err != nil {
		return opts, err
	}

	opts.Commitment = commitment
	opts.PreflightCommitment = preflight
	opts.SkipPreflight = cfg.SkipPreflight
	if cfg.ConfirmTimeout > 0 {
		opts.ConfirmTimeout = cfg.ConfirmTimeout
	}
	if cfg.PollInterval > 0 {
		opts.PollInterval = cfg.PollInterval
	}

	return opts, nil
}

// Provider routes remote calls: it builds, signs, sends and confirms transactions.
type Provider struct {
	conn     Connection
	wallet   *cluster.Wallet
	opts     ProviderOptions
	logger   logrus.FieldLogger
	observer TxObserver
}

func NewProvider(conn Connection, wallet *cluster.Wallet, opts ProviderOptions, logger logrus.FieldLogger) *Provider {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultProviderOptions().PollInterval
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = DefaultProviderOptions().ConfirmTimeout
	}

	return &Provider{
		conn:   conn,
		wallet: wallet,
		opts:   opts,
		logger: logger,
	}
}

func (p *Provider) SetObserver(observer TxObserver) {
	p.observer = observer
}

func (p *Provider) Wallet() *cluster.Wallet {
	return p.wallet
}

func (p *Provider) Connection() Connection {
	return p.conn
}

func (p *Provider) Options() ProviderOptions {
	return p.opts
}

// SendAndConfirm sends the instructions in one transaction paid by the provider wallet and
// waits for the configured commitment. The signature is returned together with the error
// whenever the transaction reached the cluster.
func (p *Provider) SendAndConfirm(ctx context.Context, method string, instructions []solana.Instruction, signers ...solana.PrivateKey) (solana.Signature, error) {
	blockhash, err := p.conn.GetLatestBlockhash(ctx, p.opts.Commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("could not get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash.Blockhash, solana.TransactionPayer(p.wallet.PublicKey()))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("could not build transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if pk := p.wallet.PrivateKeyFor(key); pk != nil {
			return pk
		}
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("could not sign transaction: %w", err)
	}

	signature, err := p.conn.SendTransaction(ctx, tx, solrpc.TransactionOpts{
		SkipPreflight:       p.opts.SkipPreflight,
		PreflightCommitment: p.opts.PreflightCommitment,
	})
	if err != nil {
		return solana.Signature{}, err
	}
	if signature.IsZero() {
		return solana.Signature{}, ErrEmptySignature
	}

	p.logger.WithFields(logrus.Fields{
		"method":    method,
		"signature": signature.String(),
	}).Debugf("transaction sent")

	if p.observer != nil {
		p.observer.OnSubmitted(method, signature)
	}

	slot, err := p.confirm(ctx, signature, blockhash.LastValidBlockHeight)
	if p.observer != nil {
		p.observer.OnSettled(signature, slot, err)
	}
	return signature, err
}

// confirm polls the signature status until the commitment is reached, the transaction
// fails, the blockhash expires or the confirm timeout elapses.
func (p *Provider) confirm(ctx context.Context, signature solana.Signature, lastValidBlockHeight uint64) (uint64, error) {
	confirmCtx, cancel := context.WithTimeout(ctx, p.opts.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	for {
		status, err := p.conn.GetSignatureStatus(confirmCtx, signature)
		switch {
		case err != nil:
			if confirmCtx.Err() == nil {
				p.logger.Debugf("signature status lookup for %v failed: %v", signature, err)
			}
		case status != nil && status.Err != nil:
			return status.Slot, &TransactionError{Raw: status.Err}
		case status != nil && rpc.CommitmentReached(status.ConfirmationStatus, p.opts.Commitment):
			return status.Slot, nil
		case status == nil && lastValidBlockHeight > 0:
			height, err := p.conn.GetBlockHeight(confirmCtx, p.opts.Commitment)
			if err == nil && height > lastValidBlockHeight {
				return 0, ErrBlockhashExpired
			}
		}

		select {
		case <-confirmCtx.Done():
			if err := ctx.Err(); err != nil {
				return 0, fmt.Errorf("waiting for confirmation of %v: %w", signature, err)
			}
			return 0, fmt.Errorf("%w after %v", ErrConfirmTimeout, p.opts.ConfirmTimeout)
		case <-ticker.C:
		}
	}
}
