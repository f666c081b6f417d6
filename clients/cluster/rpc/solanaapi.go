package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gagliardetto/solana-go"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/goblinstake/goblin-stake/clients/cluster/sshtunnel"
	"github.com/goblinstake/goblin-stake/metrics"
)

var ErrAccountNotFound = errors.New("account not found")

type ClientOptions struct {
	Headers   map[string]string
	RateLimit float64 // requests per second, 0 = unlimited
	RateBurst int
	Ssh       *sshtunnel.Config // optional jump host for endpoints that are not publicly reachable
}

// BlockhashInfo is the recent blockhash a transaction is built against.
type BlockhashInfo struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

type SolanaClient struct {
	name      string
	endpoint  string
	headers   map[string]string
	limiter   *rate.Limiter
	logger    logrus.FieldLogger
	rpcClient *solrpc.Client
	sshtunnel *sshtunnel.Tunnel
}

// NewSolanaClient is used to create a new solana json-rpc client
func NewSolanaClient(name, endpoint string, opts *ClientOptions, logger logrus.FieldLogger) (*SolanaClient, error) {
	endpointUrl, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid rpc endpoint %v: %w", endpoint, err)
	}
	if endpointUrl.Scheme != "http" && endpointUrl.Scheme != "https" {
		return nil, fmt.Errorf("invalid rpc endpoint %v: unsupported scheme %q", endpoint, endpointUrl.Scheme)
	}

	client := &SolanaClient{
		name:     name,
		endpoint: endpoint,
		logger:   logger,
	}

	var sshcfg *sshtunnel.Config
	if opts != nil {
		client.headers = opts.Headers
		sshcfg = opts.Ssh
		if opts.RateLimit > 0 {
			burst := opts.RateBurst
			if burst < 1 {
				burst = 1
			}
			client.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
		}
	}

	if sshcfg != nil {
		tunnel, err := sshtunnel.New(sshcfg, logger.WithField("sshtun", sshcfg.Host))
		if err != nil {
			return nil, fmt.Errorf("could not create ssh tunnel: %w", err)
		}
		client.sshtunnel = tunnel

		httpClient := &http.Client{
			Transport: &http.Transport{
				DialContext:         tunnel.DialContext,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
		client.rpcClient = solrpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(endpoint, &jsonrpc.RPCClientOpts{
			HTTPClient:    httpClient,
			CustomHeaders: client.headers,
		}))
	} else if len(client.headers) > 0 {
		client.rpcClient = solrpc.NewWithHeaders(endpoint, client.headers)
	} else {
		client.rpcClient = solrpc.New(endpoint)
	}

	return client, nil
}

// Close releases the http connections and the ssh tunnel, if any.
func (sc *SolanaClient) Close() error {
	var err error
	if sc.rpcClient != nil {
		err = sc.rpcClient.Close()
	}
	if sc.sshtunnel != nil {
		if tunErr := sc.sshtunnel.Close(); err == nil {
			err = tunErr
		}
	}
	return err
}

func (sc *SolanaClient) GetName() string {
	return sc.name
}

func (sc *SolanaClient) GetEndpoint() string {
	return sc.endpoint
}

// call waits for the rate limiter and records metrics around a single remote call.
func (sc *SolanaClient) call(ctx context.Context, method string, fn func() error) error {
	if sc.limiter != nil {
		waitStart := time.Now()
		if err := sc.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter (%v): %w", method, err)
		}
		metrics.ObserveRateLimitWait(sc.name, time.Since(waitStart))
	}

	started := time.Now()
	err := fn()
	metrics.ObserveRPCCall(sc.name, method, started, err)

	if err != nil {
		sc.logger.Debugf("rpc call %v failed after %v: %v", method, time.Since(started), err)
	}

	return err
}

func (sc *SolanaClient) GetVersion(ctx context.Context) (string, error) {
	var result string
	err := sc.call(ctx, "getVersion", func() error {
		res, err := sc.rpcClient.GetVersion(ctx)
		if err != nil {
			return err
		}
		result = res.SolanaCore
		return nil
	})

	return result, err
}

func (sc *SolanaClient) GetHealth(ctx context.Context) (string, error) {
	var result string
	err := sc.call(ctx, "getHealth", func() error {
		var err error
		result, err = sc.rpcClient.GetHealth(ctx)
		return err
	})

	return result, err
}

func (sc *SolanaClient) GetSlot(ctx context.Context, commitment solrpc.CommitmentType) (uint64, error) {
	var result uint64
	err := sc.call(ctx, "getSlot", func() error {
		var err error
		result, err = sc.rpcClient.GetSlot(ctx, commitment)
		return err
	})

	return result, err
}

func (sc *SolanaClient) GetBlockHeight(ctx context.Context, commitment solrpc.CommitmentType) (uint64, error) {
	var result uint64
	err := sc.call(ctx, "getBlockHeight", func() error {
		var err error
		result, err = sc.rpcClient.GetBlockHeight(ctx, commitment)
		return err
	})

	return result, err
}

func (sc *SolanaClient) GetLatestBlockhash(ctx context.Context, commitment solrpc.CommitmentType) (*BlockhashInfo, error) {
	var result *BlockhashInfo
	err := sc.call(ctx, "getLatestBlockhash", func() error {
		res, err := sc.rpcClient.GetLatestBlockhash(ctx, commitment)
		if err != nil {
			return err
		}
		if res == nil || res.Value == nil {
			return fmt.Errorf("empty getLatestBlockhash response")
		}

		result = &BlockhashInfo{
			Blockhash:            res.Value.Blockhash,
			LastValidBlockHeight: res.Value.LastValidBlockHeight,
		}
		return nil
	})

	return result, err
}

func (sc *SolanaClient) SendTransaction(ctx context.Context, tx *solana.Transaction, opts solrpc.TransactionOpts) (solana.Signature, error) {
	var result solana.Signature
	err := sc.call(ctx, "sendTransaction", func() error {
		var err error
		result, err = sc.rpcClient.SendTransactionWithOpts(ctx, tx, opts)
		return err
	})

	return result, err
}

// GetSignatureStatus returns nil (without error) if the cluster does not know the signature yet.
func (sc *SolanaClient) GetSignatureStatus(ctx context.Context, signature solana.Signature) (*solrpc.SignatureStatusesResult, error) {
	var result *solrpc.SignatureStatusesResult
	err := sc.call(ctx, "getSignatureStatuses", func() error {
		res, err := sc.rpcClient.GetSignatureStatuses(ctx, false, signature)
		if err != nil {
			return err
		}
		if res != nil && len(res.Value) > 0 {
			result = res.Value[0]
		}
		return nil
	})

	return result, err
}

func (sc *SolanaClient) GetAccountData(ctx context.Context, account solana.PublicKey, commitment solrpc.CommitmentType) ([]byte, error) {
	var result []byte
	err := sc.call(ctx, "getAccountInfo", func() error {
		res, err := sc.rpcClient.GetAccountInfoWithOpts(ctx, account, &solrpc.GetAccountInfoOpts{
			Commitment: commitment,
		})
		if errors.Is(err, solrpc.ErrNotFound) {
			return ErrAccountNotFound
		}
		if err != nil {
			return err
		}
		if res == nil || res.Value == nil || res.Value.Data == nil {
			return ErrAccountNotFound
		}

		result = res.Value.Data.GetBinary()
		return nil
	})

	return result, err
}

func (sc *SolanaClient) GetBalance(ctx context.Context, account solana.PublicKey, commitment solrpc.CommitmentType) (uint64, error) {
	var result uint64
	err := sc.call(ctx, "getBalance", func() error {
		res, err := sc.rpcClient.GetBalance(ctx, account, commitment)
		if err != nil {
			return err
		}
		result = res.Value
		return nil
	})

	return result, err
}

func (sc *SolanaClient) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64, commitment solrpc.CommitmentType) (solana.Signature, error) {
	var result solana.Signature
	err := sc.call(ctx, "requestAirdrop", func() error {
		var err error
		result, err = sc.rpcClient.RequestAirdrop(ctx, account, lamports, commitment)
		return err
	})

	return result, err
}
