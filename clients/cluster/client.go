package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	solrpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/goblinstake/goblin-stake/clients/cluster/rpc"
	"github.com/goblinstake/goblin-stake/clients/cluster/sshtunnel"
	"github.com/goblinstake/goblin-stake/types"
)

type ClientStatus uint8

var (
	ClientStatusUnknown   ClientStatus = 0
	ClientStatusOnline    ClientStatus = 1
	ClientStatusOffline   ClientStatus = 2
	ClientStatusUnhealthy ClientStatus = 3
)

func (s ClientStatus) String() string {
	switch s {
	case ClientStatusOnline:
		return "online"
	case ClientStatusOffline:
		return "offline"
	case ClientStatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

type ClientConfig struct {
	URL       string
	Name      string
	Headers   map[string]string
	RateLimit float64
	RateBurst int
	Ssh       *types.SshConfig
}

type Client struct {
	config    *ClientConfig
	rpcClient *rpc.SolanaClient
	logger    logrus.FieldLogger

	statusMutex sync.RWMutex
	status      ClientStatus
	versionStr  string
	lastSlot    uint64
	lastCheck   time.Time
	lastError   error
}

func NewClient(config *ClientConfig, logger logrus.FieldLogger) (*Client, error) {
	endpoint, err := ResolveURL(config.URL)
	if err != nil {
		return nil, err
	}

	name := config.Name
	if name == "" {
		name = NameForURL(endpoint)
	}

	clientLogger := logger.WithField("client", name)
	opts := &rpc.ClientOptions{
		Headers:   config.Headers,
		RateLimit: config.RateLimit,
		RateBurst: config.RateBurst,
	}
	if config.Ssh != nil {
		opts.Ssh = &sshtunnel.Config{
			Host:       config.Ssh.Host,
			Port:       config.Ssh.Port,
			User:       config.Ssh.User,
			Password:   config.Ssh.Password,
			Keyfile:    expandHome(config.Ssh.Keyfile),
			KnownHosts: expandHome(config.Ssh.KnownHosts),
		}
	}
	rpcClient, err := rpc.NewSolanaClient(name, endpoint, opts, clientLogger)
	if err != nil {
		return nil, err
	}

	return &Client{
		config:    config,
		rpcClient: rpcClient,
		logger:    clientLogger,
	}, nil
}

func (client *Client) Close() error {
	return client.rpcClient.Close()
}

func (client *Client) GetName() string {
	return client.rpcClient.GetName()
}

func (client *Client) GetEndpoint() string {
	return client.rpcClient.GetEndpoint()
}

func (client *Client) GetRPCClient() *rpc.SolanaClient {
	return client.rpcClient
}

func (client *Client) GetStatus() ClientStatus {
	client.statusMutex.RLock()
	defer client.statusMutex.RUnlock()
	return client.status
}

func (client *Client) GetVersion() string {
	client.statusMutex.RLock()
	defer client.statusMutex.RUnlock()
	return client.versionStr
}

func (client *Client) GetLastSlot() uint64 {
	client.statusMutex.RLock()
	defer client.statusMutex.RUnlock()
	return client.lastSlot
}

func (client *Client) GetLastError() error {
	client.statusMutex.RLock()
	defer client.statusMutex.RUnlock()
	return client.lastError
}

func (client *Client) GetLastCheck() time.Time {
	client.statusMutex.RLock()
	defer client.statusMutex.RUnlock()
	return client.lastCheck
}

const healthOk = "ok"

// Check queries the node (version, health, slot) and updates the cached status.
func (client *Client) Check(ctx context.Context) error {
	status, err := client.checkClient(ctx)

	client.statusMutex.Lock()
	defer client.statusMutex.Unlock()

	client.status = status
	client.lastCheck = time.Now()
	client.lastError = err

	return err
}

func (client *Client) checkClient(ctx context.Context) (ClientStatus, error) {
	version, err := client.rpcClient.GetVersion(ctx)
	if err != nil {
		return ClientStatusOffline, fmt.Errorf("error while fetching node version: %w", err)
	}

	slot, err := client.rpcClient.GetSlot(ctx, solrpc.CommitmentProcessed)
	if err != nil {
		return ClientStatusOffline, fmt.Errorf("error while fetching slot: %w", err)
	}

	client.statusMutex.Lock()
	client.versionStr = version
	client.lastSlot = slot
	client.statusMutex.Unlock()

	health, err := client.rpcClient.GetHealth(ctx)
	if err == nil && health != healthOk {
		err = fmt.Errorf("node reports health %q", health)
	}
	if err != nil {
		return ClientStatusUnhealthy, fmt.Errorf("node unhealthy: %w", err)
	}

	client.logger.Debugf("node online: version %v, slot %v", version, slot)
	return ClientStatusOnline, nil
}
