// Package sshtunnel dials cluster rpc endpoints through an ssh jump host.
package sshtunnel

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type Config struct {
	Host       string
	Port       string
	User       string
	Password   string
	Keyfile    string
	KnownHosts string // empty accepts any host key
}

// Tunnel forwards tcp connections over a single, lazily established ssh connection.
type Tunnel struct {
	addr      string
	sshConfig *ssh.ClientConfig
	logger    logrus.FieldLogger

	mutex  sync.Mutex
	client *ssh.Client
	closed bool
}

func PrivateKeyFile(file string) (ssh.AuthMethod, error) {
	buffer, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	key, err := ssh.ParsePrivateKey(buffer)
	if err != nil {
		return nil, err
	}
	return ssh.PublicKeys(key), nil
}

func New(cfg *Config, logger logrus.FieldLogger) (*Tunnel, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("missing ssh host")
	}

	port := 22
	if cfg.Port != "" {
		p, err := strconv.Atoi(cfg.Port)
		if err != nil || p <= 0 || p > 65535 {
			return nil, fmt.Errorf("invalid ssh port %q", cfg.Port)
		}
		port = p
	}

	var auth ssh.AuthMethod
	if cfg.Keyfile != "" {
		var err error
		auth, err = PrivateKeyFile(cfg.Keyfile)
		if err != nil {
			return nil, fmt.Errorf("could not load ssh keyfile: %w", err)
		}
	} else {
		auth = ssh.Password(cfg.Password)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHosts != "" {
		var err error
		hostKeyCallback, err = knownhosts.New(cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("could not load ssh known hosts: %w", err)
		}
	} else {
		logger.Warnf("ssh host key of %v is not verified", cfg.Host)
	}

	return &Tunnel{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		sshConfig: &ssh.ClientConfig{
			User:            cfg.User,
			Auth:            []ssh.AuthMethod{auth},
			HostKeyCallback: hostKeyCallback,
			Timeout:         10 * time.Second,
		},
		logger: logger,
	}, nil
}

func (t *Tunnel) Addr() string {
	return t.addr
}

func (t *Tunnel) sshClient() (*ssh.Client, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.closed {
		return nil, net.ErrClosed
	}
	if t.client != nil {
		return t.client, nil
	}

	client, err := ssh.Dial("tcp", t.addr, t.sshConfig)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %v: %w", t.addr, err)
	}
	t.logger.Debugf("connected to ssh host %v", t.addr)

	t.client = client
	go func() {
		// drop the broken connection so the next dial reconnects
		client.Wait()
		t.mutex.Lock()
		if t.client == client {
			t.client = nil
		}
		t.mutex.Unlock()
	}()

	return client, nil
}

// DialContext opens addr as seen from the ssh host. It fits http.Transport.DialContext.
func (t *Tunnel) DialContext(ctx context.Context, network string, addr string) (net.Conn, error) {
	client, err := t.sshClient()
	if err != nil {
		return nil, err
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	resChan := make(chan dialResult, 1)
	go func() {
		conn, err := client.Dial(network, addr)
		resChan <- dialResult{conn, err}
	}()

	select {
	case res := <-resChan:
		if res.err != nil {
			return nil, fmt.Errorf("ssh forward to %v: %w", addr, res.err)
		}
		return res.conn, nil
	case <-ctx.Done():
		go func() {
			if res := <-resChan; res.conn != nil {
				res.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

func (t *Tunnel) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.closed = true
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}
