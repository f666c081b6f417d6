package cluster

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Wallet is the keypair that pays for and signs program transactions.
type Wallet struct {
	path       string
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
}

// DefaultWalletPath is the solana cli default keypair location.
func DefaultWalletPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "solana", "id.json")
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// LoadWallet reads a solana cli keypair file (json array of 64 bytes).
func LoadWallet(path string) (*Wallet, error) {
	if path == "" {
		path = DefaultWalletPath()
	}
	path = expandHome(path)

	privateKey, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not load wallet keypair %v: %w", path, err)
	}

	wallet, err := NewWallet(privateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet keypair %v: %w", path, err)
	}
	wallet.path = path

	return wallet, nil
}

func NewWallet(privateKey solana.PrivateKey) (*Wallet, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("expected %v byte private key, got %v", ed25519.PrivateKeySize, len(privateKey))
	}

	return &Wallet{
		privateKey: privateKey,
		publicKey:  privateKey.PublicKey(),
	}, nil
}

func (w *Wallet) Path() string {
	return w.path
}

func (w *Wallet) PublicKey() solana.PublicKey {
	return w.publicKey
}

// PrivateKeyFor returns the wallet key if it matches, for use as a transaction signer getter.
func (w *Wallet) PrivateKeyFor(key solana.PublicKey) *solana.PrivateKey {
	if key.Equals(w.publicKey) {
		return &w.privateKey
	}
	return nil
}
