package cluster

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	LocalnetURL    = "http://127.0.0.1:8899"
	DevnetURL      = "https://api.devnet.solana.com"
	TestnetURL     = "https://api.testnet.solana.com"
	MainnetBetaURL = "https://api.mainnet-beta.solana.com"
)

var knownClusters = map[string]string{
	"localnet":     LocalnetURL,
	"localhost":    LocalnetURL,
	"devnet":       DevnetURL,
	"testnet":      TestnetURL,
	"mainnet":      MainnetBetaURL,
	"mainnet-beta": MainnetBetaURL,
}

// ResolveURL turns a cluster moniker or an rpc url into an rpc url.
func ResolveURL(nameOrURL string) (string, error) {
	nameOrURL = strings.TrimSpace(nameOrURL)
	if nameOrURL == "" {
		return "", fmt.Errorf("empty cluster url")
	}

	if known, ok := knownClusters[strings.ToLower(nameOrURL)]; ok {
		return known, nil
	}

	parsed, err := url.Parse(nameOrURL)
	if err != nil {
		return "", fmt.Errorf("invalid cluster url %q: %w", nameOrURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("invalid cluster url %q: expected http(s) url or one of localnet, devnet, testnet, mainnet-beta", nameOrURL)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid cluster url %q: missing host", nameOrURL)
	}

	return nameOrURL, nil
}

// NameForURL returns the cluster moniker for a known endpoint, "custom" otherwise.
func NameForURL(endpoint string) string {
	switch strings.TrimRight(endpoint, "/") {
	case LocalnetURL, "http://localhost:8899":
		return "localnet"
	case DevnetURL:
		return "devnet"
	case TestnetURL:
		return "testnet"
	case MainnetBetaURL:
		return "mainnet-beta"
	}
	return "custom"
}
