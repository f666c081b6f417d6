package rpc

import (
	"fmt"
	"strings"

	solrpc "github.com/gagliardetto/solana-go/rpc"
)

// ParseCommitment maps a config string to a commitment level.
func ParseCommitment(s string) (solrpc.CommitmentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "processed":
		return solrpc.CommitmentProcessed, nil
	case "confirmed":
		return solrpc.CommitmentConfirmed, nil
	case "finalized":
		return solrpc.CommitmentFinalized, nil
	default:
		return "", fmt.Errorf("unknown commitment level %q", s)
	}
}

// CommitmentReached reports whether a signature status satisfies the requested commitment.
func CommitmentReached(status solrpc.ConfirmationStatusType, commitment solrpc.CommitmentType) bool {
	rank := func(level string) int {
		switch level {
		case "processed":
			return 1
		case "confirmed":
			return 2
		case "finalized":
			return 3
		}
		return 0
	}

	have := rank(string(status))
	return have > 0 && have >= rank(string(commitment))
}
