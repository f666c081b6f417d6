package rpc

import (
	"testing"

	solrpc "github.com/gagliardetto/solana-go/rpc"
)

func TestParseCommitment(t *testing.T) {
	tests := []struct {
		input    string
		expected solrpc.CommitmentType
		wantErr  bool
	}{
		{"", solrpc.CommitmentProcessed, false},
		{"processed", solrpc.CommitmentProcessed, false},
		{" Confirmed ", solrpc.CommitmentConfirmed, false},
		{"finalized", solrpc.CommitmentFinalized, false},
		{"max", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseCommitment(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCommitment(%q) error = %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("ParseCommitment(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCommitmentReached(t *testing.T) {
	tests := []struct {
		status     solrpc.ConfirmationStatusType
		commitment solrpc.CommitmentType
		expected   bool
	}{
		{solrpc.ConfirmationStatusProcessed, solrpc.CommitmentProcessed, true},
		{solrpc.ConfirmationStatusProcessed, solrpc.CommitmentConfirmed, false},
		{solrpc.ConfirmationStatusConfirmed, solrpc.CommitmentConfirmed, true},
		{solrpc.ConfirmationStatusConfirmed, solrpc.CommitmentFinalized, false},
		{solrpc.ConfirmationStatusFinalized, solrpc.CommitmentProcessed, true},
		{"", solrpc.CommitmentProcessed, false},
	}

	for _, tt := range tests {
		if result := CommitmentReached(tt.status, tt.commitment); result != tt.expected {
			t.Errorf("CommitmentReached(%q, %q) = %v, want %v", tt.status, tt.commitment, result, tt.expected)
		}
	}
}
