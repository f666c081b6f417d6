package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

// pubkeyFlag returns the zero key for an unset flag.
func pubkeyFlag(cmd *cobra.Command, name string) (solana.PublicKey, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return solana.PublicKey{}, nil
	}

	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid --%v: %w", name, err)
	}
	return key, nil
}

func u128Flag(cmd *cobra.Command, name string) (*uint256.Int, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return nil, fmt.Errorf("missing --%v", name)
	}

	num, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%v: %w", name, err)
	}
	if num.BitLen() > 128 {
		return nil, fmt.Errorf("invalid --%v: exceeds u128", name)
	}
	return num, nil
}

// pubkeyFlags reads several key flags at once, stopping at the first invalid one.
func pubkeyFlags(cmd *cobra.Command, targets map[string]*solana.PublicKey) error {
	for name, target := range targets {
		key, err := pubkeyFlag(cmd, name)
		if err != nil {
			return err
		}
		*target = key
	}
	return nil
}

func addPubkeyFlags(cmd *cobra.Command, flags map[string]string) {
	for name, usage := range flags {
		cmd.Flags().String(name, "", usage)
	}
}
