package main

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/goblinstake/goblin-stake/goblinstake"
)

var stakeAccountFlags = map[string]string{
	"owner":              "Staking owner (defaults to the wallet)",
	"token-from-account": "Token account the deposit is taken from",
	"nft-from-account":   "Nft token account the staked nft is taken from",
	"token-program":      "Token program (defaults to the spl token program)",
	"nft-program":        "Nft token program (defaults to the spl token program)",
	"pool":               "Pool account",
	"staking-mint":       "Staking token mint",
	"staking-vault":      "Pool staking vault",
	"pool-signer":        "Pool signer (derived from the pool nonce if empty)",
}

var stakeCmd = &cobra.Command{
	Use:   "stake",
	Short: "Stake the deposit requirement and one nft into the pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, _ := cmd.Flags().GetUint64("amount")
		return runStakeCommand(cmd, func(ctx context.Context, client *goblinstake.Client, accounts goblinstake.StakeAccounts) (solana.Signature, error) {
			return client.Stake(ctx, accounts, amount)
		})
	},
}

var unstakeCmd = &cobra.Command{
	Use:   "unstake",
	Short: "Withdraw a stake and return its tokens and nft",
	RunE: func(cmd *cobra.Command, args []string) error {
		stakeID, err := u128Flag(cmd, "stake-id")
		if err != nil {
			return err
		}
		return runStakeCommand(cmd, func(ctx context.Context, client *goblinstake.Client, accounts goblinstake.StakeAccounts) (solana.Signature, error) {
			return client.Unstake(ctx, accounts, stakeID)
		})
	},
}

func init() {
	addPubkeyFlags(stakeCmd, stakeAccountFlags)
	stakeCmd.Flags().Uint64("amount", goblinstake.DepositRequirement, "Token amount to deposit")
	rootCmd.AddCommand(stakeCmd)

	addPubkeyFlags(unstakeCmd, stakeAccountFlags)
	unstakeCmd.Flags().String("stake-id", "", "Index of the stake in the pool")
	rootCmd.AddCommand(unstakeCmd)
}

func readStakeAccounts(cmd *cobra.Command) (goblinstake.StakeAccounts, error) {
	accounts := goblinstake.StakeAccounts{}
	err := pubkeyFlags(cmd, map[string]*solana.PublicKey{
		"owner":              &accounts.Owner,
		"token-from-account": &accounts.TokenFromAccount,
		"nft-from-account":   &accounts.NftFromAccount,
		"token-program":      &accounts.TokenProgram,
		"nft-program":        &accounts.NftProgram,
		"pool":               &accounts.Pool,
		"staking-mint":       &accounts.StakingMint,
		"staking-vault":      &accounts.StakingVault,
		"pool-signer":        &accounts.PoolSigner,
	})
	return accounts, err
}

func runStakeCommand(cmd *cobra.Command, call func(ctx context.Context, client *goblinstake.Client, accounts goblinstake.StakeAccounts) (solana.Signature, error)) error {
	accounts, err := readStakeAccounts(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	client := a.harness.GoblinStake()
	if !accounts.Pool.IsZero() {
		accounts.PoolSigner, err = client.ResolvePoolSigner(ctx, accounts.Pool, accounts.PoolSigner)
		if err != nil {
			return err
		}
	}

	signature, err := call(ctx, client, accounts)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), signature.String())
	return nil
}
