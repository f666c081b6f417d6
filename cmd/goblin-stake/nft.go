package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/goblinstake/goblin-stake/goblinstake"
)

var claimNftCmd = &cobra.Command{
	Use:   "claim-nft",
	Short: "Claim the nft of a stake while its claim window is open",
	RunE: func(cmd *cobra.Command, args []string) error {
		stakeID, err := u128Flag(cmd, "stake-id")
		if err != nil {
			return err
		}

		accounts := goblinstake.ClaimNftAccounts{}
		err = pubkeyFlags(cmd, map[string]*solana.PublicKey{
			"owner":           &accounts.Owner,
			"nft-program":     &accounts.NftProgram,
			"pool":            &accounts.Pool,
			"staking-vault":   &accounts.StakingVault,
			"receive-account": &accounts.ReceiveAccount,
			"pool-signer":     &accounts.PoolSigner,
		})
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

		signature, err := client.ClaimNft(ctx, accounts, stakeID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signature.String())
		return nil
	},
}

var addNftCmd = &cobra.Command{
	Use:   "add-nft",
	Short: "Put an nft up for sale in the pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := u128Flag(cmd, "price")
		if err != nil {
			return err
		}

		accounts := goblinstake.AddNftAccounts{}
		err = pubkeyFlags(cmd, map[string]*solana.PublicKey{
			"pool":          &accounts.Pool,
			"staking-mint":  &accounts.StakingMint,
			"staking-vault": &accounts.StakingVault,
			"funder":        &accounts.Funder,
			"from":          &accounts.From,
			"nft-program":   &accounts.NftProgram,
		})
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

		signature, err := a.harness.GoblinStake().AddNftForSale(ctx, accounts, price)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signature.String())
		return nil
	},
}

var buyNftCmd = &cobra.Command{
	Use:   "buy-nft",
	Short: "Buy an nft listed for sale in the pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		nftID, _ := cmd.Flags().GetUint8("nft-id")

		accounts := goblinstake.BuyNftAccounts{}
		err := pubkeyFlags(cmd, map[string]*solana.PublicKey{
			"pool":            &accounts.Pool,
			"staking-mint":    &accounts.StakingMint,
			"staking-vault":   &accounts.StakingVault,
			"receive-account": &accounts.ReceiveAccount,
			"funder":          &accounts.Funder,
			"from":            &accounts.From,
			"nft-program":     &accounts.NftProgram,
			"token-program":   &accounts.TokenProgram,
		})
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

		signature, err := a.harness.GoblinStake().BuyNft(ctx, accounts, nftID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signature.String())
		return nil
	},
}

func init() {
	addPubkeyFlags(claimNftCmd, map[string]string{
		"owner":           "Stake owner (defaults to the wallet)",
		"nft-program":     "Nft token program (defaults to the spl token program)",
		"pool":            "Pool account",
		"staking-vault":   "Vault holding the nft",
		"receive-account": "Token account receiving the nft",
		"pool-signer":     "Pool signer (derived from the pool nonce if empty)",
	})
	claimNftCmd.Flags().String("stake-id", "", "Index of the stake in the pool")
	rootCmd.AddCommand(claimNftCmd)

	addPubkeyFlags(addNftCmd, map[string]string{
		"pool":          "Pool account",
		"staking-mint":  "Nft mint",
		"staking-vault": "Vault receiving the nft",
		"funder":        "Seller (defaults to the wallet)",
		"from":          "Token account holding the nft",
		"nft-program":   "Nft token program (defaults to the spl token program)",
	})
	addNftCmd.Flags().String("price", "", "Sale price in token base units")
	rootCmd.AddCommand(addNftCmd)

	addPubkeyFlags(buyNftCmd, map[string]string{
		"pool":            "Pool account",
		"staking-mint":    "Nft mint",
		"staking-vault":   "Vault holding the nft",
		"receive-account": "Token account receiving the nft",
		"funder":          "Buyer (defaults to the wallet)",
		"from":            "Token account paying the price",
		"nft-program":     "Nft token program (defaults to the spl token program)",
		"token-program":   "Token program (defaults to the spl token program)",
	})
	buyNftCmd.Flags().Uint8("nft-id", 0, "Index of the nft in the pool sale list")
	rootCmd.AddCommand(buyNftCmd)
}
