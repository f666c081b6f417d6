package main

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var poolCmd = &cobra.Command{
	Use:   "pool <address>",
	Short: "Show the state of a pool account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		poolAddr, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("invalid pool address: %w", err)
		}

		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		client := a.harness.GoblinStake()
		pool, err := client.FetchPool(ctx, poolAddr)
		if err != nil {
			return err
		}

		wallet := client.Program().Provider().Wallet().PublicKey()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pool:          %v\n", poolAddr)
		fmt.Fprintf(out, "nonce:         %v\n", pool.Nonce)
		fmt.Fprintf(out, "dev address:   %v\n", pool.DevAddr)
		fmt.Fprintf(out, "stakes:        %v (yours: %v)\n", len(pool.Stakes), pool.StakesOf(wallet))
		for i, stake := range pool.Stakes {
			fmt.Fprintf(out, "  #%-3v owner %v nft %v amount %v claim until %v\n", i, stake.Owner, stake.Nft, stake.TokenAmount.Dec(), stake.ClaimableUntil().UTC().Format(time.RFC3339))
		}
		fmt.Fprintf(out, "ranked nfts:   %v\n", len(pool.Nfts))
		for _, nft := range pool.Nfts {
			fmt.Fprintf(out, "  rank %v %v\n", nft.Rank, nft.Nft)
		}
		fmt.Fprintf(out, "nfts for sale: %v (open: %v)\n", len(pool.NftsForSale), pool.ForSale())
		for i, nft := range pool.NftsForSale {
			fmt.Fprintf(out, "  #%-3v mint %v price %v redeemed %v\n", i, nft.NftMint, nft.Price.Dec(), nft.Redeemed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(poolCmd)
}
