package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the cluster connection and the wallet balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		airdrop, _ := cmd.Flags().GetFloat64("airdrop")

		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := commandContext(cmd)
		defer cancel()

		client := a.harness.Client()
		checkErr := client.Check(ctx)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cluster:  %v (%v)\n", client.GetName(), client.GetEndpoint())
		fmt.Fprintf(out, "status:   %v\n", client.GetStatus())
		if checkErr != nil {
			fmt.Fprintf(out, "error:    %v\n", checkErr)
			return checkErr
		}
		fmt.Fprintf(out, "version:  %v\n", client.GetVersion())
		fmt.Fprintf(out, "slot:     %v\n", client.GetLastSlot())

		wallet := a.harness.GoblinStake().Program().Provider().Wallet()
		rpcClient := client.GetRPCClient()

		if airdrop > 0 {
			lamports := uint64(airdrop * float64(solana.LAMPORTS_PER_SOL))
			signature, err := rpcClient.RequestAirdrop(ctx, wallet.PublicKey(), lamports, solrpc.CommitmentConfirmed)
			if err != nil {
				return fmt.Errorf("airdrop failed: %w", err)
			}
			fmt.Fprintf(out, "airdrop:  %v\n", signature)
		}

		balance, err := rpcClient.GetBalance(ctx, wallet.PublicKey(), solrpc.CommitmentConfirmed)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "wallet:   %v\n", wallet.PublicKey())
		fmt.Fprintf(out, "balance:  %.9f SOL\n", float64(balance)/float64(solana.LAMPORTS_PER_SOL))

		if store := a.harness.Journal(); store != nil {
			count, err := store.Count()
			if err == nil {
				fmt.Fprintf(out, "journal:  %v transactions\n", count)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Float64("airdrop", 0, "Request an airdrop of this many SOL first (localnet/devnet only)")
	rootCmd.AddCommand(statusCmd)
}
