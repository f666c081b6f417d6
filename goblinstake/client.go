package goblinstake

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/goblinstake/goblin-stake/anchor"
)

// StakeAccounts are the accounts of the stake and unstake instructions.
type StakeAccounts struct {
	Owner            solana.PublicKey // defaults to the provider wallet
	TokenFromAccount solana.PublicKey
	NftFromAccount   solana.PublicKey
	TokenProgram     solana.PublicKey // defaults to the spl token program
	NftProgram       solana.PublicKey // defaults to the spl token program
	Pool             solana.PublicKey
	StakingMint      solana.PublicKey
	StakingVault     solana.PublicKey
	PoolSigner       solana.PublicKey
}

type ClaimNftAccounts struct {
	Owner          solana.PublicKey
	NftProgram     solana.PublicKey
	Pool           solana.PublicKey
	StakingVault   solana.PublicKey
	ReceiveAccount solana.PublicKey
	PoolSigner     solana.PublicKey
}

type AddNftAccounts struct {
	Pool         solana.PublicKey
	StakingMint  solana.PublicKey
	StakingVault solana.PublicKey
	Funder       solana.PublicKey
	From         solana.PublicKey
	NftProgram   solana.PublicKey
}

type BuyNftAccounts struct {
	Pool           solana.PublicKey
	StakingMint    solana.PublicKey
	StakingVault   solana.PublicKey
	ReceiveAccount solana.PublicKey
	Funder         solana.PublicKey
	From           solana.PublicKey
	NftProgram     solana.PublicKey
	TokenProgram   solana.PublicKey
}

// Client wraps the program handle with one typed call per instruction.
type Client struct {
	program *anchor.Program
}

func NewClient(program *anchor.Program) *Client {
	return &Client{
		program: program,
	}
}

func (c *Client) Program() *anchor.Program {
	return c.program
}

func (c *Client) wallet() solana.PublicKey {
	return c.program.Provider().Wallet().PublicKey()
}

func orDefault(key solana.PublicKey, fallback solana.PublicKey) solana.PublicKey {
	if key.IsZero() {
		return fallback
	}
	return key
}

// requireAccounts fails on the first zero key, reporting its idl name.
func requireAccounts(method string, accounts map[string]solana.PublicKey) error {
	for name, key := range accounts {
		if key.IsZero() {
			return fmt.Errorf("%v: account %v not set", method, name)
		}
	}
	return nil
}

// ResolvePoolSigner fills in the pool signer from the on-chain pool nonce if it is not set.
func (c *Client) ResolvePoolSigner(ctx context.Context, pool solana.PublicKey, poolSigner solana.PublicKey) (solana.PublicKey, error) {
	if !poolSigner.IsZero() {
		return poolSigner, nil
	}

	state, err := c.FetchPool(ctx, pool)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return PoolSigner(pool, state.Nonce, c.program.ID())
}

func (c *Client) Initialize(ctx context.Context) (solana.Signature, error) {
	return c.program.Methods(MethodInitialize).RPC(ctx)
}

func (acc StakeAccounts) toMap(wallet solana.PublicKey) map[string]solana.PublicKey {
	return map[string]solana.PublicKey{
		"owner":            orDefault(acc.Owner, wallet),
		"tokenFromAccount": acc.TokenFromAccount,
		"nftFromAccount":   acc.NftFromAccount,
		"tokenProgram":     orDefault(acc.TokenProgram, solana.TokenProgramID),
		"nftProgram":       orDefault(acc.NftProgram, solana.TokenProgramID),
		"pool":             acc.Pool,
		"stakingMint":      acc.StakingMint,
		"stakingVault":     acc.StakingVault,
		"poolSigner":       acc.PoolSigner,
	}
}

// Stake deposits DepositRequirement tokens and one nft into the pool vault.
func (c *Client) Stake(ctx context.Context, accounts StakeAccounts, amount uint64) (solana.Signature, error) {
	if amount != DepositRequirement {
		return solana.Signature{}, fmt.Errorf("%w: got %v, need %v", ErrInvalidAmount, amount, DepositRequirement)
	}

	accMap := accounts.toMap(c.wallet())
	if err := requireAccounts(MethodStake, accMap); err != nil {
		return solana.Signature{}, err
	}

	return c.program.Methods(MethodStake).
		Args(amount).
		Accounts(accMap).
		RPC(ctx)
}

func (c *Client) Unstake(ctx context.Context, accounts StakeAccounts, stakeID *uint256.Int) (solana.Signature, error) {
	accMap := accounts.toMap(c.wallet())
	if err := requireAccounts(MethodUnstake, accMap); err != nil {
		return solana.Signature{}, err
	}

	return c.program.Methods(MethodUnstake).
		Args(stakeID).
		Accounts(accMap).
		RPC(ctx)
}

func (c *Client) ClaimNft(ctx context.Context, accounts ClaimNftAccounts, stakeID *uint256.Int) (solana.Signature, error) {
	accMap := map[string]solana.PublicKey{
		"owner":          orDefault(accounts.Owner, c.wallet()),
		"nftProgram":     orDefault(accounts.NftProgram, solana.TokenProgramID),
		"pool":           accounts.Pool,
		"stakingVault":   accounts.StakingVault,
		"receiveAccount": accounts.ReceiveAccount,
		"poolSigner":     accounts.PoolSigner,
	}
	if err := requireAccounts(MethodClaimNft, accMap); err != nil {
		return solana.Signature{}, err
	}

	return c.program.Methods(MethodClaimNft).
		Args(stakeID).
		Accounts(accMap).
		RPC(ctx)
}

func (c *Client) AddNftForSale(ctx context.Context, accounts AddNftAccounts, price *uint256.Int) (solana.Signature, error) {
	accMap := map[string]solana.PublicKey{
		"pool":         accounts.Pool,
		"stakingMint":  accounts.StakingMint,
		"stakingVault": accounts.StakingVault,
		"funder":       orDefault(accounts.Funder, c.wallet()),
		"from":         accounts.From,
		"nftProgram":   orDefault(accounts.NftProgram, solana.TokenProgramID),
	}
	if err := requireAccounts(MethodAddNftForSale, accMap); err != nil {
		return solana.Signature{}, err
	}

	return c.program.Methods(MethodAddNftForSale).
		Args(price).
		Accounts(accMap).
		RPC(ctx)
}

func (c *Client) BuyNft(ctx context.Context, accounts BuyNftAccounts, nftID uint8) (solana.Signature, error) {
	accMap := map[string]solana.PublicKey{
		"pool":           accounts.Pool,
		"stakingMint":    accounts.StakingMint,
		"stakingVault":   accounts.StakingVault,
		"receiveAccount": accounts.ReceiveAccount,
		"funder":         orDefault(accounts.Funder, c.wallet()),
		"from":           accounts.From,
		"nftProgram":     orDefault(accounts.NftProgram, solana.TokenProgramID),
		"tokenProgram":   orDefault(accounts.TokenProgram, solana.TokenProgramID),
	}
	if err := requireAccounts(MethodBuyNft, accMap); err != nil {
		return solana.Signature{}, err
	}

	return c.program.Methods(MethodBuyNft).
		Args(nftID).
		Accounts(accMap).
		RPC(ctx)
}

func (c *Client) FetchPool(ctx context.Context, pool solana.PublicKey) (*Pool, error) {
	body, err := c.program.FetchAccount(ctx, AccountPool, pool)
	if err != nil {
		return nil, err
	}

	return decodePoolBody(body)
}
