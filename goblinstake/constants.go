package goblinstake

import (
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

// ProgramID is the address the program declares for itself.
var ProgramID = solana.MustPublicKeyFromBase58("2zu8SFickvWcfMWLVGAWi8nmXbCYpJ53rfcqpN2sk2Ci")

const (
	// DepositRequirement is the only token amount the program accepts for a stake.
	DepositRequirement uint64 = 10_000_000_000_000
	// Duration is the number of seconds after its last update during which a stake's nft can be claimed.
	Duration uint64 = 1
	// MaxRank caps the rank a claimed nft can reach.
	MaxRank uint8 = 8

	saleFeePercent = 5
)

const (
	MethodInitialize    = "initialize"
	MethodStake         = "stake"
	MethodUnstake       = "unstake"
	MethodClaimNft      = "claimNft"
	MethodAddNftForSale = "addNftForSale"
	MethodBuyNft        = "buyNft"

	AccountPool = "Pool"
)

// SaleFee is the developer fee taken from a sale price (price * 5 / 100).
func SaleFee(price *uint256.Int) *uint256.Int {
	fee := new(uint256.Int).Mul(price, uint256.NewInt(saleFeePercent))
	return fee.Div(fee, uint256.NewInt(100))
}

// PoolSigner derives the pool authority from the pool address and its nonce.
func PoolSigner(pool solana.PublicKey, nonce uint8, programID solana.PublicKey) (solana.PublicKey, error) {
	return solana.CreateProgramAddress([][]byte{pool[:], {nonce}}, programID)
}
