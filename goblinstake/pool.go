package goblinstake

import (
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/goblinstake/goblin-stake/anchor"
)

type StakeInfo struct {
	Nft            solana.PublicKey
	LastUpdateTime *uint256.Int
	Owner          solana.PublicKey
	TokenAmount    *uint256.Int
}

// ClaimableUntil is the last unix time the program accepts claim_nft for this stake.
// Later claims fail with InvalidTime.
func (s *StakeInfo) ClaimableUntil() time.Time {
	if !s.LastUpdateTime.IsUint64() || s.LastUpdateTime.Uint64() > 1<<62 {
		return time.Unix(1<<62, 0)
	}
	return time.Unix(int64(s.LastUpdateTime.Uint64()+Duration), 0)
}

// Claimable mirrors the program's check: last update + Duration must not be before now.
func (s *StakeInfo) Claimable(now time.Time) bool {
	return !s.ClaimableUntil().Before(now.Truncate(time.Second))
}

type NFTInfo struct {
	Nft  solana.PublicKey
	Rank uint8
}

type NFT struct {
	NftMint  solana.PublicKey
	NftVault solana.PublicKey
	Price    *uint256.Int
	Redeemed bool
}

type Pool struct {
	Stakes      []StakeInfo
	Nfts        []NFTInfo
	Nonce       uint8
	DevAddr     solana.PublicKey
	NftsForSale []NFT
}

// StakesOf returns the stake ids (positions in the stakes list) owned by owner.
func (p *Pool) StakesOf(owner solana.PublicKey) []uint64 {
	ids := []uint64{}
	for i := range p.Stakes {
		if p.Stakes[i].Owner.Equals(owner) {
			ids = append(ids, uint64(i))
		}
	}
	return ids
}

// ForSale returns the ids of the listed nfts that were not bought yet.
func (p *Pool) ForSale() []uint8 {
	ids := []uint8{}
	for i := range p.NftsForSale {
		if i > 255 {
			break
		}
		if !p.NftsForSale[i].Redeemed {
			ids = append(ids, uint8(i))
		}
	}
	return ids
}

// DecodePool decodes raw account data including the 8 byte discriminator.
func DecodePool(data []byte) (*Pool, error) {
	body, err := anchor.StripAccountDiscriminator(AccountPool, data)
	if err != nil {
		return nil, err
	}

	return decodePoolBody(body)
}

func decodePoolBody(body []byte) (*Pool, error) {
	var err error
	dec := bin.NewBorshDecoder(body)
	pool := &Pool{}

	stakeCount, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("pool.stakes: %w", err)
	}
	if err := checkVecLen(dec, stakeCount, 32+16+32+16); err != nil {
		return nil, fmt.Errorf("pool.stakes: %w", err)
	}
	pool.Stakes = make([]StakeInfo, stakeCount)
	for i := range pool.Stakes {
		stake := &pool.Stakes[i]
		if stake.Nft, err = readPublicKey(dec); err != nil {
			return nil, fmt.Errorf("pool.stakes[%v].nft: %w", i, err)
		}
		if stake.LastUpdateTime, err = readU128(dec); err != nil {
			return nil, fmt.Errorf("pool.stakes[%v].last_update_time: %w", i, err)
		}
		if stake.Owner, err = readPublicKey(dec); err != nil {
			return nil, fmt.Errorf("pool.stakes[%v].owner: %w", i, err)
		}
		if stake.TokenAmount, err = readU128(dec); err != nil {
			return nil, fmt.Errorf("pool.stakes[%v].token_amount: %w", i, err)
		}
	}

	nftCount, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("pool.nfts: %w", err)
	}
	if err := checkVecLen(dec, nftCount, 32+1); err != nil {
		return nil, fmt.Errorf("pool.nfts: %w", err)
	}
	pool.Nfts = make([]NFTInfo, nftCount)
	for i := range pool.Nfts {
		if pool.Nfts[i].Nft, err = readPublicKey(dec); err != nil {
			return nil, fmt.Errorf("pool.nfts[%v].nft: %w", i, err)
		}
		if pool.Nfts[i].Rank, err = dec.ReadUint8(); err != nil {
			return nil, fmt.Errorf("pool.nfts[%v].rank: %w", i, err)
		}
	}

	if pool.Nonce, err = dec.ReadUint8(); err != nil {
		return nil, fmt.Errorf("pool.nonce: %w", err)
	}
	if pool.DevAddr, err = readPublicKey(dec); err != nil {
		return nil, fmt.Errorf("pool.dev_addr: %w", err)
	}

	saleCount, err := dec.ReadUint32(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("pool.nfts_for_sale: %w", err)
	}
	if err := checkVecLen(dec, saleCount, 32+32+16+1); err != nil {
		return nil, fmt.Errorf("pool.nfts_for_sale: %w", err)
	}
	pool.NftsForSale = make([]NFT, saleCount)
	for i := range pool.NftsForSale {
		item := &pool.NftsForSale[i]
		if item.NftMint, err = readPublicKey(dec); err != nil {
			return nil, fmt.Errorf("pool.nfts_for_sale[%v].nft_mint: %w", i, err)
		}
		if item.NftVault, err = readPublicKey(dec); err != nil {
			return nil, fmt.Errorf("pool.nfts_for_sale[%v].nft_vault: %w", i, err)
		}
		if item.Price, err = readU128(dec); err != nil {
			return nil, fmt.Errorf("pool.nfts_for_sale[%v].price: %w", i, err)
		}
		if item.Redeemed, err = dec.ReadBool(); err != nil {
			return nil, fmt.Errorf("pool.nfts_for_sale[%v].redeemed: %w", i, err)
		}
	}

	return pool, nil
}

// checkVecLen rejects lengths that cannot fit into the remaining data before allocating.
func checkVecLen(dec *bin.Decoder, count uint32, itemSize int) error {
	if uint64(count)*uint64(itemSize) > uint64(dec.Remaining()) {
		return fmt.Errorf("length %v exceeds remaining %v bytes", count, dec.Remaining())
	}
	return nil
}

func readPublicKey(dec *bin.Decoder) (solana.PublicKey, error) {
	raw, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}

func readU128(dec *bin.Decoder) (*uint256.Int, error) {
	lo, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, err
	}
	hi, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, err
	}
	return anchor.U128FromLimbs(lo, hi), nil
}
