package goblinstake

import (
	"errors"

	"github.com/goblinstake/goblin-stake/anchor"
)

// custom error codes raised by the program
const (
	ErrCodeInvalidAmount uint32 = 6000
	ErrCodeNoNFTOwner    uint32 = 6001
	ErrCodeInvalidTime   uint32 = 6002
	ErrCodeNFTRedeemed   uint32 = 6003
)

var (
	ErrInvalidAmount = errors.New("amount is not amount to stake")
	ErrNoNFTOwner    = errors.New("you are not nft owner")
	ErrInvalidTime   = errors.New("you can not claim yet")
	ErrNFTRedeemed   = errors.New("nft was already sold out")
)

var errorsByCode = map[uint32]error{
	ErrCodeInvalidAmount: ErrInvalidAmount,
	ErrCodeNoNFTOwner:    ErrNoNFTOwner,
	ErrCodeInvalidTime:   ErrInvalidTime,
	ErrCodeNFTRedeemed:   ErrNFTRedeemed,
}

// ProgramErrorOf maps a failed remote call to one of the program's sentinel errors, nil if it is none of them.
func ProgramErrorOf(err error) error {
	var callErr *anchor.RemoteCallError
	if !errors.As(err, &callErr) || callErr.ProgramError == nil {
		return nil
	}

	return errorsByCode[callErr.ProgramError.Code]
}
