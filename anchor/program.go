package anchor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Program is a typed handle to a deployed program: its id, its idl and the provider used to reach it.
type Program struct {
	id       solana.PublicKey
	idl      *Idl
	provider *Provider
	logger   logrus.FieldLogger
}

func NewProgram(idl *Idl, programID solana.PublicKey, provider *Provider) (*Program, error) {
	if idl == nil {
		return nil, fmt.Errorf("missing idl")
	}
	if programID.IsZero() {
		return nil, fmt.Errorf("missing program id")
	}
	if provider == nil {
		return nil, fmt.Errorf("missing provider")
	}

	logger := provider.logger.WithField("program", idl.Name)
	if idl.Metadata != nil && idl.Metadata.Address != "" && idl.Metadata.Address != programID.String() {
		logger.Warnf("program id %v differs from idl address %v", programID, idl.Metadata.Address)
	}

	return &Program{
		id:       programID,
		idl:      idl,
		provider: provider,
		logger:   logger,
	}, nil
}

func (p *Program) ID() solana.PublicKey {
	return p.id
}

func (p *Program) Idl() *Idl {
	return p.idl
}

func (p *Program) Provider() *Provider {
	return p.provider
}

// Methods starts building a call to the named instruction.
func (p *Program) Methods(name string) *MethodBuilder {
	return &MethodBuilder{
		program:  p,
		name:     name,
		accounts: map[string]solana.PublicKey{},
	}
}

// FetchAccount loads an account owned by the program and strips its discriminator after checking it.
func (p *Program) FetchAccount(ctx context.Context, accountName string, address solana.PublicKey) ([]byte, error) {
	if _, ok := p.idl.Account(accountName); !ok {
		return nil, fmt.Errorf("unknown account type %v in idl %v", accountName, p.idl.Name)
	}

	data, err := p.provider.conn.GetAccountData(ctx, address, p.provider.opts.Commitment)
	if err != nil {
		return nil, fmt.Errorf("could not fetch %v account %v: %w", accountName, address, err)
	}

	return StripAccountDiscriminator(accountName, data)
}

// StripAccountDiscriminator checks the 8 byte account prefix and returns the remaining data.
func StripAccountDiscriminator(accountName string, data []byte) ([]byte, error) {
	if len(data) < DiscriminatorLength {
		return nil, fmt.Errorf("account data too short for %v: %v bytes", accountName, len(data))
	}

	disc := AccountDiscriminator(accountName)
	if !bytes.Equal(data[:DiscriminatorLength], disc[:]) {
		return nil, fmt.Errorf("account discriminator mismatch: not a %v account", accountName)
	}

	return data[DiscriminatorLength:], nil
}

type MethodBuilder struct {
	program   *Program
	name      string
	args      []interface{}
	accounts  map[string]solana.PublicKey
	remaining []*solana.AccountMeta
	signers   []solana.PrivateKey
}

func (mb *MethodBuilder) Args(args ...interface{}) *MethodBuilder {
	mb.args = append(mb.args, args...)
	return mb
}

// Accounts sets accounts by their idl name; repeated calls merge.
func (mb *MethodBuilder) Accounts(accounts map[string]solana.PublicKey) *MethodBuilder {
	for name, key := range accounts {
		mb.accounts[name] = key
	}
	return mb
}

func (mb *MethodBuilder) RemainingAccounts(metas ...*solana.AccountMeta) *MethodBuilder {
	mb.remaining = append(mb.remaining, metas...)
	return mb
}

// Signers adds keypairs that must sign besides the provider wallet.
func (mb *MethodBuilder) Signers(keys ...solana.PrivateKey) *MethodBuilder {
	mb.signers = append(mb.signers, keys...)
	return mb
}

// Instruction validates the call against the idl and builds the instruction without any network i/o.
func (mb *MethodBuilder) Instruction() (solana.Instruction, error) {
	ixDef, ok := mb.program.idl.Instruction(mb.name)
	if !ok {
		return nil, fmt.Errorf("unknown method %v in idl %v", mb.name, mb.program.idl.Name)
	}

	data, err := EncodeInstructionData(ixDef, mb.args)
	if err != nil {
		return nil, err
	}

	metas := make(solana.AccountMetaSlice, 0, len(ixDef.Accounts)+len(mb.remaining))
	used := map[string]bool{}
	for _, accDef := range ixDef.Accounts {
		key, ok := mb.accounts[accDef.Name]
		if !ok {
			if accDef.Optional {
				// anchor marks a skipped optional account with the program id
				metas = append(metas, solana.NewAccountMeta(mb.program.id, false, false))
				continue
			}
			return nil, fmt.Errorf("method %v: missing account %v", mb.name, accDef.Name)
		}
		used[accDef.Name] = true
		metas = append(metas, solana.NewAccountMeta(key, accDef.IsMut, accDef.IsSigner))
	}
	for name := range mb.accounts {
		if !used[name] {
			return nil, fmt.Errorf("method %v: unknown account %v", mb.name, name)
		}
	}
	metas = append(metas, mb.remaining...)

	return solana.NewInstruction(mb.program.id, metas, data), nil
}

// RPC sends the call and waits for confirmation. All failures after local validation
// are returned as *RemoteCallError.
func (mb *MethodBuilder) RPC(ctx context.Context) (solana.Signature, error) {
	ix, err := mb.Instruction()
	if err != nil {
		return solana.Signature{}, err
	}

	signature, err := mb.program.provider.SendAndConfirm(ctx, mb.name, []solana.Instruction{ix}, mb.signers...)
	if err != nil {
		callErr := &RemoteCallError{
			Method:    mb.name,
			Signature: signature,
			Err:       err,
		}
		if progErr, ok := ResolveProgramError(err, mb.program.idl); ok {
			callErr.ProgramError = progErr
		}
		return signature, callErr
	}

	mb.program.logger.WithField("method", mb.name).Debugf("remote call confirmed: %v", signature)
	return signature, nil
}
