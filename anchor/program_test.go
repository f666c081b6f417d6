package anchor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	solrpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/goblinstake/goblin-stake/clients/cluster/rpc"
	"github.com/goblinstake/goblin-stake/config"
)

var testProgramID = solana.MustPublicKeyFromBase58("2zu8SFickvWcfMWLVGAWi8nmXbCYpJ53rfcqpN2sk2Ci")

func testProgram(t *testing.T, conn Connection) *Program {
	t.Helper()

	idl, err := ParseIdl(config.GoblinStakeIdlJson)
	if err != nil {
		t.Fatal(err)
	}
	program, err := NewProgram(idl, testProgramID, testProvider(t, conn))
	if err != nil {
		t.Fatal(err)
	}
	return program
}

func buyNftAccounts() map[string]solana.PublicKey {
	accounts := map[string]solana.PublicKey{}
	for _, name := range []string{"pool", "stakingMint", "stakingVault", "receiveAccount", "funder", "from", "nftProgram", "tokenProgram"} {
		accounts[name] = solana.NewWallet().PublicKey()
	}
	return accounts
}

func TestNewProgram(t *testing.T) {
	idl, _ := ParseIdl(config.GoblinStakeIdlJson)
	provider := testProvider(t, &fakeConnection{})

	if _, err := NewProgram(nil, testProgramID, provider); err == nil {
		t.Errorf("NewProgram() without idl expected error")
	}
	if _, err := NewProgram(idl, solana.PublicKey{}, provider); err == nil {
		t.Errorf("NewProgram() without program id expected error")
	}
	if _, err := NewProgram(idl, testProgramID, nil); err == nil {
		t.Errorf("NewProgram() without provider expected error")
	}
}

func TestMethodBuilderInstruction(t *testing.T) {
	program := testProgram(t, &fakeConnection{})

	t.Run("initialize", func(t *testing.T) {
		ix, err := program.Methods("initialize").Instruction()
		if err != nil {
			t.Fatalf("Instruction() error = %v", err)
		}
		data, _ := ix.Data()
		disc := InstructionDiscriminator("initialize")
		if !bytes.Equal(data, disc[:]) {
			t.Errorf("data = %x, want %x", data, disc)
		}
		if !ix.ProgramID().Equals(testProgramID) {
			t.Errorf("program id = %v", ix.ProgramID())
		}
		if len(ix.Accounts()) != 0 {
			t.Errorf("accounts = %v, want none", len(ix.Accounts()))
		}
	})

	t.Run("account order and flags follow the idl", func(t *testing.T) {
		accounts := buyNftAccounts()
		ix, err := program.Methods("buyNft").Args(uint8(2)).Accounts(accounts).Instruction()
		if err != nil {
			t.Fatalf("Instruction() error = %v", err)
		}

		ixDef, _ := program.Idl().Instruction("buyNft")
		metas := ix.Accounts()
		if len(metas) != len(ixDef.Accounts) {
			t.Fatalf("accounts = %v, want %v", len(metas), len(ixDef.Accounts))
		}
		for i, accDef := range ixDef.Accounts {
			if !metas[i].PublicKey.Equals(accounts[accDef.Name]) {
				t.Errorf("account %v = %v, want %v", i, metas[i].PublicKey, accounts[accDef.Name])
			}
			if metas[i].IsWritable != accDef.IsMut || metas[i].IsSigner != accDef.IsSigner {
				t.Errorf("account %v flags = %v/%v, want %v/%v", accDef.Name, metas[i].IsWritable, metas[i].IsSigner, accDef.IsMut, accDef.IsSigner)
			}
		}
	})

	errorTests := []struct {
		name    string
		builder *MethodBuilder
		wantErr string
	}{
		{"unknown method", program.Methods("withdrawAll"), "unknown method withdrawAll"},
		{"missing argument", program.Methods("buyNft").Accounts(buyNftAccounts()), "expects 1 arguments"},
		{"missing account", program.Methods("buyNft").Args(uint8(1)), "missing account pool"},
		{"unknown account", program.Methods("initialize").Accounts(map[string]solana.PublicKey{"extra": testProgramID}), "unknown account extra"},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Instruction()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Instruction() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestMethodBuilderRPC(t *testing.T) {
	t.Run("validation errors are not remote call errors", func(t *testing.T) {
		conn := &fakeConnection{}
		_, err := testProgram(t, conn).Methods("unknown").RPC(context.Background())

		var callErr *RemoteCallError
		if err == nil || errors.As(err, &callErr) {
			t.Errorf("RPC() error = %v, want plain validation error", err)
		}
		if len(conn.sent) != 0 {
			t.Errorf("RPC() sent %v transactions", len(conn.sent))
		}
	})

	t.Run("program error resolved from the idl", func(t *testing.T) {
		conn := &fakeConnection{statuses: []*solrpc.SignatureStatusesResult{{
			Err: map[string]interface{}{"InstructionError": []interface{}{float64(0), map[string]interface{}{"Custom": float64(6002)}}},
		}}}
		signature, err := testProgram(t, conn).Methods("initialize").RPC(context.Background())

		var callErr *RemoteCallError
		if !errors.As(err, &callErr) {
			t.Fatalf("RPC() error = %v, want *RemoteCallError", err)
		}
		if callErr.ProgramError == nil || callErr.ProgramError.Name != "InvalidTime" {
			t.Errorf("ProgramError = %+v, want InvalidTime", callErr.ProgramError)
		}
		if signature.IsZero() || !callErr.Signature.Equals(signature) {
			t.Errorf("signature not reported with the error")
		}
	})

	t.Run("confirmed", func(t *testing.T) {
		conn := &fakeConnection{statuses: []*solrpc.SignatureStatusesResult{{ConfirmationStatus: solrpc.ConfirmationStatusFinalized}}}
		signature, err := testProgram(t, conn).Methods("initialize").RPC(context.Background())
		if err != nil {
			t.Fatalf("RPC() error = %v", err)
		}
		if signature.IsZero() {
			t.Errorf("RPC() returned zero signature")
		}
	})
}

func TestFetchAccount(t *testing.T) {
	disc := AccountDiscriminator("Pool")

	tests := []struct {
		name    string
		account string
		data    []byte
		wantErr error
		errText string
	}{
		{"ok", "Pool", append(disc[:], 1, 2, 3), nil, ""},
		{"unknown account type", "Vault", disc[:], nil, "unknown account type"},
		{"not found", "Pool", nil, rpc.ErrAccountNotFound, ""},
		{"wrong discriminator", "Pool", []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, nil, "discriminator mismatch"},
		{"too short", "Pool", []byte{1, 2}, nil, "too short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := testProgram(t, &fakeConnection{accountData: tt.data})
			body, err := program.FetchAccount(context.Background(), tt.account, testProgramID)

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("FetchAccount() error = %v, want %v", err, tt.wantErr)
				}
			case tt.errText != "":
				if err == nil || !strings.Contains(err.Error(), tt.errText) {
					t.Errorf("FetchAccount() error = %v, want %q", err, tt.errText)
				}
			default:
				if err != nil {
					t.Fatalf("FetchAccount() error = %v", err)
				}
				if !bytes.Equal(body, []byte{1, 2, 3}) {
					t.Errorf("FetchAccount() = %x", body)
				}
			}
		})
	}
}
