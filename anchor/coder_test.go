package anchor

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

func testInstruction(name string, args ...IdlField) *IdlInstruction {
	return &IdlInstruction{
		Name: name,
		Args: args,
	}
}

func field(name string, t IdlType) IdlField {
	return IdlField{Name: name, Type: t}
}

func primitive(name string) IdlType {
	return IdlType{Primitive: name}
}

func withDisc(name string, body ...byte) []byte {
	disc := InstructionDiscriminator(name)
	return append(disc[:], body...)
}

func le64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

func TestEncodeInstructionData(t *testing.T) {
	key := solana.MustPublicKeyFromBase58("2zu8SFickvWcfMWLVGAWi8nmXbCYpJ53rfcqpN2sk2Ci")
	u8 := primitive("u8")

	tests := []struct {
		name     string
		ix       *IdlInstruction
		args     []interface{}
		expected []byte
	}{
		{
			name:     "no arguments",
			ix:       testInstruction("initialize"),
			expected: withDisc("initialize"),
		},
		{
			name:     "u64",
			ix:       testInstruction("stake", field("amount", primitive("u64"))),
			args:     []interface{}{uint64(10_000_000_000_000)},
			expected: withDisc("stake", le64(10_000_000_000_000)...),
		},
		{
			name:     "u128 low and high limbs",
			ix:       testInstruction("unstake", field("stakeId", primitive("u128"))),
			args:     []interface{}{U128FromLimbs(7, 1)},
			expected: withDisc("unstake", append(le64(7), le64(1)...)...),
		},
		{
			name:     "u128 from plain integer",
			ix:       testInstruction("claimNft", field("stakeId", primitive("u128"))),
			args:     []interface{}{3},
			expected: withDisc("claimNft", append(le64(3), le64(0)...)...),
		},
		{
			name:     "u8",
			ix:       testInstruction("buyNft", field("nftId", u8)),
			args:     []interface{}{uint8(4)},
			expected: withDisc("buyNft", 4),
		},
		{
			name: "mixed",
			ix: testInstruction("mixed",
				field("flag", primitive("bool")),
				field("owner", primitive("publicKey")),
				field("label", primitive("string")),
				field("ids", IdlType{Vec: &u8}),
				field("maybe", IdlType{Option: &u8}),
			),
			args: []interface{}{true, key, "ab", []uint8{1, 2}, nil},
			expected: func() []byte {
				out := withDisc("mixed", 1)
				out = append(out, key[:]...)
				out = append(out, 2, 0, 0, 0, 'a', 'b')
				out = append(out, 2, 0, 0, 0, 1, 2)
				return append(out, 0)
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeInstructionData(tt.ix, tt.args)
			if err != nil {
				t.Fatalf("EncodeInstructionData() error = %v", err)
			}
			if !bytes.Equal(data, tt.expected) {
				t.Errorf("EncodeInstructionData() = %x, want %x", data, tt.expected)
			}
		})
	}
}

func TestEncodeInstructionDataErrors(t *testing.T) {
	tooBig := new(uint256.Int).Lsh(uint256.NewInt(1), 128)

	tests := []struct {
		name    string
		ix      *IdlInstruction
		args    []interface{}
		wantErr string
	}{
		{
			name:    "argument count",
			ix:      testInstruction("stake", field("amount", primitive("u64"))),
			wantErr: "expects 1 arguments, got 0",
		},
		{
			name:    "u8 overflow",
			ix:      testInstruction("buyNft", field("nftId", primitive("u8"))),
			args:    []interface{}{300},
			wantErr: "overflows u8",
		},
		{
			name:    "negative unsigned",
			ix:      testInstruction("stake", field("amount", primitive("u64"))),
			args:    []interface{}{-1},
			wantErr: "negative value",
		},
		{
			name:    "u128 overflow",
			ix:      testInstruction("unstake", field("stakeId", primitive("u128"))),
			args:    []interface{}{tooBig},
			wantErr: "overflows u128",
		},
		{
			name:    "wrong type",
			ix:      testInstruction("x", field("owner", primitive("publicKey"))),
			args:    []interface{}{"not a key"},
			wantErr: "expected solana.PublicKey",
		},
		{
			name:    "defined types are not supported as arguments",
			ix:      testInstruction("x", field("info", IdlType{Defined: "StakeInfo"})),
			args:    []interface{}{struct{}{}},
			wantErr: "unsupported argument type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeInstructionData(tt.ix, tt.args)
			if err == nil {
				t.Fatalf("EncodeInstructionData() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("EncodeInstructionData() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestU128Limbs(t *testing.T) {
	v, err := uint256.FromDecimal("340282366920938463463374607431768211455") // 2^128-1
	if err != nil {
		t.Fatal(err)
	}

	lo, hi, err := U128Limbs(v)
	if err != nil {
		t.Fatalf("U128Limbs() error = %v", err)
	}
	if lo != ^uint64(0) || hi != ^uint64(0) {
		t.Errorf("U128Limbs() = %x %x, want all ones", lo, hi)
	}
	if back := U128FromLimbs(lo, hi); !back.Eq(v) {
		t.Errorf("U128FromLimbs() = %v, want %v", back.Dec(), v.Dec())
	}
}
