package anchor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goblinstake/goblin-stake/config"
)

func TestParseEmbeddedIdl(t *testing.T) {
	idl, err := ParseIdl(config.GoblinStakeIdlJson)
	if err != nil {
		t.Fatalf("ParseIdl() error = %v", err)
	}

	if idl.Name != "goblin_stake" {
		t.Errorf("idl.Name = %q, want goblin_stake", idl.Name)
	}

	tests := []struct {
		lookup   string
		accounts int
		args     []string
	}{
		{"initialize", 0, nil},
		{"stake", 9, []string{"u64"}},
		{"unstake", 9, []string{"u128"}},
		{"claim_nft", 6, []string{"u128"}},
		{"addNftForSale", 6, []string{"u128"}},
		{"buyNft", 8, []string{"u8"}},
	}

	for _, tt := range tests {
		t.Run(tt.lookup, func(t *testing.T) {
			ix, ok := idl.Instruction(tt.lookup)
			if !ok {
				t.Fatalf("Instruction(%q) not found", tt.lookup)
			}
			if len(ix.Accounts) != tt.accounts {
				t.Errorf("accounts = %v, want %v", len(ix.Accounts), tt.accounts)
			}
			if len(ix.Args) != len(tt.args) {
				t.Fatalf("args = %v, want %v", len(ix.Args), len(tt.args))
			}
			for i, arg := range ix.Args {
				if arg.Type.String() != tt.args[i] {
					t.Errorf("arg %v type = %v, want %v", i, arg.Type.String(), tt.args[i])
				}
			}
		})
	}

	if _, ok := idl.Account("Pool"); !ok {
		t.Errorf("Account(Pool) not found")
	}
	if e, ok := idl.ErrorByCode(6001); !ok || e.Name != "NoNFTOwner" {
		t.Errorf("ErrorByCode(6001) = %+v, %v", e, ok)
	}
	if _, ok := idl.Instruction("missing"); ok {
		t.Errorf("Instruction(missing) unexpectedly found")
	}
}

func TestParseIdlTypes(t *testing.T) {
	data := []byte(`{
		"version": "0.1.0",
		"name": "types",
		"instructions": [{
			"name": "all",
			"accounts": [{"name": "a", "isMut": true, "isSigner": false, "isOptional": true}],
			"args": [
				{"name": "v", "type": {"vec": "u8"}},
				{"name": "o", "type": {"option": "publicKey"}},
				{"name": "arr", "type": {"array": ["u8", 32]}},
				{"name": "d", "type": {"defined": "StakeInfo"}},
				{"name": "d2", "type": {"defined": {"name": "NFT"}}}
			]
		}]
	}`)

	idl, err := ParseIdl(data)
	if err != nil {
		t.Fatalf("ParseIdl() error = %v", err)
	}

	ix, _ := idl.Instruction("all")
	expected := []string{"vec<u8>", "option<publicKey>", "[u8; 32]", "StakeInfo", "NFT"}
	for i, arg := range ix.Args {
		if arg.Type.String() != expected[i] {
			t.Errorf("arg %v = %v, want %v", arg.Name, arg.Type.String(), expected[i])
		}
	}
	if !ix.Accounts[0].Optional || !ix.Accounts[0].IsMut {
		t.Errorf("account flags not decoded: %+v", ix.Accounts[0])
	}
}

func TestParseIdlErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"invalid json", `{`, "error decoding idl"},
		{"missing name", `{"instructions": []}`, "missing program name"},
		{"duplicate instruction", `{"name": "x", "instructions": [{"name": "claimNft"}, {"name": "claim_nft"}]}`, "duplicate instruction"},
		{"bad type", `{"name": "x", "instructions": [{"name": "a", "args": [{"name": "b", "type": 5}]}]}`, "invalid idl type"},
		{"empty type", `{"name": "x", "instructions": [{"name": "a", "args": [{"name": "b", "type": {}}]}]}`, "unsupported idl type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIdl([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseIdl() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadIdl(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idl.json")
	if err := os.WriteFile(path, config.GoblinStakeIdlJson, 0o600); err != nil {
		t.Fatal(err)
	}

	idl, err := LoadIdl(path)
	if err != nil {
		t.Fatalf("LoadIdl() error = %v", err)
	}
	if len(idl.Instructions) != 6 {
		t.Errorf("instructions = %v, want 6", len(idl.Instructions))
	}

	if _, err := LoadIdl(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("LoadIdl() on missing file expected error")
	}
}
