package anchor

import (
	"crypto/sha256"
	"strings"
	"unicode"
)

const DiscriminatorLength = 8

// SnakeCase converts an idl (camelCase) name to the rust name used for hashing.
// An acronym run ends before its last capital when a lowercase letter follows ("getNFTInfo" -> "get_nft_info").
func SnakeCase(name string) string {
	var sb strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' {
				prev := runes[i-1]
				acronymEnd := unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || acronymEnd {
					sb.WriteByte('_')
				}
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func sighash(namespace string, name string) [DiscriminatorLength]byte {
	var disc [DiscriminatorLength]byte
	hash := sha256.Sum256([]byte(namespace + ":" + name))
	copy(disc[:], hash[:DiscriminatorLength])
	return disc
}

// InstructionDiscriminator returns sha256("global:<snake_name>")[:8].
func InstructionDiscriminator(name string) [DiscriminatorLength]byte {
	return sighash("global", SnakeCase(name))
}

// AccountDiscriminator returns sha256("account:<Name>")[:8]; account names keep their case.
func AccountDiscriminator(name string) [DiscriminatorLength]byte {
	return sighash("account", name)
}
