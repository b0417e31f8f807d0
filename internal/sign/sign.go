package sign

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// Reserved parameter names excluded from the canonical string. The provider
// sends the digest itself under "sign" and the algorithm name under "sign_type".
const (
	FieldSign     = "sign"
	FieldSignType = "sign_type"
)

// Canonicalize builds the provider's canonical parameter string: entries with
// empty values and the reserved sign fields are dropped, the remaining keys
// are sorted byte-ascending and joined as key=value pairs with "&".
func Canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" || k == FieldSign || k == FieldSignType {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// Sign computes the provider digest: lowercase hex MD5 over the canonical
// string with the shared secret appended.
func Sign(params map[string]string, secret string) string {
	sum := md5.Sum([]byte(Canonicalize(params) + secret))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the digest over params (the sign field itself is excluded
// by canonicalization) and compares it with the reported one. It fails closed:
// a missing or empty sign field is always rejected.
func Verify(params map[string]string, secret string) bool {
	reported, ok := params[FieldSign]
	if !ok || reported == "" {
		return false
	}
	return Sign(params, secret) == reported
}
