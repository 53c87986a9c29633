package token

import (
	"encoding/base64"
	"testing"
)

func TestGeneratorIssuesDistinctTokens(t *testing.T) {
	seen := make(map[string]struct{}, 256)
	for i := 0; i < 256; i++ {
		value, err := Generator{}.NewIssuanceToken()
		if err != nil {
			t.Fatalf("token generation failed: %v", err)
		}
		raw, err := base64.RawURLEncoding.DecodeString(value)
		if err != nil {
			t.Fatalf("token %q is not base64url: %v", value, err)
		}
		if len(raw) != tokenBytes {
			t.Fatalf("expected %d random bytes, got %d", tokenBytes, len(raw))
		}
		if _, dup := seen[value]; dup {
			t.Fatalf("duplicate token %q", value)
		}
		seen[value] = struct{}{}
	}
}
