package token

import (
	"crypto/rand"
	"encoding/base64"

	"agora/contexts/elections/balloting/ports"
)

const tokenBytes = 32

// Generator issues unguessable ballot tokens, unrelated to any voter field or
// earlier token.
type Generator struct{}

func (Generator) NewIssuanceToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var _ ports.TokenGenerator = Generator{}
