package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"unicode"
)

// SubscriptionTokenLength is the length of generated confirmation tokens.
const SubscriptionTokenLength = 25

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// SubscriptionToken is an opaque bearer credential linking an unconfirmed
// subscription request to a subscriber. Construct via ParseSubscriptionToken
// or GenerateSubscriptionToken.
type SubscriptionToken struct {
	value string
}

// ParseSubscriptionToken validates a raw token from an untrusted caller.
// Only the alphabet is checked, not the length: tokens of the wrong length
// are well-formed credentials that simply won't resolve.
func ParseSubscriptionToken(raw string) (SubscriptionToken, error) {
	for _, r := range raw {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return SubscriptionToken{}, fmt.Errorf("subscription token must be alphanumeric")
		}
	}
	return SubscriptionToken{value: raw}, nil
}

// GenerateSubscriptionToken produces a fresh random token, valid by
// construction. The source is crypto/rand; sampling one alphabet index at a
// time keeps the distribution uniform.
func GenerateSubscriptionToken() SubscriptionToken {
	alphabetLen := big.NewInt(int64(len(tokenAlphabet)))
	buf := make([]byte, SubscriptionTokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken.
			panic(fmt.Sprintf("generate subscription token: %v", err))
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return SubscriptionToken{value: string(buf)}
}

func (t SubscriptionToken) String() string { return t.value }
