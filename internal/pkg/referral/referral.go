package referral

import (
	"crypto/rand"
	"math/big"
)

// Alphabet for referral codes. Visually confusable characters (0/O, 1/I/L)
// are excluded so codes survive being read aloud or retyped.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// CodeLength is the fixed length of a referral code. 31^8 candidate codes is
// a large space relative to any plausible waitlist population.
const CodeLength = 8

// NewCode returns a random candidate referral code. Uniqueness is not
// guaranteed here; callers must check against the store and retry.
func NewCode() (string, error) {
	out := make([]byte, CodeLength)
	max := big.NewInt(int64(len(Alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = Alphabet[n.Int64()]
	}
	return string(out), nil
}
