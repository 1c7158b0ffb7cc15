package referral

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(Alphabet, c), "unexpected character %q in %s", c, code)
		}
	}
}

func TestAlphabet_ExcludesConfusableCharacters(t *testing.T) {
	for _, c := range "0O1IL" {
		assert.False(t, strings.ContainsRune(Alphabet, c), "alphabet must not contain %q", c)
	}
}
