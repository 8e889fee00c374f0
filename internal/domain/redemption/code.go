package redemption

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// Alphabet is the symbol set redemption codes are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the number of symbols in a redemption code.
const CodeLength = 6

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// NewCode draws CodeLength symbols uniformly, with replacement, from Alphabet
// using r as the entropy source. A nil r means crypto/rand.
func NewCode(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(r, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrEntropy, err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}
