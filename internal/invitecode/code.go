// Package invitecode generates tenant join codes.
package invitecode

import (
	"crypto/rand"
	"math/big"
)

const (
	// Length of a join code.
	Length = 12

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// New returns a 12-character code drawn from [A-Za-z0-9] using a
// cryptographically strong random source.
func New() (string, error) {
	buf := make([]byte, Length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
