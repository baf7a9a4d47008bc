// Package invite generates and normalises campaign invite codes of the form QST-XXXX.
package invite

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	Prefix   = "QST-"
	CodeLen  = 4
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Generator produces a fresh invite code.
type Generator func() (string, error)

// Generate draws CodeLen characters from [0-9A-Z] using crypto/rand.
func Generate() (string, error) {
	var sb strings.Builder
	sb.Grow(len(Prefix) + CodeLen)
	sb.WriteString(Prefix)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < CodeLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(alphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Normalize trims and upper-cases user input.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code is exactly Prefix followed by CodeLen characters of [0-9A-Z].
func Valid(code string) bool {
	if len(code) != len(Prefix)+CodeLen || !strings.HasPrefix(code, Prefix) {
		return false
	}
	for _, r := range code[len(Prefix):] {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
