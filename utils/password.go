package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math/big"
	mrand "math/rand"
)

const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!_@#$%^&+="
	codeChars    = upperChars + digitChars

	// Each cycle adds one char of every class, so 2 cycles give 8 chars.
	PasswordMinCycles = 2
	EmailCodeLength   = 8
)

// CreatePassword derives a deterministic password for accounts that never
// chose one (social login, seeded staff). The email and salt are hashed
// iterations times and the digest seeds the character picks.
func CreatePassword(email, salt string, iterations, cycles int) string {
	if cycles < PasswordMinCycles {
		cycles = PasswordMinCycles
	}
	if iterations < 1 {
		iterations = 1
	}

	digest := email + salt
	var sum [sha256.Size]byte
	for i := 0; i < iterations; i++ {
		sum = sha256.Sum256([]byte(digest))
		digest = hex.EncodeToString(sum[:])
	}

	rng := mrand.New(mrand.NewSource(int64(binary.BigEndian.Uint64(sum[:8]))))
	password := make([]byte, 0, cycles*4)
	for i := 0; i < cycles; i++ {
		for _, set := range []string{lowerChars, upperChars, digitChars, specialChars} {
			password = append(password, set[rng.Intn(len(set))])
		}
	}
	rng.Shuffle(len(password), func(i, j int) {
		password[i], password[j] = password[j], password[i]
	})
	return string(password)
}

// GenerateCode returns a random email confirmation code.
func GenerateCode() (string, error) {
	code := make([]byte, EmailCodeLength)
	max := big.NewInt(int64(len(codeChars)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = codeChars[n.Int64()]
	}
	return string(code), nil
}
