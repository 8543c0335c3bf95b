package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 10

	result := make([]byte, length)
	for i := range result {
		result[i] = charset[randomInt(int64(len(charset)))]
	}

	return fmt.Sprintf("%s-%s", prefix, string(result))
}

// GenerateTransactionID returns "tan-" followed by a random UUID without hyphens.
func GenerateTransactionID() string {
	return "tan-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// GenerateAccountNumber generates an 8-digit account number
func GenerateAccountNumber() string {
	return fmt.Sprintf("%08d", randomInt(100000000))
}

// GenerateSortCode returns three 2-digit groups, e.g. "10-42-07".
func GenerateSortCode() string {
	return fmt.Sprintf("%02d-%02d-%02d", randomInt(100), randomInt(100), randomInt(100))
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword checks if a password matches a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidateAccountNumber reports whether s is exactly 8 decimal digits.
func ValidateAccountNumber(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func randomInt(max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return n.Int64()
}
