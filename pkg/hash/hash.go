// Package hash wraps bcrypt for passwords and refresh-token secrets.
package hash

import "golang.org/x/crypto/bcrypt"

// Cost is the bcrypt work factor used across the service.
const Cost = 10

// Hash derives a bcrypt digest from the given plaintext.
func Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Compare reports whether plain matches the stored digest.
func Compare(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
