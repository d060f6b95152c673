package internal

import "golang.org/x/crypto/bcrypt"

// HashPassword produces the one-way digest stored on a room at creation.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// VerifyPassword reports whether the supplied password matches a stored
// digest. bcrypt does its own constant-time comparison.
func VerifyPassword(digest []byte, supplied string) bool {
	return bcrypt.CompareHashAndPassword(digest, []byte(supplied)) == nil
}
