package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted bcrypt hash (cost 10) from the plaintext.
// Every write path that changes a password goes through this function, so
// plaintext never reaches the credential store.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether the candidate plaintext matches the stored
// hash. A wrong password is an ordinary false, not an error.
func CheckPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
