package auth

import "crypto/subtle"

// CheckPassword reports whether supplied matches the stored credential.
// Credentials are kept as plain strings, so this is an exact, case-sensitive
// comparison.
// TODO: store a bcrypt hash once existing records can be migrated.
func CheckPassword(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
