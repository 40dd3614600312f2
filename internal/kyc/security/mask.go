package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashSensitive returns the SHA-256 hex digest of sensitive data. Stored in
// place of the raw value so records stay matchable without being readable.
func HashSensitive(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// MaskAccountNumber hides all but the last four digits. Values shorter than
// four characters collapse to "****".
func MaskAccountNumber(accountNumber string) string {
	if len(accountNumber) < 4 {
		return "****"
	}
	return strings.Repeat("*", len(accountNumber)-4) + accountNumber[len(accountNumber)-4:]
}

// MaskEmail keeps the first two characters of the local part and the full
// domain. Anything unparseable masks completely.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || len(local) <= 2 || domain == "" {
		return "****@****.com"
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + "@" + domain
}
