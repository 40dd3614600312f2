// Package security implements input sanitization, one-way hashing, and
// masking for the KYC pipeline. Sanitize is the single choke point all
// free-text input passes through before validation and before persistence.
package security

import (
	"regexp"
	"strings"

	"kyconboard/internal/kyc/models"
)

// SanitizedFieldMaxLength bounds the worst-case size of any sanitized value.
const SanitizedFieldMaxLength = 500

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	scriptPattern  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	// Denylist of SQL metacharacter sequences: quote, double-hyphen,
	// semicolon, pipe, asterisk, percent, angle brackets, plus, equals.
	sqlMetaPattern = regexp.MustCompile(`'|--|;|\||\*|%|<|>|\+|=`)
)

// Sanitize strips markup and SQL metacharacters from raw input, trims
// surrounding whitespace, and truncates to SanitizedFieldMaxLength. It is
// total over all strings and idempotent: Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(raw string) string {
	cleaned := scriptPattern.ReplaceAllString(raw, "")
	cleaned = htmlTagPattern.ReplaceAllString(cleaned, "")
	cleaned = sqlMetaPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if len(cleaned) > SanitizedFieldMaxLength {
		cleaned = cleaned[:SanitizedFieldMaxLength]
		// Truncation can expose trailing whitespace or split a multi-byte
		// rune; trim both so the result stays a fixed point of Sanitize.
		cleaned = strings.TrimRight(strings.ToValidUTF8(cleaned, ""), " \t\r\n")
	}
	return cleaned
}

var displayEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EncodeForDisplay HTML-entity-escapes untrusted text for safe echoing into
// rendered output. Unlike Sanitize it preserves content.
func EncodeForDisplay(raw string) string {
	return displayEscaper.Replace(raw)
}

// SanitizePerson returns a copy of p with every free-text field sanitized.
// The nested address is handled by SanitizeAddress.
func SanitizePerson(p models.Person) models.Person {
	p.Name.First = Sanitize(p.Name.First)
	p.Name.Middle = Sanitize(p.Name.Middle)
	p.Name.Last = Sanitize(p.Name.Last)
	p.Email = Sanitize(p.Email)
	p.Phone = Sanitize(p.Phone)
	p.Address = SanitizeAddress(p.Address)
	return p
}

// SanitizeAddress returns a copy of a with every field sanitized.
func SanitizeAddress(a models.Address) models.Address {
	a.Country = Sanitize(a.Country)
	a.AddressLine1 = Sanitize(a.AddressLine1)
	a.AddressLine2 = Sanitize(a.AddressLine2)
	a.City = Sanitize(a.City)
	a.State = Sanitize(a.State)
	a.ZipCode = Sanitize(a.ZipCode)
	return a
}

// SanitizeBankAccount returns a copy of b with every text field sanitized.
func SanitizeBankAccount(b models.BankAccount) models.BankAccount {
	b.AccountHolderName = Sanitize(b.AccountHolderName)
	b.AccountNumber = Sanitize(b.AccountNumber)
	b.ConfirmAccountNumber = Sanitize(b.ConfirmAccountNumber)
	b.RoutingNumber = Sanitize(b.RoutingNumber)
	b.BankName = Sanitize(b.BankName)
	return b
}
