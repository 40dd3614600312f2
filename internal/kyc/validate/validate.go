// Package validate holds the per-field validation rules for the KYC form.
// Every validator operates on the sanitized value: validity is defined on
// what would actually be persisted, not on the raw keystrokes.
package validate

import (
	"regexp"
	"time"

	"kyconboard/internal/kyc/models"
	"kyconboard/internal/kyc/security"
)

const (
	// StandardFieldMaxLength caps single-line text fields.
	StandardFieldMaxLength = 48
	// MinimumAge applies to both member and nominee, in whole years.
	MinimumAge = 18
)

var (
	namePattern     = regexp.MustCompile(`^[a-zA-Z\s\-']{1,48}$`)
	emailPattern    = regexp.MustCompile(`^[A-Z0-9a-z._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,64}$`)
	addressPattern  = regexp.MustCompile(`^[a-zA-Z0-9\s.,\-#/]{1,48}$`)
	cityPattern     = regexp.MustCompile(`^[a-zA-Z\s\-']{1,48}$`)
	bankNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s.,\-&']{1,48}$`)
	zipPattern      = regexp.MustCompile(`^[0-9]{6}$`)
	accountPattern  = regexp.MustCompile(`^[0-9]{8,17}$`)
	digitsOnly      = regexp.MustCompile(`[^0-9]`)
)

// Name accepts 1-48 letters, spaces, hyphens, and apostrophes. Used for
// first, middle, last, and account holder names.
func Name(raw string) bool {
	return namePattern.MatchString(security.Sanitize(raw))
}

// Email accepts the usual local@domain.tld shape with a 2-64 character TLD.
func Email(raw string) bool {
	return emailPattern.MatchString(security.Sanitize(raw))
}

// Phone requires exactly ten digits once formatting is stripped, with a
// valid area code and exchange code: neither may begin with 0 or 1.
func Phone(raw string) bool {
	digits := digitsOnly.ReplaceAllString(security.Sanitize(raw), "")
	if len(digits) != 10 {
		return false
	}
	if digits[0] == '0' || digits[0] == '1' {
		return false
	}
	if digits[3] == '0' || digits[3] == '1' {
		return false
	}
	return true
}

// AddressLine accepts 1-48 alphanumerics plus space, period, comma, hyphen,
// hash, and slash.
func AddressLine(raw string) bool {
	return addressPattern.MatchString(security.Sanitize(raw))
}

// City accepts 1-48 letters, spaces, hyphens, and apostrophes.
func City(raw string) bool {
	return cityPattern.MatchString(security.Sanitize(raw))
}

// State uses the same character class as City.
func State(raw string) bool {
	return cityPattern.MatchString(security.Sanitize(raw))
}

// ZipCode requires exactly six digits.
func ZipCode(raw string) bool {
	return zipPattern.MatchString(security.Sanitize(raw))
}

// BankName accepts 1-48 alphanumerics plus space, period, comma, hyphen,
// ampersand, and apostrophe.
func BankName(raw string) bool {
	return bankNamePattern.MatchString(security.Sanitize(raw))
}

// AccountNumber requires 8-17 digits.
func AccountNumber(raw string) bool {
	return accountPattern.MatchString(security.Sanitize(raw))
}

// RoutingNumber requires exactly nine digits passing the ABA checksum:
// 3(d0+d3+d6) + 7(d1+d4+d7) + (d2+d5+d8) must be divisible by ten.
func RoutingNumber(raw string) bool {
	s := security.Sanitize(raw)
	if len(s) != 9 {
		return false
	}
	var d [9]int
	for i := 0; i < 9; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		d[i] = int(s[i] - '0')
	}
	checksum := 3*(d[0]+d[3]+d[6]) + 7*(d[1]+d[4]+d[7]) + (d[2] + d[5] + d[8])
	return checksum%10 == 0
}

// Age computes the whole-year age at the evaluation time.
func Age(birthDate, at time.Time) int {
	years := at.Year() - birthDate.Year()
	anniversary := birthDate.AddDate(years, 0, 0)
	if anniversary.After(at) {
		years--
	}
	return years
}

// OfAge reports whether the person meets the minimum age requirement at the
// evaluation time.
func OfAge(birthDate, at time.Time) bool {
	return Age(birthDate, at) >= MinimumAge
}

// Person reports section validity for a member or nominee: first and last
// name, email, phone, and the age gate must all hold; the middle name is
// validated only when present.
func Person(p models.Person, at time.Time) bool {
	return Name(p.Name.First) &&
		Name(p.Name.Last) &&
		(security.Sanitize(p.Name.Middle) == "" || Name(p.Name.Middle)) &&
		Email(p.Email) &&
		Phone(p.Phone) &&
		OfAge(p.BirthDate, at)
}

// Address reports section validity: line 1, city, state, and zip must hold;
// line 2 is validated only when present.
func Address(a models.Address) bool {
	return AddressLine(a.AddressLine1) &&
		(security.Sanitize(a.AddressLine2) == "" || AddressLine(a.AddressLine2)) &&
		City(a.City) &&
		State(a.State) &&
		ZipCode(a.ZipCode)
}

// BankAccount reports section validity. Beyond the per-field rules the two
// account number entries must match exactly.
func BankAccount(b models.BankAccount) bool {
	return Name(b.AccountHolderName) &&
		AccountNumber(b.AccountNumber) &&
		RoutingNumber(b.RoutingNumber) &&
		BankName(b.BankName) &&
		b.AccountType.Valid() &&
		b.AccountNumber == b.ConfirmAccountNumber
}
