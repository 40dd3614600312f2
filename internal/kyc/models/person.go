// Package models holds the KYC onboarding data model: the member and nominee
// person records, postal addresses, the bank account, the digital signature,
// and the wizard stage enum. Types are plain data; validation lives in the
// validate package so the model stays serialization-friendly.
package models

import (
	"strings"
	"time"
)

// Person is the identity of a member or their nominee. The two instances
// share a shape; only the surrounding labels differ.
type Person struct {
	MemberID  string    `json:"memberId,omitempty"`
	Name      Name      `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	BirthDate time.Time `json:"birthDate"`
	Address   Address   `json:"address"`
}

// Name splits a person's legal name. Middle is optional.
type Name struct {
	First  string `json:"first"`
	Middle string `json:"middle"`
	Last   string `json:"last"`
}

// Full joins the name parts, skipping an empty middle name.
func (n Name) Full() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.First, n.Middle, n.Last} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Address is a US-style postal address. Line2 is optional.
type Address struct {
	Country      string `json:"country"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
}

// DefaultCountry is preselected for new addresses.
const DefaultCountry = "United States"

// NewAddress returns an empty address with the default country.
func NewAddress() Address {
	return Address{Country: DefaultCountry}
}

// DigitalSignature captures a drawn signature. Out of the validation core;
// carried through drafts and submission untouched.
type DigitalSignature struct {
	ImageData []byte    `json:"imageData,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Complete  bool      `json:"isComplete"`
	UserID    string    `json:"userId,omitempty"`
}
