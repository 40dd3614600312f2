package models

import "time"

// DraftSnapshot is the locally persisted form-in-progress. Every field is
// optional so partially filled and legacy drafts deserialize cleanly; restore
// overlays only the fields that are present.
type DraftSnapshot struct {
	Member           *Person           `json:"member,omitempty"`
	MemberAddress    *Address          `json:"memberAddress,omitempty"`
	Nominee          *Person           `json:"nominee,omitempty"`
	NomineeAddress   *Address          `json:"nomineeAddress,omitempty"`
	Account          *BankAccount      `json:"account,omitempty"`
	DigitalSignature *DigitalSignature `json:"digitalSignature,omitempty"`
	Stage            *Stage            `json:"stage,omitempty"`
	LastUpdated      *time.Time        `json:"lastUpdated,omitempty"`
}
