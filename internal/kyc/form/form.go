// Package form implements the wizard state machine: the in-memory form data,
// per-section validity, and stage navigation gated on the current section.
package form

import (
	"sync"
	"time"

	"kyconboard/internal/kyc/models"
	"kyconboard/internal/kyc/validate"
)

// Form is the single mutable state of one onboarding session. Mutation
// happens on one logical thread (the owning session); the mutex guards the
// observer hook and concurrent reads from the transport layer.
type Form struct {
	mu sync.RWMutex

	member           models.Person
	memberAddress    models.Address
	nominee          models.Person
	nomineeAddress   models.Address
	account          models.BankAccount
	digitalSignature models.DigitalSignature
	stage            models.Stage

	onChange func()
}

// New returns an empty form positioned at the first stage.
func New() *Form {
	return &Form{
		member:         models.Person{Address: models.NewAddress()},
		memberAddress:  models.NewAddress(),
		nominee:        models.Person{Address: models.NewAddress()},
		nomineeAddress: models.NewAddress(),
		account:        models.NewBankAccount(),
		stage:          models.StageMemberInfo,
	}
}

// OnChange registers the mutation observer. The auto-save pipeline hooks in
// here; at most one observer is supported.
func (f *Form) OnChange(fn func()) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

func (f *Form) notify() {
	if f.onChange != nil {
		f.onChange()
	}
}

// SetMember replaces the member record.
func (f *Form) SetMember(p models.Person) {
	f.mu.Lock()
	f.member = p
	f.notify()
	f.mu.Unlock()
}

// SetMemberAddress replaces the member's address.
func (f *Form) SetMemberAddress(a models.Address) {
	f.mu.Lock()
	f.memberAddress = a
	f.notify()
	f.mu.Unlock()
}

// SetNominee replaces the nominee record.
func (f *Form) SetNominee(p models.Person) {
	f.mu.Lock()
	f.nominee = p
	f.notify()
	f.mu.Unlock()
}

// SetNomineeAddress replaces the nominee's address.
func (f *Form) SetNomineeAddress(a models.Address) {
	f.mu.Lock()
	f.nomineeAddress = a
	f.notify()
	f.mu.Unlock()
}

// SetAccount replaces the bank account details.
func (f *Form) SetAccount(b models.BankAccount) {
	f.mu.Lock()
	f.account = b
	f.notify()
	f.mu.Unlock()
}

// SetDigitalSignature replaces the captured signature.
func (f *Form) SetDigitalSignature(s models.DigitalSignature) {
	f.mu.Lock()
	f.digitalSignature = s
	f.notify()
	f.mu.Unlock()
}

// Member returns the member record.
func (f *Form) Member() models.Person {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.member
}

// MemberAddress returns the member's address.
func (f *Form) MemberAddress() models.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.memberAddress
}

// Nominee returns the nominee record.
func (f *Form) Nominee() models.Person {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nominee
}

// NomineeAddress returns the nominee's address.
func (f *Form) NomineeAddress() models.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.nomineeAddress
}

// Account returns the bank account details.
func (f *Form) Account() models.BankAccount {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.account
}

// DigitalSignature returns the captured signature.
func (f *Form) DigitalSignature() models.DigitalSignature {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.digitalSignature
}

// Stage returns the current wizard stage.
func (f *Form) Stage() models.Stage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stage
}

// Validity aggregates the per-section validity flags at one instant.
type Validity struct {
	MemberInfo     bool `json:"memberInfo"`
	MemberAddress  bool `json:"memberAddress"`
	NomineeInfo    bool `json:"nomineeInfo"`
	NomineeAddress bool `json:"nomineeAddress"`
	BankDetails    bool `json:"bankDetails"`
}

// Validity recomputes every section flag. The age gates evaluate at the
// given time.
func (f *Form) Validity(at time.Time) Validity {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Validity{
		MemberInfo:     validate.Person(f.member, at),
		MemberAddress:  validate.Address(f.memberAddress),
		NomineeInfo:    validate.Person(f.nominee, at),
		NomineeAddress: validate.Address(f.nomineeAddress),
		BankDetails:    validate.BankAccount(f.account),
	}
}

// CanProceed reports whether the current stage's section is valid. The
// summary stage always proceeds.
func (f *Form) CanProceed(at time.Time) bool {
	v := f.Validity(at)
	switch f.Stage() {
	case models.StageMemberInfo:
		return v.MemberInfo
	case models.StageMemberAddress:
		return v.MemberAddress
	case models.StageNomineeInfo:
		return v.NomineeInfo
	case models.StageNomineeAddress:
		return v.NomineeAddress
	case models.StageBankDetails:
		return v.BankDetails
	default:
		return true
	}
}

// Next advances to the successor stage when the current section is valid.
// Returns the resulting stage and whether the transition happened. Advancing
// from the summary wraps to member info.
func (f *Form) Next(at time.Time) (models.Stage, bool) {
	if !f.CanProceed(at) {
		return f.Stage(), false
	}
	f.mu.Lock()
	f.stage = f.stage.Next()
	stage := f.stage
	f.notify()
	f.mu.Unlock()
	return stage, true
}

// Previous moves to the predecessor stage unconditionally, wrapping from
// member info back to the summary.
func (f *Form) Previous() models.Stage {
	f.mu.Lock()
	f.stage = f.stage.Previous()
	stage := f.stage
	f.notify()
	f.mu.Unlock()
	return stage
}

// Snapshot copies the full form state into a draft for persistence.
func (f *Form) Snapshot(at time.Time) models.DraftSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	member := f.member
	memberAddress := f.memberAddress
	nominee := f.nominee
	nomineeAddress := f.nomineeAddress
	account := f.account
	signature := f.digitalSignature
	stage := f.stage
	return models.DraftSnapshot{
		Member:           &member,
		MemberAddress:    &memberAddress,
		Nominee:          &nominee,
		NomineeAddress:   &nomineeAddress,
		Account:          &account,
		DigitalSignature: &signature,
		Stage:            &stage,
		LastUpdated:      &at,
	}
}

// Restore overlays the non-nil fields of a draft onto the form. Absent
// fields keep their current values; defaults are never written over data.
func (f *Form) Restore(d models.DraftSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.Member != nil {
		f.member = *d.Member
	}
	if d.MemberAddress != nil {
		f.memberAddress = *d.MemberAddress
	}
	if d.Nominee != nil {
		f.nominee = *d.Nominee
	}
	if d.NomineeAddress != nil {
		f.nomineeAddress = *d.NomineeAddress
	}
	if d.Account != nil {
		f.account = *d.Account
	}
	if d.DigitalSignature != nil {
		f.digitalSignature = *d.DigitalSignature
	}
	if d.Stage != nil {
		f.stage = *d.Stage
	}
}
