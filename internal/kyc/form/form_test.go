package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kyconboard/internal/kyc/models"
)

type FormSuite struct {
	suite.Suite
	now time.Time
}

func TestFormSuite(t *testing.T) {
	suite.Run(t, new(FormSuite))
}

func (s *FormSuite) SetupTest() {
	s.now = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func member() models.Person {
	return models.Person{
		Name:      models.Name{First: "Jane", Last: "Doe"},
		Email:     "jane@example.com",
		Phone:     "2345678901",
		BirthDate: time.Date(1990, time.January, 2, 0, 0, 0, 0, time.UTC),
	}
}

func address() models.Address {
	return models.Address{
		Country:      models.DefaultCountry,
		AddressLine1: "12 Main St.",
		City:         "Springfield",
		State:        "Illinois",
		ZipCode:      "560001",
	}
}

func account() models.BankAccount {
	return models.BankAccount{
		AccountHolderName:    "Jane Doe",
		AccountNumber:        "12345678",
		ConfirmAccountNumber: "12345678",
		RoutingNumber:        "021000021",
		BankName:             "First National",
		AccountType:          models.AccountSavings,
	}
}

// fill completes every section with valid data.
func (s *FormSuite) fill(f *Form) {
	f.SetMember(member())
	f.SetMemberAddress(address())
	f.SetNominee(member())
	f.SetNomineeAddress(address())
	f.SetAccount(account())
}

func (s *FormSuite) TestDefaults() {
	f := New()
	s.Equal(models.StageMemberInfo, f.Stage())
	s.Equal(models.DefaultCountry, f.MemberAddress().Country)
	s.Equal(models.AccountSavings, f.Account().AccountType)
}

func (s *FormSuite) TestNextGatesOnSectionValidity() {
	s.Run("empty member info blocks the first transition", func() {
		f := New()
		stage, ok := f.Next(s.now)
		s.False(ok)
		s.Equal(models.StageMemberInfo, stage)
	})

	s.Run("valid member info unlocks the next stage", func() {
		f := New()
		f.SetMember(member())
		stage, ok := f.Next(s.now)
		s.True(ok)
		s.Equal(models.StageMemberAddress, stage)
	})

	s.Run("each stage requires its own section", func() {
		f := New()
		s.fill(f)
		expected := []models.Stage{
			models.StageMemberAddress,
			models.StageNomineeInfo,
			models.StageNomineeAddress,
			models.StageBankDetails,
			models.StageSummary,
		}
		for _, want := range expected {
			stage, ok := f.Next(s.now)
			s.True(ok)
			s.Equal(want, stage)
		}
	})

	s.Run("invalid bank details block the bank stage", func() {
		f := New()
		s.fill(f)
		bad := account()
		bad.ConfirmAccountNumber = "99999999"
		f.SetAccount(bad)
		for f.Stage() != models.StageBankDetails {
			_, ok := f.Next(s.now)
			s.Require().True(ok)
		}
		_, ok := f.Next(s.now)
		s.False(ok)
	})
}

func (s *FormSuite) TestCyclicNavigation() {
	s.Run("summary wraps forward to member info", func() {
		f := New()
		s.fill(f)
		for f.Stage() != models.StageSummary {
			_, ok := f.Next(s.now)
			s.Require().True(ok)
		}
		stage, ok := f.Next(s.now)
		s.True(ok)
		s.Equal(models.StageMemberInfo, stage)
	})

	s.Run("previous is unconditional and wraps backwards", func() {
		f := New()
		s.Equal(models.StageSummary, f.Previous())
		s.Equal(models.StageBankDetails, f.Previous())
	})
}

func (s *FormSuite) TestValidity() {
	f := New()
	v := f.Validity(s.now)
	s.False(v.MemberInfo)
	s.False(v.BankDetails)

	s.fill(f)
	v = f.Validity(s.now)
	s.True(v.MemberInfo)
	s.True(v.MemberAddress)
	s.True(v.NomineeInfo)
	s.True(v.NomineeAddress)
	s.True(v.BankDetails)
}

func (s *FormSuite) TestChangeObserver() {
	f := New()
	var calls int
	f.OnChange(func() { calls++ })

	f.SetMember(member())
	f.SetAccount(account())
	f.Previous()
	s.Equal(3, calls)
}

func (s *FormSuite) TestSnapshotRestore() {
	s.Run("snapshot captures every section", func() {
		f := New()
		s.fill(f)
		f.SetDigitalSignature(models.DigitalSignature{Complete: true, Timestamp: s.now})
		snap := f.Snapshot(s.now)

		s.Require().NotNil(snap.Member)
		s.Equal("Jane", snap.Member.Name.First)
		s.Require().NotNil(snap.Account)
		s.Equal("12345678", snap.Account.AccountNumber)
		s.Require().NotNil(snap.DigitalSignature)
		s.True(snap.DigitalSignature.Complete)
		s.Require().NotNil(snap.LastUpdated)
		s.Equal(s.now, *snap.LastUpdated)
	})

	s.Run("restore overlays only present fields", func() {
		f := New()
		f.SetAccount(account())

		janet := member()
		janet.Name.First = "Janet"
		stage := models.StageNomineeInfo
		f.Restore(models.DraftSnapshot{Member: &janet, Stage: &stage})

		s.Equal("Janet", f.Member().Name.First)
		s.Equal(models.StageNomineeInfo, f.Stage())
		// Absent sections keep their current values.
		s.Equal("12345678", f.Account().AccountNumber)
	})
}
