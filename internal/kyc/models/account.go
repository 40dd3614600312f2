package models

// BankAccount holds the member's bank details. The confirmation number is a
// UI-side transcription check and never leaves the submission pipeline.
type BankAccount struct {
	AccountHolderName    string      `json:"accountHolderName"`
	AccountNumber        string      `json:"accountNumber"`
	ConfirmAccountNumber string      `json:"confirmAccountNumber"`
	RoutingNumber        string      `json:"routingNumber"`
	BankName             string      `json:"bankName"`
	AccountType          AccountType `json:"accountType"`
}

// AccountType enumerates supported account categories.
type AccountType string

const (
	AccountChecking         AccountType = "Checking"
	AccountSavings          AccountType = "Savings"
	AccountCurrent          AccountType = "Current"
	AccountBusinessChecking AccountType = "Business Checking"
	AccountBusinessSavings  AccountType = "Business Savings"
)

// AccountTypes lists all account types in display order.
var AccountTypes = []AccountType{
	AccountChecking,
	AccountSavings,
	AccountCurrent,
	AccountBusinessChecking,
	AccountBusinessSavings,
}

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	for _, known := range AccountTypes {
		if t == known {
			return true
		}
	}
	return false
}

// NewBankAccount returns an empty account defaulting to savings.
func NewBankAccount() BankAccount {
	return BankAccount{AccountType: AccountSavings}
}
