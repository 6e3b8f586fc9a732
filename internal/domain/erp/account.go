package erp

import (
	"github.com/tallybridge/backend/internal/domain/shared"
)

// Account mirrors an ERP chart-of-accounts row. The resolver walks these
// to derive a customer's parent group: receivable account -> its parent
// account -> that account's display name.
type Account struct {
	shared.BaseEntity
	Name          string `gorm:"type:varchar(255);not null;uniqueIndex"`
	AccountName   string `gorm:"type:varchar(255)"`
	ParentAccount string `gorm:"type:varchar(255);index"`
	Company       string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "erp_accounts"
}

// NewAccount mirrors an ERP account locally
func NewAccount(name, accountName, parentAccount, company string) (*Account, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Account name cannot be empty")
	}
	return &Account{
		BaseEntity:    shared.NewBaseEntity(),
		Name:          name,
		AccountName:   accountName,
		ParentAccount: parentAccount,
		Company:       company,
	}, nil
}

// DisplayName returns the account's display name, falling back to the
// document name.
func (a *Account) DisplayName() string {
	if a.AccountName != "" {
		return a.AccountName
	}
	return a.Name
}
