package erp

import (
	"github.com/tallybridge/backend/internal/domain/shared"
	"gorm.io/datatypes"
)

// PartyAccount links a customer or supplier to its per-company account in
// the ERP chart of accounts.
type PartyAccount struct {
	Company string `json:"company"`
	Account string `json:"account"`
}

// Customer mirrors an ERP customer document. Rows are upserted from the
// ERP-side submit hooks; this service never owns them.
type Customer struct {
	shared.BaseEntity
	Name          string                            `gorm:"type:varchar(255);not null;uniqueIndex"`
	CustomerName  string                            `gorm:"type:varchar(255)"`
	CustomerGroup string                            `gorm:"type:varchar(255)"`
	Territory     string                            `gorm:"type:varchar(255)"`
	GSTIN         string                            `gorm:"type:varchar(20)"`
	Accounts      datatypes.JSONSlice[PartyAccount] `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "erp_customers"
}

// NewCustomer mirrors an ERP customer locally
func NewCustomer(name, customerName string) (*Customer, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer name cannot be empty")
	}
	return &Customer{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		CustomerName: customerName,
	}, nil
}

// DisplayName returns the human name, falling back to the document name
func (c *Customer) DisplayName() string {
	if c.CustomerName != "" {
		return c.CustomerName
	}
	return c.Name
}

// AccountFor returns the customer's receivable account for the company,
// or "" when none is linked.
func (c *Customer) AccountFor(company string) string {
	for _, a := range c.Accounts {
		if a.Company == company && a.Account != "" {
			return a.Account
		}
	}
	return ""
}
