package erp

import (
	"github.com/tallybridge/backend/internal/domain/shared"
	"gorm.io/datatypes"
)

// Supplier mirrors an ERP supplier document
type Supplier struct {
	shared.BaseEntity
	Name          string                            `gorm:"type:varchar(255);not null;uniqueIndex"`
	SupplierName  string                            `gorm:"type:varchar(255)"`
	SupplierGroup string                            `gorm:"type:varchar(255)"`
	GSTIN         string                            `gorm:"type:varchar(20)"`
	Accounts      datatypes.JSONSlice[PartyAccount] `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "erp_suppliers"
}

// NewSupplier mirrors an ERP supplier locally
func NewSupplier(name, supplierName string) (*Supplier, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Supplier name cannot be empty")
	}
	return &Supplier{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		SupplierName: supplierName,
	}, nil
}

// DisplayName returns the human name, falling back to the document name
func (s *Supplier) DisplayName() string {
	if s.SupplierName != "" {
		return s.SupplierName
	}
	return s.Name
}

// AccountFor returns the supplier's payable account for the company, or ""
// when none is linked.
func (s *Supplier) AccountFor(company string) string {
	for _, a := range s.Accounts {
		if a.Company == company && a.Account != "" {
			return a.Account
		}
	}
	return ""
}
