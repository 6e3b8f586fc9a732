package erp

import (
	"github.com/tallybridge/backend/internal/domain/master"
	"github.com/tallybridge/backend/internal/domain/shared"
	"gorm.io/datatypes"
)

// TransactionKind enumerates the ERP transaction doctypes the dependency
// resolver understands. The set is closed; anything else resolves to nothing.
type TransactionKind string

const (
	TransactionSalesOrder      TransactionKind = "Sales Order"
	TransactionSalesInvoice    TransactionKind = "Sales Invoice"
	TransactionPurchaseOrder   TransactionKind = "Purchase Order"
	TransactionPurchaseInvoice TransactionKind = "Purchase Invoice"
)

// AllTransactionKinds returns every supported transaction kind
func AllTransactionKinds() []TransactionKind {
	return []TransactionKind{
		TransactionSalesOrder,
		TransactionSalesInvoice,
		TransactionPurchaseOrder,
		TransactionPurchaseInvoice,
	}
}

// IsValid checks if the kind is one of the supported doctypes
func (k TransactionKind) IsValid() bool {
	switch k {
	case TransactionSalesOrder, TransactionSalesInvoice,
		TransactionPurchaseOrder, TransactionPurchaseInvoice:
		return true
	}
	return false
}

// String returns the string representation
func (k TransactionKind) String() string {
	return string(k)
}

// IsSales reports whether the transaction's party is a customer
func (k TransactionKind) IsSales() bool {
	return k == TransactionSalesOrder || k == TransactionSalesInvoice
}

// PartyType returns the master type of the transaction's party:
// customer for sales documents, supplier for purchase documents.
func (k TransactionKind) PartyType() master.Type {
	if k.IsSales() {
		return master.TypeCustomer
	}
	return master.TypeSupplier
}

// ParseTransactionKind validates an inbound doctype string
func ParseTransactionKind(s string) (TransactionKind, error) {
	k := TransactionKind(s)
	if !k.IsValid() {
		return "", shared.NewDomainError("INVALID_INPUT", "Unsupported transaction doctype: "+s)
	}
	return k, nil
}

// TransactionLine is one item row of a mirrored transaction
type TransactionLine struct {
	ItemCode string `json:"item_code"`
	ItemName string `json:"item_name"`
}

// TransactionDocument is the resolver's projection of an ERP transaction:
// the party it bills and the items it moves. Sales orders and purchase
// documents are mirrored in this shape directly; sales invoices are
// projected from their full mirror.
type TransactionDocument struct {
	shared.BaseEntity
	Kind      TransactionKind                      `gorm:"type:varchar(32);not null;uniqueIndex:idx_erp_transactions_kind_name"`
	Name      string                               `gorm:"type:varchar(255);not null;uniqueIndex:idx_erp_transactions_kind_name"`
	Company   string                               `gorm:"type:varchar(255)"`
	Party     string                               `gorm:"type:varchar(255);not null"`
	PartyName string                               `gorm:"type:varchar(255)"`
	Lines     datatypes.JSONSlice[TransactionLine] `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (TransactionDocument) TableName() string {
	return "erp_transactions"
}

// NewTransactionDocument mirrors a submitted ERP transaction locally
func NewTransactionDocument(kind TransactionKind, name, company, party, partyName string, lines []TransactionLine) (*TransactionDocument, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unsupported transaction doctype: "+string(kind))
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Transaction name cannot be empty")
	}
	if party == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Transaction party cannot be empty")
	}
	return &TransactionDocument{
		BaseEntity: shared.NewBaseEntity(),
		Kind:       kind,
		Name:       name,
		Company:    company,
		Party:      party,
		PartyName:  partyName,
		Lines:      lines,
	}, nil
}

// PartyDisplayName returns the human name of the party, falling back to
// its document name.
func (t *TransactionDocument) PartyDisplayName() string {
	if t.PartyName != "" {
		return t.PartyName
	}
	return t.Party
}
