package erp

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tallybridge/backend/internal/domain/shared"
	"gorm.io/datatypes"
)

// ERP document workflow states
const (
	DocStatusDraft     = 0
	DocStatusSubmitted = 1
	DocStatusCancelled = 2
)

// DocStatusName renders a workflow state for messages and logs
func DocStatusName(status int) string {
	switch status {
	case DocStatusDraft:
		return "Draft"
	case DocStatusSubmitted:
		return "Submitted"
	case DocStatusCancelled:
		return "Cancelled"
	}
	return strconv.Itoa(status)
}

// InvoiceLine is one item row of a sales invoice
type InvoiceLine struct {
	ItemCode  string          `json:"item_code"`
	ItemName  string          `json:"item_name"`
	ItemGroup string          `json:"item_group"`
	Quantity  decimal.Decimal `json:"qty"`
	UOM       string          `json:"uom"`
	Rate      decimal.Decimal `json:"rate"`
	Amount    decimal.Decimal `json:"amount"`
	CGSTRate  decimal.Decimal `json:"cgst_rate"`
	SGSTRate  decimal.Decimal `json:"sgst_rate"`
	IGSTRate  decimal.Decimal `json:"igst_rate"`
}

// TaxLine is one tax charge row of a sales invoice
type TaxLine struct {
	AccountHead string          `json:"account_head"`
	GSTTaxType  string          `json:"gst_tax_type"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

// SalesInvoice mirrors a submitted ERP sales invoice together with the
// markers stamped once its voucher lands in Tally.
type SalesInvoice struct {
	shared.BaseEntity
	Name          string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Customer      string    `gorm:"type:varchar(255);not null;index"`
	CustomerName  string    `gorm:"type:varchar(255)"`
	Company       string    `gorm:"type:varchar(255)"`
	PostingDate   time.Time `gorm:"not null"`
	DocStatus     int       `gorm:"not null;default:0"`
	PlaceOfSupply string    `gorm:"type:varchar(128)"`
	CompanyGSTIN  string    `gorm:"type:varchar(20)"`
	CustomerGSTIN string    `gorm:"type:varchar(20)"`

	Total              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	GrandTotal         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RoundedTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RoundingAdjustment decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	Items datatypes.JSONSlice[InvoiceLine] `gorm:"type:jsonb"`
	Taxes datatypes.JSONSlice[TaxLine]     `gorm:"type:jsonb"`

	TallySynced        bool   `gorm:"not null;default:false"`
	TallyVoucherNumber string `gorm:"type:varchar(64)"`
	TallySyncedAt      *time.Time
}

// TableName returns the table name for GORM
func (SalesInvoice) TableName() string {
	return "erp_sales_invoices"
}

// NewSalesInvoice mirrors an ERP sales invoice locally
func NewSalesInvoice(name, customer, company string, postingDate time.Time) (*SalesInvoice, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice name cannot be empty")
	}
	if customer == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice customer cannot be empty")
	}
	return &SalesInvoice{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		Customer:    customer,
		Company:     company,
		PostingDate: postingDate,
	}, nil
}

// IsSubmitted reports whether the invoice passed the ERP workflow
func (inv *SalesInvoice) IsSubmitted() bool {
	return inv.DocStatus == DocStatusSubmitted
}

// Interstate reports whether the sale crosses state lines. GSTIN numbers
// open with a two-digit state code; differing codes mean IGST applies
// instead of CGST+SGST. Missing GSTINs default to intrastate.
func (inv *SalesInvoice) Interstate() bool {
	if len(inv.CustomerGSTIN) < 2 || len(inv.CompanyGSTIN) < 2 {
		return false
	}
	return inv.CustomerGSTIN[:2] != inv.CompanyGSTIN[:2]
}

// TaxTotals sums the invoice's tax rows by GST head
func (inv *SalesInvoice) TaxTotals() (cgst, sgst, igst decimal.Decimal) {
	for _, tax := range inv.Taxes {
		switch strings.ToLower(tax.GSTTaxType) {
		case "cgst":
			cgst = cgst.Add(tax.TaxAmount)
		case "sgst":
			sgst = sgst.Add(tax.TaxAmount)
		case "igst":
			igst = igst.Add(tax.TaxAmount)
		}
	}
	return cgst.Round(2), sgst.Round(2), igst.Round(2)
}

// PayableTotal is the amount the party ledger carries: the rounded total
// when the ERP rounded, otherwise the grand total.
func (inv *SalesInvoice) PayableTotal() decimal.Decimal {
	if !inv.RoundedTotal.IsZero() {
		return inv.RoundedTotal.Round(2)
	}
	return inv.GrandTotal.Round(2)
}

// NeedsRoundOff reports whether the rounding adjustment is large enough
// to warrant its own ledger line.
func (inv *SalesInvoice) NeedsRoundOff() bool {
	return inv.RoundingAdjustment.Abs().GreaterThanOrEqual(decimal.NewFromFloat(0.01))
}

// StockItemNames returns the Tally stock item name of every line
func (inv *SalesInvoice) StockItemNames() []string {
	names := make([]string, 0, len(inv.Items))
	for _, line := range inv.Items {
		if line.ItemName != "" {
			names = append(names, line.ItemName)
		} else {
			names = append(names, line.ItemCode)
		}
	}
	return names
}

// MarkSynced stamps the voucher markers after a successful push
func (inv *SalesInvoice) MarkSynced(voucherNumber string) {
	now := time.Now()
	inv.TallySynced = true
	inv.TallyVoucherNumber = voucherNumber
	inv.TallySyncedAt = &now
	inv.UpdatedAt = now
}

// AsTransaction projects the invoice into the resolver's shape
func (inv *SalesInvoice) AsTransaction() *TransactionDocument {
	lines := make([]TransactionLine, 0, len(inv.Items))
	for _, line := range inv.Items {
		lines = append(lines, TransactionLine{ItemCode: line.ItemCode, ItemName: line.ItemName})
	}
	return &TransactionDocument{
		BaseEntity: inv.BaseEntity,
		Kind:       TransactionSalesInvoice,
		Name:       inv.Name,
		Company:    inv.Company,
		Party:      inv.Customer,
		PartyName:  inv.CustomerName,
		Lines:      lines,
	}
}
