package erp

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInvoice(t *testing.T) *SalesInvoice {
	t.Helper()
	inv, err := NewSalesInvoice("INV-0001", "CUST-001", "Acme Books", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	inv.CustomerName = "Acme Corp"
	inv.DocStatus = DocStatusSubmitted
	return inv
}

func TestNewSalesInvoice(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		inv := testInvoice(t)
		assert.Equal(t, "INV-0001", inv.Name)
		assert.True(t, inv.IsSubmitted())
		assert.False(t, inv.TallySynced)
	})

	t.Run("empty customer", func(t *testing.T) {
		_, err := NewSalesInvoice("INV-0001", "", "Acme Books", time.Now())
		assert.Error(t, err)
	})
}

func TestSalesInvoice_Interstate(t *testing.T) {
	tests := []struct {
		name          string
		companyGSTIN  string
		customerGSTIN string
		interstate    bool
	}{
		{"same state", "27AAAAA0000A1Z5", "27BBBBB0000B1Z5", false},
		{"different state", "27AAAAA0000A1Z5", "29BBBBB0000B1Z5", true},
		{"missing customer gstin", "27AAAAA0000A1Z5", "", false},
		{"missing company gstin", "", "29BBBBB0000B1Z5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := testInvoice(t)
			inv.CompanyGSTIN = tt.companyGSTIN
			inv.CustomerGSTIN = tt.customerGSTIN

			assert.Equal(t, tt.interstate, inv.Interstate())
		})
	}
}

func TestSalesInvoice_TaxTotals(t *testing.T) {
	inv := testInvoice(t)
	inv.Taxes = []TaxLine{
		{AccountHead: "Output CGST", GSTTaxType: "CGST", TaxAmount: decimal.NewFromFloat(90.00)},
		{AccountHead: "Output SGST", GSTTaxType: "sgst", TaxAmount: decimal.NewFromFloat(90.00)},
		{AccountHead: "Output SGST", GSTTaxType: "sgst", TaxAmount: decimal.NewFromFloat(10.005)},
		{AccountHead: "Output IGST", GSTTaxType: "IGST", TaxAmount: decimal.NewFromFloat(45.50)},
		{AccountHead: "Freight", GSTTaxType: "", TaxAmount: decimal.NewFromFloat(200)},
	}

	cgst, sgst, igst := inv.TaxTotals()

	assert.True(t, cgst.Equal(decimal.NewFromFloat(90.00)), cgst.String())
	assert.True(t, sgst.Equal(decimal.NewFromFloat(100.01)), sgst.String())
	assert.True(t, igst.Equal(decimal.NewFromFloat(45.50)), igst.String())
}

func TestSalesInvoice_PayableTotal(t *testing.T) {
	t.Run("prefers rounded total", func(t *testing.T) {
		inv := testInvoice(t)
		inv.GrandTotal = decimal.NewFromFloat(1180.49)
		inv.RoundedTotal = decimal.NewFromFloat(1180)

		assert.True(t, inv.PayableTotal().Equal(decimal.NewFromFloat(1180)))
	})

	t.Run("falls back to grand total", func(t *testing.T) {
		inv := testInvoice(t)
		inv.GrandTotal = decimal.NewFromFloat(1180.49)

		assert.True(t, inv.PayableTotal().Equal(decimal.NewFromFloat(1180.49)))
	})
}

func TestSalesInvoice_NeedsRoundOff(t *testing.T) {
	inv := testInvoice(t)

	inv.RoundingAdjustment = decimal.NewFromFloat(-0.49)
	assert.True(t, inv.NeedsRoundOff())

	inv.RoundingAdjustment = decimal.NewFromFloat(0.005)
	assert.False(t, inv.NeedsRoundOff())

	inv.RoundingAdjustment = decimal.Zero
	assert.False(t, inv.NeedsRoundOff())
}

func TestSalesInvoice_StockItemNames(t *testing.T) {
	inv := testInvoice(t)
	inv.Items = []InvoiceLine{
		{ItemCode: "WIDGET-A", ItemName: "Widget A"},
		{ItemCode: "WIDGET-B"},
	}

	assert.Equal(t, []string{"Widget A", "WIDGET-B"}, inv.StockItemNames())
}

func TestSalesInvoice_MarkSynced(t *testing.T) {
	inv := testInvoice(t)

	inv.MarkSynced("1042")

	assert.True(t, inv.TallySynced)
	assert.Equal(t, "1042", inv.TallyVoucherNumber)
	require.NotNil(t, inv.TallySyncedAt)
}

func TestSalesInvoice_AsTransaction(t *testing.T) {
	inv := testInvoice(t)
	inv.Items = []InvoiceLine{
		{ItemCode: "WIDGET-A", ItemName: "Widget A"},
	}

	doc := inv.AsTransaction()

	assert.Equal(t, TransactionSalesInvoice, doc.Kind)
	assert.Equal(t, "INV-0001", doc.Name)
	assert.Equal(t, "CUST-001", doc.Party)
	assert.Equal(t, "Acme Corp", doc.PartyName)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, "WIDGET-A", doc.Lines[0].ItemCode)
}
