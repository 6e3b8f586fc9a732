package tally

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/tallybridge/backend/internal/domain/erp"
)

var testLedgers = VoucherLedgers{
	Sales:    "Sales Account",
	CGST:     "CGST Output",
	SGST:     "SGST Output",
	IGST:     "IGST Output",
	RoundOff: "Round Off",
	Godown:   "Main Location",
}

func intrastateInvoice() *erp.SalesInvoice {
	return &erp.SalesInvoice{
		Name:               "SINV-0007",
		Customer:           "CUST-001",
		CustomerName:       "Acme Industries",
		Company:            "Demo Traders",
		PostingDate:        time.Date(2026, 4, 12, 0, 0, 0, 0, time.UTC),
		DocStatus:          erp.DocStatusSubmitted,
		PlaceOfSupply:      "09-Uttar Pradesh",
		CompanyGSTIN:       "09BBBCB5678G1Z3",
		CustomerGSTIN:      "09AAACA1234F1Z5",
		GrandTotal:         decimal.RequireFromString("1180.40"),
		RoundedTotal:       decimal.NewFromInt(1180),
		RoundingAdjustment: decimal.RequireFromString("-0.40"),
		Items: datatypes.JSONSlice[erp.InvoiceLine]{
			{
				ItemCode:  "ITM-00042",
				ItemName:  "Steel Rod 8mm",
				ItemGroup: "Raw Materials",
				Quantity:  decimal.NewFromInt(10),
				UOM:       "Nos",
				Rate:      decimal.NewFromInt(100),
				Amount:    decimal.NewFromInt(1000),
				CGSTRate:  decimal.NewFromInt(9),
				SGSTRate:  decimal.NewFromInt(9),
			},
		},
		Taxes: datatypes.JSONSlice[erp.TaxLine]{
			{AccountHead: "CGST Output", GSTTaxType: "cgst", TaxAmount: decimal.RequireFromString("90.20")},
			{AccountHead: "SGST Output", GSTTaxType: "sgst", TaxAmount: decimal.RequireFromString("90.20")},
		},
	}
}

func TestBuildSalesVoucherPayload(t *testing.T) {
	t.Run("intrastate sale posts cgst and sgst", func(t *testing.T) {
		payload := BuildSalesVoucherPayload(intrastateInvoice(), "Demo Traders", testLedgers)

		assert.Contains(t, payload, `VCHTYPE="Sales" ACTION="Create" OBJVIEW="Invoice Voucher View"`)
		assert.Contains(t, payload, "<SVCURRENTCOMPANY>Demo Traders</SVCURRENTCOMPANY>")
		assert.Contains(t, payload, "<DATE>20260412</DATE>")
		assert.Contains(t, payload, "<VOUCHERNUMBER>SINV-0007</VOUCHERNUMBER>")
		assert.Contains(t, payload, "<LEDGERNAME>CGST Output</LEDGERNAME>")
		assert.Contains(t, payload, "<LEDGERNAME>SGST Output</LEDGERNAME>")
		assert.NotContains(t, payload, "IGST Output")
	})

	t.Run("interstate sale posts igst instead", func(t *testing.T) {
		inv := intrastateInvoice()
		inv.CustomerGSTIN = "27AAACA1234F1Z5"
		inv.PlaceOfSupply = "27-Maharashtra"
		inv.Taxes = datatypes.JSONSlice[erp.TaxLine]{
			{AccountHead: "IGST Output", GSTTaxType: "igst", TaxAmount: decimal.RequireFromString("180.40")},
		}

		payload := BuildSalesVoucherPayload(inv, "Demo Traders", testLedgers)

		assert.Contains(t, payload, "<STATENAME>Maharashtra</STATENAME>")
		assert.Contains(t, payload, "<LEDGERNAME>IGST Output</LEDGERNAME>")
		assert.Contains(t, payload, "<AMOUNT>180.40</AMOUNT>")
		assert.NotContains(t, payload, "CGST Output")
		assert.NotContains(t, payload, "SGST Output")
	})

	t.Run("party ledger carries the payable total negated", func(t *testing.T) {
		payload := BuildSalesVoucherPayload(intrastateInvoice(), "Demo Traders", testLedgers)

		assert.Contains(t, payload, "<PARTYLEDGERNAME>Acme Industries</PARTYLEDGERNAME>")
		assert.Contains(t, payload, "<AMOUNT>-1180.00</AMOUNT>")
		assert.Contains(t, payload, "<ISPARTYLEDGER>Yes</ISPARTYLEDGER>")
	})

	t.Run("rounding adjustment becomes a round off line", func(t *testing.T) {
		payload := BuildSalesVoucherPayload(intrastateInvoice(), "Demo Traders", testLedgers)

		assert.Contains(t, payload, "<ROUNDTYPE>Normal Rounding</ROUNDTYPE>")
		assert.Contains(t, payload, "<LEDGERNAME>Round Off</LEDGERNAME>")
		assert.Contains(t, payload, "<AMOUNT>-0.40</AMOUNT>")
	})

	t.Run("negligible adjustment skips the round off line", func(t *testing.T) {
		inv := intrastateInvoice()
		inv.RoundingAdjustment = decimal.RequireFromString("0.004")

		payload := BuildSalesVoucherPayload(inv, "Demo Traders", testLedgers)

		assert.NotContains(t, payload, "ROUNDTYPE")
		assert.NotContains(t, payload, "Round Off")
	})

	t.Run("inventory lines allocate stock and revenue", func(t *testing.T) {
		payload := BuildSalesVoucherPayload(intrastateInvoice(), "Demo Traders", testLedgers)

		assert.Contains(t, payload, "<STOCKITEMNAME>Steel Rod 8mm</STOCKITEMNAME>")
		assert.Contains(t, payload, "<RATE>100/Nos</RATE>")
		assert.Contains(t, payload, "<BILLEDQTY> 10 Nos</BILLEDQTY>")
		assert.Contains(t, payload, "<GODOWNNAME>Main Location</GODOWNNAME>")
		assert.Contains(t, payload, "<LEDGERNAME>Sales Account</LEDGERNAME>")
		assert.Contains(t, payload, "<GSTOVRDNCLASSIFICATION>Raw Materials</GSTOVRDNCLASSIFICATION>")
	})

	t.Run("falls back to the customer code when the display name is empty", func(t *testing.T) {
		inv := intrastateInvoice()
		inv.CustomerName = ""

		payload := BuildSalesVoucherPayload(inv, "Demo Traders", testLedgers)

		assert.Contains(t, payload, "<PARTYLEDGERNAME>CUST-001</PARTYLEDGERNAME>")
	})

	t.Run("references masters by their sanitized names", func(t *testing.T) {
		inv := intrastateInvoice()
		inv.CustomerName = "Ravi & Sons"
		inv.Items[0].ItemName = "Rod <8mm>"

		payload := BuildSalesVoucherPayload(inv, "Demo Traders", testLedgers)

		assert.Contains(t, payload, "<PARTYLEDGERNAME>Ravi and Sons</PARTYLEDGERNAME>")
		assert.Contains(t, payload, "<STOCKITEMNAME>Rod 8mm</STOCKITEMNAME>")
	})
}

func TestSupplyState(t *testing.T) {
	assert.Equal(t, "Uttar Pradesh", supplyState("09-Uttar Pradesh"))
	assert.Equal(t, "Kerala", supplyState("Kerala"))
	assert.Equal(t, "India", supplyState(""))
}
