package tally

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuildLedgerPayload(t *testing.T) {
	t.Run("party ledger carries gst registration and mailing details", func(t *testing.T) {
		payload := BuildLedgerPayload(LedgerSpec{
			Name:         "Acme & Sons",
			Parent:       "Sundry Debtors",
			GSTIN:        "09AAACA1234F1Z5",
			State:        "Uttar Pradesh",
			Contact:      "R. Sharma",
			Mobile:       "9876543210",
			AddressLines: []string{"14 Industrial Estate", "Kanpur"},
			Pincode:      "208012",
		})

		assert.Contains(t, payload, `<LEDGER NAME="Acme &amp; Sons" RESERVEDNAME="">`)
		assert.Contains(t, payload, "<PARENT>Sundry Debtors</PARENT>")
		assert.Contains(t, payload, "<PRIORSTATENAME>Uttar Pradesh</PRIORSTATENAME>")
		assert.Contains(t, payload, "<PARTYGSTIN>09AAACA1234F1Z5</PARTYGSTIN>")
		assert.Contains(t, payload, "<LEDGSTREGDETAILS.LIST>")
		assert.Contains(t, payload, "<GSTREGISTRATIONTYPE>Regular</GSTREGISTRATIONTYPE>")
		assert.Contains(t, payload, "<LEDGERMOBILE>9876543210</LEDGERMOBILE>")
		assert.Contains(t, payload, "<ADDRESS>14 Industrial Estate</ADDRESS>")
		assert.Contains(t, payload, "<PINCODE>208012</PINCODE>")
		assert.Contains(t, payload, "<ISBILLWISEON>Yes</ISBILLWISEON>")
	})

	t.Run("plain ledger skips the optional sections", func(t *testing.T) {
		payload := BuildLedgerPayload(LedgerSpec{Name: "Round Off", Parent: "Indirect Expenses"})

		assert.NotContains(t, payload, "PARTYGSTIN")
		assert.NotContains(t, payload, "LEDGSTREGDETAILS")
		assert.NotContains(t, payload, "LEDMAILINGDETAILS")
		assert.NotContains(t, payload, "LEDGERCONTACT")
		assert.Contains(t, payload, "<COUNTRYOFRESIDENCE>India</COUNTRYOFRESIDENCE>")
	})

	t.Run("wraps in the all masters import envelope", func(t *testing.T) {
		payload := BuildLedgerPayload(LedgerSpec{Name: "Cash", Parent: "Cash-in-Hand"})

		assert.Contains(t, payload, "<TALLYREQUEST>Import</TALLYREQUEST>")
		assert.Contains(t, payload, "<ID>All Masters</ID>")
		assert.Contains(t, payload, "<IMPORTDUPS>@@DUPIGNORE</IMPORTDUPS>")
		assert.Contains(t, payload, `<TALLYMESSAGE xmlns:UDF="TallyUDF">`)
	})
}

func TestBuildGroupPayload(t *testing.T) {
	t.Run("revenue flag is rendered", func(t *testing.T) {
		payload := BuildGroupPayload(GroupSpec{Name: "Online Sales", Parent: "Sales Accounts", IsRevenue: true})

		assert.Contains(t, payload, `<GROUP NAME="Online Sales" ACTION="Create">`)
		assert.Contains(t, payload, "<PARENT>Sales Accounts</PARENT>")
		assert.Contains(t, payload, "<ISREVENUE>Yes</ISREVENUE>")
		assert.Contains(t, payload, "<AFFECTSSTOCK>No</AFFECTSSTOCK>")
	})

	t.Run("balance sheet group is not revenue", func(t *testing.T) {
		payload := BuildGroupPayload(GroupSpec{Name: "Overseas Debtors", Parent: "Sundry Debtors"})

		assert.Contains(t, payload, "<ISREVENUE>No</ISREVENUE>")
	})
}

func TestBuildStockGroupPayload(t *testing.T) {
	t.Run("classification is attached when configured", func(t *testing.T) {
		payload := BuildStockGroupPayload(StockGroupSpec{
			Name:              "Raw Materials",
			Parent:            "Primary",
			GSTClassification: "GST 18%",
		})

		assert.Contains(t, payload, `<STOCKGROUP NAME="Raw Materials" ACTION="Create">`)
		assert.Contains(t, payload, "<HSNMASTERNAME>GST 18%</HSNMASTERNAME>")
		assert.Contains(t, payload, "<SRCOFGSTDETAILS>Use GST Classification</SRCOFGSTDETAILS>")
	})

	t.Run("no classification means no gst block", func(t *testing.T) {
		payload := BuildStockGroupPayload(StockGroupSpec{Name: "Consumables", Parent: "Primary"})

		assert.NotContains(t, payload, "GSTDETAILS")
	})
}

func TestBuildStockItemPayload(t *testing.T) {
	t.Run("full item with alternate packing", func(t *testing.T) {
		payload := BuildStockItemPayload(StockItemSpec{
			Name:              "Steel Rod 8mm",
			Alias:             "ITM-00042",
			Parent:            "Raw Materials",
			BaseUnits:         "Nos",
			GSTClassification: "GST 18%",
			AlternateUnit:     "Box",
			Denominator:       decimal.NewFromInt(12),
		})

		assert.Contains(t, payload, `<STOCKITEM NAME="Steel Rod 8mm" ACTION="Create">`)
		assert.Contains(t, payload, "<BASEUNITS>Nos</BASEUNITS>")
		assert.Contains(t, payload, "<ADDITIONALUNITS>Box</ADDITIONALUNITS>")
		assert.Contains(t, payload, "<DENOMINATOR> 12</DENOMINATOR>")
		assert.Contains(t, payload, "<SRCOFGSTDETAILS>Use GST Classification</SRCOFGSTDETAILS>")
		// The ERP item code rides along as an alias
		assert.Contains(t, payload, "<NAME>ITM-00042</NAME>")
	})

	t.Run("defaults gst to the company level", func(t *testing.T) {
		payload := BuildStockItemPayload(StockItemSpec{
			Name:      "Packing Tape",
			Parent:    "Consumables",
			BaseUnits: "Nos",
		})

		assert.Contains(t, payload, "<SRCOFGSTDETAILS>As per Company/Stock Group</SRCOFGSTDETAILS>")
		assert.NotContains(t, payload, "ADDITIONALUNITS")
	})
}

func TestBuildUnitPayload(t *testing.T) {
	payload := BuildUnitPayload(UnitSpec{Symbol: "Kg", FormalName: "Kilograms", DecimalPlaces: 3})

	assert.Contains(t, payload, `<UNIT NAME="Kg" ACTION="Create">`)
	assert.Contains(t, payload, "<ISSIMPLEUNIT>Yes</ISSIMPLEUNIT>")
	assert.Contains(t, payload, "<FORMALNAME>Kilograms</FORMALNAME>")
	assert.Contains(t, payload, "<DECIMALPLACES>3</DECIMALPLACES>")
}

func TestBuildGodownPayload(t *testing.T) {
	t.Run("parent defaults to primary", func(t *testing.T) {
		payload := BuildGodownPayload(GodownSpec{Name: "Main Location"})

		assert.Contains(t, payload, `<GODOWN NAME="Main Location" ACTION="Create">`)
		assert.Contains(t, payload, "<PARENT>Primary</PARENT>")
		assert.Contains(t, payload, "<HASNOSPACE>No</HASNOSPACE>")
	})

	t.Run("explicit parent is kept", func(t *testing.T) {
		payload := BuildGodownPayload(GodownSpec{Name: "Rack A1", Parent: "Main Location"})

		assert.Contains(t, payload, "<PARENT>Main Location</PARENT>")
	})
}
