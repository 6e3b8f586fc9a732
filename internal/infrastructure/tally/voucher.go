package tally

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tallybridge/backend/internal/domain/erp"
	"github.com/tallybridge/backend/internal/domain/master"
)

// VoucherLedgers names the ledgers a sales voucher posts to, resolved from
// configuration before the payload is built.
type VoucherLedgers struct {
	Sales    string
	CGST     string
	SGST     string
	IGST     string
	RoundOff string
	Godown   string
}

// BuildSalesVoucherPayload builds the Import envelope that books one
// submitted sales invoice as a Sales voucher. Tax lines follow the GST
// split: interstate sales post IGST, intrastate post CGST+SGST. The party
// ledger carries the payable total negated, Tally's debit convention for
// invoice view vouchers.
func BuildSalesVoucherPayload(inv *erp.SalesInvoice, company string, ledgers VoucherLedgers) string {
	partyLedger := inv.CustomerName
	if partyLedger == "" {
		partyLedger = inv.Customer
	}
	// The party ledger was created under its sanitized name; reference it
	// the same way or Tally reports it missing
	partyLedger = master.SanitizeName(partyLedger)
	state := supplyState(inv.PlaceOfSupply)
	cgst, sgst, igst := inv.TaxTotals()

	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<ENVELOPE>
 <HEADER>
  <TALLYREQUEST>Import Data</TALLYREQUEST>
 </HEADER>
 <BODY>
  <IMPORTDATA>
   <REQUESTDESC>
    <REPORTNAME>Vouchers</REPORTNAME>
    <STATICVARIABLES>
     <SVCURRENTCOMPANY>%s</SVCURRENTCOMPANY>
    </STATICVARIABLES>
   </REQUESTDESC>
   <REQUESTDATA>
    <TALLYMESSAGE xmlns:UDF="TallyUDF">
     <VOUCHER REMOTEID="" VCHKEY="" VCHTYPE="Sales" ACTION="Create" OBJVIEW="Invoice Voucher View">
      <ADDRESS.LIST TYPE="String">
       <ADDRESS>%s</ADDRESS>
      </ADDRESS.LIST>
      <BASICBUYERADDRESS.LIST TYPE="String">
       <BASICBUYERADDRESS>%s</BASICBUYERADDRESS>
      </BASICBUYERADDRESS.LIST>
      <OLDAUDITENTRYIDS.LIST TYPE="Number">
       <OLDAUDITENTRYIDS>-1</OLDAUDITENTRYIDS>
      </OLDAUDITENTRYIDS.LIST>
      <DATE>%s</DATE>
      <ISINVOICE>Yes</ISINVOICE>
      <STATENAME>%s</STATENAME>
      <COUNTRYOFRESIDENCE>India</COUNTRYOFRESIDENCE>
      <PARTYGSTIN>%s</PARTYGSTIN>
      <PLACEOFSUPPLY>%s</PLACEOFSUPPLY>
      <PARTYNAME>%s</PARTYNAME>
      <VOUCHERTYPENAME>Sales</VOUCHERTYPENAME>
      <VOUCHERNUMBER>%s</VOUCHERNUMBER>
      <PARTYLEDGERNAME>%s</PARTYLEDGERNAME>
      <PERSISTEDVIEW>Invoice Voucher View</PERSISTEDVIEW>
      <VCHGSTSTATUSISAPPLICABLE>Yes</VCHGSTSTATUSISAPPLICABLE>`,
		Escape(company),
		Escape(partyLedger), Escape(partyLedger),
		FormatDate(inv.PostingDate),
		Escape(state), Escape(inv.CustomerGSTIN), Escape(state),
		Escape(partyLedger), Escape(inv.Name), Escape(partyLedger))

	for _, line := range inv.Items {
		writeInventoryEntry(&b, line, ledgers)
	}

	// Party ledger first, negated
	fmt.Fprintf(&b, `
      <LEDGERENTRIES.LIST>
       <OLDAUDITENTRYIDS.LIST TYPE="Number">
        <OLDAUDITENTRYIDS>-1</OLDAUDITENTRYIDS>
       </OLDAUDITENTRYIDS.LIST>
       <LEDGERNAME>%s</LEDGERNAME>
       <ISDEEMEDPOSITIVE>Yes</ISDEEMEDPOSITIVE>
       <ISPARTYLEDGER>Yes</ISPARTYLEDGER>
       <ISLASTDEEMEDPOSITIVE>Yes</ISLASTDEEMEDPOSITIVE>
       <AMOUNT>%s</AMOUNT>
      </LEDGERENTRIES.LIST>`, Escape(partyLedger), FormatAmount(inv.PayableTotal().Neg()))

	if inv.Interstate() {
		if igst.IsPositive() {
			writeTaxEntry(&b, ledgers.IGST, igst)
		}
	} else {
		if cgst.IsPositive() {
			writeTaxEntry(&b, ledgers.CGST, cgst)
		}
		if sgst.IsPositive() {
			writeTaxEntry(&b, ledgers.SGST, sgst)
		}
	}

	if inv.NeedsRoundOff() {
		// Positive adjustment credits the round-off ledger, negative debits it
		sign := yesNo(inv.RoundingAdjustment.IsNegative())
		fmt.Fprintf(&b, `
      <LEDGERENTRIES.LIST>
       <ROUNDTYPE>Normal Rounding</ROUNDTYPE>
       <LEDGERNAME>%s</LEDGERNAME>
       <ISDEEMEDPOSITIVE>%s</ISDEEMEDPOSITIVE>
       <ISPARTYLEDGER>No</ISPARTYLEDGER>
       <ISLASTDEEMEDPOSITIVE>%s</ISLASTDEEMEDPOSITIVE>
       <ROUNDLIMIT> 1</ROUNDLIMIT>
       <AMOUNT>%s</AMOUNT>
       <VATEXPAMOUNT>%s</VATEXPAMOUNT>
      </LEDGERENTRIES.LIST>`,
			Escape(ledgers.RoundOff), sign, sign,
			FormatAmount(inv.RoundingAdjustment), FormatAmount(inv.RoundingAdjustment))
	}

	b.WriteString(`
     </VOUCHER>
    </TALLYMESSAGE>
   </REQUESTDATA>
  </IMPORTDATA>
 </BODY>
</ENVELOPE>`)
	return b.String()
}

// writeInventoryEntry emits one ALLINVENTORYENTRIES.LIST block for an
// invoice line: stock movement, batch allocation into the configured
// godown, the sales ledger allocation and the per-head GST rates.
func writeInventoryEntry(b *strings.Builder, line erp.InvoiceLine, ledgers VoucherLedgers) {
	itemName := line.ItemName
	if itemName == "" {
		itemName = line.ItemCode
	}
	itemName = master.SanitizeName(itemName)
	qty := fmt.Sprintf(" %s %s", line.Quantity.String(), line.UOM)
	classification := line.ItemGroup
	if classification == "" {
		classification = "Primary"
	}

	fmt.Fprintf(b, `
      <ALLINVENTORYENTRIES.LIST>
       <STOCKITEMNAME>%s</STOCKITEMNAME>
       <GSTOVRDNCLASSIFICATION>%s</GSTOVRDNCLASSIFICATION>
       <GSTOVRDNINELIGIBLEITC> Not Applicable</GSTOVRDNINELIGIBLEITC>
       <GSTOVRDNISREVCHARGEAPPL> Not Applicable</GSTOVRDNISREVCHARGEAPPL>
       <GSTOVRDNTAXABILITY>Taxable</GSTOVRDNTAXABILITY>
       <GSTSOURCETYPE>Stock Group</GSTSOURCETYPE>
       <HSNSOURCETYPE>Stock Group</HSNSOURCETYPE>
       <GSTOVRDNTYPEOFSUPPLY>Goods</GSTOVRDNTYPEOFSUPPLY>
       <GSTRATEINFERAPPLICABILITY>Use GST Classification</GSTRATEINFERAPPLICABILITY>
       <GSTHSNINFERAPPLICABILITY>Use GST Classification</GSTHSNINFERAPPLICABILITY>
       <HSNOVRDNCLASSIFICATION>%s</HSNOVRDNCLASSIFICATION>
       <ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE>
       <ISGSTASSESSABLEVALUEOVERRIDDEN>No</ISGSTASSESSABLEVALUEOVERRIDDEN>
       <RATE>%s/%s</RATE>
       <AMOUNT>%s</AMOUNT>
       <ACTUALQTY>%s</ACTUALQTY>
       <BILLEDQTY>%s</BILLEDQTY>
       <BATCHALLOCATIONS.LIST>
        <GODOWNNAME>%s</GODOWNNAME>
        <BATCHNAME>Primary Batch</BATCHNAME>
        <AMOUNT>%s</AMOUNT>
        <ACTUALQTY>%s</ACTUALQTY>
        <BILLEDQTY>%s</BILLEDQTY>
       </BATCHALLOCATIONS.LIST>
       <ACCOUNTINGALLOCATIONS.LIST>
        <LEDGERNAME>%s</LEDGERNAME>
        <ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE>
        <AMOUNT>%s</AMOUNT>
       </ACCOUNTINGALLOCATIONS.LIST>
       <RATEDETAILS.LIST>
        <GSTRATEDUTYHEAD>CGST</GSTRATEDUTYHEAD>
        <GSTRATEVALUATIONTYPE>Based on Value</GSTRATEVALUATIONTYPE>
        <GSTRATE> %s</GSTRATE>
       </RATEDETAILS.LIST>
       <RATEDETAILS.LIST>
        <GSTRATEDUTYHEAD>SGST/UTGST</GSTRATEDUTYHEAD>
        <GSTRATEVALUATIONTYPE>Based on Value</GSTRATEVALUATIONTYPE>
        <GSTRATE> %s</GSTRATE>
       </RATEDETAILS.LIST>
       <RATEDETAILS.LIST>
        <GSTRATEDUTYHEAD>IGST</GSTRATEDUTYHEAD>
        <GSTRATEVALUATIONTYPE>Based on Value</GSTRATEVALUATIONTYPE>
        <GSTRATE> %s</GSTRATE>
       </RATEDETAILS.LIST>
       <RATEDETAILS.LIST>
        <GSTRATEDUTYHEAD>Cess</GSTRATEDUTYHEAD>
        <GSTRATEVALUATIONTYPE> Not Applicable</GSTRATEVALUATIONTYPE>
       </RATEDETAILS.LIST>
       <RATEDETAILS.LIST>
        <GSTRATEDUTYHEAD>State Cess</GSTRATEDUTYHEAD>
        <GSTRATEVALUATIONTYPE>Based on Value</GSTRATEVALUATIONTYPE>
       </RATEDETAILS.LIST>
      </ALLINVENTORYENTRIES.LIST>`,
		Escape(itemName), Escape(classification), Escape(classification),
		line.Rate.String(), Escape(line.UOM),
		FormatAmount(line.Amount),
		Escape(qty), Escape(qty),
		Escape(ledgers.Godown), FormatAmount(line.Amount), Escape(qty), Escape(qty),
		Escape(ledgers.Sales), FormatAmount(line.Amount),
		FormatAmount(line.CGSTRate), FormatAmount(line.SGSTRate), FormatAmount(line.IGSTRate))
}

// writeTaxEntry emits one GST ledger credit line
func writeTaxEntry(b *strings.Builder, ledger string, amount decimal.Decimal) {
	fmt.Fprintf(b, `
      <LEDGERENTRIES.LIST>
       <LEDGERNAME>%s</LEDGERNAME>
       <ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE>
       <ISPARTYLEDGER>No</ISPARTYLEDGER>
       <AMOUNT>%s</AMOUNT>
       <VATEXPAMOUNT>%s</VATEXPAMOUNT>
      </LEDGERENTRIES.LIST>`, Escape(ledger), FormatAmount(amount), FormatAmount(amount))
}

// supplyState extracts the state name from an ERP place-of-supply value,
// which arrives as "09-Uttar Pradesh" or a bare state name.
func supplyState(placeOfSupply string) string {
	if placeOfSupply == "" {
		return "India"
	}
	if i := strings.Index(placeOfSupply, "-"); i >= 0 {
		return strings.TrimSpace(placeOfSupply[i+1:])
	}
	return strings.TrimSpace(placeOfSupply)
}
