package tally

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerSpec is the material for a party ledger payload. Optional fields
// are omitted from the payload when empty; Tally fills its own defaults.
type LedgerSpec struct {
	Name         string
	Parent       string
	GSTIN        string
	State        string
	Country      string
	Contact      string
	Mobile       string
	AddressLines []string
	Pincode      string
}

// BuildLedgerPayload builds the All Masters envelope that creates one
// party ledger. Billwise tracking is always on so invoices can be settled
// against references.
func BuildLedgerPayload(s LedgerSpec) string {
	country := s.Country
	if country == "" {
		country = "India"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `
        <LEDGER NAME="%s" RESERVEDNAME="">
          <PARENT>%s</PARENT>`, Escape(s.Name), Escape(s.Parent))
	if s.State != "" {
		fmt.Fprintf(&b, `
          <PRIORSTATENAME>%s</PRIORSTATENAME>`, Escape(s.State))
	}
	fmt.Fprintf(&b, `
          <COUNTRYOFRESIDENCE>%s</COUNTRYOFRESIDENCE>`, Escape(country))
	if s.Contact != "" {
		fmt.Fprintf(&b, `
          <LEDGERCONTACT>%s</LEDGERCONTACT>`, Escape(s.Contact))
	}
	if s.Mobile != "" {
		fmt.Fprintf(&b, `
          <LEDGERMOBILE>%s</LEDGERMOBILE>
          <LEDGERCOUNTRYISDCODE>+91</LEDGERCOUNTRYISDCODE>`, Escape(s.Mobile))
	}
	if s.GSTIN != "" {
		fmt.Fprintf(&b, `
          <PARTYGSTIN>%s</PARTYGSTIN>`, Escape(s.GSTIN))
	}
	b.WriteString(`
          <ISBILLWISEON>Yes</ISBILLWISEON>
          <ISCOSTCENTRESON>No</ISCOSTCENTRESON>
          <ISINTERESTON>No</ISINTERESTON>`)
	writeLanguageName(&b, s.Name)
	if s.GSTIN != "" {
		fmt.Fprintf(&b, `
          <LEDGSTREGDETAILS.LIST>
            <APPLICABLEFROM>%s</APPLICABLEFROM>
            <GSTREGISTRATIONTYPE>Regular</GSTREGISTRATIONTYPE>
            <PLACEOFSUPPLY>%s</PLACEOFSUPPLY>
            <GSTIN>%s</GSTIN>
          </LEDGSTREGDETAILS.LIST>`, applicableFrom(time.Now()), Escape(s.State), Escape(s.GSTIN))
	}
	if len(s.AddressLines) > 0 || s.Pincode != "" {
		b.WriteString(`
          <LEDMAILINGDETAILS.LIST>
            <ADDRESS.LIST TYPE="String">`)
		for _, line := range s.AddressLines {
			fmt.Fprintf(&b, `
              <ADDRESS>%s</ADDRESS>`, Escape(line))
		}
		fmt.Fprintf(&b, `
            </ADDRESS.LIST>
            <APPLICABLEFROM>%s</APPLICABLEFROM>
            <PINCODE>%s</PINCODE>
            <MAILINGNAME>%s</MAILINGNAME>
            <STATE>%s</STATE>
            <COUNTRY>%s</COUNTRY>
          </LEDMAILINGDETAILS.LIST>`,
			applicableFrom(time.Now()), Escape(s.Pincode), Escape(s.Name), Escape(s.State), Escape(country))
	}
	b.WriteString(`
        </LEDGER>`)
	return masterImportEnvelope(b.String())
}

// GroupSpec is the material for an account group payload
type GroupSpec struct {
	Name      string
	Parent    string
	IsRevenue bool
}

// BuildGroupPayload builds the All Masters envelope that creates one
// account group under an existing parent group.
func BuildGroupPayload(s GroupSpec) string {
	msg := fmt.Sprintf(`
        <GROUP NAME="%s" ACTION="Create">
          <NAME>%s</NAME>
          <PARENT>%s</PARENT>
          <ISSUBLEDGER>No</ISSUBLEDGER>
          <ISBILLWISEON>No</ISBILLWISEON>
          <ISADDABLE>No</ISADDABLE>
          <ISREVENUE>%s</ISREVENUE>
          <AFFECTSSTOCK>No</AFFECTSSTOCK>
        </GROUP>`, Escape(s.Name), Escape(s.Name), Escape(s.Parent), yesNo(s.IsRevenue))
	return masterImportEnvelope(msg)
}

// StockGroupSpec is the material for a stock group payload. When
// GSTClassification names an existing classification master the group
// inherits its rates; otherwise GST details default to the company level.
type StockGroupSpec struct {
	Name              string
	Parent            string
	GSTClassification string
}

// BuildStockGroupPayload builds the All Masters envelope that creates one
// stock group.
func BuildStockGroupPayload(s StockGroupSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
        <STOCKGROUP NAME="%s" ACTION="Create">
          <NAME>%s</NAME>
          <PARENT>%s</PARENT>`, Escape(s.Name), Escape(s.Name), Escape(s.Parent))
	if s.GSTClassification != "" {
		fmt.Fprintf(&b, `
          <GSTDETAILS.LIST>
            <APPLICABLEFROM>%s</APPLICABLEFROM>
            <HSNMASTERNAME>%s</HSNMASTERNAME>
            <SRCOFGSTDETAILS>Use GST Classification</SRCOFGSTDETAILS>
          </GSTDETAILS.LIST>`, applicableFrom(time.Now()), Escape(s.GSTClassification))
	}
	b.WriteString(`
        </STOCKGROUP>`)
	return masterImportEnvelope(b.String())
}

// StockItemSpec is the material for a stock item payload. Alias carries the
// ERP item code as a second language name. AlternateUnit and Denominator
// express one alternate packing, e.g. 1 Box = 6 Pcs.
type StockItemSpec struct {
	Name              string
	Alias             string
	Parent            string
	BaseUnits         string
	GSTClassification string
	AlternateUnit     string
	Denominator       decimal.Decimal
}

// BuildStockItemPayload builds the All Masters envelope that creates one
// stock item.
func BuildStockItemPayload(s StockItemSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
        <STOCKITEM NAME="%s" ACTION="Create">
          <PARENT>%s</PARENT>
          <GSTAPPLICABLE>Applicable</GSTAPPLICABLE>
          <GSTTYPEOFSUPPLY>Goods</GSTTYPEOFSUPPLY>
          <COSTINGMETHOD>Avg. Cost</COSTINGMETHOD>
          <VALUATIONMETHOD>Avg. Price</VALUATIONMETHOD>
          <BASEUNITS>%s</BASEUNITS>`, Escape(s.Name), Escape(s.Parent), Escape(s.BaseUnits))
	if s.AlternateUnit != "" {
		denom := s.Denominator
		if denom.IsZero() {
			denom = decimal.NewFromInt(1)
		}
		fmt.Fprintf(&b, `
          <ADDITIONALUNITS>%s</ADDITIONALUNITS>
          <DENOMINATOR> %s</DENOMINATOR>
          <CONVERSION> 1</CONVERSION>`, Escape(s.AlternateUnit), denom.String())
	}
	from := applicableFrom(time.Now())
	if s.GSTClassification != "" {
		fmt.Fprintf(&b, `
          <GSTDETAILS.LIST>
            <APPLICABLEFROM>%s</APPLICABLEFROM>
            <HSNMASTERNAME>%s</HSNMASTERNAME>
            <SRCOFGSTDETAILS>Use GST Classification</SRCOFGSTDETAILS>
          </GSTDETAILS.LIST>
          <HSNDETAILS.LIST>
            <APPLICABLEFROM>%s</APPLICABLEFROM>
            <HSNCLASSIFICATIONNAME>%s</HSNCLASSIFICATIONNAME>
            <SRCOFHSNDETAILS>Use GST Classification</SRCOFHSNDETAILS>
          </HSNDETAILS.LIST>`, from, Escape(s.GSTClassification), from, Escape(s.GSTClassification))
	} else {
		fmt.Fprintf(&b, `
          <GSTDETAILS.LIST>
            <APPLICABLEFROM>%s</APPLICABLEFROM>
            <SRCOFGSTDETAILS>As per Company/Stock Group</SRCOFGSTDETAILS>
          </GSTDETAILS.LIST>
          <HSNDETAILS.LIST>
            <APPLICABLEFROM>%s</APPLICABLEFROM>
            <SRCOFHSNDETAILS>As per Company/Stock Group</SRCOFHSNDETAILS>
          </HSNDETAILS.LIST>`, from, from)
	}
	writeLanguageName(&b, s.Name, s.Alias)
	b.WriteString(`
        </STOCKITEM>`)
	return masterImportEnvelope(b.String())
}

// UnitSpec is the material for a unit of measure payload
type UnitSpec struct {
	Symbol        string
	FormalName    string
	DecimalPlaces int
}

// BuildUnitPayload builds the All Masters envelope that creates one simple
// unit of measure.
func BuildUnitPayload(s UnitSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
        <UNIT NAME="%s" ACTION="Create">
          <NAME>%s</NAME>
          <ISSIMPLEUNIT>Yes</ISSIMPLEUNIT>`, Escape(s.Symbol), Escape(s.Symbol))
	if s.FormalName != "" {
		fmt.Fprintf(&b, `
          <FORMALNAME>%s</FORMALNAME>`, Escape(s.FormalName))
	}
	fmt.Fprintf(&b, `
          <DECIMALPLACES>%d</DECIMALPLACES>
        </UNIT>`, s.DecimalPlaces)
	return masterImportEnvelope(b.String())
}

// GodownSpec is the material for a godown (warehouse location) payload
type GodownSpec struct {
	Name   string
	Parent string
}

// BuildGodownPayload builds the All Masters envelope that creates one godown
func BuildGodownPayload(s GodownSpec) string {
	parent := s.Parent
	if parent == "" {
		parent = "Primary"
	}
	msg := fmt.Sprintf(`
        <GODOWN NAME="%s" ACTION="Create">
          <NAME>%s</NAME>
          <PARENT>%s</PARENT>
          <HASNOSPACE>No</HASNOSPACE>
          <HASNOSTOCK>No</HASNOSTOCK>
          <ISEXTERNAL>No</ISEXTERNAL>
          <ISINTERNAL>No</ISINTERNAL>
        </GODOWN>`, Escape(s.Name), Escape(s.Name), Escape(parent))
	return masterImportEnvelope(msg)
}

// writeLanguageName emits the LANGUAGENAME.LIST block. Additional names
// become Tally aliases of the first.
func writeLanguageName(b *strings.Builder, names ...string) {
	b.WriteString(`
          <LANGUAGENAME.LIST>
            <NAME.LIST TYPE="String">`)
	for _, n := range names {
		if n == "" {
			continue
		}
		fmt.Fprintf(b, `
              <NAME>%s</NAME>`, Escape(n))
	}
	b.WriteString(`
            </NAME.LIST>
            <LANGUAGEID>1033</LANGUAGEID>
          </LANGUAGENAME.LIST>`)
}
