package tally

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tally's gateway chokes on raw markup characters inside element text, so
// every piece of free text is entity-escaped before it enters a payload.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape rewrites free text for safe embedding in a gateway payload
func Escape(s string) string {
	return xmlEscaper.Replace(s)
}

// FormatDate renders a date the way the gateway expects, as YYYYMMDD
func FormatDate(t time.Time) string {
	return t.Format("20060102")
}

// FormatAmount renders a monetary amount with exactly two decimal places
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// yesNo renders a Tally boolean flag
func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// applicableFrom returns the start of the Indian fiscal year containing t,
// used as the APPLICABLEFROM date on GST and mailing detail blocks.
func applicableFrom(t time.Time) string {
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	return FormatDate(time.Date(year, time.April, 1, 0, 0, 0, 0, t.Location()))
}
