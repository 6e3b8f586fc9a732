package master

import (
	"strings"

	"golang.org/x/text/cases"
)

// Tally rejects names containing markup characters and silently mangles
// ampersands, so target names are rewritten before any request is raised.
var tallyNameReplacer = strings.NewReplacer(
	"&", "and",
	"<", "",
	">", "",
	`"`, "",
	"'", "",
)

const (
	// MaxNameLength is the longest name Tally accepts for a master.
	MaxNameLength = 100
	// MaxDisplayLength bounds names shown in request lists and notifications.
	MaxDisplayLength = 140
)

// SanitizeName rewrites an ERP document name into a Tally-compliant
// master name. Names longer than MaxNameLength are truncated with an
// ellipsis so the result stays within the limit.
func SanitizeName(name string) string {
	name = tallyNameReplacer.Replace(strings.TrimSpace(name))
	if len(name) > MaxNameLength {
		name = name[:MaxNameLength-3] + "..."
	}
	return name
}

// TruncateDisplay bounds a name for display surfaces without applying
// character replacements.
func TruncateDisplay(name string) string {
	if len(name) > MaxDisplayLength-3 {
		return name[:MaxDisplayLength-3] + "..."
	}
	return name
}

// NormalizeForCompare prepares a name for equality checks against gateway
// responses: surrounding and repeated whitespace collapsed, then a Unicode
// case fold. Tally is case-insensitive about master names.
func NormalizeForCompare(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	return cases.Fold().String(collapsed)
}

// NamesEqual reports whether two master names refer to the same Tally object.
func NamesEqual(a, b string) bool {
	return NormalizeForCompare(a) == NormalizeForCompare(b)
}
