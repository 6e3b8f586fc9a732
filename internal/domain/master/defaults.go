package master

// Built-in Tally groups used when nothing better is configured
const (
	GroupSundryDebtors   = "Sundry Debtors"
	GroupSundryCreditors = "Sundry Creditors"
	GroupPrimary         = "Primary"
)

// itemGroupMap maps ERP item groups onto the stock groups a standard
// Tally chart ships with. Anything outside the map falls through to the
// configured default.
var itemGroupMap = map[string]string{
	"Raw Material":   "Raw Materials",
	"Finished Goods": "Finished Products",
	"Consumables":    "Consumables",
	"Services":       "Services",
}

// ParentDefaults carries the configured fallback parent groups. Zero
// values mean "use the Tally built-in".
type ParentDefaults struct {
	CustomerGroup string
	SupplierGroup string
	StockGroup    string
}

// ParentFor resolves the default parent group for a master category.
// ok=false means the category takes no parent (units, godowns) and the
// caller must not invent one.
func (d ParentDefaults) ParentFor(t Type) (parent string, ok bool) {
	switch t {
	case TypeCustomer:
		if d.CustomerGroup != "" {
			return d.CustomerGroup, true
		}
		return GroupSundryDebtors, true
	case TypeSupplier:
		if d.SupplierGroup != "" {
			return d.SupplierGroup, true
		}
		return GroupSundryCreditors, true
	case TypeItem:
		if d.StockGroup != "" {
			return d.StockGroup, true
		}
		return GroupPrimary, true
	case TypeGroup, TypeStockGroup:
		return GroupPrimary, true
	}
	return "", false
}

// StockGroupForItemGroup resolves the Tally stock group for an ERP item
// group: fixed map first, then the configured default, then Primary.
func (d ParentDefaults) StockGroupForItemGroup(itemGroup string) string {
	if mapped, ok := itemGroupMap[itemGroup]; ok {
		return mapped
	}
	if d.StockGroup != "" {
		return d.StockGroup
	}
	return GroupPrimary
}
