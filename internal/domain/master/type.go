package master

// Type is the master category a creation request asks for. It is the
// request-side vocabulary; Kind is the Tally-side object class the
// category maps onto (a Customer becomes a Ledger, an Item a StockItem).
type Type string

const (
	TypeCustomer   Type = "Customer"
	TypeSupplier   Type = "Supplier"
	TypeItem       Type = "Item"
	TypeGroup      Type = "Group"
	TypeStockGroup Type = "Stock Group"
	TypeUnit       Type = "Unit"
	TypeGodown     Type = "Godown"
)

// AllTypes returns the supported request categories
func AllTypes() []Type {
	return []Type{
		TypeCustomer,
		TypeSupplier,
		TypeItem,
		TypeGroup,
		TypeStockGroup,
		TypeUnit,
		TypeGodown,
	}
}

// IsValid checks if the type is a supported master category
func (t Type) IsValid() bool {
	switch t {
	case TypeCustomer, TypeSupplier, TypeItem, TypeGroup,
		TypeStockGroup, TypeUnit, TypeGodown:
		return true
	}
	return false
}

// String returns the string representation
func (t Type) String() string {
	return string(t)
}

// Kind returns the Tally object class this category is created as
func (t Type) Kind() Kind {
	switch t {
	case TypeCustomer, TypeSupplier:
		return KindLedger
	case TypeItem:
		return KindStockItem
	case TypeGroup:
		return KindGroup
	case TypeStockGroup:
		return KindStockGroup
	case TypeUnit:
		return KindUnit
	case TypeGodown:
		return KindGodown
	}
	return ""
}
