package master

// Kind identifies a Tally master object class. The values match the
// collection names Tally exposes over its XML gateway.
type Kind string

const (
	KindGroup             Kind = "Group"
	KindLedger            Kind = "Ledger"
	KindStockGroup        Kind = "StockGroup"
	KindStockItem         Kind = "StockItem"
	KindGodown            Kind = "Godown"
	KindUnit              Kind = "Unit"
	KindGSTClassification Kind = "GSTClassification"
)

// AllKinds returns every kind the gateway is queried for, in refresh order.
func AllKinds() []Kind {
	return []Kind{
		KindGroup,
		KindLedger,
		KindStockGroup,
		KindStockItem,
		KindGodown,
		KindUnit,
		KindGSTClassification,
	}
}

// IsValid checks if the kind is a known Tally master class
func (k Kind) IsValid() bool {
	switch k {
	case KindGroup, KindLedger, KindStockGroup, KindStockItem,
		KindGodown, KindUnit, KindGSTClassification:
		return true
	}
	return false
}

// String returns the string representation
func (k Kind) String() string {
	return string(k)
}

// Collection returns the TDL collection / response element name for the kind
func (k Kind) Collection() string {
	switch k {
	case KindGroup:
		return "GROUP"
	case KindLedger:
		return "LEDGER"
	case KindStockGroup:
		return "STOCKGROUP"
	case KindStockItem:
		return "STOCKITEM"
	case KindGodown:
		return "GODOWN"
	case KindUnit:
		return "UNIT"
	case KindGSTClassification:
		return "GSTCLASSIFICATION"
	}
	return ""
}
