package master

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_IsValid(t *testing.T) {
	tests := []struct {
		kind    Kind
		isValid bool
	}{
		{KindGroup, true},
		{KindLedger, true},
		{KindStockGroup, true},
		{KindStockItem, true},
		{KindGodown, true},
		{KindUnit, true},
		{KindGSTClassification, true},
		{Kind("Voucher"), false},
		{Kind(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.kind.IsValid())
		})
	}
}

func TestKind_Collection(t *testing.T) {
	tests := []struct {
		kind       Kind
		collection string
	}{
		{KindGroup, "GROUP"},
		{KindLedger, "LEDGER"},
		{KindStockGroup, "STOCKGROUP"},
		{KindStockItem, "STOCKITEM"},
		{KindGodown, "GODOWN"},
		{KindUnit, "UNIT"},
		{KindGSTClassification, "GSTCLASSIFICATION"},
		{Kind("bogus"), ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.collection, tt.kind.Collection())
		})
	}
}

func TestAllKinds_AreValid(t *testing.T) {
	kinds := AllKinds()
	assert.Len(t, kinds, 7)
	for _, k := range kinds {
		assert.True(t, k.IsValid(), "kind %s should be valid", k)
		assert.NotEmpty(t, k.Collection())
	}
}

func TestType_Kind(t *testing.T) {
	tests := []struct {
		typ  Type
		kind Kind
	}{
		{TypeCustomer, KindLedger},
		{TypeSupplier, KindLedger},
		{TypeItem, KindStockItem},
		{TypeGroup, KindGroup},
		{TypeStockGroup, KindStockGroup},
		{TypeUnit, KindUnit},
		{TypeGodown, KindGodown},
		{Type("Voucher"), Kind("")},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.typ.Kind())
		})
	}
}

func TestType_IsValid(t *testing.T) {
	for _, typ := range AllTypes() {
		assert.True(t, typ.IsValid(), "type %s should be valid", typ)
	}
	assert.False(t, Type("Warehouse").IsValid())
	assert.False(t, Type("").IsValid())
}
