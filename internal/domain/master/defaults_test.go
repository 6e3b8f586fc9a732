package master

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParentDefaults_ParentFor(t *testing.T) {
	t.Run("uses built-ins when nothing configured", func(t *testing.T) {
		d := ParentDefaults{}

		tests := []struct {
			typ    Type
			parent string
			ok     bool
		}{
			{TypeCustomer, "Sundry Debtors", true},
			{TypeSupplier, "Sundry Creditors", true},
			{TypeItem, "Primary", true},
			{TypeGroup, "Primary", true},
			{TypeStockGroup, "Primary", true},
			{TypeUnit, "", false},
			{TypeGodown, "", false},
		}

		for _, tt := range tests {
			parent, ok := d.ParentFor(tt.typ)
			assert.Equal(t, tt.parent, parent, "type %s", tt.typ)
			assert.Equal(t, tt.ok, ok, "type %s", tt.typ)
		}
	})

	t.Run("configured groups win over built-ins", func(t *testing.T) {
		d := ParentDefaults{
			CustomerGroup: "Trade Receivables",
			SupplierGroup: "Trade Payables",
			StockGroup:    "Traded Goods",
		}

		parent, ok := d.ParentFor(TypeCustomer)
		assert.True(t, ok)
		assert.Equal(t, "Trade Receivables", parent)

		parent, ok = d.ParentFor(TypeSupplier)
		assert.True(t, ok)
		assert.Equal(t, "Trade Payables", parent)

		parent, ok = d.ParentFor(TypeItem)
		assert.True(t, ok)
		assert.Equal(t, "Traded Goods", parent)
	})

	t.Run("units and godowns never get an invented parent", func(t *testing.T) {
		d := ParentDefaults{CustomerGroup: "X", SupplierGroup: "Y", StockGroup: "Z"}

		_, ok := d.ParentFor(TypeUnit)
		assert.False(t, ok)
		_, ok = d.ParentFor(TypeGodown)
		assert.False(t, ok)
	})
}

func TestParentDefaults_StockGroupForItemGroup(t *testing.T) {
	tests := []struct {
		name      string
		itemGroup string
		defaults  ParentDefaults
		expected  string
	}{
		{"raw material maps to raw materials", "Raw Material", ParentDefaults{}, "Raw Materials"},
		{"finished goods maps to finished products", "Finished Goods", ParentDefaults{}, "Finished Products"},
		{"consumables maps to consumables", "Consumables", ParentDefaults{}, "Consumables"},
		{"services maps to services", "Services", ParentDefaults{}, "Services"},
		{"unmapped falls back to configured default", "Electronics", ParentDefaults{StockGroup: "Traded Goods"}, "Traded Goods"},
		{"unmapped with no default falls back to primary", "Electronics", ParentDefaults{}, "Primary"},
		{"fixed map wins over configured default", "Raw Material", ParentDefaults{StockGroup: "Traded Goods"}, "Raw Materials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.defaults.StockGroupForItemGroup(tt.itemGroup))
		})
	}
}

func TestCachedMaster_Freshness(t *testing.T) {
	now := time.Now()

	fresh := NewCachedMaster(KindLedger, "Acme Corp", "Sundry Debtors", SyncSourceAuto)
	assert.True(t, fresh.IsFresh(now))

	stale := NewCachedMaster(KindLedger, "Old Corp", "Sundry Debtors", SyncSourceAuto)
	stale.LastSyncedAt = now.Add(-25 * time.Hour)
	assert.False(t, stale.IsFresh(now))
	assert.Greater(t, stale.Age(now), FreshnessTTL)

	neverSynced := &CachedMaster{Kind: KindLedger, Name: "Ghost"}
	assert.False(t, neverSynced.IsFresh(now))
}
