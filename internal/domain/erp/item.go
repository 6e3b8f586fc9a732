package erp

import (
	"github.com/tallybridge/backend/internal/domain/shared"
)

// Item mirrors an ERP item document
type Item struct {
	shared.BaseEntity
	ItemCode  string `gorm:"type:varchar(255);not null;uniqueIndex"`
	ItemName  string `gorm:"type:varchar(255)"`
	ItemGroup string `gorm:"type:varchar(255)"`
	StockUOM  string `gorm:"type:varchar(64)"`
	Disabled  bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "erp_items"
}

// NewItem mirrors an ERP item locally
func NewItem(itemCode, itemName, itemGroup string) (*Item, error) {
	if itemCode == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Item code cannot be empty")
	}
	return &Item{
		BaseEntity: shared.NewBaseEntity(),
		ItemCode:   itemCode,
		ItemName:   itemName,
		ItemGroup:  itemGroup,
	}, nil
}

// DisplayName returns the human name, falling back to the item code
func (i *Item) DisplayName() string {
	if i.ItemName != "" {
		return i.ItemName
	}
	return i.ItemCode
}
