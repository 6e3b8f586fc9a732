package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tallybridge/backend/internal/domain/erp"
	"github.com/tallybridge/backend/internal/domain/shared"
)

// GormDocumentStore implements the local ERP document mirror using GORM.
// Submit hooks upsert rows keyed by the ERP document name; readers never
// go back to the ERP.
type GormDocumentStore struct {
	db *gorm.DB
}

// NewGormDocumentStore creates a new GormDocumentStore
func NewGormDocumentStore(db *gorm.DB) *GormDocumentStore {
	return &GormDocumentStore{db: db}
}

// GetCustomer finds a customer by its document name
func (s *GormDocumentStore) GetCustomer(ctx context.Context, name string) (*erp.Customer, error) {
	var customer erp.Customer
	if err := s.db.WithContext(ctx).First(&customer, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

// UpsertCustomer inserts or replaces a customer mirror row by name
func (s *GormDocumentStore) UpsertCustomer(ctx context.Context, customer *erp.Customer) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"customer_name",
			"customer_group",
			"territory",
			"gstin",
			"accounts",
			"updated_at",
		}),
	}).Create(customer).Error
}

// GetSupplier finds a supplier by its document name
func (s *GormDocumentStore) GetSupplier(ctx context.Context, name string) (*erp.Supplier, error) {
	var supplier erp.Supplier
	if err := s.db.WithContext(ctx).First(&supplier, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// UpsertSupplier inserts or replaces a supplier mirror row by name
func (s *GormDocumentStore) UpsertSupplier(ctx context.Context, supplier *erp.Supplier) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"supplier_name",
			"supplier_group",
			"gstin",
			"accounts",
			"updated_at",
		}),
	}).Create(supplier).Error
}

// GetItem finds an item by its item code
func (s *GormDocumentStore) GetItem(ctx context.Context, itemCode string) (*erp.Item, error) {
	var item erp.Item
	if err := s.db.WithContext(ctx).First(&item, "item_code = ?", itemCode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// UpsertItem inserts or replaces an item mirror row by item code
func (s *GormDocumentStore) UpsertItem(ctx context.Context, item *erp.Item) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"item_name",
			"item_group",
			"stock_uom",
			"disabled",
			"updated_at",
		}),
	}).Create(item).Error
}

// GetAccount finds a chart-of-accounts row by its document name
func (s *GormDocumentStore) GetAccount(ctx context.Context, name string) (*erp.Account, error) {
	var account erp.Account
	if err := s.db.WithContext(ctx).First(&account, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// UpsertAccount inserts or replaces an account mirror row by name
func (s *GormDocumentStore) UpsertAccount(ctx context.Context, account *erp.Account) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_name",
			"parent_account",
			"company",
			"updated_at",
		}),
	}).Create(account).Error
}

// GetSalesInvoice finds a sales invoice by its document name
func (s *GormDocumentStore) GetSalesInvoice(ctx context.Context, name string) (*erp.SalesInvoice, error) {
	var invoice erp.SalesInvoice
	if err := s.db.WithContext(ctx).First(&invoice, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// UpsertSalesInvoice inserts or replaces an invoice mirror row by name.
// Sync markers survive the upsert so a re-submitted document does not
// forget it was already pushed.
func (s *GormDocumentStore) UpsertSalesInvoice(ctx context.Context, invoice *erp.SalesInvoice) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"customer",
			"customer_name",
			"company",
			"posting_date",
			"doc_status",
			"place_of_supply",
			"company_gstin",
			"customer_gstin",
			"total",
			"grand_total",
			"rounded_total",
			"rounding_adjustment",
			"items",
			"taxes",
			"updated_at",
		}),
	}).Create(invoice).Error
}

// SaveSalesInvoice persists marker changes on an already mirrored invoice
func (s *GormDocumentStore) SaveSalesInvoice(ctx context.Context, invoice *erp.SalesInvoice) error {
	return s.db.WithContext(ctx).Save(invoice).Error
}

// GetTransaction returns the resolver projection of any supported
// transaction kind
func (s *GormDocumentStore) GetTransaction(ctx context.Context, kind erp.TransactionKind, name string) (*erp.TransactionDocument, error) {
	if kind == erp.TransactionSalesInvoice {
		invoice, err := s.GetSalesInvoice(ctx, name)
		if err != nil {
			return nil, err
		}
		return invoice.AsTransaction(), nil
	}

	var doc erp.TransactionDocument
	if err := s.db.WithContext(ctx).
		Where("kind = ? AND name = ?", kind, name).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// UpsertTransaction inserts or replaces a projection row by kind and name
func (s *GormDocumentStore) UpsertTransaction(ctx context.Context, doc *erp.TransactionDocument) error {
	if doc.Kind == erp.TransactionSalesInvoice {
		return shared.NewDomainError("INVALID_INPUT", "Sales invoices are mirrored through UpsertSalesInvoice")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "kind"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company",
			"party",
			"party_name",
			"lines",
			"updated_at",
		}),
	}).Create(doc).Error
}

// Ensure GormDocumentStore implements DocumentStore
var _ erp.DocumentStore = (*GormDocumentStore)(nil)
