package erp

import (
	"context"
)

// DocumentStore is the local mirror of ERP documents. The submit hooks
// upsert into it; the resolver and the voucher push only ever read from
// it, never from the ERP directly.
type DocumentStore interface {
	// GetCustomer finds a customer by its document name
	GetCustomer(ctx context.Context, name string) (*Customer, error)

	// UpsertCustomer inserts or replaces a customer mirror row by name
	UpsertCustomer(ctx context.Context, customer *Customer) error

	// GetSupplier finds a supplier by its document name
	GetSupplier(ctx context.Context, name string) (*Supplier, error)

	// UpsertSupplier inserts or replaces a supplier mirror row by name
	UpsertSupplier(ctx context.Context, supplier *Supplier) error

	// GetItem finds an item by its item code
	GetItem(ctx context.Context, itemCode string) (*Item, error)

	// UpsertItem inserts or replaces an item mirror row by item code
	UpsertItem(ctx context.Context, item *Item) error

	// GetAccount finds a chart-of-accounts row by its document name
	GetAccount(ctx context.Context, name string) (*Account, error)

	// UpsertAccount inserts or replaces an account mirror row by name
	UpsertAccount(ctx context.Context, account *Account) error

	// GetSalesInvoice finds a sales invoice by its document name
	GetSalesInvoice(ctx context.Context, name string) (*SalesInvoice, error)

	// UpsertSalesInvoice inserts or replaces an invoice mirror row by name
	UpsertSalesInvoice(ctx context.Context, invoice *SalesInvoice) error

	// SaveSalesInvoice persists marker changes on an already mirrored invoice
	SaveSalesInvoice(ctx context.Context, invoice *SalesInvoice) error

	// GetTransaction returns the resolver projection of any supported
	// transaction kind. Sales invoices are projected from their full mirror.
	GetTransaction(ctx context.Context, kind TransactionKind, name string) (*TransactionDocument, error)

	// UpsertTransaction inserts or replaces a projection row by kind and name.
	// Sales invoices go through UpsertSalesInvoice instead.
	UpsertTransaction(ctx context.Context, doc *TransactionDocument) error
}
