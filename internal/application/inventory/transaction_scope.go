package inventory

import (
	"context"

	"github.com/pharmstock/backend/internal/domain/inventory"
	"github.com/pharmstock/backend/internal/domain/procurement"
)

// TransactionScope provides transactional access to inventory repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the stock-side repositories
// within one transaction. Lot rows are only mutated while the owning
// aggregate's row lock is held, so holding the aggregate through
// InventoryRepo for the duration covers the lots too. The receipt repository
// is included so receipt processing can flip the receipt to COMPLETED in the
// same transaction that creates its lots.
type TransactionalRepositories interface {
	// InventoryRepo returns the inventory aggregate repository scoped to the current transaction
	InventoryRepo() inventory.InventoryRepository
	// LotRepo returns the drug lot repository scoped to the current transaction
	LotRepo() inventory.DrugLotRepository
	// TransactionRepo returns the append-only transaction log repository scoped to the current transaction
	TransactionRepo() inventory.InventoryTransactionRepository
	// ReceiptRepo returns the goods receipt repository scoped to the current transaction
	ReceiptRepo() procurement.GoodsReceiptRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests.
type NoOpTransactionScope struct {
	inventoryRepo   inventory.InventoryRepository
	lotRepo         inventory.DrugLotRepository
	transactionRepo inventory.InventoryTransactionRepository
	receiptRepo     procurement.GoodsReceiptRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	inventoryRepo inventory.InventoryRepository,
	lotRepo inventory.DrugLotRepository,
	transactionRepo inventory.InventoryTransactionRepository,
	receiptRepo procurement.GoodsReceiptRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		inventoryRepo:   inventoryRepo,
		lotRepo:         lotRepo,
		transactionRepo: transactionRepo,
		receiptRepo:     receiptRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// InventoryRepo returns the inventory aggregate repository
func (s *NoOpTransactionScope) InventoryRepo() inventory.InventoryRepository {
	return s.inventoryRepo
}

// LotRepo returns the drug lot repository
func (s *NoOpTransactionScope) LotRepo() inventory.DrugLotRepository {
	return s.lotRepo
}

// TransactionRepo returns the transaction log repository
func (s *NoOpTransactionScope) TransactionRepo() inventory.InventoryTransactionRepository {
	return s.transactionRepo
}

// ReceiptRepo returns the goods receipt repository
func (s *NoOpTransactionScope) ReceiptRepo() procurement.GoodsReceiptRepository {
	return s.receiptRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
