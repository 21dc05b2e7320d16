package persistence

import (
	"context"

	appcommission "github.com/ticketbook/backend/internal/application/commission"
	"github.com/ticketbook/backend/internal/domain/commission"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Each Execute call is one database transaction at the server's default
// isolation (read committed on PostgreSQL); the book row lock taken through
// BookRepo().FindByIDForUpdate serializes recomputations of the same book.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// A commit that loses to a concurrent writer reports shared.ErrConcurrencyConflict.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appcommission.TransactionalRepositories) error) error {
	return translateError(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	}))
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// BookRepo returns the book repository scoped to the current transaction.
func (r *gormTransactionalRepositories) BookRepo() commission.BookRepository {
	return NewGormBookRepository(r.tx)
}

// DistributionRepo returns the distribution repository scoped to the current transaction.
func (r *gormTransactionalRepositories) DistributionRepo() commission.DistributionRepository {
	return NewGormDistributionRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentRepo() commission.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// RecordRepo returns the commission record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RecordRepo() commission.CommissionRecordRepository {
	return NewGormCommissionRecordRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appcommission.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appcommission.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
