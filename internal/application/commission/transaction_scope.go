package commission

import (
	"context"

	"github.com/ticketbook/backend/internal/domain/commission"
)

// TransactionScope provides transactional access to commission repositories.
// All repository operations inside Execute share one database transaction and
// are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories of one book recomputation.
//
//   - BookRepo: locks the book row so concurrent recomputations of the same book serialize.
//   - PaymentRepo: read-only here; payments are written by the payment flow.
//   - RecordRepo: the only repository the engine writes to.
type TransactionalRepositories interface {
	BookRepo() commission.BookRepository
	DistributionRepo() commission.DistributionRepository
	PaymentRepo() commission.PaymentRepository
	RecordRepo() commission.CommissionRecordRepository
}

// NoOpTransactionScope runs fn without a transaction. Used in tests.
type NoOpTransactionScope struct {
	bookRepo         commission.BookRepository
	distributionRepo commission.DistributionRepository
	paymentRepo      commission.PaymentRepository
	recordRepo       commission.CommissionRecordRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	bookRepo commission.BookRepository,
	distributionRepo commission.DistributionRepository,
	paymentRepo commission.PaymentRepository,
	recordRepo commission.CommissionRecordRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		bookRepo:         bookRepo,
		distributionRepo: distributionRepo,
		paymentRepo:      paymentRepo,
		recordRepo:       recordRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BookRepo returns the book repository.
func (s *NoOpTransactionScope) BookRepo() commission.BookRepository {
	return s.bookRepo
}

// DistributionRepo returns the distribution repository.
func (s *NoOpTransactionScope) DistributionRepo() commission.DistributionRepository {
	return s.distributionRepo
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() commission.PaymentRepository {
	return s.paymentRepo
}

// RecordRepo returns the commission record repository.
func (s *NoOpTransactionScope) RecordRepo() commission.CommissionRecordRepository {
	return s.recordRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
