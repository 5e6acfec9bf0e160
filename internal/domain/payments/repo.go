package payments

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence boundary for payments, allocation lines, and
// payers. Location scoping applies to every top-level lookup.
type Repository interface {
	CreatePayment(ctx context.Context, p *InsurancePayment) error
	GetPayment(ctx context.Context, locationID string, id uuid.UUID) (*InsurancePayment, error)
	ListPayments(ctx context.Context, locationID string, limit, offset int) ([]*InsurancePayment, int, error)

	AddAllocation(ctx context.Context, a *PaymentAllocation) error
	GetAllocations(ctx context.Context, paymentID uuid.UUID) ([]*PaymentAllocation, error)
	// MarkAllocationSync records the outcome of one upstream sync attempt.
	MarkAllocationSync(ctx context.Context, allocationID uuid.UUID, synced bool, syncErr *string) error

	CreatePayer(ctx context.Context, p *Payer) error
	GetPayer(ctx context.Context, locationID string, id uuid.UUID) (*Payer, error)
	ListPayers(ctx context.Context, locationID string, limit, offset int) ([]*Payer, int, error)
}
