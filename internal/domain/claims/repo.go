package claims

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence boundary for claims, line items, and status
// history. Every query is scoped by locationID; rows from other locations
// are invisible even when ids collide.
type Repository interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, locationID string, id uuid.UUID) (*Claim, error)
	List(ctx context.Context, locationID string, status ClaimStatus, limit, offset int) ([]*Claim, int, error)
	// Update writes mutable fields with a compare-and-swap on Version and
	// returns ConflictError when the stored version has moved on.
	Update(ctx context.Context, c *Claim) error
	Delete(ctx context.Context, locationID string, id uuid.UUID) error

	// NextClaimNumber atomically bumps the per-location claim sequence and
	// returns the formatted number.
	NextClaimNumber(ctx context.Context, locationID, defaultPrefix string) (string, error)

	AddLineItem(ctx context.Context, li *ClaimLineItem) error
	GetLineItems(ctx context.Context, claimID uuid.UUID) ([]*ClaimLineItem, error)
	DeleteLineItem(ctx context.Context, claimID, lineID uuid.UUID) error

	AppendHistory(ctx context.Context, h *ClaimStatusHistory) error
	GetHistory(ctx context.Context, claimID uuid.UUID) ([]*ClaimStatusHistory, error)
}
