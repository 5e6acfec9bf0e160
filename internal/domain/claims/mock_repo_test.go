package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caresuite/claims-api/internal/platform/errs"
)

// mockRepo is an in-memory Repository for service tests.
type mockRepo struct {
	claims    map[uuid.UUID]*Claim
	lineItems map[uuid.UUID][]*ClaimLineItem
	history   map[uuid.UUID][]*ClaimStatusHistory
	sequences map[string]int64

	failCreate bool
	failUpdate bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		claims:    make(map[uuid.UUID]*Claim),
		lineItems: make(map[uuid.UUID][]*ClaimLineItem),
		history:   make(map[uuid.UUID][]*ClaimStatusHistory),
		sequences: make(map[string]int64),
	}
}

func (m *mockRepo) Create(ctx context.Context, c *Claim) error {
	if m.failCreate {
		return fmt.Errorf("create failed")
	}
	c.ID = uuid.New()
	c.Version = 1
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.claims[c.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, locationID string, id uuid.UUID) (*Claim, error) {
	c, ok := m.claims[id]
	if !ok || c.LocationID != locationID {
		return nil, errs.NewNotFound("claim", id.String())
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) List(ctx context.Context, locationID string, status ClaimStatus, limit, offset int) ([]*Claim, int, error) {
	var items []*Claim
	for _, c := range m.claims {
		if c.LocationID != locationID {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		cp := *c
		items = append(items, &cp)
	}
	return items, len(items), nil
}

func (m *mockRepo) Update(ctx context.Context, c *Claim) error {
	if m.failUpdate {
		return fmt.Errorf("update failed")
	}
	stored, ok := m.claims[c.ID]
	if !ok || stored.LocationID != c.LocationID || stored.Version != c.Version {
		return &errs.ConflictError{Resource: "claim", ID: c.ID.String()}
	}
	c.Version++
	c.UpdatedAt = time.Now()
	cp := *c
	m.claims[c.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, locationID string, id uuid.UUID) error {
	c, ok := m.claims[id]
	if !ok || c.LocationID != locationID {
		return errs.NewNotFound("claim", id.String())
	}
	delete(m.claims, id)
	delete(m.lineItems, id)
	return nil
}

func (m *mockRepo) NextClaimNumber(ctx context.Context, locationID, defaultPrefix string) (string, error) {
	m.sequences[locationID]++
	return fmt.Sprintf("%s-%06d", defaultPrefix, m.sequences[locationID]), nil
}

func (m *mockRepo) AddLineItem(ctx context.Context, li *ClaimLineItem) error {
	li.ID = uuid.New()
	li.CreatedAt = time.Now()
	cp := *li
	m.lineItems[li.ClaimID] = append(m.lineItems[li.ClaimID], &cp)
	return nil
}

func (m *mockRepo) GetLineItems(ctx context.Context, claimID uuid.UUID) ([]*ClaimLineItem, error) {
	return m.lineItems[claimID], nil
}

func (m *mockRepo) DeleteLineItem(ctx context.Context, claimID, lineID uuid.UUID) error {
	items := m.lineItems[claimID]
	for i, li := range items {
		if li.ID == lineID {
			m.lineItems[claimID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return errs.NewNotFound("line item", lineID.String())
}

func (m *mockRepo) AppendHistory(ctx context.Context, h *ClaimStatusHistory) error {
	h.ID = uuid.New()
	h.ChangedAt = time.Now()
	cp := *h
	m.history[h.ClaimID] = append(m.history[h.ClaimID], &cp)
	return nil
}

func (m *mockRepo) GetHistory(ctx context.Context, claimID uuid.UUID) ([]*ClaimStatusHistory, error) {
	return m.history[claimID], nil
}
