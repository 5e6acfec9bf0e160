package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/caresuite/claims-api/internal/platform/db"
	"github.com/caresuite/claims-api/internal/platform/errs"
	"github.com/caresuite/claims-api/internal/platform/invoicing"
)

// ClaimPaymentApplier applies an allocated amount to a claim's paid total.
// Satisfied by the claims service.
type ClaimPaymentApplier interface {
	ApplyPayment(ctx context.Context, locationID string, claimID uuid.UUID, amount float64) error
}

// Service is the payment allocator: it validates a payment against the
// upstream invoices, persists it atomically, and then pushes each allocation
// line upstream best-effort.
type Service struct {
	repo      Repository
	invoicing invoicing.Client
	claims    ClaimPaymentApplier
	pool      *pgxpool.Pool
	log       zerolog.Logger
}

func NewService(repo Repository, inv invoicing.Client, claims ClaimPaymentApplier, pool *pgxpool.Pool, log zerolog.Logger) *Service {
	return &Service{repo: repo, invoicing: inv, claims: claims, pool: pool, log: log}
}

// AllocationInput is one requested allocation line.
type AllocationInput struct {
	InvoiceRef    string     `json:"invoice_ref"`
	ClaimID       *uuid.UUID `json:"claim_id,omitempty"`
	InsurancePaid float64    `json:"insurance_paid"`
	WriteOff      float64    `json:"write_off"`
}

// AllocatePaymentInput is the full allocation request.
type AllocatePaymentInput struct {
	PayerID       uuid.UUID         `json:"payer_id"`
	ClientID      string            `json:"client_id"`
	PaymentDate   time.Time         `json:"payment_date"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	PaymentNumber *string           `json:"payment_number,omitempty"`
	TotalAmount   float64           `json:"total_amount"`
	Allocations   []AllocationInput `json:"allocations"`
}

// Line sync outcomes.
const (
	LineSynced  = "synced"
	LineError   = "error"
	LineSkipped = "skipped"
)

// Report outcomes.
const (
	OutcomeComplete = "complete"
	OutcomePartial  = "partial"
	OutcomeError    = "error"
)

// LineResult reports the fate of one allocation line.
type LineResult struct {
	InvoiceRef    string  `json:"invoice_ref"`
	InsurancePaid float64 `json:"insurance_paid"`
	ClientOwes    float64 `json:"client_owes"`
	Status        string  `json:"status"`
	Error         string  `json:"error,omitempty"`
	Warning       string  `json:"warning,omitempty"`
}

// AllocationReport is returned to the caller after an allocation. The
// payment itself is durable even when some lines failed to sync.
type AllocationReport struct {
	PaymentID   uuid.UUID    `json:"payment_id"`
	Outcome     string       `json:"outcome"`
	Unallocated float64      `json:"unallocated"`
	Lines       []LineResult `json:"lines"`
}

func (s *Service) validate(in *AllocatePaymentInput) error {
	if in.TotalAmount <= 0 {
		return errs.NewValidation("total_amount must be positive")
	}
	if in.PayerID == uuid.Nil {
		return errs.NewValidation("payer_id is required")
	}
	if len(in.Allocations) == 0 {
		return errs.NewValidation("at least one allocation line is required")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = MethodOther
	}
	if !validMethods[in.PaymentMethod] {
		return errs.NewValidation(fmt.Sprintf("invalid payment_method: %s", in.PaymentMethod))
	}
	for i, a := range in.Allocations {
		if a.InvoiceRef == "" {
			return errs.NewValidation(fmt.Sprintf("allocation line %d is missing invoice_ref", i+1))
		}
		if a.InsurancePaid < 0 || a.WriteOff < 0 {
			return errs.NewValidation(fmt.Sprintf("allocation line %d has a negative amount", i+1))
		}
	}
	return nil
}

// Allocate runs the full allocation: validate against upstream invoices,
// persist payment and lines in one transaction, then sync each line. All
// validation happens before any write; sync failures after persistence are
// collected per line, never rolled back.
func (s *Service) Allocate(ctx context.Context, locationID string, in *AllocatePaymentInput) (*AllocationReport, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetPayer(ctx, locationID, in.PayerID); err != nil {
		return nil, err
	}

	// Fetch billed amounts and run the per-line checks before touching
	// storage or the upstream system.
	type pendingLine struct {
		alloc   *PaymentAllocation
		warning string
	}
	pending := make([]pendingLine, 0, len(in.Allocations))
	var allocatedSum float64
	for i, a := range in.Allocations {
		inv, err := s.invoicing.GetInvoice(ctx, locationID, a.InvoiceRef)
		if err != nil {
			return nil, err
		}
		if a.InsurancePaid > inv.Total {
			return nil, errs.NewValidation(fmt.Sprintf(
				"line %d: insurance paid %.2f cannot exceed billed amount %.2f for invoice %s",
				i+1, a.InsurancePaid, inv.Total, a.InvoiceRef))
		}
		clientOwes := inv.Total - a.InsurancePaid - a.WriteOff
		var warning string
		if clientOwes < 0 {
			warning = fmt.Sprintf("client owes is negative (%.2f); write-off exceeds the remaining balance", clientOwes)
		}
		pending = append(pending, pendingLine{
			alloc: &PaymentAllocation{
				InvoiceRef:    a.InvoiceRef,
				ClaimID:       a.ClaimID,
				BilledAmount:  inv.Total,
				InsurancePaid: a.InsurancePaid,
				WriteOff:      a.WriteOff,
				ClientOwes:    clientOwes,
			},
			warning: warning,
		})
		allocatedSum += a.InsurancePaid
	}

	unallocated := in.TotalAmount - allocatedSum
	if unallocated < 0 {
		return nil, errs.NewValidation(fmt.Sprintf(
			"allocated %.2f exceeds payment total %.2f", allocatedSum, in.TotalAmount))
	}

	payment := &InsurancePayment{
		LocationID:    locationID,
		PayerID:       in.PayerID,
		ClientID:      in.ClientID,
		PaymentDate:   in.PaymentDate,
		PaymentMethod: in.PaymentMethod,
		PaymentNumber: in.PaymentNumber,
		TotalAmount:   in.TotalAmount,
	}
	err := db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		if err := s.repo.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		for _, pl := range pending {
			pl.alloc.PaymentID = payment.ID
			if err := s.repo.AddAllocation(ctx, pl.alloc); err != nil {
				return fmt.Errorf("create allocation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &AllocationReport{PaymentID: payment.ID, Unallocated: unallocated}
	var failed int
	for _, pl := range pending {
		line := s.syncLine(ctx, locationID, payment, pl.alloc)
		line.Warning = pl.warning
		if line.Status == LineError {
			failed++
		}
		report.Lines = append(report.Lines, line)
	}
	switch {
	case failed == 0:
		report.Outcome = OutcomeComplete
	case failed < len(pending):
		report.Outcome = OutcomePartial
	default:
		report.Outcome = OutcomeError
	}
	return report, nil
}

// syncLine pushes one allocation line upstream and, when the line references
// a claim, applies the amount to the claim's paid total. The persisted
// synced flag and the idempotency key keep retries from double-recording.
func (s *Service) syncLine(ctx context.Context, locationID string, payment *InsurancePayment, a *PaymentAllocation) LineResult {
	result := LineResult{
		InvoiceRef:    a.InvoiceRef,
		InsurancePaid: a.InsurancePaid,
		ClientOwes:    a.ClientOwes,
	}
	if a.InsurancePaid <= 0 {
		result.Status = LineSkipped
		return result
	}

	notes := fmt.Sprintf("insurance payment %s", payment.ID)
	if payment.PaymentNumber != nil && *payment.PaymentNumber != "" {
		notes = fmt.Sprintf("%s (%s %s)", notes, payment.PaymentMethod, *payment.PaymentNumber)
	}
	err := s.invoicing.RecordPayment(ctx, locationID, a.InvoiceRef, invoicing.RecordPaymentRequest{
		Amount:         a.InsurancePaid,
		Notes:          notes,
		IdempotencyKey: invoicing.PaymentIdempotencyKey(payment.ID.String(), a.InvoiceRef),
	})
	if err != nil {
		syncErr := &errs.ExternalSyncError{InvoiceRef: a.InvoiceRef, Err: err}
		s.log.Error().Err(err).
			Str("location_id", locationID).
			Str("payment_id", payment.ID.String()).
			Str("invoice_ref", a.InvoiceRef).
			Msg("allocation line sync failed")
		msg := syncErr.Error()
		if markErr := s.repo.MarkAllocationSync(ctx, a.ID, false, &msg); markErr != nil {
			s.log.Error().Err(markErr).Str("allocation_id", a.ID.String()).Msg("recording sync failure")
		}
		result.Status = LineError
		result.Error = msg
		return result
	}

	if err := s.repo.MarkAllocationSync(ctx, a.ID, true, nil); err != nil {
		s.log.Error().Err(err).Str("allocation_id", a.ID.String()).Msg("recording sync success")
	}
	if a.ClaimID != nil && s.claims != nil {
		if err := s.claims.ApplyPayment(ctx, locationID, *a.ClaimID, a.InsurancePaid); err != nil {
			s.log.Warn().Err(err).
				Str("claim_id", a.ClaimID.String()).
				Str("payment_id", payment.ID.String()).
				Msg("applying allocation to claim failed")
			result.Warning = fmt.Sprintf("synced, but applying to claim failed: %v", err)
		}
	}
	result.Status = LineSynced
	return result
}

// RetrySync re-sends the unsynced lines of a persisted payment. Lines that
// already synced are skipped; the same idempotency keys are reused.
func (s *Service) RetrySync(ctx context.Context, locationID string, paymentID uuid.UUID) (*AllocationReport, error) {
	payment, err := s.repo.GetPayment(ctx, locationID, paymentID)
	if err != nil {
		return nil, err
	}
	allocations, err := s.repo.GetAllocations(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	report := &AllocationReport{PaymentID: payment.ID}
	var failed, attempted int
	for _, a := range allocations {
		if a.Synced {
			report.Lines = append(report.Lines, LineResult{
				InvoiceRef:    a.InvoiceRef,
				InsurancePaid: a.InsurancePaid,
				ClientOwes:    a.ClientOwes,
				Status:        LineSkipped,
			})
			continue
		}
		attempted++
		line := s.syncLine(ctx, locationID, payment, a)
		if line.Status == LineError {
			failed++
		}
		report.Lines = append(report.Lines, line)
	}
	switch {
	case failed == 0:
		report.Outcome = OutcomeComplete
	case failed < attempted:
		report.Outcome = OutcomePartial
	default:
		report.Outcome = OutcomeError
	}
	return report, nil
}

// PaymentDetail is a payment with its allocation lines.
type PaymentDetail struct {
	InsurancePayment
	Allocations []*PaymentAllocation `json:"allocations"`
}

func (s *Service) GetPayment(ctx context.Context, locationID string, id uuid.UUID) (*PaymentDetail, error) {
	p, err := s.repo.GetPayment(ctx, locationID, id)
	if err != nil {
		return nil, err
	}
	allocations, err := s.repo.GetAllocations(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PaymentDetail{InsurancePayment: *p, Allocations: allocations}, nil
}

func (s *Service) ListPayments(ctx context.Context, locationID string, limit, offset int) ([]*InsurancePayment, int, error) {
	return s.repo.ListPayments(ctx, locationID, limit, offset)
}

// -- Payers --

func (s *Service) CreatePayer(ctx context.Context, locationID string, p *Payer) error {
	if p.Name == "" {
		return errs.NewValidation("name is required")
	}
	p.LocationID = locationID
	return s.repo.CreatePayer(ctx, p)
}

func (s *Service) GetPayer(ctx context.Context, locationID string, id uuid.UUID) (*Payer, error) {
	return s.repo.GetPayer(ctx, locationID, id)
}

func (s *Service) ListPayers(ctx context.Context, locationID string, limit, offset int) ([]*Payer, int, error) {
	return s.repo.ListPayers(ctx, locationID, limit, offset)
}
