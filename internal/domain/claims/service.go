package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/caresuite/claims-api/internal/platform/db"
	"github.com/caresuite/claims-api/internal/platform/errs"
)

// Service owns claim CRUD, line items, and the status lifecycle. Status
// changes only happen through Transition so the history trail stays
// consistent with the transition table.
type Service struct {
	repo          Repository
	pool          *pgxpool.Pool
	defaultPrefix string
	log           zerolog.Logger
}

func NewService(repo Repository, pool *pgxpool.Pool, defaultPrefix string, log zerolog.Logger) *Service {
	return &Service{repo: repo, pool: pool, defaultPrefix: defaultPrefix, log: log}
}

func validateLineItem(li *ClaimLineItem) error {
	if li.ProcedureCode == "" {
		return errs.NewValidation("procedure_code is required")
	}
	if li.ChargeAmount < 0 {
		return errs.NewValidation("charge_amount must not be negative")
	}
	if li.Units < 1 {
		return errs.NewValidation("units must be at least 1")
	}
	if li.DiagnosisPointer < 1 || li.DiagnosisPointer > MaxDiagnosisCodes {
		return errs.NewValidation(fmt.Sprintf("diagnosis_pointer must be between 1 and %d", MaxDiagnosisCodes))
	}
	if li.ServiceDate.IsZero() {
		return errs.NewValidation("service_date is required")
	}
	return nil
}

func validateClaim(c *Claim) error {
	var fields []string
	if c.PatientFirstName == "" {
		fields = append(fields, "patient_first_name")
	}
	if c.PatientLastName == "" {
		fields = append(fields, "patient_last_name")
	}
	if len(fields) > 0 {
		return errs.NewValidation("claim is missing required fields", fields...)
	}
	if c.Relationship != "" && !validRelationships[c.Relationship] {
		return errs.NewValidation(fmt.Sprintf("invalid relationship_to_insured: %s", c.Relationship))
	}
	if c.InsuranceType != "" && !validInsuranceTypes[c.InsuranceType] {
		return errs.NewValidation(fmt.Sprintf("invalid insurance_type: %s", c.InsuranceType))
	}
	if len(c.DiagnosisCodes) > MaxDiagnosisCodes {
		return errs.NewValidation(fmt.Sprintf("at most %d diagnosis codes are allowed", MaxDiagnosisCodes))
	}
	if c.TotalAmount < 0 || c.PaidAmount < 0 {
		return errs.NewValidation("amounts must not be negative")
	}
	if c.PaidAmount > c.TotalAmount {
		return errs.NewValidation("paid_amount cannot exceed total_amount")
	}
	return nil
}

// CreateClaim persists a new draft claim, its initial line items, and the
// opening history entry in one transaction. The claim number is generated
// from the location's prefix and sequence.
func (s *Service) CreateClaim(ctx context.Context, locationID string, c *Claim, lines []*ClaimLineItem) error {
	c.LocationID = locationID
	c.Status = StatusDraft
	c.Version = 0
	c.PaidAmount = 0
	if c.Relationship == "" {
		c.Relationship = RelationshipSelf
	}
	if c.InsuranceType == "" {
		c.InsuranceType = InsuranceOther
	}
	if err := validateClaim(c); err != nil {
		return err
	}
	for _, li := range lines {
		if err := validateLineItem(li); err != nil {
			return err
		}
	}

	return db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		number, err := s.repo.NextClaimNumber(ctx, locationID, s.defaultPrefix)
		if err != nil {
			return fmt.Errorf("generate claim number: %w", err)
		}
		c.ClaimNumber = number

		if err := s.repo.Create(ctx, c); err != nil {
			return fmt.Errorf("create claim: %w", err)
		}
		for _, li := range lines {
			li.ClaimID = c.ID
			if err := s.repo.AddLineItem(ctx, li); err != nil {
				return fmt.Errorf("create line item: %w", err)
			}
		}
		return s.repo.AppendHistory(ctx, &ClaimStatusHistory{
			ClaimID:  c.ID,
			ToStatus: StatusDraft,
		})
	})
}

func (s *Service) GetClaim(ctx context.Context, locationID string, id uuid.UUID) (*Claim, error) {
	return s.repo.GetByID(ctx, locationID, id)
}

func (s *Service) ListClaims(ctx context.Context, locationID string, status ClaimStatus, limit, offset int) ([]*Claim, int, error) {
	if status != "" && !validStatuses[status] {
		return nil, 0, errs.NewValidation(fmt.Sprintf("unknown claim status %q", status))
	}
	return s.repo.List(ctx, locationID, status, limit, offset)
}

// UpdateClaimInput is a partial update. Nil fields are left untouched.
// Status is present only so an attempted change can be rejected: status moves
// through Transition.
type UpdateClaimInput struct {
	Version int `json:"version"`

	Status *ClaimStatus `json:"status,omitempty"`

	PatientFirstName *string    `json:"patient_first_name,omitempty"`
	PatientLastName  *string    `json:"patient_last_name,omitempty"`
	PatientDOB       *time.Time `json:"patient_dob,omitempty"`
	PatientSex       *string    `json:"patient_sex,omitempty"`
	PatientAddress   *string    `json:"patient_address,omitempty"`
	PatientCity      *string    `json:"patient_city,omitempty"`
	PatientState     *string    `json:"patient_state,omitempty"`
	PatientZip       *string    `json:"patient_zip,omitempty"`
	PatientPhone     *string    `json:"patient_phone,omitempty"`

	InsuredFirstName *string       `json:"insured_first_name,omitempty"`
	InsuredLastName  *string       `json:"insured_last_name,omitempty"`
	InsuredDOB       *time.Time    `json:"insured_dob,omitempty"`
	InsuredSex       *string       `json:"insured_sex,omitempty"`
	InsuredAddress   *string       `json:"insured_address,omitempty"`
	InsuredCity      *string       `json:"insured_city,omitempty"`
	InsuredState     *string       `json:"insured_state,omitempty"`
	InsuredZip       *string       `json:"insured_zip,omitempty"`
	Relationship     *Relationship `json:"relationship_to_insured,omitempty"`

	InsuranceType *InsuranceType `json:"insurance_type,omitempty"`
	MemberID      *string        `json:"member_id,omitempty"`
	GroupNumber   *string        `json:"group_number,omitempty"`

	DiagnosisCodes *[]string `json:"diagnosis_codes,omitempty"`

	TotalAmount *float64 `json:"total_amount,omitempty"`

	BillingProviderName    *string `json:"billing_provider_name,omitempty"`
	BillingProviderAddress *string `json:"billing_provider_address,omitempty"`
	BillingProviderTaxID   *string `json:"billing_provider_tax_id,omitempty"`
	FacilityName           *string `json:"facility_name,omitempty"`
	FacilityAddress        *string `json:"facility_address,omitempty"`
	FacilityNPI            *string `json:"facility_npi,omitempty"`
	RenderingProviderNPI   *string `json:"rendering_provider_npi,omitempty"`
}

func (in *UpdateClaimInput) apply(c *Claim) {
	setStr := func(dst **string, src *string) {
		if src != nil {
			*dst = src
		}
	}
	if in.PatientFirstName != nil {
		c.PatientFirstName = *in.PatientFirstName
	}
	if in.PatientLastName != nil {
		c.PatientLastName = *in.PatientLastName
	}
	if in.PatientDOB != nil {
		c.PatientDOB = in.PatientDOB
	}
	setStr(&c.PatientSex, in.PatientSex)
	setStr(&c.PatientAddress, in.PatientAddress)
	setStr(&c.PatientCity, in.PatientCity)
	setStr(&c.PatientState, in.PatientState)
	setStr(&c.PatientZip, in.PatientZip)
	setStr(&c.PatientPhone, in.PatientPhone)
	setStr(&c.InsuredFirstName, in.InsuredFirstName)
	setStr(&c.InsuredLastName, in.InsuredLastName)
	if in.InsuredDOB != nil {
		c.InsuredDOB = in.InsuredDOB
	}
	setStr(&c.InsuredSex, in.InsuredSex)
	setStr(&c.InsuredAddress, in.InsuredAddress)
	setStr(&c.InsuredCity, in.InsuredCity)
	setStr(&c.InsuredState, in.InsuredState)
	setStr(&c.InsuredZip, in.InsuredZip)
	if in.Relationship != nil {
		c.Relationship = *in.Relationship
	}
	if in.InsuranceType != nil {
		c.InsuranceType = *in.InsuranceType
	}
	setStr(&c.MemberID, in.MemberID)
	setStr(&c.GroupNumber, in.GroupNumber)
	if in.DiagnosisCodes != nil {
		c.DiagnosisCodes = *in.DiagnosisCodes
	}
	if in.TotalAmount != nil {
		c.TotalAmount = *in.TotalAmount
	}
	setStr(&c.BillingProviderName, in.BillingProviderName)
	setStr(&c.BillingProviderAddress, in.BillingProviderAddress)
	setStr(&c.BillingProviderTaxID, in.BillingProviderTaxID)
	setStr(&c.FacilityName, in.FacilityName)
	setStr(&c.FacilityAddress, in.FacilityAddress)
	setStr(&c.FacilityNPI, in.FacilityNPI)
	setStr(&c.RenderingProviderNPI, in.RenderingProviderNPI)
}

// UpdateClaim applies a partial update to mutable fields under the optimistic
// version check. A patch that tries to change status is rejected outright.
func (s *Service) UpdateClaim(ctx context.Context, locationID string, id uuid.UUID, in *UpdateClaimInput) (*Claim, error) {
	if in.Status != nil {
		return nil, errs.NewValidation("status cannot be changed through an update; use the transition endpoint")
	}

	c, err := s.repo.GetByID(ctx, locationID, id)
	if err != nil {
		return nil, err
	}
	if in.Version != c.Version {
		return nil, &errs.ConflictError{Resource: "claim", ID: id.String()}
	}

	in.apply(c)
	if err := validateClaim(c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteClaim removes a draft claim and its line items. Claims that have
// entered the lifecycle are kept for the audit trail.
func (s *Service) DeleteClaim(ctx context.Context, locationID string, id uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, locationID, id)
	if err != nil {
		return err
	}
	if c.Status != StatusDraft {
		return errs.NewValidation(fmt.Sprintf("only draft claims can be deleted, claim is %s", c.Status))
	}
	return s.repo.Delete(ctx, locationID, id)
}

func (s *Service) AddLineItem(ctx context.Context, locationID string, claimID uuid.UUID, li *ClaimLineItem) error {
	c, err := s.repo.GetByID(ctx, locationID, claimID)
	if err != nil {
		return err
	}
	if c.Status != StatusDraft {
		return errs.NewValidation(fmt.Sprintf("line items can only be added to draft claims, claim is %s", c.Status))
	}
	if err := validateLineItem(li); err != nil {
		return err
	}
	li.ClaimID = claimID
	return s.repo.AddLineItem(ctx, li)
}

func (s *Service) GetLineItems(ctx context.Context, locationID string, claimID uuid.UUID) ([]*ClaimLineItem, error) {
	if _, err := s.repo.GetByID(ctx, locationID, claimID); err != nil {
		return nil, err
	}
	return s.repo.GetLineItems(ctx, claimID)
}

func (s *Service) DeleteLineItem(ctx context.Context, locationID string, claimID, lineID uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, locationID, claimID)
	if err != nil {
		return err
	}
	if c.Status != StatusDraft {
		return errs.NewValidation(fmt.Sprintf("line items can only be removed from draft claims, claim is %s", c.Status))
	}
	return s.repo.DeleteLineItem(ctx, claimID, lineID)
}

// TransitionInput is the request body for a lifecycle transition.
type TransitionInput struct {
	To               ClaimStatus `json:"to"`
	Note             *string     `json:"note,omitempty"`
	ClearinghouseRef *string     `json:"clearinghouse_ref,omitempty"`
}

// Transition moves a claim to a new status. The status write and the history
// append happen in one transaction: either both land or neither does. The
// scrub result is returned on draft -> scrubbed so callers see warnings.
func (s *Service) Transition(ctx context.Context, locationID string, id uuid.UUID, in *TransitionInput) (*Claim, *ScrubResult, error) {
	var claim *Claim
	var scrub *ScrubResult

	err := db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, locationID, id)
		if err != nil {
			return err
		}

		var lines []*ClaimLineItem
		if in.To == StatusScrubbed {
			lines, err = s.repo.GetLineItems(ctx, c.ID)
			if err != nil {
				return err
			}
		}

		res, err := validateTransition(c, lines, in.To)
		if err != nil {
			return err
		}
		scrub = res

		from := c.Status
		c.Status = in.To
		if in.To == StatusSubmitted {
			if in.ClearinghouseRef == nil || *in.ClearinghouseRef == "" {
				return errs.NewValidation("clearinghouse_ref is required to submit a claim")
			}
			c.ClearinghouseRef = in.ClearinghouseRef
		}

		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		if err := s.repo.AppendHistory(ctx, &ClaimStatusHistory{
			ClaimID:    c.ID,
			FromStatus: &from,
			ToStatus:   in.To,
			Note:       in.Note,
		}); err != nil {
			return err
		}

		claim = c
		return nil
	})
	if err != nil {
		return nil, scrub, err
	}

	s.log.Info().
		Str("location_id", locationID).
		Str("claim_id", id.String()).
		Str("claim_number", claim.ClaimNumber).
		Str("to", string(in.To)).
		Msg("claim status transitioned")
	return claim, scrub, nil
}

func (s *Service) GetHistory(ctx context.Context, locationID string, claimID uuid.UUID) ([]*ClaimStatusHistory, error) {
	if _, err := s.repo.GetByID(ctx, locationID, claimID); err != nil {
		return nil, err
	}
	return s.repo.GetHistory(ctx, claimID)
}

// ApplyPayment adds an allocated amount to the claim's paid total. Used by
// the payment allocator when an allocation line references a claim.
func (s *Service) ApplyPayment(ctx context.Context, locationID string, claimID uuid.UUID, amount float64) error {
	if amount <= 0 {
		return errs.NewValidation("payment amount must be positive")
	}
	return db.WithTx(ctx, s.pool, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, locationID, claimID)
		if err != nil {
			return err
		}
		if c.PaidAmount+amount > c.TotalAmount {
			return errs.NewValidation(fmt.Sprintf(
				"payment of %.2f would exceed claim total %.2f (already paid %.2f)",
				amount, c.TotalAmount, c.PaidAmount))
		}
		c.PaidAmount += amount
		return s.repo.Update(ctx, c)
	})
}

// RenderCMS1500 loads the claim and its line items and maps them onto the
// fixed form layout.
func (s *Service) RenderCMS1500(ctx context.Context, locationID string, claimID uuid.UUID) (*CMS1500View, error) {
	c, err := s.repo.GetByID(ctx, locationID, claimID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLineItems(ctx, claimID)
	if err != nil {
		return nil, err
	}
	return MapCMS1500(c, lines), nil
}
