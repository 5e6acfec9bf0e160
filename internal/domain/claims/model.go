package claims

import (
	"time"

	"github.com/google/uuid"
)

// ClaimStatus is the lifecycle state of a claim. Transitions between
// statuses go through the lifecycle manager, never through plain updates.
type ClaimStatus string

const (
	StatusDraft     ClaimStatus = "draft"
	StatusScrubbed  ClaimStatus = "scrubbed"
	StatusSubmitted ClaimStatus = "submitted"
	StatusReceived  ClaimStatus = "received"
	StatusAccepted  ClaimStatus = "accepted"
	StatusRejected  ClaimStatus = "rejected"
	StatusDenied    ClaimStatus = "denied"
	StatusPaid      ClaimStatus = "paid"
)

var validStatuses = map[ClaimStatus]bool{
	StatusDraft: true, StatusScrubbed: true, StatusSubmitted: true,
	StatusReceived: true, StatusAccepted: true, StatusRejected: true,
	StatusDenied: true, StatusPaid: true,
}

// Relationship is the patient's relationship to the insured party (box 6).
type Relationship string

const (
	RelationshipSelf   Relationship = "self"
	RelationshipSpouse Relationship = "spouse"
	RelationshipChild  Relationship = "child"
	RelationshipOther  Relationship = "other"
)

var validRelationships = map[Relationship]bool{
	RelationshipSelf: true, RelationshipSpouse: true,
	RelationshipChild: true, RelationshipOther: true,
}

// InsuranceType is the program checkbox block at the top of the form (box 1).
type InsuranceType string

const (
	InsuranceMedicare InsuranceType = "medicare"
	InsuranceMedicaid InsuranceType = "medicaid"
	InsuranceTricare  InsuranceType = "tricare"
	InsuranceChampva  InsuranceType = "champva"
	InsuranceGroup    InsuranceType = "group"
	InsuranceFECA     InsuranceType = "feca"
	InsuranceOther    InsuranceType = "other"
)

var validInsuranceTypes = map[InsuranceType]bool{
	InsuranceMedicare: true, InsuranceMedicaid: true, InsuranceTricare: true,
	InsuranceChampva: true, InsuranceGroup: true, InsuranceFECA: true,
	InsuranceOther: true,
}

// MaxDiagnosisCodes is the number of diagnosis slots on a CMS-1500 form.
const MaxDiagnosisCodes = 4

// MaxServiceLines is the number of service line slots on a single form page.
const MaxServiceLines = 6

// Claim maps to the claims table: one CMS-1500 insurance claim for one
// patient encounter, scoped to a location.
type Claim struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ClaimNumber string    `db:"claim_number" json:"claim_number"`
	LocationID  string    `db:"location_id" json:"location_id"`

	PatientFirstName string     `db:"patient_first_name" json:"patient_first_name"`
	PatientLastName  string     `db:"patient_last_name" json:"patient_last_name"`
	PatientDOB       *time.Time `db:"patient_dob" json:"patient_dob,omitempty"`
	PatientSex       *string    `db:"patient_sex" json:"patient_sex,omitempty"`
	PatientAddress   *string    `db:"patient_address" json:"patient_address,omitempty"`
	PatientCity      *string    `db:"patient_city" json:"patient_city,omitempty"`
	PatientState     *string    `db:"patient_state" json:"patient_state,omitempty"`
	PatientZip       *string    `db:"patient_zip" json:"patient_zip,omitempty"`
	PatientPhone     *string    `db:"patient_phone" json:"patient_phone,omitempty"`

	InsuredFirstName *string      `db:"insured_first_name" json:"insured_first_name,omitempty"`
	InsuredLastName  *string      `db:"insured_last_name" json:"insured_last_name,omitempty"`
	InsuredDOB       *time.Time   `db:"insured_dob" json:"insured_dob,omitempty"`
	InsuredSex       *string      `db:"insured_sex" json:"insured_sex,omitempty"`
	InsuredAddress   *string      `db:"insured_address" json:"insured_address,omitempty"`
	InsuredCity      *string      `db:"insured_city" json:"insured_city,omitempty"`
	InsuredState     *string      `db:"insured_state" json:"insured_state,omitempty"`
	InsuredZip       *string      `db:"insured_zip" json:"insured_zip,omitempty"`
	Relationship     Relationship `db:"relationship_to_insured" json:"relationship_to_insured"`

	InsuranceType InsuranceType `db:"insurance_type" json:"insurance_type"`
	MemberID      *string       `db:"member_id" json:"member_id,omitempty"`
	GroupNumber   *string       `db:"group_number" json:"group_number,omitempty"`

	// Up to four ordered ICD codes, referenced by position from line items.
	DiagnosisCodes []string `json:"diagnosis_codes"`

	TotalAmount float64 `db:"total_amount" json:"total_amount"`
	PaidAmount  float64 `db:"paid_amount" json:"paid_amount"`

	BillingProviderName    *string `db:"billing_provider_name" json:"billing_provider_name,omitempty"`
	BillingProviderAddress *string `db:"billing_provider_address" json:"billing_provider_address,omitempty"`
	BillingProviderTaxID   *string `db:"billing_provider_tax_id" json:"billing_provider_tax_id,omitempty"`
	FacilityName           *string `db:"facility_name" json:"facility_name,omitempty"`
	FacilityAddress        *string `db:"facility_address" json:"facility_address,omitempty"`
	FacilityNPI            *string `db:"facility_npi" json:"facility_npi,omitempty"`
	RenderingProviderNPI   *string `db:"rendering_provider_npi" json:"rendering_provider_npi,omitempty"`

	Status           ClaimStatus `db:"status" json:"status"`
	ClearinghouseRef *string     `db:"clearinghouse_ref" json:"clearinghouse_ref,omitempty"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BalanceDue is the outstanding amount on the claim. Never negative in a
// consistent state because PaidAmount is capped at TotalAmount on write.
func (c *Claim) BalanceDue() float64 {
	return c.TotalAmount - c.PaidAmount
}

// DiagnosisAt returns the diagnosis code at 1-based position, or "" when the
// slot is empty.
func (c *Claim) DiagnosisAt(pos int) string {
	if pos < 1 || pos > len(c.DiagnosisCodes) {
		return ""
	}
	return c.DiagnosisCodes[pos-1]
}

// ClaimLineItem maps to the claim_line_items table: one billable service line.
type ClaimLineItem struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	ClaimID          uuid.UUID  `db:"claim_id" json:"claim_id"`
	ServiceDate      time.Time  `db:"service_date" json:"service_date"`
	ServiceDateTo    *time.Time `db:"service_date_to" json:"service_date_to,omitempty"`
	PlaceOfService   *string    `db:"place_of_service" json:"place_of_service,omitempty"`
	ProcedureCode    string     `db:"procedure_code" json:"procedure_code"`
	ChargeAmount     float64    `db:"charge_amount" json:"charge_amount"`
	Units            int        `db:"units" json:"units"`
	DiagnosisPointer int        `db:"diagnosis_pointer" json:"diagnosis_pointer"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// ClaimStatusHistory maps to the claim_status_history table. Append-only:
// entries are never mutated or deleted after creation.
type ClaimStatusHistory struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	ClaimID    uuid.UUID    `db:"claim_id" json:"claim_id"`
	FromStatus *ClaimStatus `db:"from_status" json:"from_status,omitempty"`
	ToStatus   ClaimStatus  `db:"to_status" json:"to_status"`
	ChangedAt  time.Time    `db:"changed_at" json:"changed_at"`
	Note       *string      `db:"note" json:"note,omitempty"`
}
