package claims

import (
	"fmt"

	"github.com/caresuite/claims-api/internal/platform/errs"
)

// transitions is the allowed edge set of the claim status state machine.
// paid is terminal; rejected and denied allow only the correction path back
// to draft.
var transitions = map[ClaimStatus][]ClaimStatus{
	StatusDraft:     {StatusScrubbed},
	StatusScrubbed:  {StatusSubmitted},
	StatusSubmitted: {StatusReceived},
	StatusReceived:  {StatusAccepted, StatusRejected, StatusDenied},
	StatusAccepted:  {StatusPaid},
	StatusRejected:  {StatusDraft},
	StatusDenied:    {StatusDraft},
	StatusPaid:      {},
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to ClaimStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ScrubResult collects the outcome of pre-submission claim validation.
// Missing fields block the draft -> scrubbed transition; warnings do not.
type ScrubResult struct {
	Missing  []string `json:"missing,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *ScrubResult) OK() bool { return len(r.Missing) == 0 }

// Scrub checks that every field mandatory for submission is populated and
// collects non-blocking warnings (extra line items past the form capacity,
// diagnosis pointers into empty slots).
func Scrub(c *Claim, lines []*ClaimLineItem) *ScrubResult {
	res := &ScrubResult{}
	missing := func(field string) { res.Missing = append(res.Missing, field) }

	if c.PatientFirstName == "" {
		missing("patient_first_name")
	}
	if c.PatientLastName == "" {
		missing("patient_last_name")
	}
	if c.PatientDOB == nil {
		missing("patient_dob")
	}
	if c.PatientSex == nil || *c.PatientSex == "" {
		missing("patient_sex")
	}
	if c.PatientAddress == nil || *c.PatientAddress == "" {
		missing("patient_address")
	}
	if !validRelationships[c.Relationship] {
		missing("relationship_to_insured")
	}
	if !validInsuranceTypes[c.InsuranceType] {
		missing("insurance_type")
	}
	if c.MemberID == nil || *c.MemberID == "" {
		missing("member_id")
	}
	if c.Relationship != RelationshipSelf {
		if c.InsuredFirstName == nil || *c.InsuredFirstName == "" {
			missing("insured_first_name")
		}
		if c.InsuredLastName == nil || *c.InsuredLastName == "" {
			missing("insured_last_name")
		}
	}
	if len(c.DiagnosisCodes) == 0 {
		missing("diagnosis_codes")
	}
	if c.BillingProviderTaxID == nil || *c.BillingProviderTaxID == "" {
		missing("billing_provider_tax_id")
	}

	if len(lines) == 0 {
		missing("line_items")
	}
	for i, li := range lines {
		if li.ProcedureCode == "" {
			missing(fmt.Sprintf("line_items[%d].procedure_code", i))
		}
		if li.ChargeAmount <= 0 {
			missing(fmt.Sprintf("line_items[%d].charge_amount", i))
		}
		if li.DiagnosisPointer < 1 || li.DiagnosisPointer > MaxDiagnosisCodes {
			missing(fmt.Sprintf("line_items[%d].diagnosis_pointer", i))
		} else if c.DiagnosisAt(li.DiagnosisPointer) == "" {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("line item %d points at empty diagnosis slot %d", i+1, li.DiagnosisPointer))
		}
	}
	if len(lines) > MaxServiceLines {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("claim has %d line items; only the first %d render on a CMS-1500 form", len(lines), MaxServiceLines))
	}

	return res
}

// validateTransition enforces the per-edge preconditions on top of the
// transition table. Returns the scrub result for draft -> scrubbed so the
// caller can surface warnings.
func validateTransition(c *Claim, lines []*ClaimLineItem, to ClaimStatus) (*ScrubResult, error) {
	if !validStatuses[to] {
		return nil, errs.NewValidation(fmt.Sprintf("unknown claim status %q", to))
	}
	if !CanTransition(c.Status, to) {
		return nil, &errs.InvalidTransitionError{From: string(c.Status), To: string(to)}
	}

	switch to {
	case StatusScrubbed:
		res := Scrub(c, lines)
		if !res.OK() {
			return res, errs.NewValidation("claim is missing mandatory fields", res.Missing...)
		}
		return res, nil
	case StatusPaid:
		if c.PaidAmount <= 0 {
			return nil, errs.NewValidation("claim has no payments applied")
		}
		if c.PaidAmount > c.TotalAmount {
			return nil, errs.NewValidation(
				fmt.Sprintf("paid amount %.2f exceeds total amount %.2f", c.PaidAmount, c.TotalAmount))
		}
	}
	return nil, nil
}
