package claims

import (
	"fmt"
	"strings"
	"time"
)

// CMS1500View is the flattened, print-ready projection of a claim onto the
// fixed CMS-1500 layout. All values are pre-formatted strings: dates as
// "MM DD YY", currency with two decimals.
type CMS1500View struct {
	ClaimNumber string `json:"claim_number"`

	InsuranceType  InsuranceType `json:"insurance_type"`
	InsuredIDNumber string       `json:"insured_id_number"`

	PatientName      string `json:"patient_name"`
	PatientBirthDate string `json:"patient_birth_date"`
	PatientSex       string `json:"patient_sex"`
	PatientAddress   string `json:"patient_address"`
	PatientCityState string `json:"patient_city_state"`
	PatientZip       string `json:"patient_zip"`
	PatientPhone     string `json:"patient_phone"`

	InsuredName      string       `json:"insured_name"`
	InsuredBirthDate string       `json:"insured_birth_date"`
	InsuredSex       string       `json:"insured_sex"`
	InsuredAddress   string       `json:"insured_address"`
	InsuredCityState string       `json:"insured_city_state"`
	InsuredZip       string       `json:"insured_zip"`
	Relationship     Relationship `json:"relationship_to_insured"`
	GroupNumber      string       `json:"group_number"`

	// Box 21: four positional diagnosis slots A-D. Empty slots are "".
	DiagnosisCodes [MaxDiagnosisCodes]string `json:"diagnosis_codes"`

	// Box 24: six fixed service line slots. Lines past the sixth are not
	// rendered; Warnings records the truncation.
	ServiceLines [MaxServiceLines]CMS1500ServiceLine `json:"service_lines"`

	FederalTaxID    string `json:"federal_tax_id"`
	TotalCharge     string `json:"total_charge"`
	AmountPaid      string `json:"amount_paid"`
	BalanceDue      string `json:"balance_due"`
	BillingProvider string `json:"billing_provider"`
	FacilityInfo    string `json:"facility_info"`
	RenderingNPI    string `json:"rendering_npi"`

	Warnings []string `json:"warnings,omitempty"`
}

// CMS1500ServiceLine is one row of box 24.
type CMS1500ServiceLine struct {
	DateFrom         string `json:"date_from"`
	DateTo           string `json:"date_to"`
	PlaceOfService   string `json:"place_of_service"`
	ProcedureCode    string `json:"procedure_code"`
	DiagnosisPointer string `json:"diagnosis_pointer"`
	Charge           string `json:"charge"`
	Units            string `json:"units"`
}

func formDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("01 02 06")
}

func formCurrency(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formName(last, first string) string {
	switch {
	case last == "" && first == "":
		return ""
	case last == "":
		return first
	case first == "":
		return last
	}
	return fmt.Sprintf("%s, %s", last, first)
}

func formCityState(city, state *string) string {
	parts := []string{}
	if city != nil && *city != "" {
		parts = append(parts, *city)
	}
	if state != nil && *state != "" {
		parts = append(parts, *state)
	}
	return strings.Join(parts, " ")
}

// pointerLetter maps a 1-based diagnosis pointer onto the form's A-D letters.
func pointerLetter(p int) string {
	if p < 1 || p > MaxDiagnosisCodes {
		return ""
	}
	return string(rune('A' + p - 1))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// MapCMS1500 projects a claim and its line items onto the form layout. Pure
// and deterministic: same inputs always produce the same view.
func MapCMS1500(c *Claim, lines []*ClaimLineItem) *CMS1500View {
	v := &CMS1500View{
		ClaimNumber:      c.ClaimNumber,
		InsuranceType:    c.InsuranceType,
		InsuredIDNumber:  deref(c.MemberID),
		PatientName:      formName(c.PatientLastName, c.PatientFirstName),
		PatientBirthDate: formDate(c.PatientDOB),
		PatientSex:       deref(c.PatientSex),
		PatientAddress:   deref(c.PatientAddress),
		PatientCityState: formCityState(c.PatientCity, c.PatientState),
		PatientZip:       deref(c.PatientZip),
		PatientPhone:     deref(c.PatientPhone),
		Relationship:     c.Relationship,
		GroupNumber:      deref(c.GroupNumber),
		FederalTaxID:     deref(c.BillingProviderTaxID),
		TotalCharge:      formCurrency(c.TotalAmount),
		AmountPaid:       formCurrency(c.PaidAmount),
		BalanceDue:       formCurrency(c.BalanceDue()),
		RenderingNPI:     deref(c.RenderingProviderNPI),
	}

	// Box 4/7: when the patient is the insured the patient block carries over.
	if c.Relationship == RelationshipSelf {
		v.InsuredName = v.PatientName
		v.InsuredBirthDate = v.PatientBirthDate
		v.InsuredSex = v.PatientSex
		v.InsuredAddress = v.PatientAddress
		v.InsuredCityState = v.PatientCityState
		v.InsuredZip = v.PatientZip
	} else {
		v.InsuredName = formName(deref(c.InsuredLastName), deref(c.InsuredFirstName))
		v.InsuredBirthDate = formDate(c.InsuredDOB)
		v.InsuredSex = deref(c.InsuredSex)
		v.InsuredAddress = deref(c.InsuredAddress)
		v.InsuredCityState = formCityState(c.InsuredCity, c.InsuredState)
		v.InsuredZip = deref(c.InsuredZip)
	}

	for i := 0; i < MaxDiagnosisCodes && i < len(c.DiagnosisCodes); i++ {
		v.DiagnosisCodes[i] = c.DiagnosisCodes[i]
	}

	if c.BillingProviderName != nil {
		v.BillingProvider = *c.BillingProviderName
		if c.BillingProviderAddress != nil && *c.BillingProviderAddress != "" {
			v.BillingProvider += "\n" + *c.BillingProviderAddress
		}
	}
	if c.FacilityName != nil {
		v.FacilityInfo = *c.FacilityName
		if c.FacilityAddress != nil && *c.FacilityAddress != "" {
			v.FacilityInfo += "\n" + *c.FacilityAddress
		}
		if c.FacilityNPI != nil && *c.FacilityNPI != "" {
			v.FacilityInfo += "\nNPI " + *c.FacilityNPI
		}
	}

	for i, li := range lines {
		if i >= MaxServiceLines {
			v.Warnings = append(v.Warnings, fmt.Sprintf(
				"%d line items exceed the %d service line slots; extra lines are not rendered",
				len(lines), MaxServiceLines))
			break
		}
		from := li.ServiceDate
		to := li.ServiceDate
		if li.ServiceDateTo != nil {
			to = *li.ServiceDateTo
		}
		v.ServiceLines[i] = CMS1500ServiceLine{
			DateFrom:         formDate(&from),
			DateTo:           formDate(&to),
			PlaceOfService:   deref(li.PlaceOfService),
			ProcedureCode:    li.ProcedureCode,
			DiagnosisPointer: pointerLetter(li.DiagnosisPointer),
			Charge:           formCurrency(li.ChargeAmount),
			Units:            fmt.Sprintf("%d", li.Units),
		}
	}

	return v
}
