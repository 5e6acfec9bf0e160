package claims

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCMS1500_Formatting(t *testing.T) {
	c := completeClaim()
	c.ClaimNumber = "CLM-000042"
	c.PaidAmount = 50
	line := completeLine()

	v := MapCMS1500(c, []*ClaimLineItem{line})

	assert.Equal(t, "CLM-000042", v.ClaimNumber)
	assert.Equal(t, "Doe, Jane", v.PatientName)
	assert.Equal(t, "03 14 85", v.PatientBirthDate)
	assert.Equal(t, "Springfield IL", v.PatientCityState)
	assert.Equal(t, "MBR-443", v.InsuredIDNumber)
	assert.Equal(t, "12-3456789", v.FederalTaxID)
	assert.Equal(t, "150.00", v.TotalCharge)
	assert.Equal(t, "50.00", v.AmountPaid)
	assert.Equal(t, "100.00", v.BalanceDue)

	sl := v.ServiceLines[0]
	assert.Equal(t, "02 10 26", sl.DateFrom)
	assert.Equal(t, "02 10 26", sl.DateTo)
	assert.Equal(t, "90834", sl.ProcedureCode)
	assert.Equal(t, "A", sl.DiagnosisPointer)
	assert.Equal(t, "150.00", sl.Charge)
	assert.Equal(t, "1", sl.Units)
}

func TestMapCMS1500_SelfInsuredCarryover(t *testing.T) {
	c := completeClaim()
	v := MapCMS1500(c, nil)

	assert.Equal(t, v.PatientName, v.InsuredName)
	assert.Equal(t, v.PatientBirthDate, v.InsuredBirthDate)
	assert.Equal(t, v.PatientAddress, v.InsuredAddress)
}

func TestMapCMS1500_SeparateInsured(t *testing.T) {
	c := completeClaim()
	c.Relationship = RelationshipChild
	c.InsuredFirstName = strPtr("John")
	c.InsuredLastName = strPtr("Doe")
	c.InsuredDOB = timePtr(time.Date(1960, 7, 1, 0, 0, 0, 0, time.UTC))

	v := MapCMS1500(c, nil)

	assert.Equal(t, "Doe, John", v.InsuredName)
	assert.Equal(t, "07 01 60", v.InsuredBirthDate)
	assert.NotEqual(t, v.PatientBirthDate, v.InsuredBirthDate)
}

func TestMapCMS1500_DiagnosisSlots(t *testing.T) {
	c := completeClaim()
	c.DiagnosisCodes = []string{"F41.1", "F33.1", "Z71.1", "G47.00"}

	lines := []*ClaimLineItem{completeLine(), completeLine(), completeLine()}
	lines[1].DiagnosisPointer = 2
	lines[2].DiagnosisPointer = 4

	v := MapCMS1500(c, lines)

	assert.Equal(t, [MaxDiagnosisCodes]string{"F41.1", "F33.1", "Z71.1", "G47.00"}, v.DiagnosisCodes)
	assert.Equal(t, "A", v.ServiceLines[0].DiagnosisPointer)
	assert.Equal(t, "B", v.ServiceLines[1].DiagnosisPointer)
	assert.Equal(t, "D", v.ServiceLines[2].DiagnosisPointer)
}

func TestMapCMS1500_DateRange(t *testing.T) {
	line := completeLine()
	line.ServiceDateTo = timePtr(time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC))

	v := MapCMS1500(completeClaim(), []*ClaimLineItem{line})

	assert.Equal(t, "02 10 26", v.ServiceLines[0].DateFrom)
	assert.Equal(t, "02 14 26", v.ServiceLines[0].DateTo)
}

func TestMapCMS1500_TruncatesPastSixLines(t *testing.T) {
	lines := make([]*ClaimLineItem, 8)
	for i := range lines {
		lines[i] = completeLine()
	}

	v := MapCMS1500(completeClaim(), lines)

	for i := 0; i < MaxServiceLines; i++ {
		assert.NotEmpty(t, v.ServiceLines[i].ProcedureCode)
	}
	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "8 line items")
}

func TestMapCMS1500_Deterministic(t *testing.T) {
	c := completeClaim()
	lines := []*ClaimLineItem{completeLine(), completeLine(), completeLine()}

	first := MapCMS1500(c, lines)
	second := MapCMS1500(c, lines)

	assert.Equal(t, first, second)
}
