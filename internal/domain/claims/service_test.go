package claims

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caresuite/claims-api/internal/platform/errs"
)

const testLocation = "loc-001"

func strPtr(s string) *string        { return &s }
func timePtr(t time.Time) *time.Time { return &t }
func floatPtr(f float64) *float64    { return &f }

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, "CLM", zerolog.Nop())
}

// completeClaim returns a claim that passes scrub validation.
func completeClaim() *Claim {
	return &Claim{
		PatientFirstName:     "Jane",
		PatientLastName:      "Doe",
		PatientDOB:           timePtr(time.Date(1985, 3, 14, 0, 0, 0, 0, time.UTC)),
		PatientSex:           strPtr("F"),
		PatientAddress:       strPtr("12 Main St"),
		PatientCity:          strPtr("Springfield"),
		PatientState:         strPtr("IL"),
		PatientZip:           strPtr("62704"),
		Relationship:         RelationshipSelf,
		InsuranceType:        InsuranceGroup,
		MemberID:             strPtr("MBR-443"),
		DiagnosisCodes:       []string{"F41.1"},
		TotalAmount:          150.00,
		BillingProviderTaxID: strPtr("12-3456789"),
	}
}

func completeLine() *ClaimLineItem {
	return &ClaimLineItem{
		ServiceDate:      time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		ProcedureCode:    "90834",
		ChargeAmount:     150.00,
		Units:            1,
		DiagnosisPointer: 1,
	}
}

func TestCreateClaim(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c := completeClaim()
	lines := []*ClaimLineItem{completeLine()}
	require.NoError(t, svc.CreateClaim(context.Background(), testLocation, c, lines))

	assert.Equal(t, StatusDraft, c.Status)
	assert.Equal(t, "CLM-000001", c.ClaimNumber)
	assert.Equal(t, testLocation, c.LocationID)
	assert.Equal(t, 1, c.Version)

	hist, err := svc.GetHistory(context.Background(), testLocation, c.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Nil(t, hist[0].FromStatus)
	assert.Equal(t, StatusDraft, hist[0].ToStatus)

	items, err := svc.GetLineItems(context.Background(), testLocation, c.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCreateClaim_SequentialNumbers(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	first := completeClaim()
	require.NoError(t, svc.CreateClaim(context.Background(), testLocation, first, nil))
	second := completeClaim()
	require.NoError(t, svc.CreateClaim(context.Background(), testLocation, second, nil))

	assert.Equal(t, "CLM-000001", first.ClaimNumber)
	assert.Equal(t, "CLM-000002", second.ClaimNumber)
}

func TestCreateClaim_MissingPatientName(t *testing.T) {
	svc := newTestService(newMockRepo())

	c := completeClaim()
	c.PatientLastName = ""
	err := svc.CreateClaim(context.Background(), testLocation, c, nil)

	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "patient_last_name")
}

func TestGetClaim_OtherLocationInvisible(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c := completeClaim()
	require.NoError(t, svc.CreateClaim(context.Background(), testLocation, c, nil))

	_, err := svc.GetClaim(context.Background(), "loc-other", c.ID)
	var nf *errs.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateClaim_RejectsStatusChange(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c := completeClaim()
	require.NoError(t, svc.CreateClaim(context.Background(), testLocation, c, nil))

	status := StatusSubmitted
	_, err := svc.UpdateClaim(context.Background(), testLocation, c.ID, &UpdateClaimInput{
		Version: c.Version,
		Status:  &status,
	})
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "transition endpoint")
}

func TestUpdateClaim_AppliesPatch(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c := completeClaim()
	require.NoError(t, svc.CreateClaim(context.Background(), testLocation, c, nil))

	updated, err := svc.UpdateClaim(context.Background(), testLocation, c.ID, &UpdateClaimInput{
		Version:     c.Version,
		MemberID:    strPtr("MBR-999"),
		TotalAmount: floatPtr(200),
	})
	require.NoError(t, err)
	assert.Equal(t, "MBR-999", *updated.MemberID)
	assert.Equal(t, 200.0, updated.TotalAmount)
	assert.Equal(t, c.Version+1, updated.Version)
	// Untouched fields survive.
	assert.Equal(t, "Jane", updated.PatientFirstName)
}

func TestUpdateClaim_VersionConflict(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c := completeClaim()
	require.NoError(t, svc.CreateClaim(context.Background(), testLocation, c, nil))

	_, err := svc.UpdateClaim(context.Background(), testLocation, c.ID, &UpdateClaimInput{
		Version:  c.Version + 5,
		MemberID: strPtr("MBR-999"),
	})
	var conflict *errs.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestDeleteClaim_DraftOnly(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c := completeClaim()
	require.NoError(t, svc.CreateClaim(context.Background(), testLocation, c, []*ClaimLineItem{completeLine()}))

	_, _, err := svc.Transition(context.Background(), testLocation, c.ID, &TransitionInput{To: StatusScrubbed})
	require.NoError(t, err)

	err = svc.DeleteClaim(context.Background(), testLocation, c.ID)
	var verr *errs.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDeleteClaim_Draft(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c := completeClaim()
	require.NoError(t, svc.CreateClaim(context.Background(), testLocation, c, nil))
	require.NoError(t, svc.DeleteClaim(context.Background(), testLocation, c.ID))

	_, err := svc.GetClaim(context.Background(), testLocation, c.ID)
	var nf *errs.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestAddLineItem_DraftOnly(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c := completeClaim()
	require.NoError(t, svc.CreateClaim(context.Background(), testLocation, c, []*ClaimLineItem{completeLine()}))
	_, _, err := svc.Transition(context.Background(), testLocation, c.ID, &TransitionInput{To: StatusScrubbed})
	require.NoError(t, err)

	err = svc.AddLineItem(context.Background(), testLocation, c.ID, completeLine())
	var verr *errs.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestApplyPayment(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c := completeClaim()
	require.NoError(t, svc.CreateClaim(context.Background(), testLocation, c, nil))

	require.NoError(t, svc.ApplyPayment(context.Background(), testLocation, c.ID, 100))

	got, err := svc.GetClaim(context.Background(), testLocation, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.PaidAmount)
	assert.Equal(t, 50.0, got.BalanceDue())
}

func TestApplyPayment_ExceedsTotal(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	c := completeClaim()
	require.NoError(t, svc.CreateClaim(context.Background(), testLocation, c, nil))

	err := svc.ApplyPayment(context.Background(), testLocation, c.ID, 200)
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := svc.GetClaim(context.Background(), testLocation, c.ID)
	require.NoError(t, err)
	assert.Zero(t, got.PaidAmount)
}

func TestApplyPayment_NonPositive(t *testing.T) {
	svc := newTestService(newMockRepo())
	err := svc.ApplyPayment(context.Background(), testLocation, uuid.New(), 0)
	var verr *errs.ValidationError
	assert.ErrorAs(t, err, &verr)
}
