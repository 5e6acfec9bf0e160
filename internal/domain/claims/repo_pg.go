package claims

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caresuite/claims-api/internal/platform/db"
	"github.com/caresuite/claims-api/internal/platform/errs"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const claimCols = `id, claim_number, location_id,
	patient_first_name, patient_last_name, patient_dob, patient_sex,
	patient_address, patient_city, patient_state, patient_zip, patient_phone,
	insured_first_name, insured_last_name, insured_dob, insured_sex,
	insured_address, insured_city, insured_state, insured_zip,
	relationship_to_insured, insurance_type, member_id, group_number,
	diagnosis_code_1, diagnosis_code_2, diagnosis_code_3, diagnosis_code_4,
	total_amount, paid_amount,
	billing_provider_name, billing_provider_address, billing_provider_tax_id,
	facility_name, facility_address, facility_npi, rendering_provider_npi,
	status, clearinghouse_ref, version, created_at, updated_at`

func (r *repoPG) scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	var dx [MaxDiagnosisCodes]*string
	err := row.Scan(&c.ID, &c.ClaimNumber, &c.LocationID,
		&c.PatientFirstName, &c.PatientLastName, &c.PatientDOB, &c.PatientSex,
		&c.PatientAddress, &c.PatientCity, &c.PatientState, &c.PatientZip, &c.PatientPhone,
		&c.InsuredFirstName, &c.InsuredLastName, &c.InsuredDOB, &c.InsuredSex,
		&c.InsuredAddress, &c.InsuredCity, &c.InsuredState, &c.InsuredZip,
		&c.Relationship, &c.InsuranceType, &c.MemberID, &c.GroupNumber,
		&dx[0], &dx[1], &dx[2], &dx[3],
		&c.TotalAmount, &c.PaidAmount,
		&c.BillingProviderName, &c.BillingProviderAddress, &c.BillingProviderTaxID,
		&c.FacilityName, &c.FacilityAddress, &c.FacilityNPI, &c.RenderingProviderNPI,
		&c.Status, &c.ClearinghouseRef, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	for _, d := range dx {
		if d != nil && *d != "" {
			c.DiagnosisCodes = append(c.DiagnosisCodes, *d)
		}
	}
	return &c, nil
}

// dxColumns spreads the diagnosis slice over the four fixed columns.
func dxColumns(codes []string) [MaxDiagnosisCodes]*string {
	var dx [MaxDiagnosisCodes]*string
	for i := 0; i < MaxDiagnosisCodes && i < len(codes); i++ {
		code := codes[i]
		if code != "" {
			dx[i] = &code
		}
	}
	return dx
}

func (r *repoPG) Create(ctx context.Context, c *Claim) error {
	c.ID = uuid.New()
	dx := dxColumns(c.DiagnosisCodes)
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO claims (id, claim_number, location_id,
			patient_first_name, patient_last_name, patient_dob, patient_sex,
			patient_address, patient_city, patient_state, patient_zip, patient_phone,
			insured_first_name, insured_last_name, insured_dob, insured_sex,
			insured_address, insured_city, insured_state, insured_zip,
			relationship_to_insured, insurance_type, member_id, group_number,
			diagnosis_code_1, diagnosis_code_2, diagnosis_code_3, diagnosis_code_4,
			total_amount, paid_amount,
			billing_provider_name, billing_provider_address, billing_provider_tax_id,
			facility_name, facility_address, facility_npi, rendering_provider_npi,
			status, clearinghouse_ref, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
			$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38,$39,1)
		RETURNING version, created_at, updated_at`,
		c.ID, c.ClaimNumber, c.LocationID,
		c.PatientFirstName, c.PatientLastName, c.PatientDOB, c.PatientSex,
		c.PatientAddress, c.PatientCity, c.PatientState, c.PatientZip, c.PatientPhone,
		c.InsuredFirstName, c.InsuredLastName, c.InsuredDOB, c.InsuredSex,
		c.InsuredAddress, c.InsuredCity, c.InsuredState, c.InsuredZip,
		c.Relationship, c.InsuranceType, c.MemberID, c.GroupNumber,
		dx[0], dx[1], dx[2], dx[3],
		c.TotalAmount, c.PaidAmount,
		c.BillingProviderName, c.BillingProviderAddress, c.BillingProviderTaxID,
		c.FacilityName, c.FacilityAddress, c.FacilityNPI, c.RenderingProviderNPI,
		c.Status, c.ClearinghouseRef)
	return row.Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, locationID string, id uuid.UUID) (*Claim, error) {
	c, err := r.scanClaim(r.conn(ctx).QueryRow(ctx,
		`SELECT `+claimCols+` FROM claims WHERE location_id = $1 AND id = $2`, locationID, id))
	if err == pgx.ErrNoRows {
		return nil, errs.NewNotFound("claim", id.String())
	}
	return c, err
}

func (r *repoPG) List(ctx context.Context, locationID string, status ClaimStatus, limit, offset int) ([]*Claim, int, error) {
	where := `WHERE location_id = $1`
	args := []interface{}{locationID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM claims `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM claims %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		claimCols, where, len(args)+1, len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Claim
	for rows.Next() {
		c, err := r.scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, c *Claim) error {
	dx := dxColumns(c.DiagnosisCodes)
	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE claims SET
			patient_first_name=$4, patient_last_name=$5, patient_dob=$6, patient_sex=$7,
			patient_address=$8, patient_city=$9, patient_state=$10, patient_zip=$11, patient_phone=$12,
			insured_first_name=$13, insured_last_name=$14, insured_dob=$15, insured_sex=$16,
			insured_address=$17, insured_city=$18, insured_state=$19, insured_zip=$20,
			relationship_to_insured=$21, insurance_type=$22, member_id=$23, group_number=$24,
			diagnosis_code_1=$25, diagnosis_code_2=$26, diagnosis_code_3=$27, diagnosis_code_4=$28,
			total_amount=$29, paid_amount=$30,
			billing_provider_name=$31, billing_provider_address=$32, billing_provider_tax_id=$33,
			facility_name=$34, facility_address=$35, facility_npi=$36, rendering_provider_npi=$37,
			status=$38, clearinghouse_ref=$39,
			version = version + 1, updated_at = NOW()
		WHERE location_id = $1 AND id = $2 AND version = $3
		RETURNING version, updated_at`,
		c.LocationID, c.ID, c.Version,
		c.PatientFirstName, c.PatientLastName, c.PatientDOB, c.PatientSex,
		c.PatientAddress, c.PatientCity, c.PatientState, c.PatientZip, c.PatientPhone,
		c.InsuredFirstName, c.InsuredLastName, c.InsuredDOB, c.InsuredSex,
		c.InsuredAddress, c.InsuredCity, c.InsuredState, c.InsuredZip,
		c.Relationship, c.InsuranceType, c.MemberID, c.GroupNumber,
		dx[0], dx[1], dx[2], dx[3],
		c.TotalAmount, c.PaidAmount,
		c.BillingProviderName, c.BillingProviderAddress, c.BillingProviderTaxID,
		c.FacilityName, c.FacilityAddress, c.FacilityNPI, c.RenderingProviderNPI,
		c.Status, c.ClearinghouseRef)
	if err := row.Scan(&c.Version, &c.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return &errs.ConflictError{Resource: "claim", ID: c.ID.String()}
		}
		return err
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, locationID string, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM claims WHERE location_id = $1 AND id = $2`, locationID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFound("claim", id.String())
	}
	return nil
}

func (r *repoPG) NextClaimNumber(ctx context.Context, locationID, defaultPrefix string) (string, error) {
	var prefix string
	var seq int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO location_billing_settings (location_id, claim_number_prefix, claim_sequence)
		VALUES ($1, $2, 1)
		ON CONFLICT (location_id)
		DO UPDATE SET claim_sequence = location_billing_settings.claim_sequence + 1
		RETURNING claim_number_prefix, claim_sequence`,
		locationID, defaultPrefix).Scan(&prefix, &seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", prefix, seq), nil
}

const lineCols = `id, claim_id, service_date, service_date_to, place_of_service,
	procedure_code, charge_amount, units, diagnosis_pointer, created_at`

func (r *repoPG) scanLineItem(row pgx.Row) (*ClaimLineItem, error) {
	var li ClaimLineItem
	err := row.Scan(&li.ID, &li.ClaimID, &li.ServiceDate, &li.ServiceDateTo, &li.PlaceOfService,
		&li.ProcedureCode, &li.ChargeAmount, &li.Units, &li.DiagnosisPointer, &li.CreatedAt)
	return &li, err
}

func (r *repoPG) AddLineItem(ctx context.Context, li *ClaimLineItem) error {
	li.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO claim_line_items (id, claim_id, service_date, service_date_to,
			place_of_service, procedure_code, charge_amount, units, diagnosis_pointer)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		li.ID, li.ClaimID, li.ServiceDate, li.ServiceDateTo,
		li.PlaceOfService, li.ProcedureCode, li.ChargeAmount, li.Units, li.DiagnosisPointer).
		Scan(&li.CreatedAt)
}

func (r *repoPG) GetLineItems(ctx context.Context, claimID uuid.UUID) ([]*ClaimLineItem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+lineCols+` FROM claim_line_items WHERE claim_id = $1 ORDER BY created_at, id`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ClaimLineItem
	for rows.Next() {
		li, err := r.scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

func (r *repoPG) DeleteLineItem(ctx context.Context, claimID, lineID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM claim_line_items WHERE claim_id = $1 AND id = $2`, claimID, lineID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFound("line item", lineID.String())
	}
	return nil
}

func (r *repoPG) AppendHistory(ctx context.Context, h *ClaimStatusHistory) error {
	h.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO claim_status_history (id, claim_id, from_status, to_status, note)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING changed_at`,
		h.ID, h.ClaimID, h.FromStatus, h.ToStatus, h.Note).Scan(&h.ChangedAt)
}

func (r *repoPG) GetHistory(ctx context.Context, claimID uuid.UUID) ([]*ClaimStatusHistory, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, claim_id, from_status, to_status, changed_at, note
		FROM claim_status_history WHERE claim_id = $1 ORDER BY changed_at, id`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ClaimStatusHistory
	for rows.Next() {
		var h ClaimStatusHistory
		if err := rows.Scan(&h.ID, &h.ClaimID, &h.FromStatus, &h.ToStatus, &h.ChangedAt, &h.Note); err != nil {
			return nil, err
		}
		items = append(items, &h)
	}
	return items, rows.Err()
}
