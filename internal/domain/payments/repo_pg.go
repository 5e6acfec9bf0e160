package payments

import (
	"context"

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

const paymentCols = `id, location_id, payer_id, client_id, payment_date,
	payment_method, payment_number, total_amount, created_at`

func (r *repoPG) scanPayment(row pgx.Row) (*InsurancePayment, error) {
	var p InsurancePayment
	err := row.Scan(&p.ID, &p.LocationID, &p.PayerID, &p.ClientID, &p.PaymentDate,
		&p.PaymentMethod, &p.PaymentNumber, &p.TotalAmount, &p.CreatedAt)
	return &p, err
}

func (r *repoPG) CreatePayment(ctx context.Context, p *InsurancePayment) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO insurance_payments (id, location_id, payer_id, client_id,
			payment_date, payment_method, payment_number, total_amount)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		p.ID, p.LocationID, p.PayerID, p.ClientID,
		p.PaymentDate, p.PaymentMethod, p.PaymentNumber, p.TotalAmount).Scan(&p.CreatedAt)
}

func (r *repoPG) GetPayment(ctx context.Context, locationID string, id uuid.UUID) (*InsurancePayment, error) {
	p, err := r.scanPayment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+paymentCols+` FROM insurance_payments WHERE location_id = $1 AND id = $2`,
		locationID, id))
	if err == pgx.ErrNoRows {
		return nil, errs.NewNotFound("payment", id.String())
	}
	return p, err
}

func (r *repoPG) ListPayments(ctx context.Context, locationID string, limit, offset int) ([]*InsurancePayment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM insurance_payments WHERE location_id = $1`, locationID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+paymentCols+` FROM insurance_payments WHERE location_id = $1
		 ORDER BY payment_date DESC, created_at DESC LIMIT $2 OFFSET $3`,
		locationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*InsurancePayment
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

const allocationCols = `id, payment_id, invoice_ref, claim_id, billed_amount,
	insurance_paid, write_off, client_owes, synced, sync_error, created_at`

func (r *repoPG) AddAllocation(ctx context.Context, a *PaymentAllocation) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO payment_allocations (id, payment_id, invoice_ref, claim_id,
			billed_amount, insurance_paid, write_off, client_owes, synced, sync_error)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at`,
		a.ID, a.PaymentID, a.InvoiceRef, a.ClaimID,
		a.BilledAmount, a.InsurancePaid, a.WriteOff, a.ClientOwes, a.Synced, a.SyncError).
		Scan(&a.CreatedAt)
}

func (r *repoPG) GetAllocations(ctx context.Context, paymentID uuid.UUID) ([]*PaymentAllocation, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+allocationCols+` FROM payment_allocations WHERE payment_id = $1 ORDER BY created_at, id`,
		paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PaymentAllocation
	for rows.Next() {
		var a PaymentAllocation
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.InvoiceRef, &a.ClaimID, &a.BilledAmount,
			&a.InsurancePaid, &a.WriteOff, &a.ClientOwes, &a.Synced, &a.SyncError, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

func (r *repoPG) MarkAllocationSync(ctx context.Context, allocationID uuid.UUID, synced bool, syncErr *string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE payment_allocations SET synced = $2, sync_error = $3 WHERE id = $1`,
		allocationID, synced, syncErr)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NewNotFound("allocation", allocationID.String())
	}
	return nil
}

func (r *repoPG) CreatePayer(ctx context.Context, p *Payer) error {
	p.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO payers (id, location_id, name)
		VALUES ($1,$2,$3)
		RETURNING created_at`,
		p.ID, p.LocationID, p.Name).Scan(&p.CreatedAt)
}

func (r *repoPG) GetPayer(ctx context.Context, locationID string, id uuid.UUID) (*Payer, error) {
	var p Payer
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, location_id, name, created_at FROM payers WHERE location_id = $1 AND id = $2`,
		locationID, id).Scan(&p.ID, &p.LocationID, &p.Name, &p.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, errs.NewNotFound("payer", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) ListPayers(ctx context.Context, locationID string, limit, offset int) ([]*Payer, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM payers WHERE location_id = $1`, locationID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, location_id, name, created_at FROM payers WHERE location_id = $1
		 ORDER BY name LIMIT $2 OFFSET $3`, locationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Payer
	for rows.Next() {
		var p Payer
		if err := rows.Scan(&p.ID, &p.LocationID, &p.Name, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &p)
	}
	return items, total, rows.Err()
}
