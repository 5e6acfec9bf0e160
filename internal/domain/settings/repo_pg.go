package settings

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caresuite/claims-api/internal/platform/db"
)

type repoPG struct {
	pool          *pgxpool.Pool
	defaultPrefix string
}

func NewRepoPG(pool *pgxpool.Pool, defaultPrefix string) Repository {
	return &repoPG{pool: pool, defaultPrefix: defaultPrefix}
}

func (r *repoPG) conn(ctx context.Context) interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
} {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `location_id, claim_number_prefix, claim_sequence,
	default_procedure_code, default_session_fee, default_place_of_service, updated_at`

// Get returns the stored settings, or defaults when the location has no row
// yet (the row materializes when the first claim number is generated or the
// settings are saved).
func (r *repoPG) Get(ctx context.Context, locationID string) (*LocationBillingSettings, error) {
	var s LocationBillingSettings
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM location_billing_settings WHERE location_id = $1`, locationID).
		Scan(&s.LocationID, &s.ClaimNumberPrefix, &s.ClaimSequence,
			&s.DefaultProcedureCode, &s.DefaultSessionFee, &s.DefaultPlaceOfService, &s.UpdatedAt)
	if err == pgx.ErrNoRows {
		return &LocationBillingSettings{
			LocationID:        locationID,
			ClaimNumberPrefix: r.defaultPrefix,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Upsert(ctx context.Context, s *LocationBillingSettings) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO location_billing_settings (location_id, claim_number_prefix,
			default_procedure_code, default_session_fee, default_place_of_service)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (location_id) DO UPDATE SET
			claim_number_prefix = EXCLUDED.claim_number_prefix,
			default_procedure_code = EXCLUDED.default_procedure_code,
			default_session_fee = EXCLUDED.default_session_fee,
			default_place_of_service = EXCLUDED.default_place_of_service,
			updated_at = NOW()
		RETURNING claim_sequence, updated_at`,
		s.LocationID, s.ClaimNumberPrefix,
		s.DefaultProcedureCode, s.DefaultSessionFee, s.DefaultPlaceOfService).
		Scan(&s.ClaimSequence, &s.UpdatedAt)
}
