// Package settings manages per-location billing configuration: claim number
// generation and the defaults applied to new claims.
package settings

import (
	"context"
	"time"
)

// LocationBillingSettings maps to the location_billing_settings table.
// ClaimSequence is advanced by the claims store, never through this API.
type LocationBillingSettings struct {
	LocationID            string    `db:"location_id" json:"location_id"`
	ClaimNumberPrefix     string    `db:"claim_number_prefix" json:"claim_number_prefix"`
	ClaimSequence         int64     `db:"claim_sequence" json:"claim_sequence"`
	DefaultProcedureCode  *string   `db:"default_procedure_code" json:"default_procedure_code,omitempty"`
	DefaultSessionFee     *float64  `db:"default_session_fee" json:"default_session_fee,omitempty"`
	DefaultPlaceOfService *string   `db:"default_place_of_service" json:"default_place_of_service,omitempty"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// Repository persists billing settings per location.
type Repository interface {
	Get(ctx context.Context, locationID string) (*LocationBillingSettings, error)
	// Upsert writes the mutable settings fields, leaving the claim sequence
	// untouched for existing rows.
	Upsert(ctx context.Context, s *LocationBillingSettings) error
}
