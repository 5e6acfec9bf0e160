package payments

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod is how the payer remitted the payment.
type PaymentMethod string

const (
	MethodCheck      PaymentMethod = "check"
	MethodEFT        PaymentMethod = "eft"
	MethodCreditCard PaymentMethod = "credit_card"
	MethodOther      PaymentMethod = "other"
)

var validMethods = map[PaymentMethod]bool{
	MethodCheck: true, MethodEFT: true, MethodCreditCard: true, MethodOther: true,
}

// Payer maps to the payers table: read-mostly insurance company reference
// data, maintained per location.
type Payer struct {
	ID         uuid.UUID `db:"id" json:"id"`
	LocationID string    `db:"location_id" json:"location_id"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// InsurancePayment maps to the insurance_payments table: one payment event
// from one payer, allocated across invoices.
type InsurancePayment struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	LocationID    string        `db:"location_id" json:"location_id"`
	PayerID       uuid.UUID     `db:"payer_id" json:"payer_id"`
	ClientID      string        `db:"client_id" json:"client_id"`
	PaymentDate   time.Time     `db:"payment_date" json:"payment_date"`
	PaymentMethod PaymentMethod `db:"payment_method" json:"payment_method"`
	PaymentNumber *string       `db:"payment_number" json:"payment_number,omitempty"`
	TotalAmount   float64       `db:"total_amount" json:"total_amount"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// PaymentAllocation maps to the payment_allocations table: one slice of a
// payment assigned to an external invoice. Synced records whether the
// amount has been pushed upstream; SyncError holds the last failure.
type PaymentAllocation struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	PaymentID     uuid.UUID  `db:"payment_id" json:"payment_id"`
	InvoiceRef    string     `db:"invoice_ref" json:"invoice_ref"`
	ClaimID       *uuid.UUID `db:"claim_id" json:"claim_id,omitempty"`
	BilledAmount  float64    `db:"billed_amount" json:"billed_amount"`
	InsurancePaid float64    `db:"insurance_paid" json:"insurance_paid"`
	WriteOff      float64    `db:"write_off" json:"write_off"`
	ClientOwes    float64    `db:"client_owes" json:"client_owes"`
	Synced        bool       `db:"synced" json:"synced"`
	SyncError     *string    `db:"sync_error" json:"sync_error,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
