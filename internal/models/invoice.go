package models

import (
	"strings"
	"time"
)

// Invoice statuses and kinds as reported by the invoicing SaaS. Only the
// values the decision logic depends on are named.
const (
	StatusPaid   = "paid"
	StatusSent   = "sent"
	StatusIssued = "issued"

	KindCanceled   = "canceled"
	KindCorrection = "correction"
)

// CorrectiveNumberPrefix marks credit notes by numbering convention.
// Corrective invoices never count toward client-level debt totals.
const CorrectiveNumberPrefix = "FK"

// Invoice mirrors one invoice record of the invoicing SaaS.
type Invoice struct {
	ID       int64  `json:"id"`
	ClientID int64  `json:"client_id"`
	Number   string `json:"number"`

	Status string `json:"status"`
	Kind   string `json:"kind"`

	PriceGross float64 `json:"price_gross"`
	Paid       float64 `json:"paid"`

	// InternalNote carries the reminder ledger and letter-status tags.
	InternalNote string `json:"internal_note"`

	// HasThirdReminder is a materialized copy of the ledger's level-3
	// predicate, kept as a column for query performance. It may trail the
	// note transiently; the ledger is authoritative.
	HasThirdReminder bool `json:"has_third_reminder"`

	IssuedAt  time.Time `json:"issued_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Outstanding is the unpaid remainder of the gross amount.
func (i *Invoice) Outstanding() float64 {
	return i.PriceGross - i.Paid
}

// IsCorrective reports whether the invoice is a credit note by numbering
// convention.
func (i *Invoice) IsCorrective() bool {
	return strings.HasPrefix(i.Number, CorrectiveNumberPrefix)
}
