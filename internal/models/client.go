// Package models defines the mirrored row shapes for clients and invoices.
// Rows originate in the invoicing SaaS; the note fields carry the tag
// protocol and are mirrored verbatim.
package models

import "time"

// Client mirrors one client record of the invoicing SaaS.
type Client struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	// Note is the free-text field carrying the workflow flags. It is the
	// only place client-side protocol state lives; flags are always
	// recomputed from it, never stored separately.
	Note string `json:"note"`

	UpdatedAt time.Time `json:"updated_at"`
}
