package fakturownia

import (
	"strconv"
	"strings"
	"time"

	"windykator/internal/models"
)

// The SaaS returns loosely typed rows: amounts as strings, timestamps in a
// few formats, optional fields simply missing. These DTOs capture the raw
// shape; conversion to the typed mirror rows happens at this boundary so
// nothing duck-typed leaks into the core.

type apiClient struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Note      string `json:"note"`
	UpdatedAt string `json:"updated_at"`
}

type apiInvoice struct {
	ID           int64  `json:"id"`
	ClientID     int64  `json:"client_id"`
	Number       string `json:"number"`
	Status       string `json:"status"`
	Kind         string `json:"kind"`
	PriceGross   string `json:"price_gross"`
	Paid         string `json:"paid"`
	InternalNote string `json:"internal_note"`
	SellDate     string `json:"sell_date"`
	UpdatedAt    string `json:"updated_at"`

	// EmailStatus / SentTime describe the SaaS's own delivery of the
	// document at creation time, independent of this system.
	EmailStatus string `json:"email_status"`
	SentTime    string `json:"sent_time"`
}

func (c *apiClient) toModel() *models.Client {
	return &models.Client{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Note:      c.Note,
		UpdatedAt: parseAPITime(c.UpdatedAt),
	}
}

func (i *apiInvoice) toModel() *models.Invoice {
	return &models.Invoice{
		ID:           i.ID,
		ClientID:     i.ClientID,
		Number:       i.Number,
		Status:       i.Status,
		Kind:         i.Kind,
		PriceGross:   parseAPIAmount(i.PriceGross),
		Paid:         parseAPIAmount(i.Paid),
		InternalNote: i.InternalNote,
		IssuedAt:     parseAPITime(i.SellDate),
		UpdatedAt:    parseAPITime(i.UpdatedAt),
	}
}

// SentExternally reports whether the SaaS already emailed the document
// itself, and when. Used to seed the reminder ledger so the first automatic
// email is not a duplicate.
func (i *apiInvoice) SentExternally() (bool, time.Time) {
	if !strings.EqualFold(i.EmailStatus, "sent") {
		return false, time.Time{}
	}
	at := parseAPITime(i.SentTime)
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return true, at
}

func parseAPIAmount(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseAPITime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
