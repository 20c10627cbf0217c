// Package eligibility holds the pure decision logic of the reminder and
// escalation workflow. No I/O: every function reads the records it is given
// and returns an answer. Sends are performed elsewhere; these predicates
// only report readiness.
package eligibility

import (
	"time"

	"windykator/internal/clientflags"
	"windykator/internal/ledger"
	"windykator/internal/models"
)

// Workflow defaults. All of them are overridable through configuration.
const (
	// DefaultLevelIntervalDays is the minimum gap between consecutive
	// reminder levels on one channel.
	DefaultLevelIntervalDays = 7
	// DefaultLetterCountThreshold is how many third-reminder invoices alone
	// qualify a client for the registered letter.
	DefaultLetterCountThreshold = 3
	// DefaultLetterDebtThreshold is the outstanding total (EUR) that alone
	// qualifies a client for the registered letter.
	DefaultLetterDebtThreshold = 190.0
	// DefaultCollectionsMinDays is how long a sent registered letter must
	// stay unanswered before the collections-agency handoff.
	DefaultCollectionsMinDays = 31
)

// Engine evaluates reminder and escalation eligibility with a fixed set of
// thresholds.
type Engine struct {
	LevelIntervalDays    int
	LetterCountThreshold int
	LetterDebtThreshold  float64
	CollectionsMinDays   int
}

// NewEngine returns an Engine with the default thresholds.
func NewEngine() *Engine {
	return &Engine{
		LevelIntervalDays:    DefaultLevelIntervalDays,
		LetterCountThreshold: DefaultLetterCountThreshold,
		LetterDebtThreshold:  DefaultLetterDebtThreshold,
		CollectionsMinDays:   DefaultCollectionsMinDays,
	}
}

// collectible reports whether the invoice still carries pursuable debt.
func collectible(inv *models.Invoice) bool {
	if inv.Status == models.StatusPaid || inv.Kind == models.KindCanceled {
		return false
	}
	return inv.Outstanding() > 0
}

// NeedsReminder reports whether a reminder of the given channel and level is
// due now. Per (invoice, channel) the ledger forms a small state machine
// (none-sent, level-1..3-sent, stopped) whose transitions fire only through
// explicit send actions; this predicate never mutates anything.
func (e *Engine) NeedsReminder(inv *models.Invoice, ch ledger.Channel, level int, now time.Time) bool {
	if level < 1 || level > ledger.MaxLevel {
		return false
	}
	if !collectible(inv) {
		return false
	}

	l, found := ledger.Parse(inv.InternalNote)
	if !found {
		l = ledger.NewLedger()
	}
	if l.Stop {
		return false
	}
	if l.Record(ch, level).Sent {
		return false
	}
	if level == 1 {
		return true
	}

	prev := l.Record(ch, level-1)
	if !prev.Sent || prev.SentAt.IsZero() {
		return false
	}
	elapsed := now.Sub(prev.SentAt)
	return elapsed >= time.Duration(e.LevelIntervalDays)*24*time.Hour
}

// HasThirdLevelReminder recomputes the level-3 predicate from the note.
// The invoice row caches it as a column; the ledger stays authoritative.
func HasThirdLevelReminder(inv *models.Invoice) bool {
	l, found := ledger.Parse(inv.InternalNote)
	if !found {
		return false
	}
	return l.HasThirdLevelReminder()
}

// QualifiesForThirdReminderEscalation reports whether the invoice carries a
// third-level reminder and still awaits the registered letter. Payment and
// cancellation exclusions are applied by the per-client aggregation, not
// here.
func (e *Engine) QualifiesForThirdReminderEscalation(inv *models.Invoice) bool {
	if !HasThirdLevelReminder(inv) {
		return false
	}
	status := ledger.ParseLetter(inv.InternalNote).Status
	return status != ledger.LetterSent && status != ledger.LetterIgnored
}

// QualifiesForLetterEscalation decides whether a client is due the
// registered letter: among the client's collectible invoices awaiting the
// letter, either the count alone or the outstanding total alone suffices.
// Clients already escalated or explicitly excluded never qualify. Corrective
// invoices stay out of the debt total regardless of their raw fields.
func (e *Engine) QualifiesForLetterEscalation(client *models.Client, invoices []*models.Invoice) bool {
	flags := clientflags.Parse(client.Note)
	if flags.ListPolecony || flags.ListPoleconyIgnored {
		return false
	}

	count := 0
	var debt float64
	for _, inv := range invoices {
		if !collectible(inv) {
			continue
		}
		if !e.QualifiesForThirdReminderEscalation(inv) {
			continue
		}
		count++
		if !inv.IsCorrective() {
			debt += inv.Outstanding()
		}
	}
	return count >= e.LetterCountThreshold || debt >= e.LetterDebtThreshold
}

// QualifiesForCollectionsHandoff reports whether the invoice is ready for
// the external debt-collection agency: the registered letter went out at
// least CollectionsMinDays ago and the invoice is still unpaid.
func (e *Engine) QualifiesForCollectionsHandoff(inv *models.Invoice, now time.Time) bool {
	if inv.Status == models.StatusPaid {
		return false
	}
	state := ledger.ParseLetter(inv.InternalNote)
	if state.Status != ledger.LetterSent || state.Date.IsZero() {
		return false
	}
	deadline := state.Date.AddDate(0, 0, e.CollectionsMinDays)
	return !now.Before(deadline)
}

// ClientOutstanding sums the collectible debt of a client's invoices,
// excluding corrective invoices by numbering convention.
func ClientOutstanding(invoices []*models.Invoice) float64 {
	var total float64
	for _, inv := range invoices {
		if !collectible(inv) || inv.IsCorrective() {
			continue
		}
		total += inv.Outstanding()
	}
	return total
}
