package ledger

import (
	"time"

	"windykator/internal/notetag"
)

// Letter-status tags. TagLetterStatus + TagLetterDate is the canonical
// encoding; the two legacy date tags are read when the canonical pair is
// absent but never written back.
const (
	TagLetterStatus = "LIST_POLECONY_STATUS"
	TagLetterDate   = "LIST_POLECONY_DATE"

	TagLetterSentLegacy    = "LIST_POLECONY_SENT"
	TagLetterIgnoredLegacy = "LIST_POLECONY_IGNORED"
)

// LetterStatus is the registered-letter state of one invoice.
type LetterStatus string

const (
	// LetterSent means the registered letter went out.
	LetterSent LetterStatus = "sent"
	// LetterIgnored means the invoice is explicitly excluded from letter
	// escalation.
	LetterIgnored LetterStatus = "ignore"
	// LetterRestored means back in the "awaiting send" bucket after an ignore.
	// The literal is "false" in stored notes for compatibility.
	LetterRestored LetterStatus = "false"
)

// LetterState is the parsed letter status: one enum value plus the date the
// status was last set. Status "" means no tag at all. Date is the zero time
// when absent.
type LetterState struct {
	Status LetterStatus `json:"status,omitempty"`
	Date   time.Time    `json:"date,omitzero"`
}

// ParseLetter reads the letter state from an invoice note. Unknown status
// values read as absent. When only legacy date tags exist the state is
// reconstructed from them.
func ParseLetter(note string) LetterState {
	state := LetterState{}

	if v, ok := notetag.Parse(note, TagLetterStatus); ok {
		switch LetterStatus(v) {
		case LetterSent, LetterIgnored, LetterRestored:
			state.Status = LetterStatus(v)
		}
	}
	if d, ok := notetag.ParseDate(note, TagLetterDate); ok {
		state.Date = d
	}

	if state.Status != "" && !state.Date.IsZero() {
		return state
	}

	// Legacy fallbacks. A bare sent-date tag implies "sent"; a bare
	// ignored-date tag implies "ignore".
	if d, ok := notetag.ParseDate(note, TagLetterSentLegacy); ok {
		if state.Status == "" {
			state.Status = LetterSent
		}
		if state.Date.IsZero() {
			state.Date = d
		}
	} else if d, ok := notetag.ParseDate(note, TagLetterIgnoredLegacy); ok {
		if state.Status == "" {
			state.Status = LetterIgnored
		}
		if state.Date.IsZero() {
			state.Date = d
		}
	}
	return state
}

// SetLetterSent marks the registered letter as sent on the given date.
func SetLetterSent(note string, date time.Time) string {
	return writeLetter(note, LetterState{Status: LetterSent, Date: date})
}

// SetLetterIgnored excludes the invoice from letter escalation. With
// preserveDate the current date survives: an invoice that was sent and later
// ignored keeps its original escalation date, so days-since-escalation
// tracking for the collections handoff stays accurate if reconsidered.
func SetLetterIgnored(note string, preserveDate bool, now time.Time) string {
	state := LetterState{Status: LetterIgnored, Date: now}
	if preserveDate {
		if cur := ParseLetter(note); !cur.Date.IsZero() {
			state.Date = cur.Date
		}
	}
	return writeLetter(note, state)
}

// SetLetterRestored moves the invoice back to the "awaiting send" bucket.
// Restoring un-ignores; it never un-sends. The status becomes "false", not
// unset, and the historical date is kept.
func SetLetterRestored(note string) string {
	state := LetterState{Status: LetterRestored, Date: ParseLetter(note).Date}
	return writeLetter(note, state)
}

func writeLetter(note string, state LetterState) string {
	// canonical tags replace any legacy encoding on write
	note = notetag.Remove(note, TagLetterSentLegacy)
	note = notetag.Remove(note, TagLetterIgnoredLegacy)

	note = notetag.Upsert(note, TagLetterStatus, string(state.Status))
	if state.Date.IsZero() {
		note = notetag.Remove(note, TagLetterDate)
	} else {
		note = notetag.Upsert(note, TagLetterDate, state.Date.Format("2006-01-02"))
	}
	return note
}
