package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	dJan = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	dFeb = time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
)

func TestParseLetter_Absent(t *testing.T) {
	assert.Equal(t, LetterState{}, ParseLetter(""))
	assert.Equal(t, LetterState{}, ParseLetter("no tags here"))
}

func TestParseLetter_UnknownStatusValue(t *testing.T) {
	note := "[LIST_POLECONY_STATUS]maybe[/LIST_POLECONY_STATUS]"
	assert.Equal(t, LetterState{}, ParseLetter(note))
}

func TestParseLetter_Canonical(t *testing.T) {
	note := "[LIST_POLECONY_STATUS]sent[/LIST_POLECONY_STATUS] [LIST_POLECONY_DATE]2025-01-01[/LIST_POLECONY_DATE]"
	got := ParseLetter(note)
	assert.Equal(t, LetterSent, got.Status)
	assert.Equal(t, dJan, got.Date)
}

func TestParseLetter_LegacySentDate(t *testing.T) {
	note := "[LIST_POLECONY_SENT]2025-01-01[/LIST_POLECONY_SENT]"
	got := ParseLetter(note)
	assert.Equal(t, LetterSent, got.Status)
	assert.Equal(t, dJan, got.Date)
}

func TestParseLetter_LegacyIgnoredDate(t *testing.T) {
	note := "[LIST_POLECONY_IGNORED]2025-02-10[/LIST_POLECONY_IGNORED]"
	got := ParseLetter(note)
	assert.Equal(t, LetterIgnored, got.Status)
	assert.Equal(t, dFeb, got.Date)
}

func TestParseLetter_CanonicalStatusWithLegacyDate(t *testing.T) {
	note := "[LIST_POLECONY_STATUS]sent[/LIST_POLECONY_STATUS] [LIST_POLECONY_SENT]2025-01-01[/LIST_POLECONY_SENT]"
	got := ParseLetter(note)
	assert.Equal(t, LetterSent, got.Status)
	assert.Equal(t, dJan, got.Date)
}

func TestSetLetterSent(t *testing.T) {
	note := SetLetterSent("handled by A.K.", dJan)
	got := ParseLetter(note)
	assert.Equal(t, LetterSent, got.Status)
	assert.Equal(t, dJan, got.Date)
	assert.Contains(t, note, "handled by A.K.")
}

func TestSetLetterIgnored_PreservesSentDate(t *testing.T) {
	note := SetLetterSent("", dJan)
	note = SetLetterIgnored(note, true, dFeb)

	got := ParseLetter(note)
	assert.Equal(t, LetterIgnored, got.Status)
	assert.Equal(t, dJan, got.Date, "sent→ignore must keep the original sent date")
}

func TestSetLetterIgnored_FreshDateWhenNotPreserving(t *testing.T) {
	note := SetLetterIgnored("", false, dFeb)
	got := ParseLetter(note)
	assert.Equal(t, LetterIgnored, got.Status)
	assert.Equal(t, dFeb, got.Date)
}

func TestSetLetterRestored_IsUnignoreNotUnsend(t *testing.T) {
	note := SetLetterSent("", dJan)
	note = SetLetterIgnored(note, true, dFeb)
	note = SetLetterRestored(note)

	got := ParseLetter(note)
	assert.Equal(t, LetterRestored, got.Status)
	assert.Equal(t, dJan, got.Date, "restore keeps the historical date")
}

func TestWriteLetter_ReplacesLegacyTags(t *testing.T) {
	note := "[LIST_POLECONY_SENT]2025-01-01[/LIST_POLECONY_SENT] context"
	note = SetLetterIgnored(note, true, dFeb)

	assert.NotContains(t, note, "[LIST_POLECONY_SENT]")
	got := ParseLetter(note)
	assert.Equal(t, LetterIgnored, got.Status)
	assert.Equal(t, dJan, got.Date)
	assert.Contains(t, note, "context")
}
