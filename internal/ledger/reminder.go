// Package ledger implements the two structured records kept inside an
// invoice's internal note: the [FISCAL_SYNC] reminder ledger and the
// [LIST_POLECONY_STATUS] registered-letter status.
//
// The reminder ledger tracks, per channel (email/sms/whatsapp) and per
// escalation level (1..3), whether a reminder was sent and when, plus a
// manual STOP switch, a content-integrity hash and a last-verified
// timestamp. The whole block is rewritten on every change so a boolean and
// its timestamp can never drift apart.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"windykator/internal/common"
	"windykator/internal/notetag"
)

// BlockTag is the note tag wrapping the reminder ledger.
const BlockTag = "FISCAL_SYNC"

// Channel identifies a reminder delivery channel.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Channels lists all delivery channels in ledger order.
var Channels = []Channel{ChannelEmail, ChannelSMS, ChannelWhatsApp}

// MaxLevel is the highest escalation level; level 3 gates the
// registered-letter workflow.
const MaxLevel = 3

// BlockKey returns the channel's key prefix inside the ledger block
// (EMAIL, SMS, WHATSAPP).
func (c Channel) BlockKey() (string, error) {
	switch c {
	case ChannelEmail:
		return "EMAIL", nil
	case ChannelSMS:
		return "SMS", nil
	case ChannelWhatsApp:
		return "WHATSAPP", nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnknownChannel, string(c))
	}
}

// SendRecord is one channel/level cell: sent flag plus send time.
// SentAt is the zero time when unknown.
type SendRecord struct {
	Sent   bool      `json:"sent"`
	SentAt time.Time `json:"sent_at,omitzero"`
}

// Ledger is the parsed reminder block. Every field is optional on input:
// hand-edited or partially populated blocks must parse, not be rejected.
type Ledger struct {
	records map[Channel][MaxLevel + 1]SendRecord

	// Stop suppresses all future automatic sends for the invoice.
	Stop bool `json:"stop"`
	// Hash is the content-integrity hash of the invoice, used by the
	// duplicate detector.
	Hash string `json:"hash,omitempty"`
	// Updated is when the hash was last verified against the source row.
	Updated time.Time `json:"updated,omitzero"`
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{records: map[Channel][MaxLevel + 1]SendRecord{}}
}

// Record returns the cell for a channel/level; absent cells read as unsent.
func (l *Ledger) Record(ch Channel, level int) SendRecord {
	if level < 1 || level > MaxLevel {
		return SendRecord{}
	}
	return l.records[ch][level]
}

// SetRecord updates one channel/level cell. Setting sent=false clears the
// timestamp; setting sent=true records it, so the pair stays consistent.
func (l *Ledger) SetRecord(ch Channel, level int, sent bool, at time.Time) error {
	if _, err := ch.BlockKey(); err != nil {
		return err
	}
	if level < 1 || level > MaxLevel {
		return fmt.Errorf("%w: %d", common.ErrInvalidLevel, level)
	}
	recs := l.records[ch]
	if sent {
		recs[level] = SendRecord{Sent: true, SentAt: at}
	} else {
		recs[level] = SendRecord{}
	}
	l.records[ch] = recs
	return nil
}

// HasThirdLevelReminder reports whether any channel recorded a level-3 send.
// Deliberately ignores invoice status: a paid invoice can still "have had"
// a third reminder; callers apply payment/cancellation exclusions.
func (l *Ledger) HasThirdLevelReminder() bool {
	for _, ch := range Channels {
		if l.Record(ch, MaxLevel).Sent {
			return true
		}
	}
	return false
}

// Parse extracts the reminder ledger from an invoice note. ok is false when
// no [FISCAL_SYNC] block is present at all. Unknown keys and unparseable
// values inside the block are skipped.
func Parse(note string) (*Ledger, bool) {
	raw, found := notetag.Parse(note, BlockTag)
	if !found {
		return nil, false
	}

	l := NewLedger()
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "STOP":
			l.Stop = strings.EqualFold(value, "TRUE")
			continue
		case "HASH":
			l.Hash = value
			continue
		case "UPDATED":
			if t, ok := notetag.ParseTimeValue(value); ok {
				l.Updated = t
			}
			continue
		}

		for _, ch := range Channels {
			prefix, _ := ch.BlockKey()
			for level := 1; level <= MaxLevel; level++ {
				flagKey := fmt.Sprintf("%s_%d", prefix, level)
				switch key {
				case flagKey:
					recs := l.records[ch]
					rec := recs[level]
					rec.Sent = strings.EqualFold(value, "TRUE")
					recs[level] = rec
					l.records[ch] = recs
				case flagKey + "_DATE":
					if t, ok := notetag.ParseTimeValue(value); ok {
						recs := l.records[ch]
						rec := recs[level]
						rec.SentAt = t
						recs[level] = rec
						l.records[ch] = recs
					}
				}
			}
		}
	}
	return l, true
}

// Render serializes the ledger into its canonical block content. Only cells
// that were ever sent get lines, keeping hand-inspection of notes bearable.
func (l *Ledger) Render() string {
	var lines []string
	for _, ch := range Channels {
		prefix, _ := ch.BlockKey()
		for level := 1; level <= MaxLevel; level++ {
			rec := l.Record(ch, level)
			if !rec.Sent {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s_%d=TRUE", prefix, level))
			if !rec.SentAt.IsZero() {
				lines = append(lines, fmt.Sprintf("%s_%d_DATE=%s", prefix, level, rec.SentAt.Format(time.RFC3339)))
			}
		}
	}
	lines = append(lines, "STOP="+boolUpper(l.Stop))
	if l.Hash != "" {
		lines = append(lines, "HASH="+l.Hash)
	}
	if !l.Updated.IsZero() {
		lines = append(lines, "UPDATED="+l.Updated.Format(time.RFC3339))
	}
	return "\n" + strings.Join(lines, "\n") + "\n"
}

// Write rewrites the whole ledger block inside the note.
func Write(note string, l *Ledger) string {
	return notetag.Upsert(note, BlockTag, l.Render())
}

// SetFlag sets one channel/level pair inside the note's ledger, creating an
// empty block first if none existed. The block is rewritten as a whole.
// Re-applying the same flag and timestamp is a no-op.
func SetFlag(note string, ch Channel, level int, sent bool, at time.Time) (string, error) {
	l, found := Parse(note)
	if !found {
		l = NewLedger()
	}
	if err := l.SetRecord(ch, level, sent, at); err != nil {
		return note, err
	}
	return Write(note, l), nil
}

// InitializeFromExternalSend reconciles the ledger with the invoicing tool's
// own delivery: when the SaaS reports the document as already emailed and
// EMAIL level 1 is not yet recorded, a level-1 email send is synthesized at
// the external send time. Idempotent: once EMAIL_1 is true the note is
// returned unchanged, so repeated sync passes cannot grow the block.
func InitializeFromExternalSend(note string, externallySent bool, sentAt time.Time) string {
	if !externallySent {
		return note
	}
	l, found := Parse(note)
	if found && l.Record(ChannelEmail, 1).Sent {
		return note
	}
	updated, err := SetFlag(note, ChannelEmail, 1, true, sentAt)
	if err != nil {
		return note
	}
	return updated
}

// ContentHash derives the invoice's content-integrity hash from the fields
// that identify a duplicate: invoice number, client and gross amount.
func ContentHash(number string, clientID int64, priceGross float64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%.2f", number, clientID, priceGross)))
	return hex.EncodeToString(sum[:])[:16]
}

// SetVerification stamps the hash and last-verified time on the note's
// ledger, creating the block when absent.
func SetVerification(note string, hash string, at time.Time) string {
	l, found := Parse(note)
	if !found {
		l = NewLedger()
	}
	l.Hash = hash
	l.Updated = at
	return Write(note, l)
}

// SetStop toggles the manual kill-switch on the note's ledger.
func SetStop(note string, stop bool) string {
	l, found := Parse(note)
	if !found {
		l = NewLedger()
	}
	l.Stop = stop
	return Write(note, l)
}

// Levels returns 1..MaxLevel, useful for scan loops.
func Levels() []int {
	levels := make([]int, 0, MaxLevel)
	for i := 1; i <= MaxLevel; i++ {
		levels = append(levels, i)
	}
	return levels
}

func boolUpper(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}
