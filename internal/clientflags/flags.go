// Package clientflags reads and rewrites the three workflow flags stored in
// a client's note field:
//
//	[WINDYKACJA]true[/WINDYKACJA]: enrolled in automatic reminders
//	[LIST_POLECONY]true[/LIST_POLECONY]: registered-letter escalation done
//	[LIST_POLECONY_IGNORED]true[/LIST_POLECONY_IGNORED]: excluded from letter escalation
//
// Updates always rewrite all three tags together as one space-joined block
// in front of the remaining free text. Repeated partial edits would slowly
// scatter or duplicate tags across the note; rewriting the whole block keeps
// them contiguous no matter how often they are toggled.
package clientflags

import (
	"strings"

	"windykator/internal/notetag"
)

const (
	TagWindykacja          = "WINDYKACJA"
	TagListPolecony        = "LIST_POLECONY"
	TagListPoleconyIgnored = "LIST_POLECONY_IGNORED"
)

// Flags is the parsed state of a client note. Absent tags read as false.
type Flags struct {
	Windykacja          bool `json:"windykacja"`
	ListPolecony        bool `json:"list_polecony"`
	ListPoleconyIgnored bool `json:"list_polecony_ignored"`
}

// Update is a partial flag change; nil fields keep their current value.
type Update struct {
	Windykacja          *bool `json:"windykacja,omitempty"`
	ListPolecony        *bool `json:"list_polecony,omitempty"`
	ListPoleconyIgnored *bool `json:"list_polecony_ignored,omitempty"`
}

// Parse extracts the three flags from a note, defaulting each to false.
func Parse(note string) Flags {
	return Flags{
		Windykacja:          notetag.ParseBool(note, TagWindykacja),
		ListPolecony:        notetag.ParseBool(note, TagListPolecony),
		ListPoleconyIgnored: notetag.ParseBool(note, TagListPoleconyIgnored),
	}
}

// Apply merges upd over the flags currently in note and returns the rewritten
// note: the three freshly rendered tags first, then whatever unrelated text
// was already there.
func Apply(note string, upd Update) string {
	flags := Parse(note)
	if upd.Windykacja != nil {
		flags.Windykacja = *upd.Windykacja
	}
	if upd.ListPolecony != nil {
		flags.ListPolecony = *upd.ListPolecony
	}
	if upd.ListPoleconyIgnored != nil {
		flags.ListPoleconyIgnored = *upd.ListPoleconyIgnored
	}

	rest := note
	for _, tag := range []string{TagWindykacja, TagListPolecony, TagListPoleconyIgnored} {
		rest = notetag.Remove(rest, tag)
	}

	block := strings.Join([]string{
		notetag.Tag(TagWindykacja, notetag.FormatBool(flags.Windykacja)),
		notetag.Tag(TagListPolecony, notetag.FormatBool(flags.ListPolecony)),
		notetag.Tag(TagListPoleconyIgnored, notetag.FormatBool(flags.ListPoleconyIgnored)),
	}, " ")

	if rest == "" {
		return block
	}
	return block + " " + rest
}
