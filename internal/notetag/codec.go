// Package notetag implements the [NAME]value[/NAME] encoding used to keep
// workflow state inside the free-text note fields of clients and invoices.
//
// The syntax must stay bit-exact: historical records and hand-made edits in
// the invoicing tool already carry these tags. Parsing is deliberately
// forgiving: a malformed or unterminated tag reads as absent, never as an
// error, because notes are editable by humans.
package notetag

import (
	"regexp"
	"strings"
	"time"
)

const (
	// Literal boolean values stored inside tags. Matching is case-sensitive;
	// anything else reads as false.
	TrueValue  = "true"
	FalseValue = "false"
)

var (
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)
	blankLines   = regexp.MustCompile(`\n{2,}`)
	spacedNewline = regexp.MustCompile(`[ \t]+\n`)
)

// Parse returns the verbatim content of the first [name]...[/name] occurrence
// and true, or "" and false when the tag is absent or unterminated.
func Parse(text, name string) (string, bool) {
	if text == "" {
		return "", false
	}
	open := "[" + name + "]"
	close := "[/" + name + "]"

	start := strings.Index(text, open)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(open):]
	end := strings.Index(rest, close)
	if end < 0 {
		// unterminated tag, fail open
		return "", false
	}
	return rest[:end], true
}

// ParseBool reads a boolean tag. Only the literal "true" counts; absent,
// malformed, or any other value is false.
func ParseBool(text, name string) bool {
	v, ok := Parse(text, name)
	return ok && v == TrueValue
}

// ParseDate reads a date tag holding either a plain YYYY-MM-DD date or a
// full ISO-8601 timestamp. Unparseable values read as absent.
func ParseDate(text, name string) (time.Time, bool) {
	v, ok := Parse(text, name)
	if !ok {
		return time.Time{}, false
	}
	return ParseTimeValue(v)
}

// ParseTimeValue interprets a raw tag value as a timestamp or plain date.
func ParseTimeValue(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Upsert replaces the value of an existing [name]...[/name] occurrence in
// place, or appends a fresh tag to the end of the text separated by a single
// space. Appending never introduces a newline: the invoicing tool is known
// to mangle multi-line notes, so flags are kept on one line.
func Upsert(text, name, value string) string {
	open := "[" + name + "]"
	close := "[/" + name + "]"
	tag := open + value + close

	start := strings.Index(text, open)
	if start >= 0 {
		rest := text[start+len(open):]
		end := strings.Index(rest, close)
		if end >= 0 {
			return text[:start] + tag + rest[end+len(close):]
		}
		// Unterminated occurrence, likely a hand-mangled note. Drop the
		// bare open markers so the appended tag reads back immediately;
		// whatever followed them stays as free text.
		text = strings.ReplaceAll(text, open, "")
	}

	if strings.TrimSpace(text) == "" {
		return tag
	}
	return strings.TrimRight(text, " \t") + " " + tag
}

// Remove strips the first well-formed occurrence of the tag and collapses
// whitespace left behind. Returns "" when nothing else remains.
func Remove(text, name string) string {
	open := "[" + name + "]"
	close := "[/" + name + "]"

	start := strings.Index(text, open)
	if start < 0 {
		return text
	}
	rest := text[start+len(open):]
	end := strings.Index(rest, close)
	if end < 0 {
		return text
	}

	out := text[:start] + rest[end+len(close):]
	out = multiSpace.ReplaceAllString(out, " ")
	out = spacedNewline.ReplaceAllString(out, "\n")
	out = blankLines.ReplaceAllString(out, "\n")
	return strings.TrimSpace(out)
}

// FormatBool renders a boolean into its tag literal.
func FormatBool(v bool) string {
	if v {
		return TrueValue
	}
	return FalseValue
}

// Tag renders a complete [name]value[/name] segment.
func Tag(name, value string) string {
	return "[" + name + "]" + value + "[/" + name + "]"
}
