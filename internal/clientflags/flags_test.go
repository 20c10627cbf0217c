package clientflags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"windykator/internal/notetag"
)

func boolPtr(v bool) *bool { return &v }

func TestParse_Defaults(t *testing.T) {
	assert.Equal(t, Flags{}, Parse(""))
	assert.Equal(t, Flags{}, Parse("just a note"))
}

func TestParse_AllSet(t *testing.T) {
	note := "[WINDYKACJA]true[/WINDYKACJA] [LIST_POLECONY]true[/LIST_POLECONY] [LIST_POLECONY_IGNORED]false[/LIST_POLECONY_IGNORED]"
	assert.Equal(t, Flags{Windykacja: true, ListPolecony: true}, Parse(note))
}

func TestParse_TagNamePrefixDoesNotCollide(t *testing.T) {
	// LIST_POLECONY must not match inside LIST_POLECONY_IGNORED
	note := "[LIST_POLECONY_IGNORED]true[/LIST_POLECONY_IGNORED]"
	got := Parse(note)
	assert.False(t, got.ListPolecony)
	assert.True(t, got.ListPoleconyIgnored)
}

func TestApply_EmptyNote(t *testing.T) {
	got := Apply("", Update{Windykacja: boolPtr(true)})
	want := "[WINDYKACJA]true[/WINDYKACJA] [LIST_POLECONY]false[/LIST_POLECONY] [LIST_POLECONY_IGNORED]false[/LIST_POLECONY_IGNORED]"
	assert.Equal(t, want, got)
}

func TestApply_KeepsUnsuppliedFlags(t *testing.T) {
	note := Apply("", Update{Windykacja: boolPtr(true), ListPolecony: boolPtr(true)})

	got := Apply(note, Update{ListPoleconyIgnored: boolPtr(true)})
	flags := Parse(got)
	assert.Equal(t, Flags{Windykacja: true, ListPolecony: true, ListPoleconyIgnored: true}, flags)
}

func TestApply_PrefixesBlockToFreeText(t *testing.T) {
	got := Apply("prefers email contact", Update{Windykacja: boolPtr(true)})
	assert.Equal(t,
		"[WINDYKACJA]true[/WINDYKACJA] [LIST_POLECONY]false[/LIST_POLECONY] [LIST_POLECONY_IGNORED]false[/LIST_POLECONY_IGNORED] prefers email contact",
		got)
}

func TestApply_RepeatedtogglesDoNotDuplicateTags(t *testing.T) {
	note := "some context"
	for i := 0; i < 5; i++ {
		note = Apply(note, Update{Windykacja: boolPtr(i%2 == 0)})
	}
	assert.Equal(t, 1, strings.Count(note, "[WINDYKACJA]"))
	assert.Equal(t, 1, strings.Count(note, "[LIST_POLECONY]"))
	assert.Equal(t, 1, strings.Count(note, "[LIST_POLECONY_IGNORED]"))
	assert.Contains(t, note, "some context")
	assert.True(t, Parse(note).Windykacja)
}

func TestApply_ScatteredLegacyTagsGetRegrouped(t *testing.T) {
	note := "[LIST_POLECONY]true[/LIST_POLECONY] old info [WINDYKACJA]true[/WINDYKACJA]"
	got := Apply(note, Update{})

	flags := Parse(got)
	assert.Equal(t, Flags{Windykacja: true, ListPolecony: true}, flags)

	// all three tags contiguous in front
	assert.Equal(t,
		"[WINDYKACJA]true[/WINDYKACJA] [LIST_POLECONY]true[/LIST_POLECONY] [LIST_POLECONY_IGNORED]false[/LIST_POLECONY_IGNORED] old info",
		got)
}

func TestApply_DoesNotTouchForeignTags(t *testing.T) {
	note := "[SEGMENT]gold[/SEGMENT]"
	got := Apply(note, Update{Windykacja: boolPtr(true)})
	v, ok := notetag.Parse(got, "SEGMENT")
	assert.True(t, ok)
	assert.Equal(t, "gold", v)
}
