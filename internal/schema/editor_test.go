package schema

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const weddingDoc = `{
	"hero": {"bride_name": "Asha", "groom_name": "Ravi"},
	"events": [
		{"name": "Mehendi", "date": "2025-02-01", "time": "5pm"},
		{"name": "Sangeet", "date": "2025-02-02", "time": "7pm"}
	],
	"custom": {"kept": true}
}`

func TestUpdateListItemChangesOnlyTheKey(t *testing.T) {
	before := MustParse(`{"hero":{"bride_name":"Asha"},"events":[{"name":"Mehendi","date":"2025-02-01","time":"5pm"}]}`)
	snapshot := before.String()

	after, err := UpdateListItem(before, SectionEvents, 0, "time", "6pm")
	require.NoError(t, err)

	assert.Equal(t, snapshot, before.String(), "previous schema must not change")
	assert.Equal(t, before.Section(SectionHero), after.Section(SectionHero))

	events := after.List(SectionEvents)
	require.Len(t, events, 1)
	assert.Equal(t, "Mehendi", events[0]["name"])
	assert.Equal(t, "2025-02-01", events[0]["date"])
	assert.Equal(t, "6pm", events[0]["time"])
}

func TestUpdateListItemPreservesOrderAndSiblings(t *testing.T) {
	s := MustParse(weddingDoc)

	out, err := UpdateListItem(s, SectionEvents, 1, "venue", "Lawn")
	require.NoError(t, err)

	events := out.List(SectionEvents)
	require.Len(t, events, 2)
	assert.Equal(t, s.List(SectionEvents)[0], events[0])
	assert.Equal(t, "Sangeet", events[1]["name"])
	assert.Equal(t, "Lawn", events[1]["venue"])
	assert.Equal(t, map[string]any{"kept": true}, out.Section("custom"))
}

func TestUpdateListItemErrors(t *testing.T) {
	s := MustParse(weddingDoc)

	_, err := UpdateListItem(s, SectionEvents, 2, "time", "x")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = UpdateListItem(s, SectionEvents, -1, "time", "x")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = UpdateListItem(s, SectionHero, 0, "time", "x")
	assert.ErrorIs(t, err, ErrNotList)

	_, err = UpdateListItem(s, "missing", 0, "time", "x")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestUpdateSectionMergesIntoExistingSection(t *testing.T) {
	s := MustParse(weddingDoc)

	out, err := UpdateSection(s, SectionHero, "tagline", "Two hearts")
	require.NoError(t, err)

	hero := out.Section(SectionHero)
	assert.Equal(t, "Asha", hero["bride_name"])
	assert.Equal(t, "Ravi", hero["groom_name"])
	assert.Equal(t, "Two hearts", hero["tagline"])
	assert.Equal(t, s.List(SectionEvents), out.List(SectionEvents))
	assert.NotContains(t, s.Section(SectionHero), "tagline")
}

func TestUpdateSectionCreatesMissingSection(t *testing.T) {
	out, err := UpdateSection(Empty(), SectionVenue, "name", "Leela Palace")
	require.NoError(t, err)
	assert.Equal(t, "Leela Palace", out.Text(SectionVenue, "name"))

	out, err = UpdateSection(MustParse(`{"closing":null}`), SectionClosing, "signature", "A & R")
	require.NoError(t, err)
	assert.Equal(t, "A & R", out.Text(SectionClosing, "signature"))
}

func TestUpdateSectionRejectsListSection(t *testing.T) {
	s := MustParse(weddingDoc)
	out, err := UpdateSection(s, SectionEvents, "name", "x")
	assert.ErrorIs(t, err, ErrNotObject)
	assert.True(t, out.Equal(s))
}

func TestUpdateSectionKeysNeedingEscape(t *testing.T) {
	out, err := UpdateSection(Empty(), "a/b", "c~d", "v")
	require.NoError(t, err)
	assert.Equal(t, "v", out.Text("a/b", "c~d"))
}

func TestAppendAndRemoveListItem(t *testing.T) {
	s := MustParse(weddingDoc)

	out, err := AppendListItem(s, SectionEvents, map[string]any{"name": "Reception"})
	require.NoError(t, err)
	require.Equal(t, 3, out.Len(SectionEvents))
	assert.Equal(t, "Reception", out.List(SectionEvents)[2]["name"])

	out, err = RemoveListItem(out, SectionEvents, 0)
	require.NoError(t, err)
	names := []any{}
	for _, e := range out.List(SectionEvents) {
		names = append(names, e["name"])
	}
	assert.Equal(t, []any{"Sangeet", "Reception"}, names)
	assert.Equal(t, 2, s.Len(SectionEvents))

	created, err := AppendListItem(Empty(), SectionEvents, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Len(SectionEvents))
}

func TestEditApply(t *testing.T) {
	s := MustParse(weddingDoc)

	out, err := SetText(SectionHero, "bride_name", "Meera").Apply(s)
	require.NoError(t, err)
	assert.Equal(t, "Meera", out.Text(SectionHero, "bride_name"))

	out, err = SetItemText(SectionEvents, 0, "time", "6pm").Apply(out)
	require.NoError(t, err)
	assert.Equal(t, "6pm", out.List(SectionEvents)[0]["time"])

	enabled := Edit{Op: OpSet, Section: SectionCoupleStory, Key: "enabled", Value: json.RawMessage(`true`)}
	out, err = enabled.Apply(out)
	require.NoError(t, err)
	assert.True(t, out.Invitation().CoupleStory.Enabled)

	_, err = Edit{Op: "rename"}.Apply(out)
	assert.Error(t, err)

	_, err = Edit{Op: OpSet, Section: SectionHero, Key: "x", Value: json.RawMessage(`{bad`)}.Apply(out)
	assert.Error(t, err)
}

func TestEditsFromForm(t *testing.T) {
	form := url.Values{
		"hero.bride_name":      {"Asha"},
		"events.1.time":        {"8pm"},
		"couple_story.enabled": {"false", "on"},
		"csrf":                 {"ignored"},
		"events.x.time":        {"ignored"},
	}

	edits := EditsFromForm(form)
	require.Len(t, edits, 3)

	out, err := ApplyAll(MustParse(weddingDoc), edits)
	require.NoError(t, err)
	assert.Equal(t, "Asha", out.Text(SectionHero, "bride_name"))
	assert.Equal(t, "8pm", out.List(SectionEvents)[1]["time"])
	assert.True(t, out.Invitation().CoupleStory.Enabled)
}

func TestApplyAllStopsAtFirstFailure(t *testing.T) {
	s := MustParse(weddingDoc)
	edits := []Edit{
		SetText(SectionHero, "tagline", "first"),
		SetItemText(SectionEvents, 9, "time", "never"),
		SetText(SectionHero, "tagline", "second"),
	}

	out, err := ApplyAll(s, edits)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Equal(t, "first", out.Text(SectionHero, "tagline"))
}

func TestParseListOp(t *testing.T) {
	op, err := ParseListOp("append:events")
	require.NoError(t, err)
	assert.Equal(t, ListOp{Op: OpAppend, Section: "events"}, op)

	op, err = ParseListOp("remove:events:2")
	require.NoError(t, err)
	assert.Equal(t, ListOp{Op: OpRemove, Section: "events", Index: 2}, op)

	for _, bad := range []string{"", "append", "append:", "remove:events", "remove:events:x", "remove:events:-1", "set:hero"} {
		_, err := ParseListOp(bad)
		assert.ErrorIs(t, err, ErrBadListOp, bad)
	}
}

func TestListOpApply(t *testing.T) {
	s := MustParse(`{"events":[{"name":"Mehendi"},{"name":"Sangeet"}]}`)

	added, err := ListOp{Op: OpAppend, Section: SectionEvents}.Apply(s)
	require.NoError(t, err)
	assert.Equal(t, 3, added.Len(SectionEvents))

	removed, err := ListOp{Op: OpRemove, Section: SectionEvents, Index: 0}.Apply(s)
	require.NoError(t, err)
	require.Equal(t, 1, removed.Len(SectionEvents))
	assert.Equal(t, "Sangeet", removed.List(SectionEvents)[0]["name"])
}
