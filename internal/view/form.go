package view

import (
	"strconv"

	"scrollvite/internal/render"
	"scrollvite/internal/schema"
)

const (
	KindText     = "text"
	KindTextarea = "textarea"
	KindDate     = "date"
	KindURL      = "url"
	KindEmail    = "email"
	KindTel      = "tel"
	KindCheckbox = "checkbox"
)

// Field is one input of the editor form. Name follows the "section.key" or
// "section.index.key" convention schema.EditsFromForm reads back.
type Field struct {
	Name    string
	Label   string
	Kind    string
	Value   string
	Checked bool
}

type Group struct {
	Title  string
	Fields []Field
}

type ListItem struct {
	Index  int
	Fields []Field
}

// ListGroup is an ordered, repeatable section such as the events list.
type ListGroup struct {
	Title   string
	Section string
	Items   []ListItem
}

type Form struct {
	Groups []Group
	Lists  []ListGroup
	Photo  string // current hero photo, shown next to the upload control
}

type fieldSpec struct {
	key, label, kind string
}

type groupSpec struct {
	title, section string
	fields         []fieldSpec
}

var heroFields = []fieldSpec{
	{"bride_name", "Bride Name", KindText},
	{"groom_name", "Groom Name", KindText},
	{"tagline", "Tagline", KindText},
	{"wedding_date", "Date", KindDate},
}

var themeGroups = map[string][]groupSpec{
	render.RoyalWedding: {
		{"Hero", schema.SectionHero, append([]fieldSpec{{"greeting", "Greeting", KindText}}, heroFields...)},
		{"Venue", schema.SectionVenue, []fieldSpec{
			{"name", "Venue Name", KindText},
			{"city", "City", KindText},
			{"address", "Address", KindText},
			{"google_maps_link", "Map Link", KindURL},
		}},
		{"Our Story", schema.SectionCoupleStory, []fieldSpec{
			{"enabled", "Show our story", KindCheckbox},
			{"title", "Title", KindText},
			{"content", "Story", KindTextarea},
		}},
		{"Closing", schema.SectionClosing, []fieldSpec{
			{"message", "Message", KindTextarea},
			{"signature", "Signature", KindText},
		}},
	},
	render.PhotoStory: {
		{"Hero", schema.SectionHero, heroFields},
		{"Our Story", schema.SectionOurStory, []fieldSpec{
			{"title", "Title", KindText},
		}},
		{"Wedding Details", schema.SectionWeddingDetails, []fieldSpec{
			{"date", "Date", KindDate},
			{"time", "Time", KindText},
			{"venue_name", "Venue Name", KindText},
			{"venue_address", "Venue Address", KindText},
			{"dress_code", "Dress Code", KindText},
		}},
		{"RSVP", schema.SectionRSVP, []fieldSpec{
			{"message", "Message", KindTextarea},
			{"deadline", "Deadline", KindDate},
			{"contact_email", "Contact Email", KindEmail},
			{"contact_phone", "Contact Phone", KindTel},
			{"additional_info", "Additional Info", KindTextarea},
		}},
	},
}

var themeLists = map[string][]groupSpec{
	render.RoyalWedding: {
		{"Events", schema.SectionEvents, []fieldSpec{
			{"name", "Event Name", KindText},
			{"date", "Date", KindDate},
			{"time", "Time", KindText},
			{"venue", "Venue", KindText},
			{"dress_code", "Dress Code", KindText},
			{"description", "Description", KindTextarea},
		}},
	},
}

// BuildForm lays out the editor inputs for a theme, filled from s. Unknown
// themes get the default theme's form.
func BuildForm(theme string, s schema.Schema) Form {
	groups, ok := themeGroups[theme]
	if !ok {
		theme = render.DefaultTheme
		groups = themeGroups[theme]
	}

	var f Form
	for _, g := range groups {
		section := s.Section(g.section)
		out := Group{Title: g.title}
		for _, spec := range g.fields {
			out.Fields = append(out.Fields, newField(g.section+"."+spec.key, spec, section))
		}
		f.Groups = append(f.Groups, out)
	}

	for _, l := range themeLists[theme] {
		out := ListGroup{Title: l.title, Section: l.section}
		for i, item := range s.List(l.section) {
			li := ListItem{Index: i}
			for _, spec := range l.fields {
				name := l.section + "." + strconv.Itoa(i) + "." + spec.key
				li.Fields = append(li.Fields, newField(name, spec, item))
			}
			out.Items = append(out.Items, li)
		}
		f.Lists = append(f.Lists, out)
	}

	f.Photo = s.Invitation().Hero.Photo()
	return f
}

func newField(name string, spec fieldSpec, values map[string]any) Field {
	field := Field{Name: name, Label: spec.label, Kind: spec.kind}
	switch v := values[spec.key].(type) {
	case string:
		field.Value = v
	case bool:
		field.Checked = v
		field.Value = strconv.FormatBool(v)
	case float64:
		field.Value = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return field
}
