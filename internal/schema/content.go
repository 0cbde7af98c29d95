package schema

import (
	"strconv"
	"strings"
)

// Invitation is the typed view the themes render from. Every field is
// optional; decoding never fails and wrong-typed leaves read as empty.
type Invitation struct {
	Hero           Hero
	Venue          Venue
	Events         []Event
	CoupleStory    CoupleStory
	Closing        Closing
	OurStory       OurStory
	WeddingDetails WeddingDetails
	PhotoGallery   PhotoGallery
	RSVP           RSVP
}

type Hero struct {
	BrideName   string
	GroomName   string
	Greeting    string
	Tagline     string
	WeddingDate string
	CouplePhoto string
	HeroImage   string
	Image       string
}

// Photo is the first image the hero carries.
func (h Hero) Photo() string {
	return firstNonEmpty(h.CouplePhoto, h.HeroImage, h.Image)
}

type Venue struct {
	Name           string
	City           string
	Address        string
	GoogleMapsLink string
}

// Location prefers the street address over the city.
func (v Venue) Location() string {
	return firstNonEmpty(v.Address, v.City)
}

type Event struct {
	Name        string
	Date        string
	Time        string
	Venue       string
	DressCode   string
	Description string
}

type CoupleStory struct {
	Enabled bool
	Title   string
	Content string
}

type Closing struct {
	Message   string
	Signature string
}

type OurStory struct {
	Title    string
	Timeline []Moment
}

type Moment struct {
	Season      string
	Date        string
	Title       string
	Description string
}

// When is the label shown on the timeline.
func (m Moment) When() string {
	return firstNonEmpty(m.Season, m.Date)
}

type WeddingDetails struct {
	Date         string
	Time         string
	VenueName    string
	VenueAddress string
	DressCode    string
}

type PhotoGallery struct {
	Photos []string
}

type RSVP struct {
	Message        string
	Deadline       string
	ContactEmail   string
	ContactPhone   string
	AdditionalInfo string
}

// Invitation decodes the typed view of s.
func (s Schema) Invitation() Invitation {
	doc := s.Map()

	hero := object(doc[SectionHero])
	venue := object(doc[SectionVenue])
	story := object(doc[SectionCoupleStory])
	closing := object(doc[SectionClosing])
	ourStory := object(doc[SectionOurStory])
	details := object(doc[SectionWeddingDetails])
	gallery := object(doc[SectionPhotoGallery])
	rsvp := object(doc[SectionRSVP])

	inv := Invitation{
		Hero: Hero{
			BrideName:   text(hero, "bride_name"),
			GroomName:   text(hero, "groom_name"),
			Greeting:    text(hero, "greeting"),
			Tagline:     text(hero, "tagline"),
			WeddingDate: text(hero, "wedding_date"),
			CouplePhoto: text(hero, "couple_photo"),
			HeroImage:   text(hero, "hero_image"),
			Image:       text(hero, "image"),
		},
		Venue: Venue{
			Name:           text(venue, "name"),
			City:           text(venue, "city"),
			Address:        text(venue, "address"),
			GoogleMapsLink: text(venue, "google_maps_link"),
		},
		CoupleStory: CoupleStory{
			Enabled: boolean(story, "enabled"),
			Title:   text(story, "title"),
			Content: text(story, "content"),
		},
		Closing: Closing{
			Message:   text(closing, "message"),
			Signature: text(closing, "signature"),
		},
		OurStory: OurStory{
			Title: text(ourStory, "title"),
		},
		WeddingDetails: WeddingDetails{
			Date:         text(details, "date"),
			Time:         text(details, "time"),
			VenueName:    text(details, "venue_name"),
			VenueAddress: text(details, "venue_address"),
			DressCode:    text(details, "dress_code"),
		},
		RSVP: RSVP{
			Message:        text(rsvp, "message"),
			Deadline:       text(rsvp, "deadline"),
			ContactEmail:   text(rsvp, "contact_email"),
			ContactPhone:   text(rsvp, "contact_phone"),
			AdditionalInfo: text(rsvp, "additional_info"),
		},
	}

	for _, item := range list(doc[SectionEvents]) {
		e := object(item)
		inv.Events = append(inv.Events, Event{
			Name:        text(e, "name"),
			Date:        text(e, "date"),
			Time:        text(e, "time"),
			Venue:       text(e, "venue"),
			DressCode:   text(e, "dress_code"),
			Description: text(e, "description"),
		})
	}

	for _, item := range list(ourStory["timeline"]) {
		m := object(item)
		inv.OurStory.Timeline = append(inv.OurStory.Timeline, Moment{
			Season:      text(m, "season"),
			Date:        text(m, "date"),
			Title:       text(m, "title"),
			Description: text(m, "description"),
		})
	}

	for _, p := range list(gallery["photos"]) {
		if url, ok := p.(string); ok && strings.TrimSpace(url) != "" {
			inv.PhotoGallery.Photos = append(inv.PhotoGallery.Photos, url)
		}
	}

	return inv
}

func object(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func list(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return nil
}

func text(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func boolean(m map[string]any, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
