package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformed matches every schema validation failure.
var ErrMalformed = errors.New("malformed invitation schema")

// ValidationError lists every structural problem found in a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformed, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrMalformed
}

var objectSections = []string{
	SectionHero,
	SectionVenue,
	SectionCoupleStory,
	SectionClosing,
	SectionRSVP,
	SectionWeddingDetails,
	SectionPhotoGallery,
	SectionOurStory,
}

// Validate checks the shape of the sections the themes read. Leaf values and
// unknown sections are not inspected; missing sections are fine.
func Validate(doc map[string]any) error {
	var problems []string

	for _, name := range objectSections {
		if v, ok := doc[name]; ok && v != nil {
			if _, isObj := v.(map[string]any); !isObj {
				problems = append(problems, fmt.Sprintf("%s must be an object", name))
			}
		}
	}

	if v, ok := doc[SectionEvents]; ok && v != nil {
		items, isList := v.([]any)
		if !isList {
			problems = append(problems, "events must be a list")
		}
		for i, item := range items {
			if _, isObj := item.(map[string]any); !isObj {
				problems = append(problems, fmt.Sprintf("events[%d] must be an object", i))
			}
		}
	}

	if story, ok := doc[SectionOurStory].(map[string]any); ok {
		if v, ok := story["timeline"]; ok && v != nil {
			if _, isList := v.([]any); !isList {
				problems = append(problems, "our_story.timeline must be a list")
			}
		}
	}

	if gallery, ok := doc[SectionPhotoGallery].(map[string]any); ok {
		if v, ok := gallery["photos"]; ok && v != nil {
			photos, isList := v.([]any)
			if !isList {
				problems = append(problems, "photo_gallery.photos must be a list")
			}
			for i, p := range photos {
				if _, isStr := p.(string); !isStr {
					problems = append(problems, fmt.Sprintf("photo_gallery.photos[%d] must be a string", i))
				}
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return &ValidationError{Problems: problems}
}
