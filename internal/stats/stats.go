// Package stats derives a user's note statistics. Nothing here is stored or
// cached: every call recomputes from the notes it is given.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/goodsign/monday"

	"notes-server/internal/domain"
)

const monthLayout = "January 2006"

// dateLayouts gives the short numeric date form per locale.
var dateLayouts = map[monday.Locale]string{
	monday.LocaleRuRU: "02.01.2006",
	monday.LocaleUkUA: "02.01.2006",
	monday.LocaleDeDE: "02.01.2006",
	monday.LocaleEnUS: "1/2/2006",
	monday.LocaleEnGB: "02/01/2006",
	monday.LocaleFrFR: "02/01/2006",
}

const defaultDateLayout = "2006-01-02"

// yearSuffixes marks locales whose month labels are written in lower case
// with an abbreviated "year" word, as in "март 2024 г.".
var yearSuffixes = map[monday.Locale]string{
	monday.LocaleRuRU: " г.",
	monday.LocaleUkUA: " р.",
}

// Formatter renders dates and month labels for one locale and time zone.
type Formatter struct {
	locale monday.Locale
	loc    *time.Location
}

func NewFormatter(locale string, loc *time.Location) Formatter {
	if loc == nil {
		loc = time.Local
	}
	return Formatter{locale: monday.Locale(locale), loc: loc}
}

func (f Formatter) Date(t time.Time) string {
	layout, ok := dateLayouts[f.locale]
	if !ok {
		layout = defaultDateLayout
	}
	return t.In(f.loc).Format(layout)
}

func (f Formatter) Month(t time.Time) string {
	label := monday.Format(t.In(f.loc), monthLayout, f.locale)
	if suffix, ok := yearSuffixes[f.locale]; ok {
		return strings.ToLower(label) + suffix
	}
	return label
}

// Compute builds the snapshot for notes. The input order does not matter.
func (f Formatter) Compute(notes []*domain.Note) domain.Stats {
	s := domain.Stats{
		Total:   len(notes),
		Tags:    []string{},
		ByMonth: map[string]int{},
	}

	if len(notes) == 0 {
		return s
	}

	seen := make(map[string]struct{})
	lastCreated := notes[0].CreatedAt
	lastUpdated := notes[0].UpdatedAt

	for _, n := range notes {
		if n.IsFavorite {
			s.Favorites++
		}

		for _, tag := range n.Tags {
			if _, ok := seen[tag]; !ok {
				seen[tag] = struct{}{}
				s.Tags = append(s.Tags, tag)
			}
		}

		if n.CreatedAt.After(lastCreated) {
			lastCreated = n.CreatedAt
		}
		if n.UpdatedAt.After(lastUpdated) {
			lastUpdated = n.UpdatedAt
		}

		s.ByMonth[f.Month(n.CreatedAt)]++
	}

	sort.Strings(s.Tags)

	created := f.Date(lastCreated)
	updated := f.Date(lastUpdated)
	s.LastCreated = &created
	s.LastUpdated = &updated

	return s
}
