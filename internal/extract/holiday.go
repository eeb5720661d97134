// Package extract turns the hauler's announcement pages into normalized
// disruption rules.
//
// Both pages follow the same accordion markup: repeated
// div.repeatable-content sections, each preceded by an h3 heading. The
// extractors depend only on that shape; everything inside a section is
// treated as lines of text. A section that does not match the expected
// shape is skipped with a logged diagnostic and never aborts the batch —
// the only hard failure is input that cannot be parsed into a document
// tree at all.
package extract

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/curbcycle/curbcycle/internal/schedule"
)

// holidayDateLayouts are the accepted date formats on the holiday schedule
// page, tried in order.
var holidayDateLayouts = []string{
	"Monday, January 2, 2006",
	"Monday, Jan. 2, 2006",
	"Monday, Jan 2, 2006",
}

// delayPhrases mark a holiday as shifting service by one day.
var delayPhrases = []string{
	"service will not occur",
	"no service",
	"delayed one day",
	"will move to",
	"move to saturday",
}

// HolidayExtractor parses the hauler's holiday schedule page.
type HolidayExtractor struct {
	logger zerolog.Logger
}

// NewHolidayExtractor creates a holiday schedule extractor.
func NewHolidayExtractor(logger zerolog.Logger) *HolidayExtractor {
	return &HolidayExtractor{
		logger: logger.With().Str("component", "holiday_extractor").Logger(),
	}
}

// Extract parses the holiday schedule page into one rule per holiday
// section.
func (e *HolidayExtractor) Extract(r io.Reader) ([]schedule.DisruptionRule, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse holiday schedule page: %w", err)
	}

	var rules []schedule.DisruptionRule
	doc.Find("div.repeatable-content").Each(func(_ int, section *goquery.Selection) {
		rule, ok := e.extractSection(section)
		if !ok {
			return
		}
		rules = append(rules, rule)
	})

	return rules, nil
}

func (e *HolidayExtractor) extractSection(section *goquery.Selection) (schedule.DisruptionRule, bool) {
	heading := section.PrevAllFiltered("h3.tab").First()
	content := section.Find("div.text").First()
	if heading.Length() == 0 || content.Length() == 0 {
		e.logger.Warn().Msg("skipping malformed holiday section")
		return schedule.DisruptionRule{}, false
	}

	name := strings.TrimSpace(heading.Text())

	var anchor time.Time
	dateText := strings.TrimSpace(content.Find("h3").First().Text())
	if dateText != "" {
		var ok bool
		anchor, ok = parseHolidayDate(dateText)
		if !ok {
			e.logger.Warn().
				Str("holiday", name).
				Str("date_text", dateText).
				Msg("could not parse holiday date")
		}
	}

	var paragraphs []string
	content.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	causesDelay := detectDelay(paragraphs)
	delayDays := 0
	if causesDelay {
		delayDays = 1
	}

	rule := schedule.DisruptionRule{
		Kind:        schedule.RuleKindHolidayClosure,
		Label:       name,
		CausesDelay: causesDelay,
		DelayDays:   delayDays,
		AnchorDate:  anchor,
		Notes:       extractNotes(paragraphs),
		RawText:     strings.Join(paragraphs, " "),
	}

	e.logger.Debug().
		Str("holiday", name).
		Bool("causes_delay", causesDelay).
		Msg("parsed holiday section")

	return rule, true
}

// parseHolidayDate tries each accepted layout in order. Some schedules
// abbreviate September as "Sept.", which no layout recognizes, so it is
// normalized first.
func parseHolidayDate(text string) (time.Time, bool) {
	text = strings.ReplaceAll(text, "Sept.", "Sep.")
	for _, layout := range holidayDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return schedule.Midnight(t), true
		}
	}
	return time.Time{}, false
}

// detectDelay runs the keyword classifier over the concatenated section
// text. An explicit "no service delays" overrides any positive match.
func detectDelay(paragraphs []string) bool {
	text := strings.ToLower(strings.Join(paragraphs, " "))
	if strings.Contains(text, "no service delays") {
		return false
	}
	for _, phrase := range delayPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// extractNotes pulls exception and footnote lines out of the section text.
// They are attached to the rule for diagnostics only.
func extractNotes(paragraphs []string) []string {
	var notes []string
	for _, p := range paragraphs {
		lower := strings.ToLower(p)
		if strings.Contains(lower, "exception") || strings.Contains(lower, "note:") {
			notes = append(notes, p)
		}
	}
	return notes
}
