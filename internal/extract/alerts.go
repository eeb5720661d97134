package extract

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/curbcycle/curbcycle/internal/schedule"
)

// stateNames maps the state abbreviations used in household configuration
// to the full names the alerts page headings use.
var stateNames = map[string]string{
	"OH": "Ohio",
	"KY": "Kentucky",
	"IN": "Indiana",
	"WV": "West Virginia",
	"IL": "Illinois",
}

// weekOfPattern matches "week of Jan. 26" / "week of january 26" in
// lowercased alert text.
var weekOfPattern = regexp.MustCompile(`week of ([a-z]+\.? \d+)`)

// AlertExtractor parses the hauler's cross-region service alerts page.
type AlertExtractor struct {
	logger zerolog.Logger
}

// NewAlertExtractor creates a service alerts extractor.
func NewAlertExtractor(logger zerolog.Logger) *AlertExtractor {
	return &AlertExtractor{
		logger: logger.With().Str("component", "alert_extractor").Logger(),
	}
}

// Extract locates the alert entry for the given region and classifies it.
// A region has at most one active alert, so at most one rule is returned;
// no matching section or entry yields nil without error. The reference
// date anchors year inference for "week of" phrases.
func (e *AlertExtractor) Extract(r io.Reader, region schedule.Region, ref time.Time) (*schedule.DisruptionRule, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse service alerts page: %w", err)
	}

	stateName, ok := stateNames[region.State]
	if !ok {
		e.logger.Warn().Str("state", region.State).Msg("unknown state abbreviation")
		return nil, nil
	}

	var rule *schedule.DisruptionRule
	countyPrefix := strings.ToLower(region.County) + ":"

	doc.Find("div.repeatable-content").EachWithBreak(func(_ int, section *goquery.Selection) bool {
		heading := section.PrevAllFiltered("h3").First()
		if heading.Length() == 0 ||
			!strings.Contains(strings.ToLower(heading.Text()), strings.ToLower(stateName)) {
			return true
		}

		section.Find("li").EachWithBreak(func(_ int, item *goquery.Selection) bool {
			text := strings.TrimSpace(item.Text())
			if !strings.HasPrefix(strings.ToLower(text), countyPrefix) {
				return true
			}
			rule = e.classify(text, region, ref)
			return false
		})
		return rule == nil
	})

	if rule == nil {
		e.logger.Debug().Stringer("region", region).Msg("no service alert found")
	}
	return rule, nil
}

// classify turns a matched alert entry into a disruption rule.
func (e *AlertExtractor) classify(text string, region schedule.Region, ref time.Time) *schedule.DisruptionRule {
	lower := strings.ToLower(text)

	causesDelay := false
	delayDays := 0
	kind := schedule.AlertNone

	switch {
	case strings.Contains(lower, "one-day delay"):
		causesDelay = true
		delayDays = 1
		kind = schedule.AlertOneDayDelay
	case strings.Contains(lower, "no service"):
		// Day-specific announcements ("no service on Monday, Tuesday")
		// would need per-weekday handling; until then the day count stays
		// at zero and the alert is classified but never shifts a date.
		causesDelay = true
		kind = schedule.AlertNoService
	case strings.Contains(lower, "operating as") && strings.Contains(lower, "road conditions"):
		causesDelay = true
		kind = schedule.AlertConditional
	}

	rule := &schedule.DisruptionRule{
		Kind:        schedule.RuleKindRegionalAlert,
		Label:       region.String(),
		CausesDelay: causesDelay,
		DelayDays:   delayDays,
		AlertKind:   kind,
		RawText:     text,
	}

	if m := weekOfPattern.FindStringSubmatch(lower); m != nil {
		week, ok := parseWeekOf(m[1], ref)
		if !ok {
			// Safer to skip the delay than to apply it to every week.
			e.logger.Warn().
				Str("week_of", m[1]).
				Msg("could not parse alert week, skipping delay")
			rule.CausesDelay = false
		} else {
			rule.ApplicableWeek = week
		}
	}

	e.logger.Debug().
		Stringer("region", region).
		Str("alert_kind", string(kind)).
		Int("delay_days", delayDays).
		Msg("classified service alert")

	return rule
}

// parseWeekOf resolves a "week of <Month> <Day>" phrase to the Monday of
// that week. The phrase carries no year: the reference date's year is
// assumed, rolling forward one year when the result would land more than
// six months in the past (a December announcement naming January).
func parseWeekOf(phrase string, ref time.Time) (time.Time, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(phrase), ".", "")
	if cleaned == "" {
		return time.Time{}, false
	}
	cleaned = strings.ToUpper(cleaned[:1]) + cleaned[1:]

	ref = schedule.Midnight(ref)
	var day time.Time
	parsed := false
	for _, layout := range []string{"Jan 2 2006", "January 2 2006"} {
		if t, err := time.Parse(layout, fmt.Sprintf("%s %d", cleaned, ref.Year())); err == nil {
			day = schedule.Midnight(t)
			parsed = true
			break
		}
	}
	if !parsed {
		return time.Time{}, false
	}

	if day.Before(ref.AddDate(0, 0, -180)) {
		day = day.AddDate(1, 0, 0)
	}
	return schedule.WeekStart(day), true
}
