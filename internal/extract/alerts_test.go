package extract_test

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbcycle/curbcycle/internal/extract"
	"github.com/curbcycle/curbcycle/internal/schedule"
)

const alertsPage = `
<html><body>
<h3>Ohio Service Alerts</h3>
<div class="repeatable-content">
  <ul>
    <li>Hamilton: All services are on a one-day delay for the week of Jan. 26.</li>
    <li>Butler: No service on Monday due to weather.</li>
    <li>Montgomery: Operating as scheduled, monitoring road conditions.</li>
  </ul>
</div>
<h3>Kentucky Service Alerts</h3>
<div class="repeatable-content">
  <ul>
    <li>Scott: All services are on a one-day delay.</li>
  </ul>
</div>
</body></html>`

var alertRef = schedule.Date(2026, time.January, 20)

func TestAlertExtractor_OneDayDelayWithWeek(t *testing.T) {
	extractor := extract.NewAlertExtractor(zerolog.Nop())
	region := schedule.Region{County: "Hamilton", State: "OH"}

	rule, err := extractor.Extract(strings.NewReader(alertsPage), region, alertRef)
	require.NoError(t, err)
	require.NotNil(t, rule)

	assert.Equal(t, schedule.RuleKindRegionalAlert, rule.Kind)
	assert.True(t, rule.CausesDelay)
	assert.Equal(t, 1, rule.DelayDays)
	assert.Equal(t, schedule.AlertOneDayDelay, rule.AlertKind)
	// January 26, 2026 is a Monday, so the week anchors on itself.
	assert.Equal(t, schedule.Date(2026, time.January, 26), rule.ApplicableWeek)
}

func TestAlertExtractor_NoServiceCarriesZeroDays(t *testing.T) {
	extractor := extract.NewAlertExtractor(zerolog.Nop())
	region := schedule.Region{County: "Butler", State: "OH"}

	rule, err := extractor.Extract(strings.NewReader(alertsPage), region, alertRef)
	require.NoError(t, err)
	require.NotNil(t, rule)

	assert.True(t, rule.CausesDelay)
	assert.Equal(t, 0, rule.DelayDays)
	assert.Equal(t, schedule.AlertNoService, rule.AlertKind)
}

func TestAlertExtractor_ConditionalAlert(t *testing.T) {
	extractor := extract.NewAlertExtractor(zerolog.Nop())
	region := schedule.Region{County: "Montgomery", State: "OH"}

	rule, err := extractor.Extract(strings.NewReader(alertsPage), region, alertRef)
	require.NoError(t, err)
	require.NotNil(t, rule)

	assert.Equal(t, schedule.AlertConditional, rule.AlertKind)
	assert.Equal(t, 0, rule.DelayDays)
}

func TestAlertExtractor_MatchesStateSection(t *testing.T) {
	extractor := extract.NewAlertExtractor(zerolog.Nop())
	region := schedule.Region{County: "Scott", State: "KY"}

	rule, err := extractor.Extract(strings.NewReader(alertsPage), region, alertRef)
	require.NoError(t, err)
	require.NotNil(t, rule)

	assert.Equal(t, schedule.AlertOneDayDelay, rule.AlertKind)
	assert.True(t, rule.ApplicableWeek.IsZero(), "alert without a week applies to every week")
}

func TestAlertExtractor_CountyMatchIsCaseInsensitive(t *testing.T) {
	page := `
<html><body>
<h3>Ohio Service Alerts</h3>
<div class="repeatable-content">
  <ul><li>HAMILTON: All services are on a one-day delay.</li></ul>
</div>
</body></html>`

	extractor := extract.NewAlertExtractor(zerolog.Nop())
	region := schedule.Region{County: "Hamilton", State: "OH"}

	rule, err := extractor.Extract(strings.NewReader(page), region, alertRef)
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.True(t, rule.CausesDelay)
}

func TestAlertExtractor_NoAlertForRegion(t *testing.T) {
	extractor := extract.NewAlertExtractor(zerolog.Nop())
	region := schedule.Region{County: "Franklin", State: "OH"}

	rule, err := extractor.Extract(strings.NewReader(alertsPage), region, alertRef)
	require.NoError(t, err)
	assert.Nil(t, rule)
}

func TestAlertExtractor_UnknownStateAbbreviation(t *testing.T) {
	extractor := extract.NewAlertExtractor(zerolog.Nop())
	region := schedule.Region{County: "Dane", State: "WI"}

	rule, err := extractor.Extract(strings.NewReader(alertsPage), region, alertRef)
	require.NoError(t, err)
	assert.Nil(t, rule)
}

func TestAlertExtractor_UnparseableWeekDisablesDelay(t *testing.T) {
	page := `
<html><body>
<h3>Ohio Service Alerts</h3>
<div class="repeatable-content">
  <ul><li>Hamilton: One-day delay for the week of Floober 12.</li></ul>
</div>
</body></html>`

	extractor := extract.NewAlertExtractor(zerolog.Nop())
	region := schedule.Region{County: "Hamilton", State: "OH"}

	rule, err := extractor.Extract(strings.NewReader(page), region, alertRef)
	require.NoError(t, err)
	require.NotNil(t, rule)

	assert.False(t, rule.CausesDelay, "a week that cannot be placed must not delay every week")
	assert.True(t, rule.ApplicableWeek.IsZero())
}

func TestAlertExtractor_WeekOfRollsIntoNextYear(t *testing.T) {
	page := `
<html><body>
<h3>Ohio Service Alerts</h3>
<div class="repeatable-content">
  <ul><li>Hamilton: One-day delay for the week of Jan. 4.</li></ul>
</div>
</body></html>`

	extractor := extract.NewAlertExtractor(zerolog.Nop())
	region := schedule.Region{County: "Hamilton", State: "OH"}

	// A late-December announcement naming January refers to the coming
	// year. January 4, 2027 is a Monday.
	ref := schedule.Date(2026, time.December, 28)
	rule, err := extractor.Extract(strings.NewReader(page), region, ref)
	require.NoError(t, err)
	require.NotNil(t, rule)

	assert.Equal(t, schedule.Date(2027, time.January, 4), rule.ApplicableWeek)
}
