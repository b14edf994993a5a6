package specialday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-puja/internal/specialday/entity"
)

func fixedOn(name string, d time.Time) entity.SpecialPuja {
	return entity.SpecialPuja{Name: name, DateMapping: entity.MappingFixed, NextDate: &d}
}

func TestUpcomingWindowAndOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 22, 30, 0, 0, time.UTC)
	list := []entity.SpecialPuja{
		fixedOn("Later", now.AddDate(0, 0, 20)),
		fixedOn("Yesterday", now.AddDate(0, 0, -1)),
		fixedOn("Edge", time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)),
		fixedOn("Beyond", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
		fixedOn("Today B", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		fixedOn("Today A", time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC)),
		{Name: "Ekadashi", DateMapping: entity.MappingRecurring},
		{Name: "Undated", DateMapping: entity.MappingFixed},
	}

	got := Upcoming(list, now, DefaultWindowDays)
	require.Len(t, got, 4)
	names := []string{got[0].Name, got[1].Name, got[2].Name, got[3].Name}
	assert.Equal(t, []string{"Today A", "Today B", "Later", "Edge"}, names)
	assert.Equal(t, 0, got[0].DaysUntil)
	assert.Equal(t, 20, got[2].DaysUntil)
	assert.Equal(t, 30, got[3].DaysUntil)
}

func TestUpcomingComparesInUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 01:00 IST on 2 March is still 1 March in UTC
	now := time.Date(2026, 3, 2, 1, 0, 0, 0, ist)
	list := []entity.SpecialPuja{fixedOn("Holi", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))}

	got := Upcoming(list, now, 0)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].DaysUntil)
}

func TestUpcomingEmpty(t *testing.T) {
	got := Upcoming(nil, time.Now(), -5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDefaultsAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range Defaults(time.Now()) {
		assert.False(t, seen[p.Name], "duplicate %s", p.Name)
		seen[p.Name] = true
		if p.DateMapping == entity.MappingFixed {
			assert.NotNil(t, p.NextDate, p.Name)
		} else {
			assert.Nil(t, p.NextDate, p.Name)
		}
	}
}

func TestDefaultsRollForward(t *testing.T) {
	byName := func(now time.Time) map[string]time.Time {
		out := map[string]time.Time{}
		for _, p := range Defaults(now) {
			if p.NextDate != nil {
				out[p.Name] = *p.NextDate
			}
		}
		return out
	}

	before := byName(time.Date(2026, time.November, 8, 18, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.November, 8, 0, 0, 0, 0, time.UTC), before["Diwali"])
	assert.Equal(t, 2027, before["Holi"].Year())

	after := byName(time.Date(2026, time.November, 9, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2027, time.October, 29, 0, 0, 0, 0, time.UTC), after["Diwali"])

	// Past the last 2026 festival the window still fills from the next year.
	got := Upcoming(Defaults(time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC)), time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC), 120)
	assert.NotEmpty(t, got)
}

func TestNextOccurrenceKeepsLastWhenExhausted(t *testing.T) {
	dates := []time.Time{date(2026, time.March, 4), date(2027, time.March, 22)}
	assert.Equal(t, date(2027, time.March, 22), nextOccurrence(dates, date(2028, time.January, 1)))
	assert.Equal(t, date(2026, time.March, 4), nextOccurrence(dates, date(2026, time.March, 4)))
}
