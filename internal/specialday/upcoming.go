package specialday

import (
	"sort"
	"time"

	"github.com/ovaphlow/pitchfork/service-puja/internal/specialday/entity"
)

// DefaultWindowDays is how far ahead the upcoming list looks.
const DefaultWindowDays = 30

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Upcoming keeps fixed-date pujas falling between today and today+windowDays
// inclusive, closest first. Recurring entries and entries without a date are
// skipped.
func Upcoming(list []entity.SpecialPuja, now time.Time, windowDays int) []entity.UpcomingPuja {
	if windowDays < 0 {
		windowDays = 0
	}
	today := Day(now)
	end := today.AddDate(0, 0, windowDays)

	out := []entity.UpcomingPuja{}
	for _, p := range list {
		if p.DateMapping != entity.MappingFixed || p.NextDate == nil || p.NextDate.IsZero() {
			continue
		}
		d := Day(*p.NextDate)
		if d.Before(today) || d.After(end) {
			continue
		}
		out = append(out, entity.UpcomingPuja{SpecialPuja: p, DaysUntil: int(d.Sub(today).Hours() / 24)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysUntil != out[j].DaysUntil {
			return out[i].DaysUntil < out[j].DaysUntil
		}
		return out[i].Name < out[j].Name
	})
	return out
}
