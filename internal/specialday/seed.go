package specialday

import (
	"time"

	"github.com/ovaphlow/pitchfork/service-puja/internal/specialday/entity"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type festival struct {
	name, desc string
	dates      []time.Time // ascending
}

// Lunar dates are published a year or so ahead. Append the next year's
// observance to each entry when it is announced.
var calendar = []festival{
	{"Maha Shivaratri", "Night-long worship of Lord Shiva", []time.Time{date(2026, time.February, 15), date(2027, time.March, 6)}},
	{"Holi", "Festival of colours and Holika Dahan", []time.Time{date(2026, time.March, 4), date(2027, time.March, 22)}},
	{"Ram Navami", "Birth of Lord Rama", []time.Time{date(2026, time.March, 26), date(2027, time.April, 15)}},
	{"Hanuman Jayanti", "Birth of Lord Hanuman", []time.Time{date(2026, time.April, 2), date(2027, time.April, 20)}},
	{"Akshaya Tritiya", "Auspicious day for new beginnings", []time.Time{date(2026, time.April, 20), date(2027, time.May, 9)}},
	{"Guru Purnima", "Homage to the guru", []time.Time{date(2026, time.July, 29), date(2027, time.July, 18)}},
	{"Raksha Bandhan", "Bond between brothers and sisters", []time.Time{date(2026, time.August, 28), date(2027, time.August, 17)}},
	{"Krishna Janmashtami", "Birth of Lord Krishna", []time.Time{date(2026, time.September, 4), date(2027, time.August, 25)}},
	{"Ganesh Chaturthi", "Arrival of Lord Ganesha", []time.Time{date(2026, time.September, 14), date(2027, time.September, 4)}},
	{"Sharad Navratri", "Nine nights of the Goddess", []time.Time{date(2026, time.October, 11), date(2027, time.September, 30)}},
	{"Dussehra", "Victory of good over evil", []time.Time{date(2026, time.October, 20), date(2027, time.October, 9)}},
	{"Diwali", "Lakshmi puja and festival of lights", []time.Time{date(2026, time.November, 8), date(2027, time.October, 29)}},
}

// nextOccurrence returns the first date on or after today, or the last
// known date once the table has run out.
func nextOccurrence(dates []time.Time, today time.Time) time.Time {
	for _, d := range dates {
		if !d.Before(today) {
			return d
		}
	}
	return dates[len(dates)-1]
}

// Defaults is the festival calendar as seen from now. Each fixed festival
// carries its next occurrence, so re-seeding rolls past dates forward.
func Defaults(now time.Time) []entity.SpecialPuja {
	today := Day(now)
	out := make([]entity.SpecialPuja, 0, len(calendar)+3)
	for _, f := range calendar {
		d := nextOccurrence(f.dates, today)
		out = append(out, entity.SpecialPuja{Name: f.name, Description: f.desc, DateMapping: entity.MappingFixed, NextDate: &d})
	}
	recurring := func(name, desc string) entity.SpecialPuja {
		return entity.SpecialPuja{Name: name, Description: desc, DateMapping: entity.MappingRecurring}
	}
	return append(out,
		recurring("Ekadashi Vrat", "Fast on the eleventh lunar day"),
		recurring("Purnima Satyanarayan Puja", "Full moon worship of Lord Vishnu"),
		recurring("Pradosh Vrat", "Twilight worship of Lord Shiva"),
	)
}
