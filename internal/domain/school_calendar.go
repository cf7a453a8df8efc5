package domain

import (
	"fmt"
	"math"
	"time"
)

// SchoolYear returns the "YYYY/YYYY" label of the school year containing t.
// Years roll over on the first of September.
func SchoolYear(t time.Time) string {
	start := schoolYearStart(t).Year()
	return fmt.Sprintf("%d/%d", start, start+1)
}

// Semester is "1" from September through January and "2" otherwise.
func Semester(t time.Time) string {
	month := t.Month()
	if month >= time.September || month <= time.January {
		return "1"
	}

	return "2"
}

// WeekTypeFor derives the A/B rotation from the number of weeks elapsed since
// the school year started. Odd weeks are A.
func WeekTypeFor(t time.Time) WeekType {
	elapsed := t.Sub(schoolYearStart(t))
	week := int(math.Ceil(elapsed.Hours() / (7 * 24)))
	if week%2 == 1 {
		return WeekA
	}

	return WeekB
}

// IsoWeekday maps Sunday to 7 so Monday is day 1 of the school week.
func IsoWeekday(t time.Time) int {
	day := int(t.Weekday())
	if day == 0 {
		return 7
	}

	return day
}

func schoolYearStart(t time.Time) time.Time {
	year := t.Year()
	if t.Month() < time.September {
		year--
	}

	return time.Date(year, time.September, 1, 0, 0, 0, 0, t.Location())
}
