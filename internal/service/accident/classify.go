package accident

import (
	"fmt"
	"time"

	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/pkg/errors"
)

const (
	HighThreshold   = 7.0
	MediumThreshold = 4.0

	DateLayout = "2006-01-02"
)

// Classify maps an accident rate to its tier. Lower bounds are inclusive.
func Classify(rate float64) model.RiskTier {
	switch {
	case rate >= HighThreshold:
		return model.TierHigh
	case rate >= MediumThreshold:
		return model.TierMedium
	default:
		return model.TierLow
	}
}

// ValidateTargetDate parses date and checks it falls between today and
// today+horizonDays, counted in calendar days in loc.
func ValidateTargetDate(date string, now time.Time, loc *time.Location, horizonDays int) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	target, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, errors.NewValidation("invalid date format, use YYYY-MM-DD", err)
	}

	diff := calendarDays(now.In(loc), target)
	if diff < 0 {
		return time.Time{}, errors.NewRange("past date")
	}
	if diff > horizonDays {
		return time.Time{}, errors.NewRange(fmt.Sprintf("horizon exceeded: forecast covers at most %d days ahead", horizonDays))
	}
	return target, nil
}

// calendarDays counts midnights between from and to, ignoring clock time and
// DST shifts.
func calendarDays(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
