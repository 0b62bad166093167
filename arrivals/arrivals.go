// Package arrivals turns relative arrival times into absolute per-station
// timestamps for display. The core solver works purely on time differences;
// everything here is presentation support.
package arrivals

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/geosignals/quake-locator/model"
)

// TimestampLayout is the millisecond-precision layout reporters use for
// arrival times.
const TimestampLayout = "2006-01-02 15:04:05.000"

// RandomBaseTime draws a synthetic absolute timestamp for the reference
// station's receipt event. Days are capped at 28 so every month is valid.
func RandomBaseTime(rng *rand.Rand) time.Time {
	year := 2000 + rng.Intn(30)
	month := time.Month(1 + rng.Intn(12))
	day := 1 + rng.Intn(28)
	hour := rng.Intn(24)
	minute := rng.Intn(60)
	second := rng.Intn(60)
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC)
}

// Schedule offsets the base time by each station's measured relative arrival
// time, preserving station order. Entries may precede base when noise made a
// non-reference station measure earlier.
func Schedule(base time.Time, relTimesS []float64) []time.Time {
	times := make([]time.Time, len(relTimesS))
	for i, rel := range relTimesS {
		times[i] = base.Add(time.Duration(rel * float64(time.Second)))
	}
	return times
}

// Timetable renders one line per station for console reporters.
func Timetable(stations []model.Station, times []time.Time) []string {
	lines := make([]string, len(stations))
	for i, s := range stations {
		lines[i] = fmt.Sprintf("%s: %s", s.ID, times[i].UTC().Format(TimestampLayout))
	}
	return lines
}
