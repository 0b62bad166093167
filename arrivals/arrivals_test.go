package arrivals

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/geosignals/quake-locator/model"
)

func TestRandomBaseTimeDeterministicAndBounded(t *testing.T) {
	a := RandomBaseTime(rand.New(rand.NewSource(9)))
	b := RandomBaseTime(rand.New(rand.NewSource(9)))
	if !a.Equal(b) {
		t.Fatalf("same seed produced %v and %v", a, b)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		base := RandomBaseTime(rng)
		if base.Year() < 2000 || base.Year() > 2029 {
			t.Fatalf("year %d out of range", base.Year())
		}
		if base.Day() > 28 {
			t.Fatalf("day %d would not exist in every month", base.Day())
		}
	}
}

func TestScheduleOffsetsMatchRelativeTimes(t *testing.T) {
	base := time.Date(2014, time.March, 2, 10, 30, 0, 0, time.UTC)
	rel := []float64{0, 0.25, 1.5, -0.01}

	times := Schedule(base, rel)
	if len(times) != len(rel) {
		t.Fatalf("got %d times, want %d", len(times), len(rel))
	}
	for i, want := range rel {
		got := times[i].Sub(base).Seconds()
		if diff := got - want; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("offset[%d] = %v s, want %v", i, got, want)
		}
	}
	// Noise can make a non-reference station measure earlier than base.
	if !times[3].Before(base) {
		t.Fatalf("negative relative time should precede base")
	}
}

func TestTimetableFormat(t *testing.T) {
	stations := []model.Station{
		{ID: "ST01"},
		{ID: "ST02"},
	}
	base := time.Date(2021, time.July, 9, 4, 5, 6, 0, time.UTC)
	lines := Timetable(stations, Schedule(base, []float64{0, 0.125}))

	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "ST01: 2021-07-09 04:05:06.000" {
		t.Fatalf("line 0 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "04:05:06.125") {
		t.Fatalf("line 1 = %q, want millisecond offset", lines[1])
	}
}
