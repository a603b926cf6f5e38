package balance

import (
	"testing"
	"time"
)

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	got := Day(time.Date(2025, 3, 2, 1, 30, 0, 0, loc))
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v want %v", got, want)
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2025-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if d.Location() != time.UTC || FormatDay(d) != "2025-03-01" {
		t.Errorf("unexpected %v", d)
	}
	if _, err := ParseDay("01.03.2025"); err == nil {
		t.Errorf("expected error")
	}
}

func TestCutoff(t *testing.T) {
	d := day("2025-03-05")
	if !Through(d).Includes(d) || Before(d).Includes(d) {
		t.Errorf("day boundary wrong")
	}
	if !Before(d).Includes(day("2025-03-04")) {
		t.Errorf("before should include previous day")
	}
	if !Unbounded().Includes(day("2999-01-01")) {
		t.Errorf("unbounded should include everything")
	}
}
