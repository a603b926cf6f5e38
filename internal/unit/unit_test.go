package unit

import "testing"

func TestPackageSize(t *testing.T) {
	tests := []struct {
		desc string
		want int
	}{
		{"Case of 12", 12},
		{"12/case", 12},
		{"bale 50 pcs, 2 bands", 50},
		{"", 1},
		{"each", 1},
		{"Case of 0", 0},
		{"99999999999999999999999999 per pallet", 1},
	}
	for _, test := range tests {
		if got := PackageSize(test.desc); got != test.want {
			t.Errorf("PackageSize(%q) = %d want %d", test.desc, got, test.want)
		}
	}
}

func TestToTotalUnits(t *testing.T) {
	tests := []struct {
		packages, units, size, want int
	}{
		{2, 3, 12, 27},
		{0, 7, 12, 7},
		{3, 0, 1, 3},
		{3, 2, 0, 5},
		{1, 1, -4, 2},
	}
	for _, test := range tests {
		if got := ToTotalUnits(test.packages, test.units, test.size); got != test.want {
			t.Errorf("ToTotalUnits(%d, %d, %d) = %d want %d",
				test.packages, test.units, test.size, got, test.want)
		}
	}
}

func TestFromTotalUnits(t *testing.T) {
	tests := []struct {
		total, size    int
		packages, unit int
	}{
		{27, 12, 2, 3},
		{12, 12, 1, 0},
		{5, 12, 0, 5},
		{0, 12, 0, 0},
		{-5, 12, -1, 7},
		{-24, 12, -2, 0},
		{9, 1, 0, 9},
		{9, 0, 0, 9},
		{-9, 1, 0, -9},
	}
	for _, test := range tests {
		p, u := FromTotalUnits(test.total, test.size)
		if p != test.packages || u != test.unit {
			t.Errorf("FromTotalUnits(%d, %d) = (%d, %d) want (%d, %d)",
				test.total, test.size, p, u, test.packages, test.unit)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for size := 2; size <= 24; size++ {
		for packages := -3; packages <= 5; packages++ {
			for units := 0; units < size; units++ {
				p, u := FromTotalUnits(ToTotalUnits(packages, units, size), size)
				if p != packages || u != units {
					t.Fatalf("size %d: (%d, %d) came back as (%d, %d)", size, packages, units, p, u)
				}
			}
		}
	}
}
