// Package unit converts between (packages, units) pairs and a single total-units scalar.
package unit

import (
	"regexp"
	"strconv"
)

var firstNumberRe = regexp.MustCompile(`\d+`)

// PackageSize returns the first run of digits in a free-text package descriptor
// ("Case of 12" -> 12). Empty or digit-free descriptors yield 1.
func PackageSize(descriptor string) int {
	m := firstNumberRe.FindString(descriptor)
	if m == "" {
		return 1
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// digit run too long for an int
		return 1
	}
	return n
}

// ToTotalUnits folds a package count and loose units into total units.
// A size of one or less means the item is tracked in units only.
func ToTotalUnits(packages, units, size int) int {
	if size <= 1 {
		return packages + units
	}
	return packages*size + units
}

// FromTotalUnits splits total units into whole packages and remaining units.
//
// Division floors toward negative infinity so the remainder always lies in
// [0, size): -5 units of a 12-pack is (-1 package, 7 units). With size <= 1
// everything stays in units.
func FromTotalUnits(total, size int) (packages, units int) {
	if size <= 1 {
		return 0, total
	}
	packages = total / size
	units = total % size
	if units < 0 {
		packages--
		units += size
	}
	return packages, units
}
