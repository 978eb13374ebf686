// Package metrics turns a body profile and logged meals and activities into
// age, BMI, basal metabolic rate and caloric balance figures.
package metrics

import (
	"strings"
	"time"
)

// Sex is the biological sex used by the BMR equation. The zero value means
// the profile does not state it.
type Sex uint8

const (
	SexUnspecified Sex = iota
	SexMale
	SexFemale
)

// String returns the single-letter storage code ("M", "F" or "").
func (s Sex) String() string {
	switch s {
	case SexMale:
		return "M"
	case SexFemale:
		return "F"
	default:
		return ""
	}
}

// ParseSex normalizes a stored or submitted sex value. Empty input is
// unspecified, the female spellings map to SexFemale and anything else that
// is present counts as male.
func ParseSex(value string) Sex {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return SexUnspecified
	case "f", "female", "woman", "w", "k", "kobieta":
		return SexFemale
	default:
		return SexMale
	}
}

// Profile is the read-only body snapshot the calculations run against.
// Every field is optional.
type Profile struct {
	WeightKg  *float64
	HeightCm  *float64
	BirthDate *time.Time
	Sex       Sex
}

// AgeAt returns the number of whole years between birth and asOf. It reports
// false when the birth date is absent or lies after asOf.
func AgeAt(birth *time.Time, asOf time.Time) (int, bool) {
	if birth == nil {
		return 0, false
	}

	b := *birth
	age := asOf.Year() - b.Year()
	if asOf.Month() < b.Month() || (asOf.Month() == b.Month() && asOf.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

// Age is AgeAt evaluated today.
func Age(birth *time.Time) (int, bool) {
	return AgeAt(birth, time.Now())
}

// AgeAt returns the profile's age on the given date.
func (p Profile) AgeAt(asOf time.Time) (int, bool) {
	return AgeAt(p.BirthDate, asOf)
}

// BMI computes the profile's body mass index rounded to places.
func (p Profile) BMI(places int32) (BMIResult, bool) {
	if p.WeightKg == nil || p.HeightCm == nil {
		return BMIResult{}, false
	}
	return BMI(*p.WeightKg, *p.HeightCm, places)
}

// BMR computes the profile's basal metabolic rate on the given date.
func (p Profile) BMR(asOf time.Time) (float64, bool) {
	return BMR(p, asOf)
}
