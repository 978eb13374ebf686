package metrics

import "time"

// Harris-Benedict coefficients.
const (
	femaleBase   = 655.0
	femaleWeight = 9.6
	femaleHeight = 1.8
	femaleAge    = 4.7

	maleBase   = 66.0
	maleWeight = 13.7
	maleHeight = 5.0
	maleAge    = 6.8
)

// BMR estimates resting energy expenditure in kcal/day with the
// Harris-Benedict equation. Weight, height, birth date and sex must all be
// present and the result finite, otherwise it reports false.
func BMR(p Profile, asOf time.Time) (float64, bool) {
	if p.WeightKg == nil || p.HeightCm == nil || p.Sex == SexUnspecified {
		return 0, false
	}

	age, ok := p.AgeAt(asOf)
	if !ok {
		return 0, false
	}

	w, h, a := *p.WeightKg, *p.HeightCm, float64(age)
	bmr := maleBase + maleWeight*w + maleHeight*h - maleAge*a
	if p.Sex == SexFemale {
		bmr = femaleBase + femaleWeight*w + femaleHeight*h - femaleAge*a
	}
	if !finite(bmr) {
		return 0, false
	}
	return bmr, true
}
