package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caloriebalance/tracker/internal/metrics"
)

// ErrInvalidProfile is returned when a profile update carries impossible values.
var ErrInvalidProfile = errors.New("invalid profile")

// Upper bounds accepted for body measurements.
const (
	MaxWeightKg = 1000.0
	MaxHeightCm = 300.0
)

// Profile is the stored body profile of a user.
type Profile struct {
	UserID      string     `bson:"_id" json:"user"`
	FirstName   string     `bson:"first_name,omitempty" json:"first_name"`
	LastName    string     `bson:"last_name,omitempty" json:"last_name"`
	Email       string     `bson:"email,omitempty" json:"email"`
	Phone       string     `bson:"phone,omitempty" json:"phone,omitempty"`
	WeightKg    *float64   `bson:"weight,omitempty" json:"weight"`
	HeightCm    *float64   `bson:"height,omitempty" json:"height"`
	DateOfBirth *time.Time `bson:"date_of_birth,omitempty" json:"date_of_birth"`
	Gender      string     `bson:"gender,omitempty" json:"gender"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// Snapshot converts the stored profile into the calculation input. The gender
// code is normalized here and nowhere else.
func (p Profile) Snapshot() metrics.Profile {
	return metrics.Profile{
		WeightKg:  p.WeightKg,
		HeightCm:  p.HeightCm,
		BirthDate: p.DateOfBirth,
		Sex:       metrics.ParseSex(p.Gender),
	}
}

// ProfileUpdate is a partial profile update; nil fields are left untouched.
type ProfileUpdate struct {
	FirstName   *string  `json:"first_name" binding:"omitempty,max=30"`
	LastName    *string  `json:"last_name" binding:"omitempty,max=30"`
	Email       *string  `json:"email" binding:"omitempty,email"`
	Phone       *string  `json:"phone" binding:"omitempty,max=20"`
	Weight      *float64 `json:"weight" binding:"omitempty,gt=0,lte=1000"`
	Height      *float64 `json:"height" binding:"omitempty,gt=0,lte=300"`
	DateOfBirth *string  `json:"date_of_birth" binding:"omitempty"`
	Gender      *string  `json:"gender" binding:"omitempty,max=10"`
}

// Apply validates the update and merges it into p.
func (u ProfileUpdate) Apply(p *Profile, now time.Time) error {
	if u.Weight != nil && !(*u.Weight > 0 && *u.Weight <= MaxWeightKg) {
		return fmt.Errorf("%w: weight must be in (0, %.0f] kg", ErrInvalidProfile, MaxWeightKg)
	}
	if u.Height != nil && !(*u.Height > 0 && *u.Height <= MaxHeightCm) {
		return fmt.Errorf("%w: height must be in (0, %.0f] cm", ErrInvalidProfile, MaxHeightCm)
	}

	var dob *time.Time
	if u.DateOfBirth != nil && *u.DateOfBirth != "" {
		parsed, err := time.Parse(DateLayout, *u.DateOfBirth)
		if err != nil {
			return fmt.Errorf("%w: date_of_birth must be %s", ErrInvalidProfile, DateLayout)
		}
		if parsed.After(now) {
			return fmt.Errorf("%w: date_of_birth is in the future", ErrInvalidProfile)
		}
		dob = &parsed
	}

	if u.FirstName != nil {
		p.FirstName = strings.TrimSpace(*u.FirstName)
	}
	if u.LastName != nil {
		p.LastName = strings.TrimSpace(*u.LastName)
	}
	if u.Email != nil {
		p.Email = strings.TrimSpace(*u.Email)
	}
	if u.Phone != nil {
		p.Phone = NormalizePhone(*u.Phone)
	}
	if u.Weight != nil {
		p.WeightKg = u.Weight
	}
	if u.Height != nil {
		p.HeightCm = u.Height
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = dob
	}
	if u.Gender != nil {
		p.Gender = metrics.ParseSex(*u.Gender).String()
	}

	p.UpdatedAt = now
	return nil
}

// NormalizePhone strips everything but digits so numbers match WhatsApp wa_id values.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
