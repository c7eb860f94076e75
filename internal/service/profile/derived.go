package profile

import (
	"math"
	"time"

	"github.com/superapp/nutrilife/internal/models"
)

// Metrics derives age, BMI, BMR and TDEE from a profile
// BMR uses the Mifflin-St Jeor equation; TDEE scales it by the activity
// level multiplier
func Metrics(p models.Profile, now time.Time) models.BodyMetrics {
	age := yearsBetween(p.BirthDate, now)

	heightM := p.HeightCm / 100
	bmi := p.WeightKg / (heightM * heightM)

	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(age)
	if p.Gender == models.GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}

	return models.BodyMetrics{
		Age:         age,
		BMI:         math.Round(bmi*10) / 10,
		BMICategory: bmiCategory(bmi),
		BMR:         int(math.Round(bmr)),
		TDEE:        int(math.Round(bmr * p.ActivityLevel.Multiplier())),
	}
}

func bmiCategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

func yearsBetween(from time.Time, to time.Time) int {
	years := to.Year() - from.Year()

	// Birthday has not happened yet this year
	if to.YearDay() < from.YearDay() && !isLeapShift(from, to) {
		years--
	}

	return years
}

// isLeapShift handles the Feb 29 birthday edge where YearDay comparison
// drifts by one in non-leap years
func isLeapShift(from time.Time, to time.Time) bool {
	return from.Month() == time.February && from.Day() == 29 &&
		to.Month() == time.February && to.Day() == 28
}
