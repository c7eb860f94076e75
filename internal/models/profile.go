package models

import (
	"time"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type ActivityLevel string

const (
	ActivitySedentary        ActivityLevel = "SEDENTARY"
	ActivityLightlyActive    ActivityLevel = "LIGHTLY_ACTIVE"
	ActivityModeratelyActive ActivityLevel = "MODERATELY_ACTIVE"
	ActivityVeryActive       ActivityLevel = "VERY_ACTIVE"
	ActivityExtraActive      ActivityLevel = "EXTRA_ACTIVE"
)

// Multiplier used to derive total daily energy expenditure from BMR
func (a ActivityLevel) Multiplier() float64 {
	switch a {
	case ActivitySedentary:
		return 1.2
	case ActivityLightlyActive:
		return 1.375
	case ActivityModeratelyActive:
		return 1.55
	case ActivityVeryActive:
		return 1.725
	case ActivityExtraActive:
		return 1.9
	}
	return 0
}

func (a ActivityLevel) Valid() bool {
	return a.Multiplier() != 0
}

type Goal string

const (
	GoalWeightLoss        Goal = "WEIGHT_LOSS"
	GoalWeightGain        Goal = "WEIGHT_GAIN"
	GoalWeightMaintenance Goal = "WEIGHT_MAINTENANCE"
	GoalMuscleGain        Goal = "MUSCLE_GAIN"
	GoalGeneralHealth     Goal = "GENERAL_HEALTH"
)

func (g Goal) Valid() bool {
	switch g {
	case GoalWeightLoss, GoalWeightGain, GoalWeightMaintenance, GoalMuscleGain, GoalGeneralHealth:
		return true
	}
	return false
}

type Profile struct {
	ID             int64
	UserID         int64
	FirstName      string
	LastName       string
	BirthDate      time.Time
	Gender         Gender
	HeightCm       float64
	WeightKg       float64
	ActivityLevel  ActivityLevel
	Goal           Goal
	TargetWeightKg float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BodyMetrics derived from a profile, never persisted
type BodyMetrics struct {
	Age         int
	BMI         float64
	BMICategory string
	BMR         int
	TDEE        int
}
