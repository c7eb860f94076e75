package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Nutrients per 100 g of a food, or totals for a whole meal
type Nutrients struct {
	Calories decimal.Decimal
	Protein  decimal.Decimal
	Carbs    decimal.Decimal
	Fat      decimal.Decimal
	Fiber    decimal.Decimal
}

// Add returns the element-wise sum of two nutrient sets
func (n Nutrients) Add(other Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories.Add(other.Calories),
		Protein:  n.Protein.Add(other.Protein),
		Carbs:    n.Carbs.Add(other.Carbs),
		Fat:      n.Fat.Add(other.Fat),
		Fiber:    n.Fiber.Add(other.Fiber),
	}
}

// Scale returns the nutrients multiplied by factor
func (n Nutrients) Scale(factor decimal.Decimal) Nutrients {
	return Nutrients{
		Calories: n.Calories.Mul(factor),
		Protein:  n.Protein.Mul(factor),
		Carbs:    n.Carbs.Mul(factor),
		Fat:      n.Fat.Mul(factor),
		Fiber:    n.Fiber.Mul(factor),
	}
}

type Food struct {
	ID          int64
	Name        string
	Description string
	Nutrients   Nutrients
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
