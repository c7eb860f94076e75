package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MealType string

const (
	MealBreakfast MealType = "BREAKFAST"
	MealLunch     MealType = "LUNCH"
	MealDinner    MealType = "DINNER"
	MealSnack     MealType = "SNACK"
)

func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

type MealItem struct {
	ID       int64
	FoodID   int64
	FoodName string
	// Quantity in grams; food nutrients are stored per 100 g
	QuantityG decimal.Decimal
	Nutrients Nutrients
}

type Meal struct {
	ID        int64
	UserID    int64
	Type      MealType
	MealDate  time.Time
	CreatedAt time.Time
	Items     []MealItem
}

// Totals sums the nutrients of all items in the meal
func (m Meal) Totals() Nutrients {
	var total Nutrients
	for _, item := range m.Items {
		total = total.Add(item.Nutrients)
	}
	return total
}
