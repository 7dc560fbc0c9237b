package models

import "time"

// Meal type values accepted by the entries endpoints and stored in
// calorie_entries.meal_type.
const (
	MealBreakfast = "Breakfast"
	MealLunch     = "Lunch"
	MealDinner    = "Dinner"
	MealSnacks    = "Snacks"
)

var MealTypes = []string{MealBreakfast, MealLunch, MealDinner, MealSnacks}

func ValidMealType(mt string) bool {
	for _, m := range MealTypes {
		if m == mt {
			return true
		}
	}
	return false
}

type CalorieEntry struct {
	ID        int       `db:"id" json:"id"`
	EntryDate time.Time `db:"entry_date" json:"-"`
	MealType  string    `db:"meal_type" json:"meal_type"`
	MealName  string    `db:"meal_name" json:"meal_name"`
	Calories  int       `db:"calories" json:"calories"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DailyStat is the derived per-day rollup kept in sync with calorie_entries.
// Rows are upserted atomically whenever a date's entries change.
type DailyStat struct {
	EntryDate         time.Time `db:"entry_date" json:"-"`
	TotalCalories     int       `db:"total_calories" json:"total_calories"`
	BreakfastCalories int       `db:"breakfast_calories" json:"breakfast_calories"`
	LunchCalories     int       `db:"lunch_calories" json:"lunch_calories"`
	DinnerCalories    int       `db:"dinner_calories" json:"dinner_calories"`
	SnacksCalories    int       `db:"snacks_calories" json:"snacks_calories"`
	IsExcluded        bool      `db:"is_excluded" json:"is_excluded"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

type APIKey struct {
	ID         string     `db:"id" json:"id"`
	UserEmail  string     `db:"user_email" json:"-"`
	Name       string     `db:"name" json:"name"`
	KeyHash    string     `db:"key_hash" json:"-"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	IsActive   bool       `db:"is_active" json:"is_active"`
}
