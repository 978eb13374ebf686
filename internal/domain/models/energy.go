package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/caloriebalance/tracker/internal/metrics"
)

// DateLayout is the calendar date format used on the wire and in sheets.
const DateLayout = "2006-01-02"

// Meal is a logged food item.
type Meal struct {
	ID          string         `bson:"_id" json:"id"`
	UserID      string         `bson:"user_id" json:"user"`
	Name        string         `bson:"meal" json:"meal"`
	Calories    float64        `bson:"calories" json:"calories"`
	Protein     float64        `bson:"protein" json:"protein"`
	Carbs       float64        `bson:"carbs" json:"carbs"`
	Fat         float64        `bson:"fat" json:"fat"`
	ServingQty  float64        `bson:"serving_qty" json:"serving_qty"`
	ServingUnit string         `bson:"serving_unit,omitempty" json:"serving_unit"`
	Date        time.Time      `bson:"date" json:"date"`
	RawAPIData  map[string]any `bson:"raw_api_data,omitempty" json:"raw_api_data,omitempty"`
	CreatedAt   time.Time      `bson:"created_at" json:"created_at"`
}

// Event returns the meal as a calculation input.
func (m Meal) Event() metrics.Event {
	return metrics.MealEvent{Calories: m.Calories, Date: m.Date}
}

// Activity is a logged exercise session.
type Activity struct {
	ID             string                   `bson:"_id" json:"id"`
	UserID         string                   `bson:"user_id" json:"user"`
	Name           string                   `bson:"activity" json:"activity"`
	Category       metrics.ActivityCategory `bson:"activity_type" json:"activity_type"`
	DurationMin    int                      `bson:"duration" json:"duration"`
	CaloriesBurned int                      `bson:"calories_burned" json:"calories_burned"`
	Date           time.Time                `bson:"date" json:"date"`
	Notes          string                   `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time                `bson:"created_at" json:"created_at"`
}

// Event returns the activity as a calculation input.
func (a Activity) Event() metrics.Event {
	return metrics.ActivityEvent{
		Category:       a.Category,
		DurationMin:    a.DurationMin,
		CaloriesBurned: a.CaloriesBurned,
		Date:           a.Date,
	}
}

// Events flattens meals and activities into one calculation input slice.
func Events(meals []Meal, activities []Activity) []metrics.Event {
	events := make([]metrics.Event, 0, len(meals)+len(activities))
	for _, m := range meals {
		events = append(events, m.Event())
	}
	for _, a := range activities {
		events = append(events, a.Event())
	}
	return events
}

// FoodItem is a nutrition lookup result, shaped like the Nutritionix payload.
type FoodItem struct {
	Name        string         `json:"food_name" binding:"required,max=100"`
	Calories    float64        `json:"nf_calories" binding:"gte=0"`
	Protein     float64        `json:"nf_protein" binding:"gte=0"`
	Carbs       float64        `json:"nf_total_carbohydrate" binding:"gte=0"`
	Fat         float64        `json:"nf_total_fat" binding:"gte=0"`
	ServingQty  float64        `json:"serving_qty" binding:"gte=0"`
	ServingUnit string         `json:"serving_unit" binding:"max=50"`
	Raw         map[string]any `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps the whole object in Raw,
// including fields the tracker does not model.
func (f *FoodItem) UnmarshalJSON(data []byte) error {
	type plain FoodItem
	var item plain
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &item.Raw); err != nil {
		return err
	}
	*f = FoodItem(item)
	return nil
}

// ToMeal turns a food item into a meal eaten on day.
func (f FoodItem) ToMeal(id, userID string, day, now time.Time) Meal {
	return Meal{
		ID:          id,
		UserID:      userID,
		Name:        f.Name,
		Calories:    f.Calories,
		Protein:     f.Protein,
		Carbs:       f.Carbs,
		Fat:         f.Fat,
		ServingQty:  f.ServingQty,
		ServingUnit: f.ServingUnit,
		Date:        metrics.DayOf(day),
		RawAPIData:  f.Raw,
		CreatedAt:   now,
	}
}

// NutritionLookupRequest asks the nutrition service to parse a free-text meal.
type NutritionLookupRequest struct {
	Meal string `json:"meal"`
}

// AddMealRequest stores one or more food items as meals.
type AddMealRequest struct {
	Foods []FoodItem `json:"foods" binding:"required,min=1,dive"`
	Date  string     `json:"date"`
}

// AddActivityRequest logs an exercise session.
type AddActivityRequest struct {
	Activity       string `json:"activity" binding:"required,max=100"`
	ActivityType   string `json:"activity_type"`
	Duration       int    `json:"duration" binding:"required,gt=0"`
	CaloriesBurned *int   `json:"calories_burned" binding:"required,gte=0"`
	Date           string `json:"date"`
	Notes          string `json:"notes" binding:"max=500"`
}

// ToActivity builds the stored record. The category defaults to the one
// implied by the activity name.
func (r AddActivityRequest) ToActivity(id, userID string, day, now time.Time) Activity {
	category := r.ActivityType
	if category == "" {
		category = r.Activity
	}

	burned := 0
	if r.CaloriesBurned != nil {
		burned = *r.CaloriesBurned
	}

	return Activity{
		ID:             id,
		UserID:         userID,
		Name:           strings.TrimSpace(r.Activity),
		Category:       metrics.ParseActivityCategory(category),
		DurationMin:    r.Duration,
		CaloriesBurned: burned,
		Date:           metrics.DayOf(day),
		Notes:          r.Notes,
		CreatedAt:      now,
	}
}

// ParseDay parses a DateLayout string, returning fallback for empty input.
func ParseDay(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return metrics.DayOf(fallback), nil
	}
	day, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q must be formatted as %s", value, DateLayout)
	}
	return day, nil
}
