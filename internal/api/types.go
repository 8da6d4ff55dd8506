package api

import "fmt"

// StatusResponse is the dashboard's generic mutation reply.
type StatusResponse struct {
	Status   string   `json:"status"`
	Message  string   `json:"message,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	ID       int64    `json:"id,omitempty"`
}

// CalorieEntry is the body of POST /api/calories.
type CalorieEntry struct {
	Date     string  `json:"date"`
	MealName string  `json:"meal_name"`
	Calories float64 `json:"calories"`
	FoodID   int64   `json:"food_id,omitempty"`
	Quantity string  `json:"quantity,omitempty"`
}

// Food is one row of the dashboard food reference table.
type Food struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	CaloriesPerUnit float64 `json:"calories_per_unit"`
	CanonicalUnit   string  `json:"canonical_unit"`
}

// ComputedCalories is the reply of POST /api/foods/compute.
type ComputedCalories struct {
	Calories float64 `json:"calories"`
	Unit     string  `json:"unit,omitempty"`
}

// CustomMetric is one user-defined metric known to the dashboard.
type CustomMetric struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// APIError carries a non-2xx dashboard reply.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dashboard: HTTP %d", e.Status)
	}
	return fmt.Sprintf("dashboard: %s (HTTP %d)", e.Message, e.Status)
}
