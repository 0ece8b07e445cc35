package model

import "time"

type DietDailyStat struct {
	Date     time.Time
	Weekday  string
	Carbs    float64
	Protein  float64
	Fat      float64
	Calories float64
}

type ExerciseDailyStat struct {
	Date     time.Time
	Weekday  string
	Minutes  float64
	Calories float64
}

// WeeklyStats covers Monday through Sunday with one entry per day.
type WeeklyStats struct {
	WeekStart     time.Time
	WeekEnd       time.Time
	DietStats     []DietDailyStat
	ExerciseStats []ExerciseDailyStat
}
