package model

import "time"

// HealthProfile holds the user's self-reported health data. Every field is
// optional.
type HealthProfile struct {
	UserID            string
	BirthDate         *time.Time
	Height            *float64
	Weight            *float64
	GoalWeight        *float64
	HasDiabetes       *bool
	HasHypertension   *bool
	HasHyperlipidemia *bool
	OtherDisease      *string
	Goal              *string
	ActivityLevel     *string
}
