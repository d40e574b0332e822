package domain

import "time"

type DerivedRate struct {
	ID          int64     `db:"id" json:"id,omitempty"`
	UnitID      string    `db:"unit_id" json:"unit_id"`
	DiseaseName string    `db:"disease_name" json:"disease_name"`
	Period      Period    `db:"period" json:"period"`
	Cases       float64   `db:"cases" json:"cases"`
	Population  float64   `db:"population" json:"population"`
	RatePer100k float64   `db:"rate_per_100k" json:"rate_per_100k"`
	// Adjusted marks the rate as age-standardized. Crude rates keep false so
	// consumers never conflate the two.
	Adjusted  bool      `db:"adjusted" json:"adjusted"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}
