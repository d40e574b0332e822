package domain

import "time"

// Period is a reporting period, a year ("2024") or a year range ("2020-2024").
type Period = string

type AttributeRecord struct {
	ID         int64     `db:"id" json:"id,omitempty"`
	UnitID     string    `db:"unit_id" json:"unit_id,omitempty"`
	JoinKey    string    `db:"join_key" json:"join_key"`
	MetricName string    `db:"metric_name" json:"metric_name"`
	Value      float64   `db:"value" json:"value"`
	Period     Period    `db:"period" json:"period"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
}

// MetricKey identifies one attribute slot on a unit. At most one value may
// occupy a slot after a join.
type MetricKey struct {
	Metric string `json:"metric"`
	Period Period `json:"period"`
}
