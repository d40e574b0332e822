package domain

import "time"

type Level string

const (
	LevelGovernorate Level = "governorate"
	LevelDistrict    Level = "district"
	LevelSubdistrict Level = "subdistrict"
)

// Levels in containment order, outermost first.
var Levels = []Level{LevelGovernorate, LevelDistrict, LevelSubdistrict}

func (l Level) Valid() bool {
	switch l {
	case LevelGovernorate, LevelDistrict, LevelSubdistrict:
		return true
	}
	return false
}

// Parent returns the next-higher level. ok is false for governorates.
func (l Level) Parent() (Level, bool) {
	switch l {
	case LevelDistrict:
		return LevelGovernorate, true
	case LevelSubdistrict:
		return LevelDistrict, true
	}
	return "", false
}

type AdministrativeUnit struct {
	UnitID     string    `db:"unit_id" json:"unit_id"`
	Level      Level     `db:"level" json:"level"`
	ParentID   *string   `db:"parent_id" json:"parent_id,omitempty"`
	NameAr     string    `db:"name_ar" json:"name_ar"`
	NameEn     string    `db:"name_en" json:"name_en"`
	ExternalID string    `db:"external_id" json:"external_id,omitempty"`
	Geometry   Geometry  `db:"geometry" json:"geometry"`
	CreatedAt  time.Time `db:"created_at" json:"-"`
	UpdatedAt  time.Time `db:"updated_at" json:"-"`
}
