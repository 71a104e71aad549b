// internal/domain/models/university.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// University is an institution offering courses. NameCI is always stored
// so listings can sort case/diacritic-insensitively.
type University struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	NameCI   string             `bson:"name_ci" json:"name_ci"`
	Code     string             `bson:"code" json:"code"` // e.g. "MIT", "UCL"
	Location string             `bson:"location,omitempty" json:"location,omitempty"`
	Website  string             `bson:"website,omitempty" json:"website,omitempty"`
	IsActive bool               `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// UniversitySummary is the embedded, display-only view of a university.
type UniversitySummary struct {
	ID       primitive.ObjectID `json:"id"`
	Name     string             `json:"name"`
	Code     string             `json:"code"`
	Location string             `json:"location,omitempty"`
}

// Summary returns the display-only projection of u.
func (u University) Summary() UniversitySummary {
	return UniversitySummary{ID: u.ID, Name: u.Name, Code: u.Code, Location: u.Location}
}
