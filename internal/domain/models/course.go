// internal/domain/models/course.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course is an offering owned by exactly one university.
type Course struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UniversityID primitive.ObjectID `bson:"university_id" json:"university_id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"name_ci"`
	Code         string             `bson:"code,omitempty" json:"code,omitempty"`
	Level        string             `bson:"level,omitempty" json:"level,omitempty"` // e.g. "undergraduate"
	IsActive     bool               `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// CourseSummary is the embedded, display-only view of a course.
type CourseSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Code  string             `json:"code,omitempty"`
	Level string             `json:"level,omitempty"`
}

// Summary returns the display-only projection of c.
func (c Course) Summary() CourseSummary {
	return CourseSummary{ID: c.ID, Name: c.Name, Code: c.Code, Level: c.Level}
}
