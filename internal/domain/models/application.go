// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application is one student's candidacy for one course at one university.
//
// NOTE:
//   - StatusHistory is append-only. Entries are never edited, removed or reordered.
//   - SubmittedAt is nil until the first transition into "submitted" and is
//     never overwritten afterwards.
//   - Applications are never physically deleted; "withdrawn" is the terminal
//     status used instead.
type Application struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID    primitive.ObjectID `bson:"student_id" json:"student_id"`
	UniversityID primitive.ObjectID `bson:"university_id" json:"university_id"`
	CourseID     primitive.ObjectID `bson:"course_id" json:"course_id"`

	Status        string        `bson:"status" json:"status"`
	StatusHistory []StatusEntry `bson:"status_history" json:"status_history"`
	SubmittedAt   *time.Time    `bson:"submitted_at" json:"submitted_at"`

	AssignedCounselorID *primitive.ObjectID `bson:"assigned_counselor_id,omitempty" json:"assigned_counselor_id,omitempty"`

	// Opaque payload; not subject to workflow rules.
	PersonalStatement string     `bson:"personal_statement,omitempty" json:"personal_statement,omitempty"`
	AdditionalInfo    string     `bson:"additional_info,omitempty" json:"additional_info,omitempty"`
	Documents         []Document `bson:"documents,omitempty" json:"documents,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// StatusEntry is one immutable audit-trail row of an application.
type StatusEntry struct {
	Status    string             `bson:"status" json:"status"`
	UpdatedBy primitive.ObjectID `bson:"updated_by" json:"updated_by"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Document is a reference to a file uploaded elsewhere. The portal stores the
// reference only.
type Document struct {
	Name string `bson:"name" json:"name"`
	URL  string `bson:"url" json:"url"`
	Kind string `bson:"kind,omitempty" json:"kind,omitempty"` // e.g. "transcript", "cv"
}
