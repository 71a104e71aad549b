// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles an authenticated actor can hold.
const (
	RoleStudent   = "student"
	RoleCounselor = "counselor"
	RoleAdmin     = "admin"
)

// Roles lists every role, least privileged first.
var Roles = []string{RoleStudent, RoleCounselor, RoleAdmin}

// User represents students, counselors and admins.
//
// NOTE:
//   - Users are never physically removed; IsActive=false is the soft delete.
//   - Applications refer to users by ID only (student_id, assigned_counselor_id).
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"full_name" json:"full_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	Role       string             `bson:"role" json:"role"` // student | counselor | admin
	IsActive   bool               `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// UserSummary is the embedded, display-only view of a user.
type UserSummary struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"full_name"`
	Email    string             `json:"email"`
}

// Summary returns the display-only projection of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, FullName: u.FullName, Email: u.Email}
}
