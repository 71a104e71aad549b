// internal/domain/models/applicationstatus.go
package models

// Canonical application status identifiers.
//
// These values are stored in the Application.Status field and in every
// StatusEntry. No other value is ever persisted.
const (
	StatusDraft              = "draft"
	StatusSubmitted          = "submitted"
	StatusUnderReview        = "under_review"
	StatusInterviewScheduled = "interview_scheduled"
	StatusAccepted           = "accepted"
	StatusRejected           = "rejected"
	StatusWaitlisted         = "waitlisted"
	StatusWithdrawn          = "withdrawn"
)

// ApplicationStatuses is the full set of allowed status identifiers, in
// workflow order. Treat it as the single source of truth for validation.
var ApplicationStatuses = []string{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusInterviewScheduled,
	StatusAccepted,
	StatusRejected,
	StatusWaitlisted,
	StatusWithdrawn,
}

// IsValidStatus reports whether s is one of ApplicationStatuses.
func IsValidStatus(s string) bool {
	for _, v := range ApplicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether s ends the workflow.
func IsTerminalStatus(s string) bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusWithdrawn
}

// BlocksDuplicate reports whether an application in status s prevents the
// same student from opening another application for the same course.
// Withdrawn and rejected applications free the slot.
func BlocksDuplicate(s string) bool {
	return s != StatusWithdrawn && s != StatusRejected
}
