// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/admitportal/internal/app/store/audit"
	"github.com/dalemusser/admitportal/internal/app/store/docstore"
)

// listItem is a single audit event row.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorID       string            `json:"actor_id,omitempty"`
	ActorName     string            `json:"actor_name,omitempty"` // resolved from ActorID
	ApplicationID string            `json:"application_id,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// listResponse is one page of the audit log.
type listResponse struct {
	Data       []listItem          `json:"data"`
	Pagination docstore.Pagination `json:"pagination"`
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	workflowEvents := []string{
		audit.EventApplicationCreated,
		audit.EventApplicationTransitioned,
		audit.EventTransitionDenied,
		audit.EventDraftUpdated,
	}

	adminEvents := []string{
		audit.EventCounselorAssigned,
		audit.EventCatalogSeeded,
	}

	switch category {
	case audit.CategoryWorkflow:
		return workflowEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(workflowEvents)+len(adminEvents))
		all = append(all, workflowEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return nil
	}
}
