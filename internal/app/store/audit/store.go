// internal/app/store/audit/store.go
package audit

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/dalemusser/admitportal/internal/app/store/docstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection is the docstore collection holding audit events.
const Collection = "audit_events"

// Event categories
const (
	CategoryWorkflow = "workflow"
	CategoryAdmin    = "admin"
)

// Workflow event types
const (
	EventApplicationCreated      = "application_created"
	EventApplicationTransitioned = "application_transitioned"
	EventTransitionDenied        = "application_transition_denied"
	EventDraftUpdated            = "application_draft_updated"
)

// Admin event types
const (
	EventCounselorAssigned = "counselor_assigned"
	EventCatalogSeeded     = "catalog_seeded"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who and what
	ActorID       *primitive.ObjectID `bson:"actor_id,omitempty"`
	ApplicationID *primitive.ObjectID `bson:"application_id,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events. Zero fields do not filter.
type QueryFilter struct {
	ActorID       *primitive.ObjectID
	ApplicationID *primitive.ObjectID
	Category      string
	EventType     string
	StartTime     *time.Time
	EndTime       *time.Time
	Limit         int
	Offset        int
}

// Store manages audit event records.
type Store struct {
	ds *docstore.Store
}

// New creates a new audit Store.
func New(ds *docstore.Store) *Store {
	return &Store{ds: ds}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.ds.Now()
	}
	event.ID = primitive.NilObjectID
	fields, err := docstore.Encode(event)
	if err != nil {
		return err
	}
	_, err = s.ds.Create(ctx, Collection, fields)
	return err
}

// Query retrieves audit events matching the filter, most recent first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	events, err := s.matching(ctx, filter)
	if err != nil {
		return nil, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	start := min(max(filter.Offset, 0), len(events))
	end := start + min(limit, len(events)-start)
	return events[start:end], nil
}

// CountByFilter returns the count of events matching the filter.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int, error) {
	events, err := s.matching(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

// GetByApplication retrieves recent audit events for one application.
func (s *Store) GetByApplication(ctx context.Context, applicationID primitive.ObjectID, limit int) ([]Event, error) {
	return s.Query(ctx, QueryFilter{
		ApplicationID: &applicationID,
		Limit:         limit,
	})
}

// GetRecent retrieves the most recent audit events.
func (s *Store) GetRecent(ctx context.Context, limit int) ([]Event, error) {
	return s.Query(ctx, QueryFilter{
		Limit: limit,
	})
}

// matching applies the equality part of the filter in the store and the time
// range afterwards, then sorts newest first.
func (s *Store) matching(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var f docstore.Filter
	if filter.ActorID != nil {
		f = f.And("actor_id", *filter.ActorID)
	}
	if filter.ApplicationID != nil {
		f = f.And("application_id", *filter.ApplicationID)
	}
	if filter.Category != "" {
		f = f.And("category", filter.Category)
	}
	if filter.EventType != "" {
		f = f.And("event_type", filter.EventType)
	}

	docs, err := s.ds.Find(ctx, Collection, f)
	if err != nil {
		return nil, err
	}
	all, err := docstore.DecodeAll[Event](docs)
	if err != nil {
		return nil, err
	}

	events := all[:0]
	for _, e := range all {
		if filter.StartTime != nil && e.Timestamp.Before(*filter.StartTime) {
			continue
		}
		if filter.EndTime != nil && e.Timestamp.After(*filter.EndTime) {
			continue
		}
		events = append(events, e)
	}

	// Ids are issued in order, so they break timestamp ties.
	slices.SortFunc(events, func(a, b Event) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})
	return events, nil
}
