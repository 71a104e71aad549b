// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	"github.com/dalemusser/admitportal/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of audit events.
const (
	ModeAll = "all" // docstore + zap
	ModeDB  = "db"  // docstore only
	ModeLog = "log" // zap only
	ModeOff = "off" // disabled
)

// ValidMode reports whether m is one of the destination modes.
func ValidMode(m string) bool {
	switch m {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// Config holds audit logging configuration.
type Config struct {
	// Workflow controls logging for application events (create, transition, draft edits).
	// Values: "all", "db", "log", "off"
	Workflow string
	// Admin controls logging for admin actions (counselor assignment, catalog seeding).
	// Values: "all", "db", "log", "off"
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to the audit_events collection (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.ApplicationID != nil {
		fields = append(fields, zap.String("application_id", event.ApplicationID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Failures to store the event are logged and never returned: the audited
// change has already been committed.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryWorkflow:
		setting = l.config.Workflow
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == "" {
		setting = ModeAll
	}

	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}

	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Workflow Events ---

// ApplicationCreated logs a new draft application.
func (l *Logger) ApplicationCreated(ctx context.Context, actorID, applicationID, universityID, courseID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWorkflow,
		EventType:     audit.EventApplicationCreated,
		ActorID:       &actorID,
		ApplicationID: &applicationID,
		Success:       true,
		Details: map[string]string{
			"university_id": universityID.Hex(),
			"course_id":     courseID.Hex(),
		},
	})
}

// ApplicationTransitioned logs a status change.
func (l *Logger) ApplicationTransitioned(ctx context.Context, actorID, applicationID primitive.ObjectID, actorRole, from, to string, historyLen int) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWorkflow,
		EventType:     audit.EventApplicationTransitioned,
		ActorID:       &actorID,
		ApplicationID: &applicationID,
		Success:       true,
		Details: map[string]string{
			"actor_role":  actorRole,
			"from":        from,
			"to":          to,
			"history_len": strconv.Itoa(historyLen),
		},
	})
}

// TransitionDenied logs a status change that was refused.
func (l *Logger) TransitionDenied(ctx context.Context, actorID, applicationID primitive.ObjectID, actorRole, from, to, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWorkflow,
		EventType:     audit.EventTransitionDenied,
		ActorID:       &actorID,
		ApplicationID: &applicationID,
		Success:       false,
		FailureReason: reason,
		Details: map[string]string{
			"actor_role": actorRole,
			"from":       from,
			"to":         to,
		},
	})
}

// DraftUpdated logs a payload edit on a draft application.
func (l *Logger) DraftUpdated(ctx context.Context, actorID, applicationID primitive.ObjectID, fieldsChanged string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryWorkflow,
		EventType:     audit.EventDraftUpdated,
		ActorID:       &actorID,
		ApplicationID: &applicationID,
		Success:       true,
		Details: map[string]string{
			"fields_changed": fieldsChanged,
		},
	})
}

// --- Admin Events ---

// CounselorAssigned logs when an admin assigns a counselor to an application.
func (l *Logger) CounselorAssigned(ctx context.Context, actorID, applicationID, counselorID primitive.ObjectID, previous *primitive.ObjectID) {
	details := map[string]string{
		"counselor_id": counselorID.Hex(),
	}
	if previous != nil {
		details["previous_counselor_id"] = previous.Hex()
	}
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAdmin,
		EventType:     audit.EventCounselorAssigned,
		ActorID:       &actorID,
		ApplicationID: &applicationID,
		Success:       true,
		Details:       details,
	})
}

// CatalogSeeded logs a reference-data import.
func (l *Logger) CatalogSeeded(ctx context.Context, source string, universities, courses, users int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventCatalogSeeded,
		Success:   true,
		Details: map[string]string{
			"source":       source,
			"universities": strconv.Itoa(universities),
			"courses":      strconv.Itoa(courses),
			"users":        strconv.Itoa(users),
		},
	})
}
