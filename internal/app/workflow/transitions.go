package workflow

import (
	"fmt"
	"slices"

	"github.com/dalemusser/admitportal/internal/domain/models"
)

// Transition graph modes.
const (
	ModeStrict     = "strict"
	ModePermissive = "permissive"
)

var strictEdges = map[string][]string{
	models.StatusDraft:              {models.StatusSubmitted, models.StatusWithdrawn},
	models.StatusSubmitted:          {models.StatusUnderReview, models.StatusWithdrawn},
	models.StatusUnderReview:        {models.StatusSubmitted, models.StatusInterviewScheduled, models.StatusAccepted, models.StatusRejected, models.StatusWaitlisted, models.StatusWithdrawn},
	models.StatusInterviewScheduled: {models.StatusUnderReview, models.StatusAccepted, models.StatusRejected, models.StatusWaitlisted, models.StatusWithdrawn},
	models.StatusWaitlisted:         {models.StatusUnderReview, models.StatusAccepted, models.StatusRejected, models.StatusWithdrawn},
	// accepted, rejected and withdrawn are terminal.
}

// Graph says which status may follow which.
type Graph struct {
	permissive bool
}

// NewGraph returns the graph for mode. "" means strict.
func NewGraph(mode string) (Graph, error) {
	switch mode {
	case "", ModeStrict:
		return Graph{}, nil
	case ModePermissive:
		return Graph{permissive: true}, nil
	}
	return Graph{}, fmt.Errorf("unknown transition mode %q (want %q or %q)", mode, ModeStrict, ModePermissive)
}

// Permissive reports whether any status may follow any other.
func (g Graph) Permissive() bool { return g.permissive }

// Allowed reports whether to may follow from. Moving to the current status
// is never allowed.
func (g Graph) Allowed(from, to string) bool {
	if from == to || !models.IsValidStatus(from) || !models.IsValidStatus(to) {
		return false
	}
	if g.permissive {
		return true
	}
	return slices.Contains(strictEdges[from], to)
}

// Next lists the statuses that may follow from, in workflow order.
func (g Graph) Next(from string) []string {
	out := make([]string, 0, len(models.ApplicationStatuses))
	for _, s := range models.ApplicationStatuses {
		if g.Allowed(from, s) {
			out = append(out, s)
		}
	}
	return out
}
