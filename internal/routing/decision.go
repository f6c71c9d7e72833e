package routing

import (
	"context"

	"intake/internal/domain/ownership"
	"intake/internal/emitter"
	ownershipresolver "intake/internal/ownership"
)

// Action is what a router does with a relevant, new event.
type Action int

const (
	// Ignore: nobody has a plausible interest.
	Ignore Action = iota
	// Delegate: another system owns the case and acts through its own
	// pipeline.
	Delegate
	// Act: emit exactly one follow-up work item.
	Act
	// Void: an annulment cancels the pending work of an earlier event.
	Void
)

func (a Action) String() string {
	switch a {
	case Ignore:
		return "ignore"
	case Delegate:
		return "delegate"
	case Act:
		return "act"
	case Void:
		return "void"
	}
	return "unknown"
}

type Decision struct {
	Action Action
	Reason string

	// Work is set for Act.
	Work *emitter.Request

	// VoidCorrelationID and VoidTypes are set for Void.
	VoidCorrelationID string
	VoidTypes         []string

	// Subject and Metadata end up in the ledger entry.
	Subject  *string
	Metadata map[string]string
}

// OwnershipResolver resolves case ownership for a subject.
type OwnershipResolver interface {
	Resolve(ctx context.Context, s ownershipresolver.Subject) (ownership.Resolution, error)
}

// byOwnership maps a combined verdict to the three-state decision: act when
// the modern system owns the case, delegate when the legacy one does.
func byOwnership(v ownership.Verdict, whenNone Action) Action {
	switch v.System {
	case ownership.SystemModern:
		return Act
	case ownership.SystemLegacy:
		return Delegate
	}
	return whenNone
}
