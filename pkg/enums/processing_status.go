package enums

import "fmt"

// ProcessingStatus describes the lifecycle state of a tracked artifact.
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "pending"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusRejected   ProcessingStatus = "rejected"
)

var validProcessingStatuses = []ProcessingStatus{
	ProcessingStatusPending,
	ProcessingStatusProcessing,
	ProcessingStatusCompleted,
	ProcessingStatusRejected,
}

// legalTransitions is the closed transition table. Terminal states have no
// outgoing edges.
var legalTransitions = map[ProcessingStatus][]ProcessingStatus{
	ProcessingStatusPending:    {ProcessingStatusProcessing, ProcessingStatusRejected},
	ProcessingStatusProcessing: {ProcessingStatusCompleted, ProcessingStatusRejected},
	ProcessingStatusCompleted:  {},
	ProcessingStatusRejected:   {},
}

// String returns the literal string for the status.
func (p ProcessingStatus) String() string {
	return string(p)
}

// IsValid reports whether the status is known.
func (p ProcessingStatus) IsValid() bool {
	for _, candidate := range validProcessingStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is legal from the status.
func (p ProcessingStatus) IsTerminal() bool {
	return p == ProcessingStatusCompleted || p == ProcessingStatusRejected
}

// CanTransitionTo reports whether moving to next is a legal transition.
// Self-transitions are not legal edges; callers treat them as idempotent
// retries before consulting the table.
func (p ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	for _, candidate := range legalTransitions[p] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseProcessingStatus converts raw input into a ProcessingStatus.
func ParseProcessingStatus(value string) (ProcessingStatus, error) {
	for _, candidate := range validProcessingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid processing status %q", value)
}
