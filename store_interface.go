package approvalflow

import (
	"context"
	"time"
)

// WorkflowStore defines the persistence interface for approval workflows
type WorkflowStore interface {
	// CreateWorkflow persists a workflow and its full stage list atomically
	CreateWorkflow(ctx context.Context, wf *Workflow, stages []*Stage) error

	// GetWorkflow loads a workflow record without stages
	GetWorkflow(ctx context.Context, workflowID string) (*Workflow, error)

	// GetStage loads a stage by its id
	GetStage(ctx context.Context, stageID string) (*Stage, error)

	// ListStages returns the stages of a workflow ordered by stage number
	ListStages(ctx context.Context, workflowID string) ([]*Stage, error)

	// ListWorkflows returns workflows matching the filter
	ListWorkflows(ctx context.Context, filter WorkflowFilter) ([]*Workflow, error)

	// ApplyTransition writes every record in the transition or none of them.
	// Each record's Version must match the stored version, otherwise the
	// store returns a CONFLICT error. On success versions are incremented on
	// the passed records.
	ApplyTransition(ctx context.Context, tr Transition) error
}

// WorkflowFilter defines filtering criteria for workflows. Empty fields match everything.
type WorkflowFilter struct {
	DocumentID string
	Statuses   []WorkflowStatus
	AssigneeID string
	DueBefore  *time.Time
	Limit      int
}

// Matches applies the filter to a single workflow
func (f WorkflowFilter) Matches(wf *Workflow) bool {
	if f.DocumentID != "" && wf.DocumentID != f.DocumentID {
		return false
	}
	if len(f.Statuses) > 0 && !ContainsStatus(f.Statuses, wf.Status) {
		return false
	}
	if f.AssigneeID != "" && !wf.HasAssignee(f.AssigneeID) {
		return false
	}
	if f.DueBefore != nil && (wf.DueDate.IsZero() || !wf.DueDate.Before(*f.DueBefore)) {
		return false
	}
	return true
}

// Transition is the set of records changed by one engine operation
type Transition struct {
	Workflow *Workflow
	Stages   []*Stage
}
