package approvalflow

import (
	"context"
	"time"
)

// ActivityType identifies an entry in a document's activity log
type ActivityType string

const (
	ActivityWorkflowStarted   ActivityType = "WORKFLOW_STARTED"
	ActivityWorkflowApproved  ActivityType = "WORKFLOW_APPROVED"
	ActivityWorkflowRejected  ActivityType = "WORKFLOW_REJECTED"
	ActivityWorkflowCompleted ActivityType = "WORKFLOW_COMPLETED"
	ActivityWorkflowCancelled ActivityType = "WORKFLOW_CANCELLED"
	ActivityStageCompleted    ActivityType = "STAGE_COMPLETED"
	ActivityStageDelegated    ActivityType = "STAGE_DELEGATED"
	ActivityStageSkipped      ActivityType = "STAGE_SKIPPED"
)

// Severity of an activity entry
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityNotice  Severity = "NOTICE"
	SeverityWarning Severity = "WARNING"
)

// Document is the subset of document metadata the engine reads
type Document struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Owner  string            `json:"owner,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// ActivityEntry is one record written to a document's activity log
type ActivityEntry struct {
	ID         string                 `json:"id"`
	WorkflowID string                 `json:"workflowId"`
	DocumentID string                 `json:"documentId"`
	Type       ActivityType           `json:"type"`
	ActorID    string                 `json:"actorId"`
	Timestamp  time.Time              `json:"timestamp"`
	Severity   Severity               `json:"severity"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// DocumentRegistry supplies document metadata and receives activity entries.
// GetDocument returns an error with code NOT_FOUND for unknown documents.
type DocumentRegistry interface {
	GetDocument(ctx context.Context, documentID string) (*Document, error)
	LogActivity(ctx context.Context, entry ActivityEntry) error
}
