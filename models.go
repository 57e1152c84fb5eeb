package approvalflow

import (
	"time"
)

// WorkflowStatus represents the current state of an approval workflow
type WorkflowStatus string

const (
	WorkflowStatusDraft           WorkflowStatus = "DRAFT"
	WorkflowStatusInProgress      WorkflowStatus = "IN_PROGRESS"
	WorkflowStatusPendingApproval WorkflowStatus = "PENDING_APPROVAL"
	WorkflowStatusApproved        WorkflowStatus = "APPROVED"
	WorkflowStatusRejected        WorkflowStatus = "REJECTED"
	WorkflowStatusCompleted       WorkflowStatus = "COMPLETED"
	WorkflowStatusCancelled       WorkflowStatus = "CANCELLED"
	WorkflowStatusOnHold          WorkflowStatus = "ON_HOLD"
)

// IsTerminal returns true if the status is a final state
func (s WorkflowStatus) IsTerminal() bool {
	switch s {
	case WorkflowStatusApproved, WorkflowStatusRejected, WorkflowStatusCompleted, WorkflowStatusCancelled:
		return true
	}
	return false
}

// IsActive returns true if the workflow is waiting on an assignee
func (s WorkflowStatus) IsActive() bool {
	return s == WorkflowStatusInProgress || s == WorkflowStatusPendingApproval
}

// String returns the string representation
func (s WorkflowStatus) String() string {
	return string(s)
}

// ActiveStatuses is the status set used by the pending, overdue and active views
var ActiveStatuses = []WorkflowStatus{WorkflowStatusInProgress, WorkflowStatusPendingApproval}

// StageStatus represents the current state of a single stage
type StageStatus string

const (
	StageStatusPending    StageStatus = "PENDING"
	StageStatusInProgress StageStatus = "IN_PROGRESS"
	StageStatusCompleted  StageStatus = "COMPLETED"
	StageStatusRejected   StageStatus = "REJECTED"
	StageStatusSkipped    StageStatus = "SKIPPED"
)

// IsTerminal returns true if the status is a final state
func (s StageStatus) IsTerminal() bool {
	return s == StageStatusCompleted || s == StageStatusRejected || s == StageStatusSkipped
}

// String returns the string representation
func (s StageStatus) String() string {
	return string(s)
}

// WorkflowType classifies the approval process. It is a closed set.
type WorkflowType string

const (
	WorkflowTypeReview         WorkflowType = "REVIEW"
	WorkflowTypeApproval       WorkflowType = "APPROVAL"
	WorkflowTypeRetirement     WorkflowType = "RETIREMENT"
	WorkflowTypePeriodicReview WorkflowType = "PERIODIC_REVIEW"
	WorkflowTypePublication    WorkflowType = "PUBLICATION"
)

// IsValid reports whether t is one of the known workflow types
func (t WorkflowType) IsValid() bool {
	switch t {
	case WorkflowTypeReview, WorkflowTypeApproval, WorkflowTypeRetirement,
		WorkflowTypePeriodicReview, WorkflowTypePublication:
		return true
	}
	return false
}

// String returns the string representation
func (t WorkflowType) String() string {
	return string(t)
}

// ParseWorkflowType converts a raw tag into a WorkflowType
func ParseWorkflowType(raw string) (WorkflowType, error) {
	t := WorkflowType(raw)
	if !t.IsValid() {
		return "", NewValidationError("unknown workflow type " + raw)
	}
	return t, nil
}

// StageType labels what kind of step a stage is
type StageType string

const (
	StageTypeReview          StageType = "REVIEW"
	StageTypeApproval        StageType = "APPROVAL"
	StageTypeSignOff         StageType = "SIGN_OFF"
	StageTypeAcknowledgement StageType = "ACKNOWLEDGEMENT"
)

// AssigneeType selects how a stage addresses its assignees
type AssigneeType string

const (
	AssigneeTypeUser AssigneeType = "USER"
	AssigneeTypeRole AssigneeType = "ROLE"
)

// StageAction is the action a user takes to finish a stage
type StageAction string

const (
	ActionApproved  StageAction = "APPROVED"
	ActionRejected  StageAction = "REJECTED"
	ActionCompleted StageAction = "COMPLETED"
	ActionSkipped   StageAction = "SKIPPED"
)

// IsCompletion reports whether a can be passed to CompleteStage
func (a StageAction) IsCompletion() bool {
	return a == ActionApproved || a == ActionRejected || a == ActionCompleted
}

// String returns the string representation
func (a StageAction) String() string {
	return string(a)
}

// Outcome is the terminal result recorded on a workflow
type Outcome string

const (
	OutcomeApproved  Outcome = "APPROVED"
	OutcomeRejected  Outcome = "REJECTED"
	OutcomeCompleted Outcome = "COMPLETED"
	OutcomeCancelled Outcome = "CANCELLED"
)

// Priority of a workflow
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Workflow is one approval process attached to a document
type Workflow struct {
	// Identity
	ID         string       `json:"id" dynamodbav:"id"`
	DocumentID string       `json:"documentId" dynamodbav:"document_id"`
	Title      string       `json:"title" dynamodbav:"title"`
	Type       WorkflowType `json:"type" dynamodbav:"type"`

	// Status
	Status           WorkflowStatus `json:"status" dynamodbav:"status"`
	CurrentStage     int            `json:"currentStage" dynamodbav:"current_stage"`
	TotalStages      int            `json:"totalStages" dynamodbav:"total_stages"`
	CurrentAssignees []string       `json:"currentAssignees,omitempty" dynamodbav:"current_assignees,omitempty"`

	// Timing
	DueDate     time.Time  `json:"dueDate" dynamodbav:"due_date"`
	StartedAt   *time.Time `json:"startedAt,omitempty" dynamodbav:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty" dynamodbav:"completed_at,omitempty"`

	// Tracking
	Priority        Priority `json:"priority" dynamodbav:"priority"`
	EscalationLevel int      `json:"escalationLevel" dynamodbav:"escalation_level"`
	RemindersSent   int      `json:"remindersSent" dynamodbav:"reminders_sent"`

	// Outcome
	Outcome         Outcome  `json:"outcome,omitempty" dynamodbav:"outcome,omitempty"`
	OutcomeComments string   `json:"outcomeComments,omitempty" dynamodbav:"outcome_comments,omitempty"`
	FinalApprovers  []string `json:"finalApprovers,omitempty" dynamodbav:"final_approvers,omitempty"`

	// Policy flags, fixed at creation
	AllowDelegation   bool `json:"allowDelegation" dynamodbav:"allow_delegation"`
	AllowReassignment bool `json:"allowReassignment" dynamodbav:"allow_reassignment"`
	RequireComments   bool `json:"requireComments" dynamodbav:"require_comments"`

	// Metadata
	CreatedBy string    `json:"createdBy,omitempty" dynamodbav:"created_by,omitempty"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updated_at"`
	Version   int64     `json:"version" dynamodbav:"version"`

	// Populated on hydrated reads only
	Stages []*Stage `json:"stages,omitempty" dynamodbav:"-"`
}

// Clone returns a deep copy of the workflow, including hydrated stages
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	c := *w
	c.CurrentAssignees = cloneStrings(w.CurrentAssignees)
	c.FinalApprovers = cloneStrings(w.FinalApprovers)
	c.StartedAt = cloneTime(w.StartedAt)
	c.CompletedAt = cloneTime(w.CompletedAt)
	if w.Stages != nil {
		c.Stages = make([]*Stage, len(w.Stages))
		for i, s := range w.Stages {
			c.Stages[i] = s.Clone()
		}
	}
	return &c
}

// IsOverdue reports whether an active workflow is past its due date
func (w *Workflow) IsOverdue(now time.Time) bool {
	return w.Status.IsActive() && !w.DueDate.IsZero() && w.DueDate.Before(now)
}

// HasAssignee reports whether userID is currently responsible for the workflow
func (w *Workflow) HasAssignee(userID string) bool {
	return containsString(w.CurrentAssignees, userID)
}

// StageByNumber returns the hydrated stage with the given number
func (w *Workflow) StageByNumber(n int) *Stage {
	for _, s := range w.Stages {
		if s.StageNumber == n {
			return s
		}
	}
	return nil
}

// Stage is one ordered step within a workflow
type Stage struct {
	// Identity
	ID          string `json:"id" dynamodbav:"id"`
	WorkflowID  string `json:"workflowId" dynamodbav:"workflow_id"`
	StageNumber int    `json:"stageNumber" dynamodbav:"stage_number"`

	// Definition
	Name           string       `json:"name" dynamodbav:"name"`
	StageType      StageType    `json:"stageType" dynamodbav:"stage_type"`
	RequiredAction string       `json:"requiredAction,omitempty" dynamodbav:"required_action,omitempty"`
	AssigneeType   AssigneeType `json:"assigneeType" dynamodbav:"assignee_type"`
	AssigneeIDs    []string     `json:"assigneeIds,omitempty" dynamodbav:"assignee_ids,omitempty"`
	AssigneeRole   string       `json:"assigneeRole,omitempty" dynamodbav:"assignee_role,omitempty"`

	// Status
	Status  StageStatus `json:"status" dynamodbav:"status"`
	DueDays int         `json:"dueDays" dynamodbav:"due_days"`
	DueDate time.Time   `json:"dueDate" dynamodbav:"due_date"`

	// Completion
	ActionTaken StageAction `json:"actionTaken,omitempty" dynamodbav:"action_taken,omitempty"`
	CompletedBy string      `json:"completedBy,omitempty" dynamodbav:"completed_by,omitempty"`
	Comments    string      `json:"comments,omitempty" dynamodbav:"comments,omitempty"`
	StartedAt   *time.Time  `json:"startedAt,omitempty" dynamodbav:"started_at,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty" dynamodbav:"completed_at,omitempty"`

	// Delegation
	DelegatedTo      string     `json:"delegatedTo,omitempty" dynamodbav:"delegated_to,omitempty"`
	DelegatedBy      string     `json:"delegatedBy,omitempty" dynamodbav:"delegated_by,omitempty"`
	DelegatedAt      *time.Time `json:"delegatedAt,omitempty" dynamodbav:"delegated_at,omitempty"`
	DelegationReason string     `json:"delegationReason,omitempty" dynamodbav:"delegation_reason,omitempty"`

	// Metadata
	CreatedAt time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" dynamodbav:"updated_at"`
	Version   int64     `json:"version" dynamodbav:"version"`
}

// Clone returns a deep copy of the stage
func (s *Stage) Clone() *Stage {
	if s == nil {
		return nil
	}
	c := *s
	c.AssigneeIDs = cloneStrings(s.AssigneeIDs)
	c.StartedAt = cloneTime(s.StartedAt)
	c.CompletedAt = cloneTime(s.CompletedAt)
	c.DelegatedAt = cloneTime(s.DelegatedAt)
	return &c
}

// StageDefinition describes one stage at workflow creation time
type StageDefinition struct {
	Name           string       `json:"name" yaml:"name"`
	StageType      StageType    `json:"stageType" yaml:"stage_type"`
	RequiredAction string       `json:"requiredAction,omitempty" yaml:"required_action"`
	AssigneeType   AssigneeType `json:"assigneeType" yaml:"assignee_type"`
	AssigneeIDs    []string     `json:"assigneeIds,omitempty" yaml:"assignee_ids"`
	AssigneeRole   string       `json:"assigneeRole,omitempty" yaml:"assignee_role"`
	DueDays        int          `json:"dueDays,omitempty" yaml:"due_days"`
}
