package approvalflow

import (
	"fmt"
	"time"
)

// Branch is the path a finished stage sent the workflow down
type Branch string

const (
	BranchAdvanced  Branch = "ADVANCED"
	BranchRejected  Branch = "REJECTED"
	BranchApproved  Branch = "APPROVED"
	BranchCompleted Branch = "COMPLETED"
)

// IsTerminal returns true if the branch ended the workflow
func (b Branch) IsTerminal() bool {
	return b != BranchAdvanced
}

// NewWorkflow builds the DRAFT workflow record
func NewWorkflow(id, documentID string, wfType WorkflowType, totalStages int, opts CreateOptions, now time.Time) *Workflow {
	priority := opts.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	return &Workflow{
		ID:                id,
		DocumentID:        documentID,
		Title:             opts.Title,
		Type:              wfType,
		Status:            WorkflowStatusDraft,
		CurrentStage:      1,
		TotalStages:       totalStages,
		Priority:          priority,
		AllowDelegation:   opts.AllowDelegation,
		AllowReassignment: opts.AllowReassignment,
		RequireComments:   opts.RequireComments,
		CreatedBy:         opts.CreatedBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Start moves a DRAFT workflow to IN_PROGRESS and activates the first stage
func (w *Workflow) Start(first *Stage, now time.Time) error {
	if w.Status != WorkflowStatusDraft {
		return NewInvalidStateError(fmt.Sprintf("workflow is %s, only %s workflows can be started", w.Status, WorkflowStatusDraft)).
			WithWorkflow(w.ID)
	}
	if first == nil || first.StageNumber != 1 {
		return NewNotFoundError("first stage not found").WithWorkflow(w.ID)
	}
	if err := first.Activate(now); err != nil {
		return err
	}

	w.Status = WorkflowStatusInProgress
	w.StartedAt = ToPtr(now)
	w.CurrentStage = 1
	w.CurrentAssignees = first.Assignees()
	w.UpdatedAt = now
	return nil
}

// CheckActionable verifies stage is the active stage of an active workflow
func (w *Workflow) CheckActionable(stage *Stage) error {
	if stage.Status.IsTerminal() {
		return NewInvalidStateError(fmt.Sprintf("stage %d is already %s", stage.StageNumber, stage.Status)).
			WithStage(stage.ID).
			WithWorkflow(w.ID)
	}
	if !w.Status.IsActive() {
		return NewInvalidStateError(fmt.Sprintf("workflow is %s", w.Status)).
			WithStage(stage.ID).
			WithWorkflow(w.ID)
	}
	if stage.StageNumber != w.CurrentStage {
		return NewInvalidStateError(fmt.Sprintf("stage %d is not the current stage (%d)", stage.StageNumber, w.CurrentStage)).
			WithStage(stage.ID).
			WithWorkflow(w.ID)
	}
	return nil
}

// Resolve applies a finished stage to the workflow. next is the stage with
// number CurrentStage+1, or nil when the finished stage was the last one.
func (w *Workflow) Resolve(finished, next *Stage, userID, comments string, now time.Time) (Branch, error) {
	if !finished.Status.IsTerminal() {
		return "", NewInvalidStateError("stage must be finished before the workflow can move on").
			WithStage(finished.ID)
	}

	if finished.Status == StageStatusRejected {
		w.terminate(WorkflowStatusRejected, OutcomeRejected, comments, now)
		return BranchRejected, nil
	}

	if finished.StageNumber < w.TotalStages {
		if next == nil || next.StageNumber != finished.StageNumber+1 {
			return "", NewNotFoundError(fmt.Sprintf("stage %d not found", finished.StageNumber+1)).
				WithWorkflow(w.ID)
		}
		if err := next.Activate(now); err != nil {
			return "", err
		}
		w.CurrentStage = next.StageNumber
		w.CurrentAssignees = next.Assignees()
		w.UpdatedAt = now
		return BranchAdvanced, nil
	}

	if finished.ActionTaken == ActionApproved {
		w.terminate(WorkflowStatusApproved, OutcomeApproved, comments, now)
		w.FinalApprovers = append(w.FinalApprovers, userID)
		return BranchApproved, nil
	}
	w.terminate(WorkflowStatusCompleted, OutcomeCompleted, comments, now)
	w.FinalApprovers = append(w.FinalApprovers, userID)
	return BranchCompleted, nil
}

func (w *Workflow) terminate(status WorkflowStatus, outcome Outcome, comments string, now time.Time) {
	w.Status = status
	w.Outcome = outcome
	w.OutcomeComments = comments
	w.CompletedAt = ToPtr(now)
	w.CurrentAssignees = nil
	w.UpdatedAt = now
}

// Cancel ends a non-terminal workflow. Stage records are left as they are.
func (w *Workflow) Cancel(reason string, now time.Time) error {
	if w.Status.IsTerminal() {
		return NewInvalidStateError(fmt.Sprintf("cannot cancel workflow in %s state", w.Status)).
			WithWorkflow(w.ID)
	}
	w.terminate(WorkflowStatusCancelled, OutcomeCancelled, reason, now)
	return nil
}

// Hold pauses an IN_PROGRESS workflow
func (w *Workflow) Hold(now time.Time) error {
	if w.Status != WorkflowStatusInProgress {
		return NewInvalidStateError(fmt.Sprintf("cannot hold workflow in %s state", w.Status)).
			WithWorkflow(w.ID)
	}
	w.Status = WorkflowStatusOnHold
	w.UpdatedAt = now
	return nil
}

// Resume continues an ON_HOLD workflow
func (w *Workflow) Resume(now time.Time) error {
	if w.Status != WorkflowStatusOnHold {
		return NewInvalidStateError(fmt.Sprintf("cannot resume workflow in %s state", w.Status)).
			WithWorkflow(w.ID)
	}
	w.Status = WorkflowStatusInProgress
	w.UpdatedAt = now
	return nil
}

// RecordReminder counts a reminder sent to the current assignees
func (w *Workflow) RecordReminder(now time.Time) error {
	if !w.Status.IsActive() {
		return NewInvalidStateError(fmt.Sprintf("cannot remind on workflow in %s state", w.Status)).
			WithWorkflow(w.ID)
	}
	w.RemindersSent++
	w.UpdatedAt = now
	return nil
}

// Escalate raises the escalation level. It never lowers it; the returned
// bool reports whether the level changed.
func (w *Workflow) Escalate(level int, now time.Time) (bool, error) {
	if w.Status.IsTerminal() {
		return false, NewInvalidStateError(fmt.Sprintf("cannot escalate workflow in %s state", w.Status)).
			WithWorkflow(w.ID)
	}
	if level <= w.EscalationLevel {
		return false, nil
	}
	w.EscalationLevel = level
	w.UpdatedAt = now
	return true, nil
}
