package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/sicko7947/approvalflow"
	"go.opentelemetry.io/otel/attribute"
)

// CompleteStage finishes the current stage with APPROVED, REJECTED or
// COMPLETED and moves the workflow on. The stage, the next stage and the
// workflow are written in one transition.
func (e *Engine) CompleteStage(
	ctx context.Context,
	stageID string,
	action approvalflow.StageAction,
	userID, comments string,
) (wf *approvalflow.Workflow, err error) {
	ctx, done := e.begin(ctx, opCompleteStage,
		attribute.String("stage_id", stageID),
		attribute.String("action", string(action)))
	defer func() { done(err) }()

	wf, stage, err := e.loadForStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if err := e.checkStageAction(wf, stage, comments); err != nil {
		return nil, err
	}
	if !action.IsCompletion() {
		return nil, approvalflow.NewValidationError(fmt.Sprintf("unsupported stage action %q", action)).
			WithStage(stageID)
	}

	return e.finishStage(ctx, opCompleteStage, wf, stage, action, userID, comments)
}

// SkipStage marks the current stage SKIPPED and advances like a COMPLETED
// action. Skipping the last stage completes the workflow.
func (e *Engine) SkipStage(ctx context.Context, stageID, userID, reason string) (wf *approvalflow.Workflow, err error) {
	ctx, done := e.begin(ctx, opSkipStage, attribute.String("stage_id", stageID))
	defer func() { done(err) }()

	wf, stage, err := e.loadForStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	if err := e.checkStageAction(wf, stage, reason); err != nil {
		return nil, err
	}

	wf, err = e.finishStage(ctx, opSkipStage, wf, stage, approvalflow.ActionSkipped, userID, reason)
	if err != nil {
		return nil, err
	}
	approvalflow.LogStageSkipped(e.logger, wf.ID, stage.StageNumber, reason)
	return wf, nil
}

// DelegateStage hands a non-terminal stage to toUserID. The stage keeps its
// status; if it is the current stage the workflow's assignees follow it.
func (e *Engine) DelegateStage(ctx context.Context, stageID, toUserID, fromUserID, reason string) (wf *approvalflow.Workflow, err error) {
	ctx, done := e.begin(ctx, opDelegateStage, attribute.String("stage_id", stageID))
	defer func() { done(err) }()

	if strings.TrimSpace(toUserID) == "" {
		return nil, approvalflow.NewValidationError("delegate target is required").WithStage(stageID)
	}

	wf, stage, err := e.loadForStage(ctx, stageID)
	if err != nil {
		return nil, err
	}

	if !wf.AllowDelegation {
		return nil, approvalflow.NewForbiddenError("delegation is not allowed for this workflow").
			WithWorkflow(wf.ID).
			WithStage(stageID)
	}
	if wf.Status.IsTerminal() {
		return nil, approvalflow.NewInvalidStateError(fmt.Sprintf("workflow is %s", wf.Status)).
			WithWorkflow(wf.ID).
			WithStage(stageID)
	}

	now := e.now()
	if err := stage.Delegate(toUserID, fromUserID, reason, now); err != nil {
		return nil, err
	}
	if stage.Status == approvalflow.StageStatusInProgress && stage.StageNumber == wf.CurrentStage {
		wf.CurrentAssignees = []string{toUserID}
	}
	// The workflow is written too so its version guards the delegation
	wf.UpdatedAt = now

	if err := e.commit(ctx, opDelegateStage, wf, stage); err != nil {
		return nil, err
	}

	approvalflow.LogStageDelegated(e.logger, wf.ID, stage.ID, fromUserID, toUserID)
	e.logActivity(ctx, wf, approvalflow.ActivityStageDelegated, fromUserID, approvalflow.SeverityInfo, now,
		map[string]interface{}{
			"stage_number": stage.StageNumber,
			"from":         fromUserID,
			"to":           toUserID,
			"reason":       reason,
		})

	return wf, nil
}

// loadForStage loads a stage, its workflow and the workflow's stage list.
// The returned stage is the element of wf.Stages.
func (e *Engine) loadForStage(ctx context.Context, stageID string) (*approvalflow.Workflow, *approvalflow.Stage, error) {
	st, err := e.store.GetStage(ctx, stageID)
	if err != nil {
		return nil, nil, approvalflow.AsCollaboratorError(collaboratorStore, err)
	}

	wf, stages, err := e.loadHydrated(ctx, st.WorkflowID)
	if err != nil {
		return nil, nil, err
	}

	for _, s := range stages {
		if s.ID == stageID {
			return wf, s, nil
		}
	}
	return nil, nil, approvalflow.NewNotFoundError(fmt.Sprintf("stage %s not found", stageID)).
		WithStage(stageID).
		WithWorkflow(wf.ID)
}

func (e *Engine) checkStageAction(wf *approvalflow.Workflow, stage *approvalflow.Stage, comments string) error {
	if err := wf.CheckActionable(stage); err != nil {
		return err
	}
	if wf.RequireComments && strings.TrimSpace(comments) == "" {
		return approvalflow.NewValidationError("comments are required for this workflow").
			WithWorkflow(wf.ID).
			WithStage(stage.ID)
	}
	return nil
}

// finishStage applies action to stage, resolves the workflow branch and commits
func (e *Engine) finishStage(
	ctx context.Context,
	operation string,
	wf *approvalflow.Workflow,
	stage *approvalflow.Stage,
	action approvalflow.StageAction,
	userID, comments string,
) (*approvalflow.Workflow, error) {
	now := e.now()
	from := wf.Status

	if err := stage.Finish(action, userID, comments, now); err != nil {
		return nil, err
	}

	var next *approvalflow.Stage
	if stage.Status != approvalflow.StageStatusRejected && stage.StageNumber < wf.TotalStages {
		next = wf.StageByNumber(stage.StageNumber + 1)
	}

	branch, err := wf.Resolve(stage, next, userID, comments, now)
	if err != nil {
		return nil, err
	}

	touched := []*approvalflow.Stage{stage}
	if branch == approvalflow.BranchAdvanced {
		touched = append(touched, next)
	}
	if err := e.commit(ctx, operation, wf, touched...); err != nil {
		return nil, err
	}

	logger := approvalflow.WorkflowLogger(e.logger, wf.ID, wf.DocumentID)
	approvalflow.LogStageCompleted(logger, wf.ID, stage.StageNumber, action, branch)
	if branch.IsTerminal() {
		approvalflow.LogWorkflowTerminated(logger, wf.ID, wf.Status)
	}
	e.metrics.transition(from.String(), wf.Status.String())

	activity, severity := activityFor(branch, action)
	e.logActivity(ctx, wf, activity, userID, severity, now,
		map[string]interface{}{
			"stage_number": stage.StageNumber,
			"stage_name":   stage.Name,
			"action":       string(action),
			"comments":     comments,
		})

	return wf, nil
}

// activityFor picks the single activity entry recorded for a finished stage
func activityFor(branch approvalflow.Branch, action approvalflow.StageAction) (approvalflow.ActivityType, approvalflow.Severity) {
	switch branch {
	case approvalflow.BranchRejected:
		return approvalflow.ActivityWorkflowRejected, approvalflow.SeverityWarning
	case approvalflow.BranchApproved:
		return approvalflow.ActivityWorkflowApproved, approvalflow.SeverityNotice
	case approvalflow.BranchCompleted:
		return approvalflow.ActivityWorkflowCompleted, approvalflow.SeverityNotice
	}
	if action == approvalflow.ActionSkipped {
		return approvalflow.ActivityStageSkipped, approvalflow.SeverityInfo
	}
	return approvalflow.ActivityStageCompleted, approvalflow.SeverityInfo
}
