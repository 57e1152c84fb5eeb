package engine

import (
	"context"

	"github.com/sicko7947/approvalflow"
	"go.opentelemetry.io/otel/attribute"
)

// GetByID returns a workflow with its stages attached
func (e *Engine) GetByID(ctx context.Context, workflowID string) (wf *approvalflow.Workflow, err error) {
	ctx, done := e.begin(ctx, opGetByID, attribute.String("workflow_id", workflowID))
	defer func() { done(err) }()

	wf, _, err = e.loadHydrated(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	return wf, nil
}

// GetStages returns the stages of a workflow ordered by stage number
func (e *Engine) GetStages(ctx context.Context, workflowID string) (stages []*approvalflow.Stage, err error) {
	ctx, done := e.begin(ctx, opGetStages, attribute.String("workflow_id", workflowID))
	defer func() { done(err) }()

	stages, err = e.store.ListStages(ctx, workflowID)
	if err != nil {
		return nil, approvalflow.AsCollaboratorError(collaboratorStore, err)
	}
	return stages, nil
}

// GetByDocument returns every workflow attached to a document
func (e *Engine) GetByDocument(ctx context.Context, documentID string) []*approvalflow.Workflow {
	return e.list(ctx, opGetByDocument, approvalflow.WorkflowFilter{DocumentID: documentID},
		attribute.String("document_id", documentID))
}

// GetPendingForUser returns active workflows currently waiting on userID
func (e *Engine) GetPendingForUser(ctx context.Context, userID string) []*approvalflow.Workflow {
	return e.list(ctx, opGetPendingForUser, approvalflow.WorkflowFilter{
		AssigneeID: userID,
		Statuses:   approvalflow.ActiveStatuses,
	}, attribute.String("user_id", userID))
}

// GetOverdue returns active workflows whose due date has passed
func (e *Engine) GetOverdue(ctx context.Context) []*approvalflow.Workflow {
	now := e.now()
	return e.list(ctx, opGetOverdue, approvalflow.WorkflowFilter{
		Statuses:  approvalflow.ActiveStatuses,
		DueBefore: &now,
	})
}

// GetActive returns every IN_PROGRESS or PENDING_APPROVAL workflow
func (e *Engine) GetActive(ctx context.Context) []*approvalflow.Workflow {
	return e.list(ctx, opGetActive, approvalflow.WorkflowFilter{Statuses: approvalflow.ActiveStatuses})
}

// list runs a filtered read. Store failures degrade to an empty result.
func (e *Engine) list(
	ctx context.Context,
	operation string,
	filter approvalflow.WorkflowFilter,
	attrs ...attribute.KeyValue,
) []*approvalflow.Workflow {
	ctx, done := e.begin(ctx, operation, attrs...)

	workflows, err := e.store.ListWorkflows(ctx, filter)
	done(err)
	if err != nil {
		approvalflow.LogReadDegraded(e.logger, operation, err)
		e.metrics.degradedRead(operation)
		return []*approvalflow.Workflow{}
	}
	if workflows == nil {
		workflows = []*approvalflow.Workflow{}
	}
	return workflows
}
