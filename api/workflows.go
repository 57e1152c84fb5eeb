package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/sicko7947/approvalflow"
)

// Views accepted by GET /api/v1/workflows
const (
	viewActive  = "active"
	viewOverdue = "overdue"
)

func (h *Handler) createWorkflow(c fiber.Ctx) error {
	var req createWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	wfType, err := approvalflow.ParseWorkflowType(req.Type)
	if err != nil {
		return h.fail(c, "create_workflow", err)
	}

	wf, err := h.engine.CreateWorkflow(c.Context(), req.DocumentID, wfType, req.Stages, req.options()...)
	if err != nil {
		return h.fail(c, "create_workflow", err)
	}

	return c.Status(fiber.StatusCreated).JSON(wf)
}

func (h *Handler) getWorkflow(c fiber.Ctx) error {
	wf, err := h.engine.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "get_workflow", err)
	}
	return c.JSON(wf)
}

func (h *Handler) getStages(c fiber.Ctx) error {
	stages, err := h.engine.GetStages(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "get_stages", err)
	}
	return c.JSON(fiber.Map{
		"workflowId": c.Params("id"),
		"stages":     stages,
	})
}

// listWorkflows serves the active and overdue views
func (h *Handler) listWorkflows(c fiber.Ctx) error {
	var workflows []*approvalflow.Workflow
	switch view := c.Query("view"); view {
	case viewActive:
		workflows = h.engine.GetActive(c.Context())
	case viewOverdue:
		workflows = h.engine.GetOverdue(c.Context())
	default:
		return badRequest(c, "view must be one of active, overdue")
	}
	return c.JSON(listResponse(workflows))
}

func (h *Handler) documentWorkflows(c fiber.Ctx) error {
	return c.JSON(listResponse(h.engine.GetByDocument(c.Context(), c.Params("id"))))
}

func (h *Handler) pendingForUser(c fiber.Ctx) error {
	return c.JSON(listResponse(h.engine.GetPendingForUser(c.Context(), c.Params("id"))))
}

func (h *Handler) startWorkflow(c fiber.Ctx) error {
	var req actorRequest
	if err := bindOptional(c, &req); err != nil {
		return badRequest(c, "invalid request body")
	}

	wf, err := h.engine.StartWorkflow(c.Context(), c.Params("id"), req.UserID)
	if err != nil {
		return h.fail(c, "start_workflow", err)
	}
	return c.JSON(wf)
}

func (h *Handler) cancelWorkflow(c fiber.Ctx) error {
	var req actorRequest
	if err := bindOptional(c, &req); err != nil {
		return badRequest(c, "invalid request body")
	}

	wf, err := h.engine.CancelWorkflow(c.Context(), c.Params("id"), req.UserID, req.Reason)
	if err != nil {
		return h.fail(c, "cancel_workflow", err)
	}
	return c.JSON(wf)
}

func (h *Handler) holdWorkflow(c fiber.Ctx) error {
	wf, err := h.engine.PutOnHold(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "put_on_hold", err)
	}
	return c.JSON(wf)
}

func (h *Handler) resumeWorkflow(c fiber.Ctx) error {
	wf, err := h.engine.ResumeWorkflow(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "resume_workflow", err)
	}
	return c.JSON(wf)
}

func (h *Handler) remindWorkflow(c fiber.Ctx) error {
	wf, err := h.engine.RecordReminder(c.Context(), c.Params("id"))
	if err != nil {
		return h.fail(c, "record_reminder", err)
	}
	return c.JSON(wf)
}

func (h *Handler) escalateWorkflow(c fiber.Ctx) error {
	var req escalateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Level < 1 {
		return badRequest(c, "level must be at least 1")
	}

	wf, err := h.engine.Escalate(c.Context(), c.Params("id"), req.Level)
	if err != nil {
		return h.fail(c, "escalate", err)
	}
	return c.JSON(wf)
}

func listResponse(workflows []*approvalflow.Workflow) fiber.Map {
	if workflows == nil {
		workflows = []*approvalflow.Workflow{}
	}
	return fiber.Map{
		"workflows": workflows,
		"count":     len(workflows),
	}
}

// bindOptional binds a JSON body when one was sent
func bindOptional(c fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.Bind().JSON(out)
}
