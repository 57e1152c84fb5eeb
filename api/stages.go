package api

import (
	"github.com/gofiber/fiber/v3"
)

func (h *Handler) completeStage(c fiber.Ctx) error {
	var req completeStageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	wf, err := h.engine.CompleteStage(c.Context(), c.Params("id"), req.Action, req.UserID, req.Comments)
	if err != nil {
		return h.fail(c, "complete_stage", err)
	}
	return c.JSON(wf)
}

func (h *Handler) delegateStage(c fiber.Ctx) error {
	var req delegateStageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	wf, err := h.engine.DelegateStage(c.Context(), c.Params("id"), req.ToUserID, req.FromUserID, req.Reason)
	if err != nil {
		return h.fail(c, "delegate_stage", err)
	}
	return c.JSON(wf)
}

func (h *Handler) skipStage(c fiber.Ctx) error {
	var req actorRequest
	if err := bindOptional(c, &req); err != nil {
		return badRequest(c, "invalid request body")
	}

	wf, err := h.engine.SkipStage(c.Context(), c.Params("id"), req.UserID, req.Reason)
	if err != nil {
		return h.fail(c, "skip_stage", err)
	}
	return c.JSON(wf)
}
