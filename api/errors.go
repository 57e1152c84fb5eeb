package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/sicko7947/approvalflow"
)

// errorResponse is the JSON body of every failed request
type errorResponse struct {
	Code       string                 `json:"code"`
	Error      string                 `json:"error"`
	WorkflowID string                 `json:"workflowId,omitempty"`
	StageID    string                 `json:"stageId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// StatusOf maps an engine error code to an HTTP status
func StatusOf(err error) int {
	switch approvalflow.CodeOf(err) {
	case approvalflow.ErrCodeNotFound:
		return fiber.StatusNotFound
	case approvalflow.ErrCodeConflict, approvalflow.ErrCodeInvalidState:
		return fiber.StatusConflict
	case approvalflow.ErrCodeForbidden:
		return fiber.StatusForbidden
	case approvalflow.ErrCodeValidation:
		return fiber.StatusBadRequest
	case approvalflow.ErrCodeCollaboratorUnavailable:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// fail writes err as an errorResponse. Uncoded errors are not echoed to the client.
func (h *Handler) fail(c fiber.Ctx, operation string, err error) error {
	status := StatusOf(err)

	var e *approvalflow.Error
	if !errors.As(err, &e) {
		h.logger.Error().Err(err).Str("operation", operation).Msg("Unhandled error")
		return c.Status(status).JSON(errorResponse{
			Code:  approvalflow.ErrCodeInternal,
			Error: "internal error",
		})
	}

	event := h.logger.Warn()
	if status >= fiber.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).
		Str("operation", operation).
		Str("code", e.Code).
		Int("status", status).
		Msg("Request failed")

	return c.Status(status).JSON(errorResponse{
		Code:       e.Code,
		Error:      e.Message,
		WorkflowID: e.WorkflowID,
		StageID:    e.StageID,
		Details:    e.Details,
	})
}

func badRequest(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
		Code:  approvalflow.ErrCodeValidation,
		Error: message,
	})
}
