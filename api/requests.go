package api

import (
	"time"

	"github.com/sicko7947/approvalflow"
)

type createWorkflowRequest struct {
	DocumentID        string                         `json:"documentId"`
	Type              string                         `json:"type"`
	Title             string                         `json:"title,omitempty"`
	DueDate           *time.Time                     `json:"dueDate,omitempty"`
	Priority          approvalflow.Priority          `json:"priority,omitempty"`
	AllowDelegation   bool                           `json:"allowDelegation"`
	AllowReassignment bool                           `json:"allowReassignment"`
	RequireComments   bool                           `json:"requireComments"`
	CreatedBy         string                         `json:"createdBy,omitempty"`
	Stages            []approvalflow.StageDefinition `json:"stages"`
}

// options converts the request flags to creation options
func (r createWorkflowRequest) options() []approvalflow.CreateOption {
	opts := []approvalflow.CreateOption{
		approvalflow.WithAllowDelegation(r.AllowDelegation),
		approvalflow.WithAllowReassignment(r.AllowReassignment),
		approvalflow.WithRequireComments(r.RequireComments),
	}
	if r.Title != "" {
		opts = append(opts, approvalflow.WithTitle(r.Title))
	}
	if r.DueDate != nil {
		opts = append(opts, approvalflow.WithDueDate(*r.DueDate))
	}
	if r.Priority != "" {
		opts = append(opts, approvalflow.WithPriority(r.Priority))
	}
	if r.CreatedBy != "" {
		opts = append(opts, approvalflow.WithCreatedBy(r.CreatedBy))
	}
	return opts
}

type actorRequest struct {
	UserID string `json:"userId"`
	Reason string `json:"reason,omitempty"`
}

type completeStageRequest struct {
	Action   approvalflow.StageAction `json:"action"`
	UserID   string                   `json:"userId"`
	Comments string                   `json:"comments,omitempty"`
}

type delegateStageRequest struct {
	ToUserID   string `json:"toUserId"`
	FromUserID string `json:"fromUserId"`
	Reason     string `json:"reason,omitempty"`
}

type escalateRequest struct {
	Level int `json:"level"`
}
