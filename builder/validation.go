package builder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sicko7947/approvalflow"
)

// ValidateDefinitions checks a stage list before a workflow is created from it.
// maxStages <= 0 means approvalflow.MaxStages.
func ValidateDefinitions(defs []approvalflow.StageDefinition, maxStages int) error {
	if maxStages <= 0 || maxStages > approvalflow.MaxStages {
		maxStages = approvalflow.MaxStages
	}

	if len(defs) == 0 {
		return approvalflow.NewValidationError("at least one stage is required")
	}
	if len(defs) > maxStages {
		return approvalflow.NewValidationError(
			fmt.Sprintf("%d stages exceed the limit of %d", len(defs), maxStages),
		)
	}

	for i, def := range defs {
		if err := ValidateDefinition(def); err != nil {
			return approvalflow.NewValidationError(fmt.Sprintf("stage %d: %s", i+1, messageOf(err))).
				WithDetails(map[string]interface{}{"stage_number": i + 1})
		}
	}
	return nil
}

// ValidateDefinition checks a single stage definition
func ValidateDefinition(def approvalflow.StageDefinition) error {
	if strings.TrimSpace(def.Name) == "" {
		return approvalflow.NewValidationError("name is required")
	}

	switch def.StageType {
	case "", approvalflow.StageTypeReview, approvalflow.StageTypeApproval,
		approvalflow.StageTypeSignOff, approvalflow.StageTypeAcknowledgement:
	default:
		return approvalflow.NewValidationError(fmt.Sprintf("unknown stage type %q", def.StageType))
	}

	if def.DueDays < 0 {
		return approvalflow.NewValidationError("due days cannot be negative")
	}

	switch def.AssigneeType {
	case "", approvalflow.AssigneeTypeUser:
		if len(def.AssigneeIDs) == 0 {
			return approvalflow.NewValidationError("at least one assignee is required")
		}
		for _, id := range def.AssigneeIDs {
			if strings.TrimSpace(id) == "" {
				return approvalflow.NewValidationError("assignee ids cannot be blank")
			}
		}
	case approvalflow.AssigneeTypeRole:
		if strings.TrimSpace(def.AssigneeRole) == "" {
			return approvalflow.NewValidationError("role stages need an assignee role")
		}
	default:
		return approvalflow.NewValidationError(fmt.Sprintf("unknown assignee type %q", def.AssigneeType))
	}

	return nil
}

func messageOf(err error) string {
	var e *approvalflow.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
