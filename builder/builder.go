package builder

import (
	"fmt"

	"github.com/sicko7947/approvalflow"
)

// StagesBuilder provides a fluent API for building the ordered stage list of a workflow
type StagesBuilder struct {
	defs      []approvalflow.StageDefinition
	maxStages int
}

// NewStages creates a new stage list builder
func NewStages() *StagesBuilder {
	return &StagesBuilder{
		defs:      []approvalflow.StageDefinition{},
		maxStages: approvalflow.MaxStages,
	}
}

// WithMaxStages overrides the stage limit enforced by Build
func (b *StagesBuilder) WithMaxStages(max int) *StagesBuilder {
	b.maxStages = max
	return b
}

// Review appends a REVIEW stage
func (b *StagesBuilder) Review(name string, opts ...StageOption) *StagesBuilder {
	return b.add(name, approvalflow.StageTypeReview, opts)
}

// Approve appends an APPROVAL stage
func (b *StagesBuilder) Approve(name string, opts ...StageOption) *StagesBuilder {
	return b.add(name, approvalflow.StageTypeApproval, opts)
}

// SignOff appends a SIGN_OFF stage
func (b *StagesBuilder) SignOff(name string, opts ...StageOption) *StagesBuilder {
	return b.add(name, approvalflow.StageTypeSignOff, opts)
}

// Acknowledge appends an ACKNOWLEDGEMENT stage
func (b *StagesBuilder) Acknowledge(name string, opts ...StageOption) *StagesBuilder {
	return b.add(name, approvalflow.StageTypeAcknowledgement, opts)
}

// Stage appends a fully specified definition
func (b *StagesBuilder) Stage(def approvalflow.StageDefinition) *StagesBuilder {
	def.AssigneeIDs = append([]string(nil), def.AssigneeIDs...)
	b.defs = append(b.defs, def)
	return b
}

func (b *StagesBuilder) add(name string, stageType approvalflow.StageType, opts []StageOption) *StagesBuilder {
	def := approvalflow.StageDefinition{
		Name:         name,
		StageType:    stageType,
		AssigneeType: approvalflow.AssigneeTypeUser,
	}
	ApplyOptions(&def, opts...)
	b.defs = append(b.defs, def)
	return b
}

// Len returns the number of stages added so far
func (b *StagesBuilder) Len() int {
	return len(b.defs)
}

// Build finalizes and validates the stage list
func (b *StagesBuilder) Build() ([]approvalflow.StageDefinition, error) {
	if err := ValidateDefinitions(b.defs, b.maxStages); err != nil {
		return nil, err
	}

	out := make([]approvalflow.StageDefinition, len(b.defs))
	copy(out, b.defs)
	return out, nil
}

// MustBuild finalizes and validates the stage list, panics on error
func (b *StagesBuilder) MustBuild() []approvalflow.StageDefinition {
	defs, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build stages: %v", err))
	}
	return defs
}
