package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sicko7947/approvalflow"
)

// arena holds one workflow and its stages, addressed by StageNumber-1
type arena struct {
	workflow *approvalflow.Workflow
	stages   []*approvalflow.Stage
}

type stageRef struct {
	workflowID string
	index      int
}

// MemoryStore implements approvalflow.WorkflowStore using in-memory storage
type MemoryStore struct {
	workflows map[string]*arena
	stages    map[string]stageRef // stageID -> position in its arena
	mu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory workflow store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows: make(map[string]*arena),
		stages:    make(map[string]stageRef),
	}
}

var _ approvalflow.WorkflowStore = (*MemoryStore)(nil)

func (s *MemoryStore) CreateWorkflow(ctx context.Context, wf *approvalflow.Workflow, stages []*approvalflow.Stage) error {
	if err := validateCreate(wf, stages); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workflows[wf.ID]; exists {
		return approvalflow.NewConflictError(fmt.Sprintf("workflow %s already exists", wf.ID)).WithWorkflow(wf.ID)
	}
	for _, st := range stages {
		if _, exists := s.stages[st.ID]; exists {
			return approvalflow.NewConflictError(fmt.Sprintf("stage %s already exists", st.ID)).WithStage(st.ID)
		}
	}

	a := &arena{
		workflow: stripStages(wf),
		stages:   make([]*approvalflow.Stage, len(stages)),
	}
	for _, st := range stages {
		idx := st.StageNumber - 1
		a.stages[idx] = st.Clone()
		s.stages[st.ID] = stageRef{workflowID: wf.ID, index: idx}
	}
	s.workflows[wf.ID] = a

	return nil
}

func (s *MemoryStore) GetWorkflow(ctx context.Context, workflowID string) (*approvalflow.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.workflows[workflowID]
	if !exists {
		return nil, workflowNotFound(workflowID)
	}
	return a.workflow.Clone(), nil
}

func (s *MemoryStore) GetStage(ctx context.Context, stageID string) (*approvalflow.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, exists := s.stages[stageID]
	if !exists {
		return nil, stageNotFound(stageID)
	}
	return s.workflows[ref.workflowID].stages[ref.index].Clone(), nil
}

func (s *MemoryStore) ListStages(ctx context.Context, workflowID string) ([]*approvalflow.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.workflows[workflowID]
	if !exists {
		return nil, workflowNotFound(workflowID)
	}

	stages := make([]*approvalflow.Stage, len(a.stages))
	for i, st := range a.stages {
		stages[i] = st.Clone()
	}
	return stages, nil
}

func (s *MemoryStore) ListWorkflows(ctx context.Context, filter approvalflow.WorkflowFilter) ([]*approvalflow.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var workflows []*approvalflow.Workflow
	for _, a := range s.workflows {
		if filter.Matches(a.workflow) {
			workflows = append(workflows, a.workflow.Clone())
		}
	}

	sortWorkflows(workflows)
	return applyLimit(workflows, filter.Limit), nil
}

func (s *MemoryStore) ApplyTransition(ctx context.Context, tr approvalflow.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check every version before writing anything
	if tr.Workflow != nil {
		a, exists := s.workflows[tr.Workflow.ID]
		if !exists {
			return workflowNotFound(tr.Workflow.ID)
		}
		if a.workflow.Version != tr.Workflow.Version {
			return workflowConflict(tr.Workflow.ID, tr.Workflow.Version, a.workflow.Version)
		}
	}
	for _, st := range tr.Stages {
		ref, exists := s.stages[st.ID]
		if !exists {
			return stageNotFound(st.ID)
		}
		if ref.workflowID != st.WorkflowID {
			return approvalflow.NewValidationError("stage cannot move between workflows").WithStage(st.ID)
		}
		stored := s.workflows[ref.workflowID].stages[ref.index]
		if stored.StageNumber != st.StageNumber {
			return approvalflow.NewValidationError("stage number is immutable").WithStage(st.ID)
		}
		if stored.Version != st.Version {
			return stageConflict(st.ID, st.Version, stored.Version)
		}
	}

	if tr.Workflow != nil {
		tr.Workflow.Version++
		s.workflows[tr.Workflow.ID].workflow = stripStages(tr.Workflow)
	}
	for _, st := range tr.Stages {
		st.Version++
		ref := s.stages[st.ID]
		s.workflows[ref.workflowID].stages[ref.index] = st.Clone()
	}

	return nil
}

// Len returns the number of stored workflows
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workflows)
}

// helpers shared by the store implementations

func validateCreate(wf *approvalflow.Workflow, stages []*approvalflow.Stage) error {
	if wf == nil || wf.ID == "" {
		return approvalflow.NewValidationError("workflow id is required")
	}
	if len(stages) != wf.TotalStages {
		return approvalflow.NewValidationError(
			fmt.Sprintf("workflow declares %d stages but %d were given", wf.TotalStages, len(stages)),
		).WithWorkflow(wf.ID)
	}
	seen := make(map[int]bool, len(stages))
	for _, st := range stages {
		if st.WorkflowID != wf.ID {
			return approvalflow.NewValidationError("stage belongs to another workflow").WithStage(st.ID)
		}
		if st.StageNumber < 1 || st.StageNumber > len(stages) || seen[st.StageNumber] {
			return approvalflow.NewValidationError(
				fmt.Sprintf("stage numbers must be contiguous 1..%d", len(stages)),
			).WithStage(st.ID)
		}
		seen[st.StageNumber] = true
	}
	return nil
}

func stripStages(wf *approvalflow.Workflow) *approvalflow.Workflow {
	c := wf.Clone()
	c.Stages = nil
	return c
}

func sortWorkflows(workflows []*approvalflow.Workflow) {
	sort.SliceStable(workflows, func(i, j int) bool {
		if workflows[i].CreatedAt.Equal(workflows[j].CreatedAt) {
			return workflows[i].ID < workflows[j].ID
		}
		return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
	})
}

func sortStages(stages []*approvalflow.Stage) {
	sort.Slice(stages, func(i, j int) bool {
		return stages[i].StageNumber < stages[j].StageNumber
	})
}

func applyLimit(workflows []*approvalflow.Workflow, limit int) []*approvalflow.Workflow {
	if limit > 0 && len(workflows) > limit {
		return workflows[:limit]
	}
	return workflows
}

func workflowNotFound(workflowID string) error {
	return approvalflow.NewNotFoundError(fmt.Sprintf("workflow %s not found", workflowID)).WithWorkflow(workflowID)
}

func stageNotFound(stageID string) error {
	return approvalflow.NewNotFoundError(fmt.Sprintf("stage %s not found", stageID)).WithStage(stageID)
}

func workflowConflict(workflowID string, expected, actual int64) error {
	return approvalflow.NewConflictError(
		fmt.Sprintf("workflow %s version conflict (expected %d, got %d)", workflowID, expected, actual),
	).WithWorkflow(workflowID)
}

func stageConflict(stageID string, expected, actual int64) error {
	return approvalflow.NewConflictError(
		fmt.Sprintf("stage %s version conflict (expected %d, got %d)", stageID, expected, actual),
	).WithStage(stageID)
}
