package approvalflow

import "time"

// DefaultDaysPerStage is the per-stage budget used when no due date is supplied
const DefaultDaysPerStage = 5

const day = 24 * time.Hour

// DefaultDueDate returns now + daysPerStage days for every stage.
// A non-positive daysPerStage falls back to DefaultDaysPerStage.
func DefaultDueDate(now time.Time, stageCount, daysPerStage int) time.Time {
	if daysPerStage <= 0 {
		daysPerStage = DefaultDaysPerStage
	}
	return now.Add(time.Duration(daysPerStage*stageCount) * day)
}

// WholeDaysUntil returns the number of whole days between now and due.
// Past due dates yield 0.
func WholeDaysUntil(now, due time.Time) int {
	if !due.After(now) {
		return 0
	}
	return int(due.Sub(now) / day)
}

// DaysPerStage splits the whole days until due evenly across totalStages
// using integer division.
func DaysPerStage(now, due time.Time, totalStages int) int {
	if totalStages <= 0 {
		return 0
	}
	return WholeDaysUntil(now, due) / totalStages
}

// StageDueDate returns the due date of the 0-based stageIndex when the
// workflow due date is spread evenly over totalStages. With 16 days and 3
// stages every stage gets 5 days and the last stage is due on day 15.
func StageDueDate(now, workflowDue time.Time, stageIndex, totalStages int) time.Time {
	perStage := DaysPerStage(now, workflowDue, totalStages)
	return now.Add(time.Duration(perStage*(stageIndex+1)) * day)
}

// ScheduleStages returns one due date per definition. Stages with an explicit
// DueDays budget use it; the rest use the even split. Dates are cumulative,
// so with no explicit budgets this equals StageDueDate for every index.
func ScheduleStages(now, workflowDue time.Time, defs []StageDefinition) ([]time.Time, []int) {
	perStage := DaysPerStage(now, workflowDue, len(defs))
	dates := make([]time.Time, len(defs))
	budgets := make([]int, len(defs))

	elapsed := 0
	for i, def := range defs {
		budget := def.DueDays
		if budget <= 0 {
			budget = perStage
		}
		elapsed += budget
		budgets[i] = budget
		dates[i] = now.Add(time.Duration(elapsed) * day)
	}
	return dates, budgets
}
