package approvalflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var scheduleNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func days(n int) time.Time {
	return scheduleNow.AddDate(0, 0, n)
}

func TestDefaultDueDate(t *testing.T) {
	assert.Equal(t, days(15), DefaultDueDate(scheduleNow, 3, 5))
	assert.Equal(t, days(6), DefaultDueDate(scheduleNow, 2, 3))
	assert.Equal(t, days(5), DefaultDueDate(scheduleNow, 1, 0), "non-positive falls back to 5 days")
}

func TestWholeDaysUntil(t *testing.T) {
	assert.Equal(t, 15, WholeDaysUntil(scheduleNow, days(15)))
	assert.Equal(t, 7, WholeDaysUntil(scheduleNow, days(7).Add(23*time.Hour)))
	assert.Equal(t, 0, WholeDaysUntil(scheduleNow, scheduleNow))
	assert.Equal(t, 0, WholeDaysUntil(scheduleNow, days(-3)))
}

func TestStageDueDate(t *testing.T) {
	tests := []struct {
		name   string
		due    time.Time
		total  int
		wantBy []time.Time
	}{
		{"even split", days(15), 3, []time.Time{days(5), days(10), days(15)}},
		{"remainder is dropped", days(16), 3, []time.Time{days(5), days(10), days(15)}},
		{"single stage rounds down", days(7).Add(12 * time.Hour), 1, []time.Time{days(7)}},
		{"fewer days than stages", days(2), 3, []time.Time{scheduleNow, scheduleNow, scheduleNow}},
		{"past due", days(-1), 2, []time.Time{scheduleNow, scheduleNow}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, want := range tt.wantBy {
				assert.Equal(t, want, StageDueDate(scheduleNow, tt.due, i, tt.total), "stage %d", i+1)
			}
		})
	}
}

func TestDaysPerStage_NoStages(t *testing.T) {
	assert.Equal(t, 0, DaysPerStage(scheduleNow, days(10), 0))
}

func TestScheduleStages(t *testing.T) {
	t.Run("matches the even split", func(t *testing.T) {
		defs := make([]StageDefinition, 3)
		dates, budgets := ScheduleStages(scheduleNow, days(16), defs)

		assert.Equal(t, []int{5, 5, 5}, budgets)
		for i := range defs {
			assert.Equal(t, StageDueDate(scheduleNow, days(16), i, 3), dates[i])
		}
	})

	t.Run("explicit budgets are cumulative", func(t *testing.T) {
		defs := []StageDefinition{{DueDays: 2}, {}, {DueDays: 1}}
		dates, budgets := ScheduleStages(scheduleNow, days(12), defs)

		assert.Equal(t, []int{2, 4, 1}, budgets)
		assert.Equal(t, []time.Time{days(2), days(6), days(7)}, dates)
	})
}
