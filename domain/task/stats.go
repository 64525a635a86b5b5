package task

import (
	"time"
)

// Statistics holds derived counts over a task collection. It is computed on
// demand and never persisted.
type Statistics struct {
	TotalTasks        int     `json:"total_tasks"`
	CompletedTasks    int     `json:"completed_tasks"`
	InProgressTasks   int     `json:"in_progress_tasks"`
	PendingTasks      int     `json:"pending_tasks"`
	CancelledTasks    int     `json:"cancelled_tasks"`
	OverdueTasks      int     `json:"overdue_tasks"`
	HighPriorityTasks int     `json:"high_priority_tasks"`
	CompletedRate     float64 `json:"completed_rate"`
}

// CalculateStatistics aggregates a list of tasks. A task counts as overdue
// when its due date is in the past and it is not completed; high priority
// covers both High and Critical. The completion rate is a percentage and is
// zero for an empty list.
func CalculateStatistics(tasks []Task) Statistics {
	now := time.Now().UTC()
	stats := Statistics{TotalTasks: len(tasks)}

	for i := range tasks {
		t := &tasks[i]
		switch t.Status {
		case StatusCompleted:
			stats.CompletedTasks++
		case StatusInProgress:
			stats.InProgressTasks++
		case StatusPending:
			stats.PendingTasks++
		case StatusCancelled:
			stats.CancelledTasks++
		}
		if t.Overdue(now) {
			stats.OverdueTasks++
		}
		if t.Priority == PriorityHigh || t.Priority == PriorityCritical {
			stats.HighPriorityTasks++
		}
	}

	if stats.TotalTasks > 0 {
		stats.CompletedRate = float64(stats.CompletedTasks) / float64(stats.TotalTasks) * 100
	}
	return stats
}
