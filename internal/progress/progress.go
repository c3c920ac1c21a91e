// Package progress derives the cached progress and hour fields of the
// project/task/subtask hierarchy. All functions are pure; callers persist
// the results inside the same transaction as the mutation that triggered
// the recomputation.
package progress

import (
	"math"

	"workforce-service/internal/model"
)

// Progress values are integer percentages in [0,100] everywhere. The
// weighted project roll-up uses the same unit as the unweighted one.

// statusProgress applies the status-driven rule shared by tasks and
// subtasks: not-started and blocked pin progress to 0, completed pins it to
// 100, and in-progress derives it from the hours ratio capped at 99 when
// both hour fields are positive, otherwise the manually-set value stands.
func statusProgress(status string, estimated, logged float64, manual int) int {
	switch status {
	case model.TaskNotStarted, model.TaskBlocked:
		return 0
	case model.TaskCompleted:
		return 100
	case model.TaskInProgress:
		if logged > 0 && estimated > 0 {
			pct := int(math.Round(logged / estimated * 100))
			if pct > 99 {
				pct = 99
			}
			return pct
		}
		return manual
	default:
		return manual
	}
}

// SubtaskProgress derives a subtask's progress from its status and hours.
func SubtaskProgress(s *model.Subtask) int {
	return statusProgress(s.Status, s.EstimatedHours, s.LoggedHours, s.Progress)
}

// TaskProgress derives a task's progress. With no subtasks the task follows
// the status rule on its own fields. Once any subtask exists the task's own
// status, hours and manual progress are ignored and progress is the
// unweighted mean over the subtasks.
func TaskProgress(t *model.Task, subtasks []model.Subtask) int {
	if len(subtasks) == 0 {
		return statusProgress(t.Status, t.EstimatedHours, t.LoggedHours, t.Progress)
	}

	var sum float64
	for i := range subtasks {
		sum += float64(SubtaskProgress(&subtasks[i]))
	}
	return int(math.Round(sum / float64(len(subtasks))))
}

// ProjectProgress rolls task progress up to the project. With no tasks the
// project sits at 0. If no task carries a positive weight the roll-up is the
// unweighted mean; otherwise it is the weight-weighted mean, with task
// progress kept in 0-100 units in both branches.
func ProjectProgress(tasks []model.Task) int {
	if len(tasks) == 0 {
		return 0
	}

	var weightSum float64
	for i := range tasks {
		if tasks[i].Weight > 0 {
			weightSum += tasks[i].Weight
		}
	}

	if weightSum == 0 {
		var sum float64
		for i := range tasks {
			sum += float64(tasks[i].Progress)
		}
		return int(math.Round(sum / float64(len(tasks))))
	}

	var weighted float64
	for i := range tasks {
		if tasks[i].Weight > 0 {
			weighted += tasks[i].Weight * float64(tasks[i].Progress)
		}
	}
	return int(math.Round(weighted / weightSum))
}

// TotalHours sums the estimated hours of the project's tasks, rounded to 2
// decimal places.
func TotalHours(tasks []model.Task) float64 {
	var sum float64
	for i := range tasks {
		sum += tasks[i].EstimatedHours
	}
	return math.Round(sum*100) / 100
}
