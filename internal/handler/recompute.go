package handler

import (
	"workforce-service/internal/model"
	"workforce-service/internal/progress"

	"gorm.io/gorm"
)

// recomputeTask refreshes a task's cached progress from its subtasks (or
// its own status and hours) and then rolls the change up to the owning
// project. It must run inside the same transaction as the mutation that
// triggered it.
func recomputeTask(tx *gorm.DB, taskID uint) error {
	var task model.Task
	if err := tx.First(&task, taskID).Error; err != nil {
		return err
	}

	var subtasks []model.Subtask
	if err := tx.Where("task_id = ?", taskID).Find(&subtasks).Error; err != nil {
		return err
	}

	p := progress.TaskProgress(&task, subtasks)
	if p != task.Progress {
		if err := tx.Model(&model.Task{}).Where("id = ?", taskID).Update("progress", p).Error; err != nil {
			return err
		}
	}

	return recomputeProject(tx, task.ProjectID)
}

// recomputeProject refreshes a project's cached progress and total hours
// from its tasks.
func recomputeProject(tx *gorm.DB, projectID uint) error {
	var tasks []model.Task
	if err := tx.Where("project_id = ?", projectID).Find(&tasks).Error; err != nil {
		return err
	}

	return tx.Model(&model.Project{}).Where("id = ?", projectID).Updates(map[string]interface{}{
		"progress":    progress.ProjectProgress(tasks),
		"total_hours": progress.TotalHours(tasks),
	}).Error
}
