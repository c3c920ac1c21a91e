package handler

import (
	"net/http"
	"strconv"
	"time"

	"workforce-service/internal/model"
	"workforce-service/pkg/database"
	"workforce-service/pkg/logger"
	"workforce-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TaskRequest defines the structure for task and subtask creation requests.
type TaskRequest struct {
	Name           string     `json:"name" validate:"required,min=2,max=150"`
	Description    string     `json:"description,omitempty"`
	Status         string     `json:"status,omitempty"`
	Priority       string     `json:"priority,omitempty"`
	Progress       int        `json:"progress,omitempty" validate:"omitempty,min=0,max=100"`
	EstimatedHours float64    `json:"estimated_hours,omitempty" validate:"omitempty,gte=0"`
	LoggedHours    float64    `json:"logged_hours,omitempty" validate:"omitempty,gte=0"`
	Weight         float64    `json:"weight,omitempty" validate:"omitempty,gte=0"`
	DueDate        *time.Time `json:"due_date,omitempty"`
}

// TaskUpdateRequest carries partial task/subtask updates; nil means "leave
// unchanged".
type TaskUpdateRequest struct {
	Name           *string    `json:"name,omitempty" validate:"omitempty,min=2,max=150"`
	Description    *string    `json:"description,omitempty"`
	Status         *string    `json:"status,omitempty"`
	Priority       *string    `json:"priority,omitempty"`
	Progress       *int       `json:"progress,omitempty" validate:"omitempty,min=0,max=100"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty" validate:"omitempty,gte=0"`
	LoggedHours    *float64   `json:"logged_hours,omitempty" validate:"omitempty,gte=0"`
	Weight         *float64   `json:"weight,omitempty" validate:"omitempty,gte=0"`
	DueDate        *time.Time `json:"due_date,omitempty"`
}

func validTaskEnums(status, priority string) string {
	if status != "" && !model.ValidTaskStatus(status) {
		return "invalid task status"
	}
	if priority != "" && !model.ValidTaskPriority(priority) {
		return "invalid task priority"
	}
	return ""
}

// CreateTask adds a task to a project and refreshes the derived fields.
func CreateTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("create")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	project, err := findTenantProject(database.GetDB(), projectID, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Status == "" {
		req.Status = model.TaskNotStarted
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	if msg := validTaskEnums(req.Status, req.Priority); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	task := model.Task{
		ProjectID:      project.ID,
		Name:           req.Name,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		Progress:       req.Progress,
		EstimatedHours: req.EstimatedHours,
		LoggedHours:    req.LoggedHours,
		Weight:         req.Weight,
		DueDate:        req.DueDate,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		return recomputeTask(tx, task.ID)
	})
	if err != nil {
		log.Error("Failed to create task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create task"})
	}

	if result := database.GetDB().First(&task, task.ID); result.Error != nil {
		log.Error("Failed to reload task", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create task"})
	}
	log.Info("Task created",
		zap.Uint("id", task.ID),
		zap.Uint("project_id", project.ID))
	return c.JSON(http.StatusCreated, task)
}

// findTenantTask loads a task only if its project belongs to the tenant.
func findTenantTask(db *gorm.DB, id uint64, tenantID uint) (*model.Task, error) {
	var task model.Task
	result := db.
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("tasks.id = ? AND projects.tenant_id = ? AND projects.deleted_at IS NULL", id, tenantID).
		First(&task)
	if result.Error != nil {
		return nil, result.Error
	}
	return &task, nil
}

// GetTask returns one task with its subtasks.
func GetTask(c echo.Context) error {
	prometheus.RecordTaskOperation("get")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	task, err := findTenantTask(database.GetDB(), id, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	if result := database.GetDB().Preload("Subtasks").First(task, task.ID); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateTask applies a partial update and refreshes the derived fields.
func UpdateTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("update")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	task, err := findTenantTask(database.GetDB(), id, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	var req TaskUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	status, priority := "", ""
	if req.Status != nil {
		status = *req.Status
	}
	if req.Priority != nil {
		priority = *req.Priority
	}
	if msg := validTaskEnums(status, priority); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Progress != nil {
		task.Progress = *req.Progress
	}
	if req.EstimatedHours != nil {
		task.EstimatedHours = *req.EstimatedHours
	}
	if req.LoggedHours != nil {
		task.LoggedHours = *req.LoggedHours
	}
	if req.Weight != nil {
		task.Weight = *req.Weight
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(task).Error; err != nil {
			return err
		}
		return recomputeTask(tx, task.ID)
	})
	if err != nil {
		log.Error("Failed to update task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update task"})
	}

	if result := database.GetDB().First(task, task.ID); result.Error != nil {
		log.Error("Failed to reload task", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update task"})
	}
	log.Info("Task updated", zap.Uint("id", task.ID))
	return c.JSON(http.StatusOK, task)
}

// DeleteTask removes a task and its subtasks and refreshes the project.
func DeleteTask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("delete")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	task, err := findTenantTask(database.GetDB(), id, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&model.Subtask{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(task).Error; err != nil {
			return err
		}
		return recomputeProject(tx, task.ProjectID)
	})
	if err != nil {
		log.Error("Failed to delete task", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete task"})
	}

	log.Info("Task deleted", zap.Uint("id", task.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "task deleted"})
}

// CreateSubtask adds a subtask and cascades the recomputation upward.
func CreateSubtask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("subtask_create")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task ID"})
	}

	task, err := findTenantTask(database.GetDB(), taskID, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Status == "" {
		req.Status = model.TaskNotStarted
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	if msg := validTaskEnums(req.Status, req.Priority); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	subtask := model.Subtask{
		TaskID:         task.ID,
		Name:           req.Name,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		Progress:       req.Progress,
		EstimatedHours: req.EstimatedHours,
		LoggedHours:    req.LoggedHours,
		DueDate:        req.DueDate,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&subtask).Error; err != nil {
			return err
		}
		return recomputeTask(tx, task.ID)
	})
	if err != nil {
		log.Error("Failed to create subtask", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create subtask"})
	}

	log.Info("Subtask created",
		zap.Uint("id", subtask.ID),
		zap.Uint("task_id", task.ID))
	return c.JSON(http.StatusCreated, subtask)
}

// findTenantSubtask loads a subtask only if its task's project belongs to
// the tenant.
func findTenantSubtask(db *gorm.DB, id uint64, tenantID uint) (*model.Subtask, error) {
	var subtask model.Subtask
	result := db.
		Joins("JOIN tasks ON tasks.id = subtasks.task_id").
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("subtasks.id = ? AND projects.tenant_id = ? AND tasks.deleted_at IS NULL AND projects.deleted_at IS NULL", id, tenantID).
		First(&subtask)
	if result.Error != nil {
		return nil, result.Error
	}
	return &subtask, nil
}

// UpdateSubtask applies a partial update and cascades the recomputation.
func UpdateSubtask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("subtask_update")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subtask ID"})
	}

	subtask, err := findTenantSubtask(database.GetDB(), id, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "subtask not found"})
	}

	var req TaskUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	status, priority := "", ""
	if req.Status != nil {
		status = *req.Status
	}
	if req.Priority != nil {
		priority = *req.Priority
	}
	if msg := validTaskEnums(status, priority); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	if req.Name != nil {
		subtask.Name = *req.Name
	}
	if req.Description != nil {
		subtask.Description = *req.Description
	}
	if req.Status != nil {
		subtask.Status = *req.Status
	}
	if req.Priority != nil {
		subtask.Priority = *req.Priority
	}
	if req.Progress != nil {
		subtask.Progress = *req.Progress
	}
	if req.EstimatedHours != nil {
		subtask.EstimatedHours = *req.EstimatedHours
	}
	if req.LoggedHours != nil {
		subtask.LoggedHours = *req.LoggedHours
	}
	if req.DueDate != nil {
		subtask.DueDate = req.DueDate
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(subtask).Error; err != nil {
			return err
		}
		return recomputeTask(tx, subtask.TaskID)
	})
	if err != nil {
		log.Error("Failed to update subtask", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update subtask"})
	}

	log.Info("Subtask updated", zap.Uint("id", subtask.ID))
	return c.JSON(http.StatusOK, subtask)
}

// DeleteSubtask removes a subtask and cascades the recomputation.
func DeleteSubtask(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTaskOperation("subtask_delete")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid subtask ID"})
	}

	subtask, err := findTenantSubtask(database.GetDB(), id, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "subtask not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(subtask).Error; err != nil {
			return err
		}
		return recomputeTask(tx, subtask.TaskID)
	})
	if err != nil {
		log.Error("Failed to delete subtask", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete subtask"})
	}

	log.Info("Subtask deleted", zap.Uint("id", subtask.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "subtask deleted"})
}
