package handler

import (
	"fmt"
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

// ProjectRequest defines the structure for project creation/update
// requests. AssignedContractors, when present, replaces the full
// assignment set.
type ProjectRequest struct {
	Name                string     `json:"name" validate:"required,min=2,max=150"`
	Description         string     `json:"description,omitempty"`
	Status              string     `json:"status,omitempty"`
	Priority            string     `json:"priority,omitempty"`
	DueDate             *time.Time `json:"due_date,omitempty"`
	Budget              float64    `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Spent               float64    `json:"spent,omitempty" validate:"omitempty,gte=0"`
	ManagerID           uint       `json:"manager_id,omitempty"`
	AssignedContractors *[]uint    `json:"assigned_contractors,omitempty"`
}

// resolveContractors loads every referenced contractor within the tenant.
// One unresolvable ID fails the whole lot; partial assignment is not
// permitted.
func resolveContractors(tx *gorm.DB, tenantID uint, ids []uint) ([]model.Contractor, error) {
	contractors := make([]model.Contractor, 0, len(ids))
	for _, id := range ids {
		var contractor model.Contractor
		if err := tx.Where("id = ? AND tenant_id = ?", id, tenantID).First(&contractor).Error; err != nil {
			return nil, fmt.Errorf("contractor %d not found", id)
		}
		contractors = append(contractors, contractor)
	}
	return contractors, nil
}

// CreateProject creates a project for the current tenant
func CreateProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("create")

	userID, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	var req ProjectRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Status == "" {
		req.Status = model.ProjectActive
	}
	if !model.ValidProjectStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project status"})
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	if !model.ValidProjectPriority(req.Priority) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project priority"})
	}

	managerID := req.ManagerID
	if managerID == 0 {
		managerID = userID
	}

	project := model.Project{
		TenantID:    tenantID,
		ManagerID:   managerID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Budget:      req.Budget,
		Spent:       req.Spent,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	var badRequest string
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var contractors []model.Contractor
		if req.AssignedContractors != nil {
			var err error
			contractors, err = resolveContractors(tx, tenantID, *req.AssignedContractors)
			if err != nil {
				badRequest = err.Error()
				return err
			}
		}

		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		if len(contractors) > 0 {
			if err := tx.Model(&project).Association("Contractors").Replace(contractors); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if badRequest != "" {
			log.Warn("Project create rejected", zap.String("reason", badRequest))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": badRequest})
		}
		log.Error("Failed to create project", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create project"})
	}

	log.Info("Project created",
		zap.Uint("id", project.ID),
		zap.String("name", project.Name),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, project)
}

// ListProjects returns the tenant's projects with freshly derived progress
// and hour totals.
func ListProjects(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("list")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var projects []model.Project
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&projects).Error; err != nil {
			return err
		}
		// Derived fields are refreshed on every list read.
		for i := range projects {
			if err := recomputeProject(tx, projects[i].ID); err != nil {
				return err
			}
			if err := tx.First(&projects[i], projects[i].ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to list projects", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve projects"})
	}

	return c.JSON(http.StatusOK, projects)
}

func findTenantProject(db *gorm.DB, id uint64, tenantID uint) (*model.Project, error) {
	var project model.Project
	result := db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&project)
	if result.Error != nil {
		return nil, result.Error
	}
	return &project, nil
}

// GetProject returns one project with tasks, contractors and freshly
// derived fields.
func GetProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("get")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	project, err := findTenantProject(database.GetDB(), id, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	if err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		return recomputeProject(tx, project.ID)
	}); err != nil {
		log.Error("Failed to refresh project", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve project"})
	}

	var full model.Project
	result := database.GetDB().
		Preload("Tasks").
		Preload("Tasks.Subtasks").
		Preload("Contractors").
		First(&full, project.ID)
	if result.Error != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve project"})
	}

	return c.JSON(http.StatusOK, full)
}

// UpdateProject updates project fields; a supplied assignment set replaces
// the previous one entirely.
func UpdateProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("update")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	project, err := findTenantProject(database.GetDB(), id, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	var req ProjectRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Status != "" && !model.ValidProjectStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project status"})
	}
	if req.Priority != "" && !model.ValidProjectPriority(req.Priority) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project priority"})
	}

	project.Name = req.Name
	project.Description = req.Description
	if req.Status != "" {
		project.Status = req.Status
	}
	if req.Priority != "" {
		project.Priority = req.Priority
	}
	if req.DueDate != nil {
		project.DueDate = req.DueDate
	}
	project.Budget = req.Budget
	project.Spent = req.Spent
	if req.ManagerID != 0 {
		project.ManagerID = req.ManagerID
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var badRequest string
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if req.AssignedContractors != nil {
			contractors, err := resolveContractors(tx, tenantID, *req.AssignedContractors)
			if err != nil {
				badRequest = err.Error()
				return err
			}
			if err := tx.Model(project).Association("Contractors").Replace(contractors); err != nil {
				return err
			}
		}
		return tx.Save(project).Error
	})
	if err != nil {
		if badRequest != "" {
			log.Warn("Project update rejected", zap.String("reason", badRequest))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": badRequest})
		}
		log.Error("Failed to update project", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update project"})
	}

	log.Info("Project updated", zap.Uint("id", project.ID))
	return c.JSON(http.StatusOK, project)
}

// DeleteProject removes a project. The task tree is detached and removed
// first so nothing dangles if the store's cascade rules are not in force.
func DeleteProject(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProjectOperation("delete")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project ID"})
	}

	project, err := findTenantProject(database.GetDB(), id, tenantID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint
		if err := tx.Model(&model.Task{}).Where("project_id = ?", project.ID).Pluck("id", &taskIDs).Error; err != nil {
			return err
		}
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&model.Subtask{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", project.ID).Delete(&model.Task{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(project).Association("Contractors").Clear(); err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
	if err != nil {
		log.Error("Failed to delete project", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete project"})
	}

	log.Info("Project deleted", zap.Uint("id", project.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "project deleted"})
}
