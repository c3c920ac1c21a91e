package handler

import (
	"net/http"
	"strconv"
	"time"

	"workforce-service/internal/authz"
	"workforce-service/internal/middleware"
	"workforce-service/internal/model"
	"workforce-service/pkg/database"
	"workforce-service/pkg/logger"
	"workforce-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GetTenant retrieves tenant details
func GetTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("access")

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		log.Error("Failed to get caller from context")
		prometheus.RecordAuthError("unauthorized_tenant_access")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Error("Invalid tenant ID", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	if !authz.CanAdminister(caller, uint(id)) {
		log.Warn("Unauthorized tenant access attempt",
			zap.Uint("requesting_user_id", caller.UserID),
			zap.Uint64("tenant_id", id))
		prometheus.RecordAuthError("tenant_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, id); result.Error != nil {
		log.Error("Tenant not found", zap.Uint64("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	return c.JSON(http.StatusOK, tenant)
}

// ListTenants returns all tenants; platform administrators only.
func ListTenants(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("list")

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if caller.Role != model.RoleSuperAdmin {
		prometheus.RecordAuthError("tenant_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var tenants []model.Tenant
	if result := database.GetDB().Order("created_at DESC").Find(&tenants); result.Error != nil {
		log.Error("Failed to list tenants", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tenants"})
	}

	return c.JSON(http.StatusOK, tenants)
}

// UpdateTenantRequest carries the mutable tenant fields; nil means "leave
// unchanged".
type UpdateTenantRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	Settings     *string `json:"settings,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}

// UpdateTenant updates tenant metadata and the active flag.
func UpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("update")

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	if !authz.CanAdminister(caller, uint(id)) {
		log.Warn("Unauthorized tenant update attempt",
			zap.Uint("requesting_user_id", caller.UserID),
			zap.Uint64("tenant_id", id))
		prometheus.RecordAuthError("tenant_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.ContactEmail != nil {
		updates["contact_email"] = *req.ContactEmail
	}
	if req.Settings != nil {
		updates["settings"] = *req.Settings
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if result := database.GetDB().Model(&tenant).Updates(updates); result.Error != nil {
			log.Error("Failed to update tenant", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update tenant"})
		}
	}

	log.Info("Tenant updated", zap.Uint("id", tenant.ID))
	return c.JSON(http.StatusOK, tenant)
}

// DeleteTenant removes a tenant; dependents go with it via the configured
// cascade rules.
func DeleteTenant(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("delete")

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	if !authz.CanAdminister(caller, uint(id)) {
		prometheus.RecordAuthError("tenant_access_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	if result := database.GetDB().Delete(&tenant); result.Error != nil {
		log.Error("Failed to delete tenant", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete tenant"})
	}

	log.Info("Tenant deleted", zap.Uint("id", tenant.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "tenant deleted"})
}
