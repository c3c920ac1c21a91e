package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"workforce-service/internal/middleware"
	"workforce-service/internal/model"
	"workforce-service/pkg/database"
	"workforce-service/pkg/logger"
	"workforce-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ContractorRequest defines the structure for contractor creation/update requests
type ContractorRequest struct {
	Name       string   `json:"name" validate:"required,min=2,max=100"`
	Email      string   `json:"email" validate:"required,email"`
	Role       string   `json:"role" validate:"required"`
	HourlyRate float64  `json:"hourly_rate" validate:"required,gt=0"`
	Status     string   `json:"status,omitempty"`
	Skills     []string `json:"skills,omitempty"`
}

// callerTenant extracts the tenant context every roster operation is scoped
// to. Unaffiliated users cannot touch the roster.
func callerTenant(c echo.Context) (uint, uint, bool) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok || caller.TenantID == nil {
		return 0, 0, false
	}
	return caller.UserID, *caller.TenantID, true
}

// CreateContractor adds a worker to the current tenant's roster
func CreateContractor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractorOperation("create")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	var req ContractorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !model.ValidContractorRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contractor role"})
	}
	if req.Status == "" {
		req.Status = model.ContractorActive
	}
	if !model.ValidContractorStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contractor status"})
	}

	// Unique email across the roster
	var count int64
	database.GetDB().Model(&model.Contractor{}).Where("email = ?", req.Email).Count(&count)
	if count > 0 {
		log.Warn("Contractor email already registered", zap.String("email", req.Email))
		return c.JSON(http.StatusConflict, echo.Map{"error": "contractor email already registered"})
	}

	contractor := model.Contractor{
		TenantID:   tenantID,
		Name:       req.Name,
		Email:      req.Email,
		Role:       req.Role,
		HourlyRate: req.HourlyRate,
		Status:     req.Status,
		Skills:     req.Skills,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&contractor); result.Error != nil {
		log.Error("Failed to create contractor", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create contractor"})
	}

	log.Info("Contractor created",
		zap.Uint("id", contractor.ID),
		zap.String("email", contractor.Email),
		zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, contractor)
}

// ListContractors returns the current tenant's roster
func ListContractors(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractorOperation("list")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var contractors []model.Contractor
	if result := database.GetDB().Where("tenant_id = ?", tenantID).Order("name").Find(&contractors); result.Error != nil {
		log.Error("Failed to list contractors", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contractors"})
	}

	return c.JSON(http.StatusOK, contractors)
}

func findTenantContractor(c echo.Context, tenantID uint) (*model.Contractor, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid contractor ID")
	}

	var contractor model.Contractor
	result := database.GetDB().Where("id = ? AND tenant_id = ?", id, tenantID).First(&contractor)
	if result.Error != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "contractor not found")
	}
	return &contractor, nil
}

// GetContractor retrieves one contractor from the current tenant's roster
func GetContractor(c echo.Context) error {
	prometheus.RecordContractorOperation("get")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	contractor, err := findTenantContractor(c, tenantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contractor)
}

// UpdateContractor replaces a contractor's profile fields
func UpdateContractor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractorOperation("update")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	contractor, err := findTenantContractor(c, tenantID)
	if err != nil {
		return err
	}

	var req ContractorRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !model.ValidContractorRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contractor role"})
	}
	if req.Status != "" && !model.ValidContractorStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contractor status"})
	}

	if req.Email != contractor.Email {
		var count int64
		database.GetDB().Model(&model.Contractor{}).Where("email = ? AND id <> ?", req.Email, contractor.ID).Count(&count)
		if count > 0 {
			return c.JSON(http.StatusConflict, echo.Map{"error": "contractor email already registered"})
		}
	}

	contractor.Name = req.Name
	contractor.Email = req.Email
	contractor.Role = req.Role
	contractor.HourlyRate = req.HourlyRate
	if req.Status != "" {
		contractor.Status = req.Status
	}
	if req.Skills != nil {
		contractor.Skills = req.Skills
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(contractor); result.Error != nil {
		log.Error("Failed to update contractor", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update contractor"})
	}

	log.Info("Contractor updated", zap.Uint("id", contractor.ID))
	return c.JSON(http.StatusOK, contractor)
}

// DeleteContractor removes a contractor from the roster
func DeleteContractor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractorOperation("delete")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	contractor, err := findTenantContractor(c, tenantID)
	if err != nil {
		return err
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := database.GetDB().Delete(contractor); result.Error != nil {
		log.Error("Failed to delete contractor", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete contractor"})
	}

	log.Info("Contractor deleted", zap.Uint("id", contractor.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "contractor deleted"})
}

// RatingRequest carries an incoming rating to fold into the stored one.
type RatingRequest struct {
	Rating float64 `json:"rating"`
}

// UpdateContractorRating folds a new rating into the contractor's stored
// one. Out-of-range or non-finite values are rejected and the stored rating
// stays untouched.
func UpdateContractorRating(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractorOperation("rate")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	contractor, err := findTenantContractor(c, tenantID)
	if err != nil {
		return err
	}

	var req RatingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if math.IsNaN(req.Rating) || math.IsInf(req.Rating, 0) || req.Rating < 0 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be a number between 0 and 5"})
	}

	contractor.Rating = model.AverageRating(contractor.Rating, req.Rating)

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(contractor).Update("rating", contractor.Rating); result.Error != nil {
		log.Error("Failed to update rating", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update rating"})
	}

	log.Info("Contractor rating updated",
		zap.Uint("id", contractor.ID),
		zap.Float64("rating", contractor.Rating))
	return c.JSON(http.StatusOK, contractor)
}

// StatusRequest carries a replacement contractor status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateContractorStatus replaces the contractor's status unconditionally;
// there are no transition restrictions.
func UpdateContractorStatus(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordContractorOperation("status")

	_, tenantID, ok := callerTenant(c)
	if !ok {
		prometheus.RecordAuthError("missing_tenant_context")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "tenant membership required"})
	}

	contractor, err := findTenantContractor(c, tenantID)
	if err != nil {
		return err
	}

	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if !model.ValidContractorStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contractor status"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(contractor).Update("status", req.Status); result.Error != nil {
		log.Error("Failed to update status", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update status"})
	}

	contractor.Status = req.Status
	log.Info("Contractor status updated",
		zap.Uint("id", contractor.ID),
		zap.String("status", req.Status))
	return c.JSON(http.StatusOK, contractor)
}
