package handler

import (
	"net/http"
	"time"

	"workforce-service/internal/model"
	"workforce-service/pkg/database"
	"workforce-service/pkg/jwtutil"
	"workforce-service/pkg/logger"
	"workforce-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest is the payload for user registration. When TenantName is
// supplied the registration also creates the tenant and the user becomes
// its first TENANT_ADMIN; otherwise the user starts unaffiliated.
type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Name       string `json:"name" validate:"required,min=2,max=100"`
	TenantName string `json:"tenant_name,omitempty" validate:"omitempty,min=2,max=100"`
}

func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := validate.Struct(req); err != nil {
		log.Error("Invalid registration data", zap.Error(err))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	// Check if user already exists
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existingUser model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&existingUser)
	if result.Error == nil {
		log.Error("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	user := model.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     req.Name,
		Role:     model.RoleGuest,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if req.TenantName == "" {
		if result := database.GetDB().Create(&user); result.Error != nil {
			log.Error("Failed to create user", zap.Error(result.Error))
			prometheus.RecordAuthError("user_creation_failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
		}
	} else {
		// Tenant registration: the tenant and its first admin are created
		// together or not at all.
		var existingTenant model.Tenant
		if result := database.GetDB().Where("name = ?", req.TenantName).First(&existingTenant); result.Error == nil {
			log.Error("Tenant already exists", zap.String("name", req.TenantName))
			prometheus.RecordAuthError("tenant_name_taken")
			return c.JSON(http.StatusConflict, echo.Map{"error": "tenant name already taken"})
		}

		user.Role = model.RoleTenantAdmin

		tx := database.GetDB().Begin()
		if tx.Error != nil {
			log.Error("Failed to begin transaction", zap.Error(tx.Error))
			prometheus.RecordAuthError("database_error")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}

		if result := tx.Create(&user); result.Error != nil {
			tx.Rollback()
			log.Error("Failed to create user", zap.Error(result.Error))
			prometheus.RecordAuthError("user_creation_failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
		}

		tenant := model.Tenant{
			Name:         req.TenantName,
			ContactEmail: req.Email,
			OwnerID:      user.ID,
			Active:       true,
		}
		if result := tx.Create(&tenant); result.Error != nil {
			tx.Rollback()
			log.Error("Failed to create tenant", zap.Error(result.Error))
			prometheus.RecordAuthError("tenant_creation_failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
		}

		if result := tx.Model(&user).Update("tenant_id", tenant.ID); result.Error != nil {
			tx.Rollback()
			log.Error("Failed to attach user to tenant", zap.Error(result.Error))
			prometheus.RecordAuthError("user_update_failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
		}

		if err := tx.Commit().Error; err != nil {
			log.Error("Failed to commit transaction", zap.Error(err))
			prometheus.RecordAuthError("transaction_commit_failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
		}

		user.TenantID = &tenant.ID
		log.Info("Tenant registered",
			zap.String("name", tenant.Name),
			zap.Uint("id", tenant.ID),
			zap.Uint("owner_id", user.ID))
	}

	pair, err := jwtutil.GeneratePair(user.Email, user.ID, user.Role, user.TenantID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	prometheus.IncreaseActiveTokens()

	log.Info("User registered", zap.String("email", user.Email), zap.String("role", user.Role))
	return c.JSON(http.StatusCreated, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          user,
	})
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := validate.Struct(req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	pair, err := jwtutil.GeneratePair(user.Email, user.ID, user.Role, user.TenantID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	prometheus.IncreaseActiveTokens()

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          user,
	})
}

// RefreshRequest carries the refresh token to exchange for a fresh pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func Refresh(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RefreshCounter.Inc()

	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse refresh request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := validate.Struct(req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	claims, err := jwtutil.ValidateRefresh(req.RefreshToken)
	if err != nil {
		log.Error("Invalid refresh token", zap.Error(err))
		prometheus.RecordAuthError("invalid_refresh_token")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired refresh token"})
	}

	// The token must still reference a live user; role and tenant are read
	// back from the record so a membership change is reflected in the new
	// pair.
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, claims.UserID); result.Error != nil {
		log.Error("Refresh for unknown user", zap.Uint("user_id", claims.UserID))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired refresh token"})
	}

	pair, err := jwtutil.GeneratePair(user.Email, user.ID, user.Role, user.TenantID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}
	prometheus.IncreaseActiveTokens()

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}
