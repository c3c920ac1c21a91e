package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"workforce-service/internal/authz"
	"workforce-service/internal/invitecode"
	"workforce-service/internal/middleware"
	"workforce-service/internal/model"
	"workforce-service/pkg/database"
	"workforce-service/pkg/logger"
	"workforce-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var defaultInviteExpiryDays = 7

// Generating a fresh code on a unique-index collision is retried this many
// times before giving up; at 12 random characters a second collision in a
// row is already implausible.
const inviteCodeAttempts = 5

// InitInviteDefaults sets the default invite expiry used when a request
// does not specify one.
func InitInviteDefaults(expiryDays int) {
	if expiryDays > 0 {
		defaultInviteExpiryDays = expiryDays
	}
}

func appendInviteAudit(tx *gorm.DB, inviteID uint, action string, actorID uint, metadata string) error {
	return tx.Create(&model.InviteAudit{
		InviteID: inviteID,
		Action:   action,
		ActorID:  actorID,
		Metadata: metadata,
	}).Error
}

// GenerateInviteRequest is the payload for creating a tenant join code.
type GenerateInviteRequest struct {
	Role          string `json:"role" validate:"required"`
	ExpiresInDays int    `json:"expires_in_days,omitempty" validate:"omitempty,min=1,max=365"`
}

// GenerateInvite creates a single-use join code for a tenant.
func GenerateInvite(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInviteOperation("generate")

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	tenantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	if !authz.CanAdminister(caller, uint(tenantID)) {
		log.Warn("Unauthorized invite generation attempt",
			zap.Uint("requesting_user_id", caller.UserID),
			zap.Uint64("tenant_id", tenantID))
		prometheus.RecordAuthError("invite_permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	var req GenerateInviteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, tenantID); result.Error != nil {
		log.Error("Tenant not found", zap.Uint64("id", tenantID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	expiresInDays := req.ExpiresInDays
	if expiresInDays == 0 {
		expiresInDays = defaultInviteExpiryDays
	}

	var invite model.Invite
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
			code, err := invitecode.New()
			if err != nil {
				return err
			}

			var count int64
			if err := tx.Model(&model.Invite{}).Where("code = ?", code).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			invite = model.Invite{
				Code:      code,
				TenantID:  tenant.ID,
				Role:      req.Role,
				ExpiresAt: time.Now().AddDate(0, 0, expiresInDays),
				Used:      false,
			}
			if err := tx.Create(&invite).Error; err != nil {
				return err
			}
			return appendInviteAudit(tx, invite.ID, model.InviteCreated, caller.UserID,
				fmt.Sprintf(`{"role":%q,"expires_in_days":%d}`, req.Role, expiresInDays))
		}
		return fmt.Errorf("could not generate a unique invite code after %d attempts", inviteCodeAttempts)
	})
	if err != nil {
		log.Error("Failed to create invite", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create invite"})
	}

	log.Info("Invite created",
		zap.Uint("invite_id", invite.ID),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("role", invite.Role))

	return c.JSON(http.StatusCreated, invite)
}

// AcceptInviteRequest carries the join code to redeem.
type AcceptInviteRequest struct {
	Code string `json:"code" validate:"required,len=12"`
}

var (
	errInviteConsumed = errors.New("invite already used")
	errAlreadyMember  = errors.New("already a member of this tenant")
)

// consumeInvite flips the invite to used with a guard on the previous
// state, so of two transactions racing on the same code only one can
// consume it; the loser sees zero rows affected.
func consumeInvite(tx *gorm.DB, inviteID, userID uint, now time.Time) error {
	result := tx.Model(&model.Invite{}).
		Where("id = ? AND used = ?", inviteID, false).
		Updates(map[string]interface{}{
			"used":        true,
			"redeemed_by": userID,
			"redeemed_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errInviteConsumed
	}
	return nil
}

// AcceptInvite redeems a join code for the calling user. The membership
// change and the invite consumption commit together or not at all.
func AcceptInvite(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInviteOperation("accept")

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req AcceptInviteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var invite model.Invite
	if result := database.GetDB().Where("code = ?", req.Code).First(&invite); result.Error != nil {
		log.Error("Invite not found", zap.String("code", req.Code))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
	}

	if invite.Used {
		prometheus.RecordAuthError("invite_already_used")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invite already used"})
	}

	if invite.Expired(time.Now()) {
		// Lazy expiry: the terminal state is recorded when it is observed.
		if err := appendInviteAudit(database.GetDB(), invite.ID, model.InviteExpired, caller.UserID, ""); err != nil {
			log.Error("Failed to record invite expiry", zap.Error(err))
		}
		prometheus.RecordAuthError("invite_expired")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invite expired"})
	}

	var user model.User
	if result := database.GetDB().First(&user, caller.UserID); result.Error != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if user.MemberOf(invite.TenantID) {
		prometheus.RecordAuthError("invite_self_join")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "already a member of this tenant"})
	}

	now := time.Now()
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := consumeInvite(tx, invite.ID, user.ID, now); err != nil {
			return err
		}
		// The pre-checks above ran outside the transaction; re-read the
		// membership under it so a racing redemption cannot slip a second
		// join through.
		var current model.User
		if err := tx.First(&current, user.ID).Error; err != nil {
			return err
		}
		if current.MemberOf(invite.TenantID) {
			return errAlreadyMember
		}
		if err := tx.Model(&current).Updates(map[string]interface{}{
			"tenant_id": invite.TenantID,
			"role":      invite.Role,
		}).Error; err != nil {
			return err
		}
		return appendInviteAudit(tx, invite.ID, model.InviteAccepted, user.ID, "")
	})
	if errors.Is(err, errInviteConsumed) {
		prometheus.RecordAuthError("invite_already_used")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invite already used"})
	}
	if errors.Is(err, errAlreadyMember) {
		prometheus.RecordAuthError("invite_self_join")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "already a member of this tenant"})
	}
	if err != nil {
		log.Error("Failed to redeem invite", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to redeem invite"})
	}

	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, invite.TenantID); result.Error != nil {
		log.Error("Tenant missing after redemption", zap.Uint("tenant_id", invite.TenantID))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tenant"})
	}

	log.Info("Invite redeemed",
		zap.Uint("invite_id", invite.ID),
		zap.Uint("user_id", user.ID),
		zap.Uint("tenant_id", tenant.ID))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "joined tenant",
		"tenant":  tenant,
	})
}

// ListInvites returns a tenant's unused, unexpired invites, newest first.
func ListInvites(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInviteOperation("list")

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	tenantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	if !authz.CanAdminister(caller, uint(tenantID)) {
		prometheus.RecordAuthError("invite_permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var invites []model.Invite
	result := database.GetDB().
		Where("tenant_id = ? AND used = ?", tenantID, false).
		Order("created_at DESC").
		Find(&invites)
	if result.Error != nil {
		log.Error("Failed to list invites", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve invites"})
	}

	// Expiry is filtered through Invite.Expired so an unset expires_at
	// means "does not expire" here exactly as it does at redemption.
	now := time.Now()
	pending := make([]model.Invite, 0, len(invites))
	for i := range invites {
		if !invites[i].Expired(now) {
			pending = append(pending, invites[i])
		}
	}

	return c.JSON(http.StatusOK, pending)
}

// DeleteInvite revokes an invite before it is redeemed.
func DeleteInvite(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInviteOperation("delete")

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invite ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	var invite model.Invite
	if result := database.GetDB().First(&invite, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
	}

	if !authz.CanAdminister(caller, invite.TenantID) {
		prometheus.RecordAuthError("invite_permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&invite).Error; err != nil {
			return err
		}
		return appendInviteAudit(tx, invite.ID, model.InviteDeleted, caller.UserID, "")
	})
	if err != nil {
		log.Error("Failed to delete invite", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete invite"})
	}

	log.Info("Invite deleted", zap.Uint("invite_id", invite.ID))
	return c.JSON(http.StatusOK, echo.Map{"message": "invite deleted"})
}

// ResendInvite pushes an invite's expiry forward so the code can be sent
// out again.
func ResendInvite(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordInviteOperation("resend")

	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invite ID"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	var invite model.Invite
	if result := database.GetDB().First(&invite, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
	}

	if !authz.CanAdminister(caller, invite.TenantID) {
		prometheus.RecordAuthError("invite_permission_denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}

	if invite.Used {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invite already used"})
	}

	newExpiry := time.Now().AddDate(0, 0, defaultInviteExpiryDays)
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&invite).Update("expires_at", newExpiry).Error; err != nil {
			return err
		}
		return appendInviteAudit(tx, invite.ID, model.InviteResent, caller.UserID, "")
	})
	if err != nil {
		log.Error("Failed to resend invite", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resend invite"})
	}

	invite.ExpiresAt = newExpiry
	log.Info("Invite resent", zap.Uint("invite_id", invite.ID))
	return c.JSON(http.StatusOK, invite)
}
