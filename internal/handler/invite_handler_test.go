package handler

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"workforce-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func generateInviteAs(t *testing.T, user *model.User, tenantID uint, body interface{}) (int, model.Invite) {
	t.Helper()
	c, rec := newRequest(t, http.MethodPost, "/api/tenants/:id/invites", body)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(tenantID), 10))
	asCaller(c, user)
	require.NoError(t, GenerateInvite(c))

	var invite model.Invite
	if rec.Code == http.StatusCreated {
		decodeBody(t, rec, &invite)
	}
	return rec.Code, invite
}

func acceptInviteAs(t *testing.T, user *model.User, code string) int {
	t.Helper()
	c, rec := newRequest(t, http.MethodPost, "/api/invites/accept", map[string]string{"code": code})
	asCaller(c, user)
	require.NoError(t, AcceptInvite(c))
	return rec.Code
}

func TestInviteRoundTrip(t *testing.T) {
	db := setupDB(t)
	tenant, admin := seedTenant(t, db, "acme")
	guest := seedUser(t, db, "joiner@example.com", model.RoleGuest, nil)

	status, invite := generateInviteAs(t, admin, tenant.ID, map[string]interface{}{
		"role": model.RoleProjectManager,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Len(t, invite.Code, 12)
	assert.Equal(t, tenant.ID, invite.TenantID)
	assert.False(t, invite.Used)

	// Redemption joins the tenant with the invite's role.
	require.Equal(t, http.StatusOK, acceptInviteAs(t, guest, invite.Code))

	var joined model.User
	require.NoError(t, db.First(&joined, guest.ID).Error)
	require.NotNil(t, joined.TenantID)
	assert.Equal(t, tenant.ID, *joined.TenantID)
	assert.Equal(t, model.RoleProjectManager, joined.Role)

	var stored model.Invite
	require.NoError(t, db.First(&stored, invite.ID).Error)
	assert.True(t, stored.Used)
	require.NotNil(t, stored.RedeemedBy)
	assert.Equal(t, guest.ID, *stored.RedeemedBy)
	assert.NotNil(t, stored.RedeemedAt)

	// The same code is a no-op failure for the next caller.
	second := seedUser(t, db, "late@example.com", model.RoleGuest, nil)
	assert.Equal(t, http.StatusBadRequest, acceptInviteAs(t, second, invite.Code))

	var lateUser model.User
	require.NoError(t, db.First(&lateUser, second.ID).Error)
	assert.Nil(t, lateUser.TenantID)

	// Both transitions were audited.
	var actions []string
	require.NoError(t, db.Model(&model.InviteAudit{}).
		Where("invite_id = ?", invite.ID).
		Order("id").
		Pluck("action", &actions).Error)
	assert.Equal(t, []string{model.InviteCreated, model.InviteAccepted}, actions)
}

func TestGenerateInviteForeignTenantForbidden(t *testing.T) {
	db := setupDB(t)
	tenantA, _ := seedTenant(t, db, "tenant-a")
	_, adminB := seedTenant(t, db, "tenant-b")

	status, _ := generateInviteAs(t, adminB, tenantA.ID, map[string]interface{}{
		"role": model.RoleClient,
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestGenerateInviteSuperAdminAnyTenant(t *testing.T) {
	db := setupDB(t)
	tenant, _ := seedTenant(t, db, "acme")
	super := seedUser(t, db, "root@example.com", model.RoleSuperAdmin, nil)

	status, _ := generateInviteAs(t, super, tenant.ID, map[string]interface{}{
		"role": model.RoleClient,
	})
	assert.Equal(t, http.StatusCreated, status)
}

func TestGenerateInviteUnknownTenant(t *testing.T) {
	db := setupDB(t)
	super := seedUser(t, db, "root@example.com", model.RoleSuperAdmin, nil)

	status, _ := generateInviteAs(t, super, 9999, map[string]interface{}{
		"role": model.RoleClient,
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGenerateInviteInvalidRole(t *testing.T) {
	db := setupDB(t)
	tenant, admin := seedTenant(t, db, "acme")

	status, _ := generateInviteAs(t, admin, tenant.ID, map[string]interface{}{
		"role": "wizard",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAcceptExpiredInvite(t *testing.T) {
	db := setupDB(t)
	tenant, _ := seedTenant(t, db, "acme")
	guest := seedUser(t, db, "joiner@example.com", model.RoleGuest, nil)

	invite := model.Invite{
		Code:      "expiredcode1",
		TenantID:  tenant.ID,
		Role:      model.RoleClient,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&invite).Error)

	assert.Equal(t, http.StatusBadRequest, acceptInviteAs(t, guest, invite.Code))

	var unchanged model.User
	require.NoError(t, db.First(&unchanged, guest.ID).Error)
	assert.Nil(t, unchanged.TenantID)
}

func TestAcceptInviteAlreadyMember(t *testing.T) {
	db := setupDB(t)
	tenant, admin := seedTenant(t, db, "acme")

	status, invite := generateInviteAs(t, admin, tenant.ID, map[string]interface{}{
		"role": model.RoleClient,
	})
	require.Equal(t, http.StatusCreated, status)

	member := seedUser(t, db, "member@example.com", model.RoleClient, &tenant.ID)
	assert.Equal(t, http.StatusBadRequest, acceptInviteAs(t, member, invite.Code))
}

func TestAcceptUnknownCode(t *testing.T) {
	db := setupDB(t)
	guest := seedUser(t, db, "joiner@example.com", model.RoleGuest, nil)

	assert.Equal(t, http.StatusNotFound, acceptInviteAs(t, guest, "nosuchcode12"))
}

func TestConsumeInviteRefusesConsumedCode(t *testing.T) {
	db := setupDB(t)
	tenant, admin := seedTenant(t, db, "acme")
	first := seedUser(t, db, "first@example.com", model.RoleGuest, nil)
	second := seedUser(t, db, "second@example.com", model.RoleGuest, nil)

	status, invite := generateInviteAs(t, admin, tenant.ID, map[string]interface{}{
		"role": model.RoleClient,
	})
	require.Equal(t, http.StatusCreated, status)

	// Both redeemers have already read the invite as unused; the guarded
	// update is what decides the winner.
	now := time.Now()
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return consumeInvite(tx, invite.ID, first.ID, now)
	}))

	err := db.Transaction(func(tx *gorm.DB) error {
		return consumeInvite(tx, invite.ID, second.ID, now)
	})
	require.ErrorIs(t, err, errInviteConsumed)

	// The first redeemer's record survives the losing attempt.
	var stored model.Invite
	require.NoError(t, db.First(&stored, invite.ID).Error)
	assert.True(t, stored.Used)
	require.NotNil(t, stored.RedeemedBy)
	assert.Equal(t, first.ID, *stored.RedeemedBy)
}

func TestListInvitesOnlyActive(t *testing.T) {
	db := setupDB(t)
	tenant, admin := seedTenant(t, db, "acme")

	used := uint(1)
	now := time.Now()
	invites := []model.Invite{
		{Code: "activecode01", TenantID: tenant.ID, Role: model.RoleClient, ExpiresAt: now.Add(24 * time.Hour)},
		{Code: "expiredcode1", TenantID: tenant.ID, Role: model.RoleClient, ExpiresAt: now.Add(-time.Hour)},
		{Code: "usedcode0001", TenantID: tenant.ID, Role: model.RoleClient, ExpiresAt: now.Add(24 * time.Hour), Used: true, RedeemedBy: &used},
	}
	for i := range invites {
		require.NoError(t, db.Create(&invites[i]).Error)
	}

	c, rec := newRequest(t, http.MethodGet, "/api/tenants/:id/invites", nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(tenant.ID), 10))
	asCaller(c, admin)
	require.NoError(t, ListInvites(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []model.Invite
	decodeBody(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "activecode01", listed[0].Code)
}

func TestListInvitesKeepsUnsetExpiry(t *testing.T) {
	db := setupDB(t)
	tenant, admin := seedTenant(t, db, "acme")

	// An invite with no expiry never expires; it must stay listed.
	invite := model.Invite{Code: "forevercode1", TenantID: tenant.ID, Role: model.RoleClient}
	require.NoError(t, db.Create(&invite).Error)

	c, rec := newRequest(t, http.MethodGet, "/api/tenants/:id/invites", nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(tenant.ID), 10))
	asCaller(c, admin)
	require.NoError(t, ListInvites(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []model.Invite
	decodeBody(t, rec, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "forevercode1", listed[0].Code)
}

func TestListInvitesForeignTenantForbidden(t *testing.T) {
	db := setupDB(t)
	tenantA, _ := seedTenant(t, db, "tenant-a")
	_, adminB := seedTenant(t, db, "tenant-b")

	c, rec := newRequest(t, http.MethodGet, "/api/tenants/:id/invites", nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(tenantA.ID), 10))
	asCaller(c, adminB)
	require.NoError(t, ListInvites(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
