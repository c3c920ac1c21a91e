package handler

import (
	"net/http"
	"testing"

	"workforce-service/internal/model"
	"workforce-service/pkg/database"
	"workforce-service/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authResponse struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         model.User `json:"user"`
}

func registerUser(t *testing.T, body map[string]string) (*authResponse, int) {
	t.Helper()
	c, rec := newRequest(t, http.MethodPost, "/auth/register", body)
	require.NoError(t, Register(c))
	if rec.Code != http.StatusCreated {
		return nil, rec.Code
	}
	var resp authResponse
	decodeBody(t, rec, &resp)
	return &resp, rec.Code
}

func loginUser(t *testing.T, email, password string) (*authResponse, int) {
	t.Helper()
	c, rec := newRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.NoError(t, Login(c))
	if rec.Code != http.StatusOK {
		return nil, rec.Code
	}
	var resp authResponse
	decodeBody(t, rec, &resp)
	return &resp, rec.Code
}

func TestRegisterUnaffiliated(t *testing.T) {
	setupDB(t)

	resp, code := registerUser(t, map[string]string{
		"email":    "solo@example.com",
		"password": "secretpass",
		"name":     "Solo Worker",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, model.RoleGuest, resp.User.Role)
	assert.Nil(t, resp.User.TenantID)
}

func TestRegisterWithTenantCreatesAdmin(t *testing.T) {
	db := setupDB(t)

	resp, code := registerUser(t, map[string]string{
		"email":       "founder@example.com",
		"password":    "secretpass",
		"name":        "Founder",
		"tenant_name": "Acme Corp",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, model.RoleTenantAdmin, resp.User.Role)
	require.NotNil(t, resp.User.TenantID)

	var tenant model.Tenant
	require.NoError(t, db.Where("name = ?", "Acme Corp").First(&tenant).Error)
	assert.Equal(t, resp.User.ID, tenant.OwnerID)
	assert.Equal(t, tenant.ID, *resp.User.TenantID)
	assert.True(t, tenant.Active)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	setupDB(t)

	_, code := registerUser(t, map[string]string{
		"email":    "dup@example.com",
		"password": "secretpass",
		"name":     "First",
	})
	require.Equal(t, http.StatusCreated, code)

	_, code = registerUser(t, map[string]string{
		"email":    "dup@example.com",
		"password": "otherpass1",
		"name":     "Second",
	})
	assert.Equal(t, http.StatusConflict, code)
}

func TestRegisterDuplicateTenantName(t *testing.T) {
	setupDB(t)

	_, code := registerUser(t, map[string]string{
		"email":       "a@example.com",
		"password":    "secretpass",
		"name":        "First",
		"tenant_name": "Acme Corp",
	})
	require.Equal(t, http.StatusCreated, code)

	_, code = registerUser(t, map[string]string{
		"email":       "b@example.com",
		"password":    "secretpass",
		"name":        "Second",
		"tenant_name": "Acme Corp",
	})
	assert.Equal(t, http.StatusConflict, code)

	// The second user must not have been half-created.
	var count int64
	database.GetDB().Model(&model.User{}).Where("email = ?", "b@example.com").Count(&count)
	assert.Zero(t, count)
}

func TestLogin(t *testing.T) {
	setupDB(t)

	_, code := registerUser(t, map[string]string{
		"email":    "user@example.com",
		"password": "secretpass",
		"name":     "User",
	})
	require.Equal(t, http.StatusCreated, code)

	resp, code := loginUser(t, "user@example.com", "secretpass")
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	_, code = loginUser(t, "user@example.com", "wrongpass")
	assert.Equal(t, http.StatusUnauthorized, code)

	_, code = loginUser(t, "nobody@example.com", "secretpass")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRefresh(t *testing.T) {
	setupDB(t)

	reg, code := registerUser(t, map[string]string{
		"email":    "user@example.com",
		"password": "secretpass",
		"name":     "User",
	})
	require.Equal(t, http.StatusCreated, code)

	c, rec := newRequest(t, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": reg.RefreshToken,
	})
	require.NoError(t, Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp authResponse
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	setupDB(t)

	reg, code := registerUser(t, map[string]string{
		"email":    "user@example.com",
		"password": "secretpass",
		"name":     "User",
	})
	require.Equal(t, http.StatusCreated, code)

	c, rec := newRequest(t, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": reg.AccessToken,
	})
	require.NoError(t, Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshReflectsMembershipChange(t *testing.T) {
	db := setupDB(t)

	reg, code := registerUser(t, map[string]string{
		"email":    "joiner@example.com",
		"password": "secretpass",
		"name":     "Joiner",
	})
	require.Equal(t, http.StatusCreated, code)

	// Simulate an invite acceptance between the two token exchanges.
	tenant, _ := seedTenant(t, db, "acme")
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", reg.User.ID).
		Updates(map[string]interface{}{"tenant_id": tenant.ID, "role": model.RoleProjectManager}).Error)

	c, rec := newRequest(t, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": reg.RefreshToken,
	})
	require.NoError(t, Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp authResponse
	decodeBody(t, rec, &resp)

	claims, err := jwtutil.ValidateAccess(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleProjectManager, claims.Role)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, tenant.ID, *claims.TenantID)
}
