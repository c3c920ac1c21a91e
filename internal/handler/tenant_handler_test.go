package handler

import (
	"net/http"
	"strconv"
	"testing"

	"workforce-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTenantAsOwnAdmin(t *testing.T) {
	db := setupDB(t)
	tenant, admin := seedTenant(t, db, "acme")

	c, rec := newRequest(t, http.MethodGet, "/api/tenants/:id", nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(tenant.ID), 10))
	asCaller(c, admin)
	require.NoError(t, GetTenant(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.Tenant
	decodeBody(t, rec, &got)
	assert.Equal(t, tenant.ID, got.ID)
	assert.Equal(t, "acme", got.Name)
}

func TestGetTenantForeignAdminForbidden(t *testing.T) {
	db := setupDB(t)
	tenantA, _ := seedTenant(t, db, "tenant-a")
	_, adminB := seedTenant(t, db, "tenant-b")

	c, rec := newRequest(t, http.MethodGet, "/api/tenants/:id", nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(tenantA.ID), 10))
	asCaller(c, adminB)
	require.NoError(t, GetTenant(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateTenant(t *testing.T) {
	db := setupDB(t)
	tenant, admin := seedTenant(t, db, "acme")

	c, rec := newRequest(t, http.MethodPatch, "/api/tenants/:id", map[string]interface{}{
		"contact_email": "ops@acme.example",
		"active":        false,
	})
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(tenant.ID), 10))
	asCaller(c, admin)
	require.NoError(t, UpdateTenant(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stored model.Tenant
	require.NoError(t, db.First(&stored, tenant.ID).Error)
	assert.Equal(t, "ops@acme.example", stored.ContactEmail)
	assert.False(t, stored.Active)
	// Untouched fields stay as they were.
	assert.Equal(t, "acme", stored.Name)
}

func TestListTenantsSuperAdminOnly(t *testing.T) {
	db := setupDB(t)
	_, admin := seedTenant(t, db, "acme")
	seedTenant(t, db, "globex")
	super := seedUser(t, db, "root@example.com", model.RoleSuperAdmin, nil)

	c, rec := newRequest(t, http.MethodGet, "/api/tenants", nil)
	asCaller(c, admin)
	require.NoError(t, ListTenants(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = newRequest(t, http.MethodGet, "/api/tenants", nil)
	asCaller(c, super)
	require.NoError(t, ListTenants(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var tenants []model.Tenant
	decodeBody(t, rec, &tenants)
	assert.Len(t, tenants, 2)
}

func TestDeleteTenantSuperAdmin(t *testing.T) {
	db := setupDB(t)
	tenant, _ := seedTenant(t, db, "acme")
	super := seedUser(t, db, "root@example.com", model.RoleSuperAdmin, nil)

	c, rec := newRequest(t, http.MethodDelete, "/api/tenants/:id", nil)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(tenant.ID), 10))
	asCaller(c, super)
	require.NoError(t, DeleteTenant(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, db.Model(&model.Tenant{}).Where("id = ?", tenant.ID).Count(&count).Error)
	assert.Zero(t, count)
}
