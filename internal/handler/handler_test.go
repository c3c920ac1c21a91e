package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"workforce-service/internal/authz"
	"workforce-service/internal/middleware"
	"workforce-service/internal/model"
	"workforce-service/pkg/database"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupDB points the handlers at a fresh in-memory store, one per test.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared-cache memory database alive for
	// the duration of the test.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	database.SetDB(db)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// newRequest builds an echo context carrying an optional JSON body.
func newRequest(t *testing.T, method, path string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	return c, rec
}

// asCaller stores the user in the context the way AuthMiddleware would.
func asCaller(c echo.Context, user *model.User) {
	c.Set(middleware.CallerKey, authz.Caller{
		UserID:   user.ID,
		Role:     user.Role,
		TenantID: user.TenantID,
	})
	c.Set("user_id", user.ID)
	c.Set("email", user.Email)
	c.Set("user_role", user.Role)
	if user.TenantID != nil {
		c.Set("tenant_id", *user.TenantID)
	}
}

func seedUser(t *testing.T, db *gorm.DB, email, role string, tenantID *uint) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := model.User{
		Email:    email,
		Password: string(hash),
		Name:     strings.Split(email, "@")[0],
		Role:     role,
		TenantID: tenantID,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// seedTenant creates a tenant together with its admin user.
func seedTenant(t *testing.T, db *gorm.DB, name string) (*model.Tenant, *model.User) {
	t.Helper()
	admin := seedUser(t, db, name+"-admin@example.com", model.RoleTenantAdmin, nil)
	tenant := model.Tenant{
		Name:         name,
		ContactEmail: admin.Email,
		OwnerID:      admin.ID,
		Active:       true,
	}
	require.NoError(t, db.Create(&tenant).Error)
	require.NoError(t, db.Model(admin).Update("tenant_id", tenant.ID).Error)
	admin.TenantID = &tenant.ID
	return &tenant, admin
}

func seedContractor(t *testing.T, db *gorm.DB, tenantID uint, email string) *model.Contractor {
	t.Helper()
	contractor := model.Contractor{
		TenantID:   tenantID,
		Name:       strings.Split(email, "@")[0],
		Email:      email,
		Role:       model.ContractorDeveloper,
		HourlyRate: 80,
		Status:     model.ContractorActive,
	}
	require.NoError(t, db.Create(&contractor).Error)
	return &contractor
}

func seedProject(t *testing.T, db *gorm.DB, tenantID, managerID uint, name string) *model.Project {
	t.Helper()
	project := model.Project{
		TenantID:  tenantID,
		ManagerID: managerID,
		Name:      name,
		Status:    model.ProjectActive,
		Priority:  model.PriorityMedium,
	}
	require.NoError(t, db.Create(&project).Error)
	return &project
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}
