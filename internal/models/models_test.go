package models

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func TestAllows(t *testing.T) {
	tests := []struct {
		name     string
		scopes   []string
		resource string
		action   string
		want     bool
	}{
		{"admin wildcard", RolePermissions[UserRoleAdmin], "boats", ActionDelete, true},
		{"viewer reads", RolePermissions[UserRoleViewer], "hotels", ActionRead, true},
		{"viewer cannot write", RolePermissions[UserRoleViewer], "hotels", ActionCreate, false},
		{"editor manages boats", RolePermissions[UserRoleEditor], "boats", ActionUpdate, true},
		{"editor cannot delete users", RolePermissions[UserRoleEditor], "users", ActionDelete, false},
		{"unknown method", RolePermissions[UserRoleAdmin], "boats", ActionForMethod("TRACE"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Allows(tt.scopes, tt.resource, tt.action))
		})
	}
}

func TestActionForMethod(t *testing.T) {
	assert.Equal(t, ActionRead, ActionForMethod(http.MethodGet))
	assert.Equal(t, ActionCreate, ActionForMethod(http.MethodPost))
	assert.Equal(t, ActionUpdate, ActionForMethod(http.MethodPatch))
	assert.Equal(t, ActionDelete, ActionForMethod(http.MethodDelete))
}

func TestValidScope(t *testing.T) {
	assert.True(t, ValidScope("boats:read"))
	assert.True(t, ValidScope("*:*"))
	assert.False(t, ValidScope("boats"))
	assert.False(t, ValidScope("boats:launch"))
}

func TestUser_PasswordIsHashedOnce(t *testing.T) {
	db := openTestDB(t)

	user := &User{Name: "Ops", Email: "ops@example.com", Password: "s3cretpass", Role: UserRoleEditor}
	require.NoError(t, db.Create(user).Error)
	hash := user.Password
	assert.NotEqual(t, "s3cretpass", hash)
	assert.True(t, user.CheckPassword("s3cretpass"))

	user.Name = "Operations"
	require.NoError(t, db.Save(user).Error)
	assert.Equal(t, hash, user.Password)
}

func TestUserDraft_ApplyKeepsPasswordWhenEmpty(t *testing.T) {
	u := User{Name: "a", Password: "hash"}
	UserDraft{Name: "b", Email: "b@example.com", Role: "viewer"}.Apply(&u)
	assert.Equal(t, "hash", u.Password)
	assert.Equal(t, UserRoleViewer, u.Role)
}

func TestSeed(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, SeedRoles(db))
	require.NoError(t, SeedRoles(db))
	admin, err := CreateAdminFromEnv(db)
	require.NoError(t, err)
	require.NotNil(t, admin)
	require.NoError(t, SeedSampleData(db))

	var roles, boats int64
	db.Model(&Role{}).Count(&roles)
	db.Model(&Boat{}).Count(&boats)
	assert.Equal(t, int64(3), roles)
	assert.Equal(t, int64(3), boats)

	var customer Customer
	require.NoError(t, db.Preload("Bookings").Where("email = ?", "ana@example.com").First(&customer).Error)
	assert.Len(t, customer.Bookings, 1)

	assert.Equal(t, RolePermissions[UserRoleViewer], ScopesForRole(UserRoleViewer, db))

	again, err := CreateAdminFromEnv(db)
	require.NoError(t, err)
	assert.Nil(t, again)
}
