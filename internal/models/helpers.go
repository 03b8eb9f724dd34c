package models

import (
	"gorm.io/gorm"
)

// IsValidUserRole checks if a given role is valid
func IsValidUserRole(role UserRole) bool {
	switch role {
	case UserRoleAdmin, UserRoleEditor, UserRoleViewer:
		return true
	default:
		return false
	}
}

// IsEditableCampaignStatus reports whether a client may set status directly.
// sending, sent and failed are owned by the delivery worker.
func IsEditableCampaignStatus(status CampaignStatus) bool {
	return status == CampaignStatusDraft || status == CampaignStatusScheduled
}

// GetUserByEmail retrieves a user by email
func GetUserByEmail(email string, db *gorm.DB) (*User, error) {
	user := &User{}
	if err := db.Where("email = ?", email).First(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// ScopesForRole returns the permissions stored on the role row with the same
// name, or the built-in defaults when there is none.
func ScopesForRole(role UserRole, db *gorm.DB) []string {
	if db != nil {
		r := &Role{}
		if err := db.Where("name = ?", string(role)).First(r).Error; err == nil && len(r.Permissions) > 0 {
			return []string(r.Permissions)
		}
	}
	return RolePermissions[role]
}
