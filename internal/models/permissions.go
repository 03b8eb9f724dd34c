package models

import (
	"net/http"
	"regexp"
	"strings"
)

// Scopes are "<resource>:<action>" pairs where either side may be "*"
var scopePattern = regexp.MustCompile(`^(\*|[a-z_]+):(\*|read|create|update|delete)$`)

const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Role-based permission defaults, used when no role row overrides them
var RolePermissions = map[UserRole][]string{
	UserRoleAdmin: {
		"*:*",
	},
	UserRoleEditor: {
		"boats:*", "hotels:*", "customers:*", "faqs:*", "testimonials:*",
		"emails:*", "subscribers:*", "recipients:*", "files:*",
		"users:read", "roles:read",
	},
	UserRoleViewer: {
		"*:read",
	},
}

func ValidScope(scope string) bool {
	return scopePattern.MatchString(scope)
}

// ActionForMethod maps an HTTP method to the action a scope has to grant
func ActionForMethod(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return ActionRead
	case http.MethodPost:
		return ActionCreate
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate
	case http.MethodDelete:
		return ActionDelete
	default:
		return ""
	}
}

// Allows reports whether any scope grants action on resource
func Allows(scopes []string, resource, action string) bool {
	if action == "" {
		return false
	}
	for _, scope := range scopes {
		res, act, ok := strings.Cut(scope, ":")
		if !ok {
			continue
		}
		if (res == "*" || res == resource) && (act == "*" || act == action) {
			return true
		}
	}
	return false
}
