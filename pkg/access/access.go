// Package access holds the role predicates that gate every mutating operation.
package access

import (
	"fmt"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
)

// Capability names an action class guarded by role.
type Capability string

const (
	CapabilityEdit        Capability = "edit"
	CapabilityDelete      Capability = "delete"
	CapabilityManageUsers Capability = "manage_users"
)

// CanEdit reports whether role may create or modify warehouses, items and transfers.
func CanEdit(role enums.Role) bool {
	switch role {
	case enums.RoleAdmin, enums.RoleManager:
		return true
	case enums.RoleViewer:
		return false
	default:
		return false
	}
}

// CanDelete reports whether role may delete warehouses and items.
func CanDelete(role enums.Role) bool {
	switch role {
	case enums.RoleAdmin:
		return true
	case enums.RoleManager, enums.RoleViewer:
		return false
	default:
		return false
	}
}

// CanManageUsers reports whether role may list, create and delete accounts.
func CanManageUsers(role enums.Role) bool {
	return role == enums.RoleAdmin
}

// Allows evaluates capability for role. Unknown capabilities are denied.
func Allows(role enums.Role, capability Capability) bool {
	switch capability {
	case CapabilityEdit:
		return CanEdit(role)
	case CapabilityDelete:
		return CanDelete(role)
	case CapabilityManageUsers:
		return CanManageUsers(role)
	default:
		return false
	}
}

// ParseCapability converts raw input into a Capability.
func ParseCapability(value string) (Capability, error) {
	switch Capability(value) {
	case CapabilityEdit, CapabilityDelete, CapabilityManageUsers:
		return Capability(value), nil
	default:
		return "", fmt.Errorf("invalid capability %q", value)
	}
}
