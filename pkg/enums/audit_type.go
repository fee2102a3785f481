package enums

import "fmt"

// AuditType tags the kind of state change an audit entry records.
type AuditType string

const (
	AuditTypeAdd      AuditType = "add"
	AuditTypeRemove   AuditType = "remove"
	AuditTypeTransfer AuditType = "transfer"
	AuditTypeUpdate   AuditType = "update"
	AuditTypeCreate   AuditType = "create"
	AuditTypeDelete   AuditType = "delete"
)

var validAuditTypes = []AuditType{
	AuditTypeAdd,
	AuditTypeRemove,
	AuditTypeTransfer,
	AuditTypeUpdate,
	AuditTypeCreate,
	AuditTypeDelete,
}

// String implements fmt.Stringer.
func (a AuditType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditType.
func (a AuditType) IsValid() bool {
	for _, candidate := range validAuditTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditType converts raw input into an AuditType.
func ParseAuditType(value string) (AuditType, error) {
	for _, candidate := range validAuditTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit type %q", value)
}
