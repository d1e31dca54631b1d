package domain

import (
	"regexp"
	"strings"
)

// Role is the organizational category of a signed-in party.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleContractor Role = "contractor"
	RoleCustomer   Role = "customer"
	RoleCenter     Role = "center"
	RoleCrew       Role = "crew"
	RoleUnknown    Role = "unknown"
)

// ParseRole canonicalizes a role string. Comparison is case-insensitive;
// empty or unrecognized input maps to RoleUnknown.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleManager:
		return RoleManager
	case RoleContractor:
		return RoleContractor
	case RoleCustomer:
		return RoleCustomer
	case RoleCenter:
		return RoleCenter
	case RoleCrew:
		return RoleCrew
	default:
		return RoleUnknown
	}
}

// Known reports whether r names a concrete role.
func (r Role) Known() bool {
	return r != "" && r != RoleUnknown
}

// centerCodePattern matches center codes of the form 001-D.
var centerCodePattern = regexp.MustCompile(`^\d{3}-[A-Z]$`)

// InferRoleFromCode maps a role-namespaced code to the role owning that
// namespace. Codes are matched case-insensitively. Both the CT- and CON-
// contractor prefixes are accepted (the directory migrated from CT- to CON-
// and old codes are still in circulation), as are M- and MGR- for managers.
func InferRoleFromCode(code string) Role {
	if code == "" {
		return RoleUnknown
	}
	c := strings.ToUpper(strings.TrimSpace(code))
	switch {
	case centerCodePattern.MatchString(c):
		return RoleCenter
	case strings.HasPrefix(c, "CR-"):
		return RoleCrew
	case strings.HasPrefix(c, "CT-"), strings.HasPrefix(c, "CON-"):
		return RoleContractor
	case strings.HasPrefix(c, "CU-"):
		return RoleCustomer
	case strings.HasPrefix(c, "M-"), strings.HasPrefix(c, "MGR-"):
		return RoleManager
	default:
		return RoleUnknown
	}
}
