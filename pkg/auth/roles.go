package auth

import (
	"strings"

	"pustaka/pkg/models"
)

// Role is an access level. Roles are ordered from most to least
// privileged: admin, librarian, staff, member.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleStaff     Role = "staff"
	RoleMember    Role = "member"
)

// Module is a functional area of the application. Every resource type
// maps to exactly one module.
type Module string

const (
	ModuleBibliography Module = "bibliography"
	ModuleCirculation  Module = "circulation"
	ModuleMembership   Module = "membership"
	ModuleMasterFile   Module = "master_file"
	ModuleSystem       Module = "system"
)

// Permission is the access kind requested on a module.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// adminGroupID and librarianGroupID are the legacy group numbers stored
// in user.groups as a serialized list.
const (
	adminGroupID     = "1"
	librarianGroupID = "2"
)

// RoleFor maps a user account to its role. An account is admin when its
// group list contains the admin group or its user_type is 1; the
// librarian group grants librarian; everything else is staff. The member
// role is never held by a user account, only by member sessions.
func RoleFor(user *models.User) Role {
	if user.UserType != nil && *user.UserType == 1 {
		return RoleAdmin
	}
	if user.Groups != nil {
		if groupsContain(*user.Groups, adminGroupID) {
			return RoleAdmin
		}
		if groupsContain(*user.Groups, librarianGroupID) {
			return RoleLibrarian
		}
	}
	return RoleStaff
}

// groupsContain reports whether the serialized group list holds the given
// group id. The legacy encoding quotes each id, so matching the quoted
// form avoids false positives on multi-digit ids.
func groupsContain(groups, id string) bool {
	return strings.Contains(groups, `"`+id+`"`)
}

// grants is the role/module/permission matrix. Absent entries deny.
var grants = map[Role]map[Module]Permission{
	RoleAdmin: {
		ModuleBibliography: PermissionWrite,
		ModuleCirculation:  PermissionWrite,
		ModuleMembership:   PermissionWrite,
		ModuleMasterFile:   PermissionWrite,
		ModuleSystem:       PermissionWrite,
	},
	RoleLibrarian: {
		ModuleBibliography: PermissionWrite,
		ModuleCirculation:  PermissionWrite,
		ModuleMembership:   PermissionWrite,
		ModuleMasterFile:   PermissionWrite,
		ModuleSystem:       PermissionRead,
	},
	RoleStaff: {
		ModuleBibliography: PermissionRead,
		ModuleCirculation:  PermissionWrite,
		ModuleMembership:   PermissionRead,
		ModuleMasterFile:   PermissionRead,
	},
	RoleMember: {
		ModuleBibliography: PermissionRead,
		ModuleCirculation:  PermissionRead,
	},
}

// Can reports whether the role holds the permission on the module. A
// write grant implies read.
func (r Role) Can(module Module, perm Permission) bool {
	granted, ok := grants[r][module]
	if !ok {
		return false
	}
	if perm == PermissionRead {
		return true
	}
	return granted == PermissionWrite
}

// moduleByResource maps resource types to their module. Unlisted types
// (the master-file lookups) default to ModuleMasterFile.
var moduleByResource = map[string]Module{
	"biblios":  ModuleBibliography,
	"items":    ModuleBibliography,
	"files":    ModuleBibliography,
	"contents": ModuleBibliography,
	"loans":    ModuleCirculation,
	"visitors": ModuleCirculation,
	"members":  ModuleMembership,
	"settings": ModuleSystem,
}

// ModuleForResource resolves the module guarding a resource type.
func ModuleForResource(resourceType string) Module {
	if module, ok := moduleByResource[resourceType]; ok {
		return module
	}
	return ModuleMasterFile
}
