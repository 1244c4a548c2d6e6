// Package policy centralizes role-based authorization. Every role set is
// defined once here so access rules are declared and tested in one place.
package policy

import "github.com/spec-kit/aftersales-service/internal/domain"

// ManagerLevel are roles with company- or department-wide authority.
var ManagerLevel = []domain.Role{
	domain.RoleCompanyManager,
	domain.RoleDeputyManager,
	domain.RoleDepartmentManager,
}

// AssignerLevel are roles allowed to assign technicians to requests.
var AssignerLevel = []domain.Role{
	domain.RoleCompanyManager,
	domain.RoleDeputyManager,
	domain.RoleDepartmentManager,
	domain.RoleSectionSupervisor,
}

// InventoryWriters are the only roles allowed to mutate spare-part stock.
var InventoryWriters = []domain.Role{
	domain.RoleWarehouseKeeper,
}

// CanAccessRequest decides visibility of a request for a user.
// Company-wide roles see everything; department-scoped roles see their
// own department; technicians see requests they are assigned to or
// received. Everyone else, including warehouse keepers, is denied.
func CanAccessRequest(user *domain.User, request *domain.ServiceRequest) bool {
	if user == nil || request == nil {
		return false
	}
	switch user.Role {
	case domain.RoleCompanyManager, domain.RoleDeputyManager:
		return true
	case domain.RoleDepartmentManager, domain.RoleSectionSupervisor:
		return user.DepartmentID != nil && *user.DepartmentID == request.DepartmentID
	case domain.RoleTechnician:
		if request.AssignedTechnicianID != nil && *request.AssignedTechnicianID == user.ID {
			return true
		}
		return request.ReceivedByID == user.ID
	default:
		return false
	}
}

// CanAssignTechnician reports whether the role may assign technicians.
func CanAssignTechnician(role domain.Role) bool {
	return roleIn(role, AssignerLevel)
}

// CanChangeStatus reports whether the user may move a request along the
// status graph. Warehouse keepers never can; everyone else needs request
// visibility.
func CanChangeStatus(user *domain.User, request *domain.ServiceRequest) bool {
	if user == nil || user.Role == domain.RoleWarehouseKeeper {
		return false
	}
	return CanAccessRequest(user, request)
}

// CanModifyInventory reports whether the role may mutate spare-part stock
// and request-part records.
func CanModifyInventory(role domain.Role) bool {
	return roleIn(role, InventoryWriters)
}

func roleIn(role domain.Role, set []domain.Role) bool {
	for _, candidate := range set {
		if candidate == role {
			return true
		}
	}
	return false
}
