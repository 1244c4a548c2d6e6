package domain

import "time"

// Role enumerates operator roles across the service organization.
type Role string

const (
	RoleCompanyManager    Role = "COMPANY_MANAGER"
	RoleDeputyManager     Role = "DEPUTY_MANAGER"
	RoleDepartmentManager Role = "DEPARTMENT_MANAGER"
	RoleSectionSupervisor Role = "SECTION_SUPERVISOR"
	RoleTechnician        Role = "TECHNICIAN"
	RoleWarehouseKeeper   Role = "WAREHOUSE_KEEPER"
)

// User models an internal operator: managers, technicians, warehouse keepers.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	DepartmentID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
