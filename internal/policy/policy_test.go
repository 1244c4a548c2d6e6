package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/aftersales-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestCanAccessRequest(t *testing.T) {
	request := &domain.ServiceRequest{
		ID:                   "req-1",
		DepartmentID:         "dept-a",
		ReceivedByID:         "receiver-1",
		AssignedTechnicianID: strPtr("tech-1"),
	}

	tests := []struct {
		name string
		user *domain.User
		want bool
	}{
		{"company manager any department", &domain.User{ID: "u1", Role: domain.RoleCompanyManager, DepartmentID: strPtr("dept-z")}, true},
		{"deputy manager no department", &domain.User{ID: "u2", Role: domain.RoleDeputyManager}, true},
		{"department manager same department", &domain.User{ID: "u3", Role: domain.RoleDepartmentManager, DepartmentID: strPtr("dept-a")}, true},
		{"department manager other department", &domain.User{ID: "u4", Role: domain.RoleDepartmentManager, DepartmentID: strPtr("dept-b")}, false},
		{"section supervisor same department", &domain.User{ID: "u5", Role: domain.RoleSectionSupervisor, DepartmentID: strPtr("dept-a")}, true},
		{"section supervisor no department", &domain.User{ID: "u6", Role: domain.RoleSectionSupervisor}, false},
		{"assigned technician", &domain.User{ID: "tech-1", Role: domain.RoleTechnician, DepartmentID: strPtr("dept-a")}, true},
		{"receiving technician", &domain.User{ID: "receiver-1", Role: domain.RoleTechnician}, true},
		{"unrelated technician same department", &domain.User{ID: "tech-9", Role: domain.RoleTechnician, DepartmentID: strPtr("dept-a")}, false},
		{"warehouse keeper", &domain.User{ID: "wh-1", Role: domain.RoleWarehouseKeeper, DepartmentID: strPtr("dept-a")}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanAccessRequest(tc.user, request))
		})
	}
}

func TestCanAccessRequestNilInputs(t *testing.T) {
	assert.False(t, CanAccessRequest(nil, &domain.ServiceRequest{}))
	assert.False(t, CanAccessRequest(&domain.User{Role: domain.RoleCompanyManager}, nil))
}

func TestCanAssignTechnician(t *testing.T) {
	assert.True(t, CanAssignTechnician(domain.RoleCompanyManager))
	assert.True(t, CanAssignTechnician(domain.RoleDeputyManager))
	assert.True(t, CanAssignTechnician(domain.RoleDepartmentManager))
	assert.True(t, CanAssignTechnician(domain.RoleSectionSupervisor))
	assert.False(t, CanAssignTechnician(domain.RoleTechnician))
	assert.False(t, CanAssignTechnician(domain.RoleWarehouseKeeper))
}

func TestCanChangeStatus(t *testing.T) {
	request := &domain.ServiceRequest{
		ID:           "req-1",
		DepartmentID: "dept-a",
		ReceivedByID: "receiver-1",
	}

	assert.True(t, CanChangeStatus(&domain.User{ID: "u1", Role: domain.RoleCompanyManager}, request))
	assert.True(t, CanChangeStatus(&domain.User{ID: "receiver-1", Role: domain.RoleTechnician}, request))
	assert.False(t, CanChangeStatus(&domain.User{ID: "wh-1", Role: domain.RoleWarehouseKeeper, DepartmentID: strPtr("dept-a")}, request))
	assert.False(t, CanChangeStatus(nil, request))
}

func TestCanModifyInventory(t *testing.T) {
	assert.True(t, CanModifyInventory(domain.RoleWarehouseKeeper))
	for _, role := range []domain.Role{
		domain.RoleCompanyManager,
		domain.RoleDeputyManager,
		domain.RoleDepartmentManager,
		domain.RoleSectionSupervisor,
		domain.RoleTechnician,
	} {
		assert.False(t, CanModifyInventory(role), "role %s must not write inventory", role)
	}
}
