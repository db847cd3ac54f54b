package directory

import (
	"github.com/civicgrid/user-service/internal/docstore"
	"github.com/civicgrid/user-service/internal/identity"
	"github.com/civicgrid/user-service/internal/users"
)

const (
	fieldFirstName     = "firstName"
	fieldLastName      = "lastName"
	fieldName          = "name"
	fieldDescription   = "description"
	fieldAddress       = "address"
	fieldPhoneNumber   = "phoneNumber"
	fieldCategories    = "categories"
	fieldServiceUID    = "serviceUid"
	fieldDepartmentUID = "departmentUid"
)

func residentDescriptor(collection string) Descriptor[users.Resident] {
	return Descriptor[users.Resident]{
		Kind:       "Resident",
		Role:       users.RoleResident,
		Collection: collection,
		Account:    func(r *users.Resident) *users.Account { return &r.Account },
		DisplayName: func(r *users.Resident) string {
			return r.FirstName + " " + r.LastName
		},
		Encode: func(r *users.Resident) map[string]any {
			return map[string]any{
				fieldFirstName: r.FirstName,
				fieldLastName:  r.LastName,
			}
		},
		Decode: func(r *users.Resident, fields map[string]any) {
			r.FirstName = docstore.String(fields, fieldFirstName)
			r.LastName = docstore.String(fields, fieldLastName)
		},
		Diff: func(r *users.Resident, fields map[string]any) map[string]any {
			patch := map[string]any{}
			if r.FirstName != docstore.String(fields, fieldFirstName) {
				patch[fieldFirstName] = r.FirstName
			}
			if r.LastName != docstore.String(fields, fieldLastName) {
				patch[fieldLastName] = r.LastName
			}
			return patch
		},
	}
}

func serviceDescriptor(collection string) Descriptor[users.Service] {
	return Descriptor[users.Service]{
		Kind:                  "Service",
		Role:                  users.RoleService,
		Collection:            collection,
		CreateEmailVerified:   true,
		EmailVerifiedOnChange: true,
		Account:               func(s *users.Service) *users.Account { return &s.Account },
		DisplayName:           func(s *users.Service) string { return s.Name },
		Encode: func(s *users.Service) map[string]any {
			return map[string]any{
				fieldName:        s.Name,
				fieldDescription: s.Description,
				fieldAddress:     s.Address,
			}
		},
		Decode: func(s *users.Service, fields map[string]any) {
			s.Name = docstore.String(fields, fieldName)
			s.Description = docstore.String(fields, fieldDescription)
			s.Address = docstore.String(fields, fieldAddress)
		},
		Diff: func(s *users.Service, fields map[string]any) map[string]any {
			patch := map[string]any{}
			if s.Name != docstore.String(fields, fieldName) {
				patch[fieldName] = s.Name
			}
			if s.Description != docstore.String(fields, fieldDescription) {
				patch[fieldDescription] = s.Description
			}
			if s.Address != docstore.String(fields, fieldAddress) {
				patch[fieldAddress] = s.Address
			}
			return patch
		},
	}
}

func employeeDescriptor(collection string) Descriptor[users.Employee] {
	return Descriptor[users.Employee]{
		Kind:                  "Employee",
		Role:                  users.RoleEmployee,
		Collection:            collection,
		CreateEmailVerified:   true,
		EmailVerifiedOnChange: true,
		Account:               func(e *users.Employee) *users.Account { return &e.Account },
		DisplayName: func(e *users.Employee) string {
			return e.FirstName + " " + e.LastName
		},
		Encode: func(e *users.Employee) map[string]any {
			return map[string]any{
				fieldFirstName:     e.FirstName,
				fieldLastName:      e.LastName,
				fieldServiceUID:    e.ServiceUID,
				fieldDepartmentUID: e.DepartmentUID,
			}
		},
		Decode: func(e *users.Employee, fields map[string]any) {
			e.FirstName = docstore.String(fields, fieldFirstName)
			e.LastName = docstore.String(fields, fieldLastName)
			e.ServiceUID = docstore.String(fields, fieldServiceUID)
			e.DepartmentUID = docstore.String(fields, fieldDepartmentUID)
		},
		Diff: func(e *users.Employee, fields map[string]any) map[string]any {
			patch := map[string]any{}
			if e.FirstName != docstore.String(fields, fieldFirstName) {
				patch[fieldFirstName] = e.FirstName
			}
			if e.LastName != docstore.String(fields, fieldLastName) {
				patch[fieldLastName] = e.LastName
			}
			if e.ServiceUID != docstore.String(fields, fieldServiceUID) {
				patch[fieldServiceUID] = e.ServiceUID
			}
			if e.DepartmentUID != docstore.String(fields, fieldDepartmentUID) {
				patch[fieldDepartmentUID] = e.DepartmentUID
			}
			return patch
		},
		ExtraClaims: func(e *users.Employee) identity.Claims {
			return identity.Claims{
				fieldServiceUID:    e.ServiceUID,
				fieldDepartmentUID: e.DepartmentUID,
			}
		},
	}
}

func moderatorDescriptor(collection string) Descriptor[users.Moderator] {
	return Descriptor[users.Moderator]{
		Kind:                  "Moderator",
		Role:                  users.RoleModerator,
		Collection:            collection,
		CreateEmailVerified:   true,
		EmailVerifiedOnChange: true,
		Account:               func(m *users.Moderator) *users.Account { return &m.Account },
		DisplayName:           func(m *users.Moderator) string { return m.Email },
		Encode: func(m *users.Moderator) map[string]any {
			return map[string]any{}
		},
		Decode: func(m *users.Moderator, fields map[string]any) {},
		Diff: func(m *users.Moderator, fields map[string]any) map[string]any {
			return nil
		},
	}
}

func analystDescriptor(collection string) Descriptor[users.Analyst] {
	return Descriptor[users.Analyst]{
		Kind:                  "Analyst",
		Role:                  users.RoleAnalyst,
		Collection:            collection,
		CreateEmailVerified:   true,
		EmailVerifiedOnChange: true,
		Account:               func(a *users.Analyst) *users.Account { return &a.Account },
		DisplayName:           func(a *users.Analyst) string { return a.Name },
		Encode: func(a *users.Analyst) map[string]any {
			return map[string]any{
				fieldName:        a.Name,
				fieldDescription: a.Description,
			}
		},
		Decode: func(a *users.Analyst, fields map[string]any) {
			a.Name = docstore.String(fields, fieldName)
			a.Description = docstore.String(fields, fieldDescription)
		},
		Diff: func(a *users.Analyst, fields map[string]any) map[string]any {
			patch := map[string]any{}
			if a.Name != docstore.String(fields, fieldName) {
				patch[fieldName] = a.Name
			}
			if a.Description != docstore.String(fields, fieldDescription) {
				patch[fieldDescription] = a.Description
			}
			return patch
		},
	}
}
