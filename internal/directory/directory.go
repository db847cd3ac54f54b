package directory

import (
	"context"
	"fmt"

	"github.com/civicgrid/user-service/internal/docstore"
	"github.com/civicgrid/user-service/internal/identity"
	"github.com/civicgrid/user-service/internal/pagination"
	"github.com/civicgrid/user-service/internal/users"
	"go.uber.org/zap"
)

// Collections names the document collection per user kind.
type Collections struct {
	Residents   string
	Services    string
	Employees   string
	Departments string
	Moderators  string
	Analysts    string
}

func (c Collections) withDefaults() Collections {
	def := func(value, fallback string) string {
		if value == "" {
			return fallback
		}
		return value
	}
	return Collections{
		Residents:   def(c.Residents, "residents"),
		Services:    def(c.Services, "services"),
		Employees:   def(c.Employees, "employees"),
		Departments: def(c.Departments, "departments"),
		Moderators:  def(c.Moderators, "moderators"),
		Analysts:    def(c.Analysts, "analysts"),
	}
}

// Config describes the dependencies of the directory.
type Config struct {
	Provider    identity.Provider
	Store       docstore.Store
	Collections Collections
	Logger      *zap.Logger
}

// Directory aggregates the per-kind reconcilers and carries the operations
// that cross kind boundaries, in particular the employee → department →
// service ownership chain.
type Directory struct {
	Residents   *Reconciler[users.Resident]
	Services    *Reconciler[users.Service]
	Employees   *Reconciler[users.Employee]
	Moderators  *Reconciler[users.Moderator]
	Analysts    *Reconciler[users.Analyst]
	Departments *DepartmentStore
}

// New wires every kind against the shared adapters.
func New(cfg Config) (*Directory, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("directory: identity provider required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("directory: document store required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	collections := cfg.Collections.withDefaults()

	residents, err := NewReconciler(residentDescriptor(collections.Residents), cfg.Provider, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	services, err := NewReconciler(serviceDescriptor(collections.Services), cfg.Provider, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	employees, err := NewReconciler(employeeDescriptor(collections.Employees), cfg.Provider, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	moderators, err := NewReconciler(moderatorDescriptor(collections.Moderators), cfg.Provider, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	analysts, err := NewReconciler(analystDescriptor(collections.Analysts), cfg.Provider, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	departments, err := NewDepartmentStore(cfg.Store, collections.Departments)
	if err != nil {
		return nil, err
	}

	return &Directory{
		Residents:   residents,
		Services:    services,
		Employees:   employees,
		Moderators:  moderators,
		Analysts:    analysts,
		Departments: departments,
	}, nil
}

// CreateDepartment creates a department owned by the calling service.
func (d *Directory) CreateDepartment(ctx context.Context, serviceUID string, department *users.Department) error {
	department.ServiceUID = serviceUID
	return d.Departments.Create(ctx, department)
}

// CreateEmployee creates an employee under the calling service. The
// department reference must resolve to a department owned by that same
// service; a foreign department reads as not found, never as forbidden.
func (d *Directory) CreateEmployee(ctx context.Context, serviceUID string, employee *users.Employee) error {
	employee.ServiceUID = serviceUID

	department, err := d.Departments.Find(ctx, employee.DepartmentUID)
	if err != nil {
		return err
	}
	if department.ServiceUID != serviceUID {
		return users.NewNotFound(departmentKind, employee.DepartmentUID)
	}

	return d.Employees.Create(ctx, employee)
}

// ServiceOwnsDepartment reports whether the department belongs to the service.
func (d *Directory) ServiceOwnsDepartment(ctx context.Context, serviceUID, departmentUID string) (bool, error) {
	department, err := d.Departments.Find(ctx, departmentUID)
	if err != nil {
		return false, err
	}
	return department.ServiceUID == serviceUID, nil
}

// ServiceOwnsEmployee reports whether the employee belongs to the service.
func (d *Directory) ServiceOwnsEmployee(ctx context.Context, serviceUID, employeeUID string) (bool, error) {
	employee, err := d.Employees.Find(ctx, employeeUID)
	if err != nil {
		return false, err
	}
	return employee.ServiceUID == serviceUID, nil
}

// EmployeesByService pages the employees of one service.
func (d *Directory) EmployeesByService(ctx context.Context, serviceUID string, pageable pagination.Pageable) (pagination.PagedResult[*users.Employee], error) {
	return d.Employees.List(ctx, docstore.Filter{docstore.Eq(fieldServiceUID, serviceUID)}, pageable)
}

// EmployeesByDepartment pages the employees of one department.
func (d *Directory) EmployeesByDepartment(ctx context.Context, departmentUID string, pageable pagination.Pageable) (pagination.PagedResult[*users.Employee], error) {
	return d.Employees.List(ctx, docstore.Filter{docstore.Eq(fieldDepartmentUID, departmentUID)}, pageable)
}

// DepartmentsByService pages the departments of one service.
func (d *Directory) DepartmentsByService(ctx context.Context, serviceUID string, pageable pagination.Pageable) (pagination.PagedResult[*users.Department], error) {
	return d.Departments.ListByService(ctx, serviceUID, pageable)
}
