package server

import (
	"net/http"

	"github.com/civicgrid/user-service/internal/users"
	"github.com/gin-gonic/gin"
)

var employeeSortFields = map[string]string{
	"firstName":    "firstName",
	"lastName":     "lastName",
	"creationDate": "creationDate",
}

type createEmployeeRequest struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	FirstName     string `json:"firstName" binding:"required"`
	LastName      string `json:"lastName" binding:"required"`
	PhoneNumber   string `json:"phoneNumber"`
	DepartmentUID string `json:"departmentUid" binding:"required"`
}

type updateEmployeeRequest struct {
	Email         *string `json:"email" binding:"omitempty,email"`
	Password      *string `json:"password" binding:"omitempty,min=6"`
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	PhoneNumber   *string `json:"phoneNumber"`
	DepartmentUID *string `json:"departmentUid"`
}

func (h *httpHandler) createEmployee(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req createEmployeeRequest
	if !bindJSON(c, &req) {
		return
	}

	employee := &users.Employee{
		Account: users.Account{
			Email:       req.Email,
			Password:    req.Password,
			PhoneNumber: req.PhoneNumber,
		},
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		DepartmentUID: req.DepartmentUID,
	}
	if err := h.directory.CreateEmployee(c.Request.Context(), principal.UID, employee); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, employeePayload(employee))
}

func (h *httpHandler) getCurrentEmployee(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	employee, err := h.directory.Employees.Find(c.Request.Context(), principal.UID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, employeePayload(employee))
}

func (h *httpHandler) getEmployee(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	uid := c.Param("uid")
	if !h.employeeVisible(c, principal.Role, principal.UID, uid) {
		return
	}

	employee, err := h.directory.Employees.Find(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, employeePayload(employee))
}

func (h *httpHandler) updateEmployee(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	uid := c.Param("uid")
	if !h.employeeVisible(c, principal.Role, principal.UID, uid) {
		return
	}
	var req updateEmployeeRequest
	if !bindJSON(c, &req) {
		return
	}

	employee, err := h.directory.Employees.Find(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if req.Email != nil {
		employee.Email = *req.Email
	}
	if req.Password != nil {
		employee.Password = *req.Password
	}
	if req.FirstName != nil {
		employee.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		employee.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		employee.PhoneNumber = *req.PhoneNumber
	}
	if req.DepartmentUID != nil && *req.DepartmentUID != employee.DepartmentUID {
		owned, ownErr := h.directory.ServiceOwnsDepartment(c.Request.Context(), principal.UID, *req.DepartmentUID)
		if ownErr != nil {
			h.writeError(c, ownErr)
			return
		}
		if !owned {
			h.writeError(c, users.NewNotFound("Department", *req.DepartmentUID))
			return
		}
		employee.DepartmentUID = *req.DepartmentUID
	}

	updated, err := h.directory.Employees.Update(c.Request.Context(), employee)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, employeePayload(updated))
}

func (h *httpHandler) deleteEmployee(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	uid := c.Param("uid")
	if !h.employeeVisible(c, principal.Role, principal.UID, uid) {
		return
	}
	if err := h.directory.Employees.Delete(c.Request.Context(), uid); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// employeeVisible enforces that a service only reaches its own employees.
// Foreign employees read as absent, never as forbidden.
func (h *httpHandler) employeeVisible(c *gin.Context, role users.Role, callerUID, employeeUID string) bool {
	if role != users.RoleService {
		return true
	}
	owned, err := h.directory.ServiceOwnsEmployee(c.Request.Context(), callerUID, employeeUID)
	if err != nil {
		h.writeError(c, err)
		return false
	}
	if !owned {
		h.writeError(c, users.NewNotFound("Employee", employeeUID))
		return false
	}
	return true
}

func (h *httpHandler) updateEmployeePhoto(c *gin.Context) {
	h.updatePhoto(c, "employees")
}
