package server

import (
	"net/http"

	"github.com/civicgrid/user-service/internal/users"
	"github.com/gin-gonic/gin"
)

var departmentSortFields = map[string]string{
	"name":         "name",
	"creationDate": "creationDate",
}

type createDepartmentRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	PhoneNumber string  `json:"phoneNumber"`
	Categories  []int64 `json:"categories"`
}

type updateDepartmentRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Address     *string  `json:"address"`
	PhoneNumber *string  `json:"phoneNumber"`
	Categories  *[]int64 `json:"categories"`
}

func (h *httpHandler) createDepartment(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req createDepartmentRequest
	if !bindJSON(c, &req) {
		return
	}

	department := &users.Department{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
		Categories:  req.Categories,
	}
	if err := h.directory.CreateDepartment(c.Request.Context(), principal.UID, department); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, departmentPayload(department))
}

func (h *httpHandler) getDepartment(c *gin.Context) {
	department, err := h.directory.Departments.Find(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, departmentPayload(department))
}

func (h *httpHandler) listDepartmentEmployees(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	uid := c.Param("uid")
	if !h.departmentOwned(c, principal.UID, uid) {
		return
	}
	pageable := parsePageable(c, employeeSortFields, "creationDate")

	result, err := h.directory.EmployeesByDepartment(c.Request.Context(), uid, pageable)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagedPayload(result, employeePayload))
}

func (h *httpHandler) updateDepartment(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	uid := c.Param("uid")
	if !h.departmentOwned(c, principal.UID, uid) {
		return
	}
	var req updateDepartmentRequest
	if !bindJSON(c, &req) {
		return
	}

	department, err := h.directory.Departments.Find(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if req.Name != nil {
		department.Name = *req.Name
	}
	if req.Description != nil {
		department.Description = *req.Description
	}
	if req.Address != nil {
		department.Address = *req.Address
	}
	if req.PhoneNumber != nil {
		department.PhoneNumber = *req.PhoneNumber
	}
	if req.Categories != nil {
		department.Categories = *req.Categories
	}

	updated, err := h.directory.Departments.Update(c.Request.Context(), department)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, departmentPayload(updated))
}

func (h *httpHandler) deleteDepartment(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	uid := c.Param("uid")
	if !h.departmentOwned(c, principal.UID, uid) {
		return
	}
	if err := h.directory.Departments.Delete(c.Request.Context(), uid); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// departmentOwned hides departments of other services as absent.
func (h *httpHandler) departmentOwned(c *gin.Context, serviceUID, departmentUID string) bool {
	owned, err := h.directory.ServiceOwnsDepartment(c.Request.Context(), serviceUID, departmentUID)
	if err != nil {
		h.writeError(c, err)
		return false
	}
	if !owned {
		h.writeError(c, users.NewNotFound("Department", departmentUID))
		return false
	}
	return true
}
