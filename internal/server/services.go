package server

import (
	"net/http"

	"github.com/civicgrid/user-service/internal/directory"
	"github.com/civicgrid/user-service/internal/users"
	"github.com/gin-gonic/gin"
)

var serviceSortFields = map[string]string{
	"name":         "name",
	"creationDate": "creationDate",
	"status":       "status",
}

type createServiceRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
}

type updateServiceRequest struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,min=6"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (req updateServiceRequest) apply(service *users.Service) {
	if req.Email != nil {
		service.Email = *req.Email
	}
	if req.Password != nil {
		service.Password = *req.Password
	}
	if req.Name != nil {
		service.Name = *req.Name
	}
	if req.Description != nil {
		service.Description = *req.Description
	}
	if req.Address != nil {
		service.Address = *req.Address
	}
	if req.PhoneNumber != nil {
		service.PhoneNumber = *req.PhoneNumber
	}
}

func (h *httpHandler) createService(c *gin.Context) {
	var req createServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	service := &users.Service{
		Account: users.Account{
			Email:       req.Email,
			Password:    req.Password,
			PhoneNumber: req.PhoneNumber,
		},
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
	}
	if err := h.directory.Services.Create(c.Request.Context(), service); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, servicePayload(service))
}

func (h *httpHandler) listServices(c *gin.Context) {
	statuses, ok := parseStatuses(c)
	if !ok {
		return
	}
	pageable := parsePageable(c, serviceSortFields, "creationDate")

	result, err := h.directory.Services.List(c.Request.Context(), directory.StatusFilter(statuses), pageable)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagedPayload(result, servicePayload))
}

func (h *httpHandler) countServices(c *gin.Context) {
	statuses, ok := parseStatuses(c)
	if !ok {
		return
	}
	count, err := h.directory.Services.Count(c.Request.Context(), directory.StatusFilter(statuses))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *httpHandler) getCurrentService(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	service, err := h.directory.Services.Find(c.Request.Context(), principal.UID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, servicePayload(service))
}

func (h *httpHandler) getService(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	uid := c.Param("uid")
	service, err := h.directory.Services.Find(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if service.Status != users.StatusActive && !canViewInactive(principal, uid) {
		h.writeError(c, users.NewNotFound("Service", uid))
		return
	}
	c.JSON(http.StatusOK, servicePayload(service))
}

func (h *httpHandler) updateCurrentService(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req updateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	service, err := h.directory.Services.Find(c.Request.Context(), principal.UID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	req.apply(service)

	updated, err := h.directory.Services.Update(c.Request.Context(), service)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, servicePayload(updated))
}

func (h *httpHandler) deleteService(c *gin.Context) {
	if err := h.directory.Services.Delete(c.Request.Context(), c.Param("uid")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) listCurrentServiceDepartments(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	pageable := parsePageable(c, departmentSortFields, "creationDate")

	result, err := h.directory.DepartmentsByService(c.Request.Context(), principal.UID, pageable)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagedPayload(result, departmentPayload))
}

func (h *httpHandler) listCurrentServiceEmployees(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	pageable := parsePageable(c, employeeSortFields, "creationDate")

	result, err := h.directory.EmployeesByService(c.Request.Context(), principal.UID, pageable)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagedPayload(result, employeePayload))
}

func (h *httpHandler) getServiceIssuesCount(c *gin.Context) {
	if !h.requireIssues(c) {
		return
	}
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	count, err := h.issues.CountByService(c.Request.Context(), principal.Bearer, c.Param("uid"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *httpHandler) updateServicePhoto(c *gin.Context) {
	h.updatePhoto(c, "services")
}
