package server

import (
	"fmt"
	"net/http"

	"github.com/civicgrid/user-service/internal/directory"
	"github.com/civicgrid/user-service/internal/users"
	"github.com/gin-gonic/gin"
)

var residentSortFields = map[string]string{
	"firstName":    "firstName",
	"lastName":     "lastName",
	"creationDate": "creationDate",
	"status":       "status",
}

var accountSortFields = map[string]string{
	"creationDate": "creationDate",
	"status":       "status",
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *httpHandler) adminListResidents(c *gin.Context) {
	statuses, ok := parseStatuses(c)
	if !ok {
		return
	}
	pageable := parsePageable(c, residentSortFields, "creationDate")

	result, err := h.directory.Residents.List(c.Request.Context(), directory.StatusFilter(statuses), pageable)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagedPayload(result, residentPayload))
}

func (h *httpHandler) adminListServices(c *gin.Context) {
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

func (h *httpHandler) adminListModerators(c *gin.Context) {
	statuses, ok := parseStatuses(c)
	if !ok {
		return
	}
	pageable := parsePageable(c, accountSortFields, "creationDate")

	result, err := h.directory.Moderators.List(c.Request.Context(), directory.StatusFilter(statuses), pageable)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagedPayload(result, moderatorPayload))
}

func (h *httpHandler) adminListAnalysts(c *gin.Context) {
	statuses, ok := parseStatuses(c)
	if !ok {
		return
	}
	pageable := parsePageable(c, accountSortFields, "creationDate")

	result, err := h.directory.Analysts.List(c.Request.Context(), directory.StatusFilter(statuses), pageable)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pagedPayload(result, analystPayload))
}

func (h *httpHandler) adminUpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status, ok := users.ParseStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", req.Status)})
		return
	}

	ctx := c.Request.Context()
	uid := c.Param("uid")
	var (
		payload any
		err     error
	)
	switch c.Param("kind") {
	case "residents":
		var resident *users.Resident
		if resident, err = h.directory.Residents.UpdateStatus(ctx, uid, status); err == nil {
			payload = residentPayload(resident)
		}
	case "services":
		var service *users.Service
		if service, err = h.directory.Services.UpdateStatus(ctx, uid, status); err == nil {
			payload = servicePayload(service)
		}
	case "employees":
		var employee *users.Employee
		if employee, err = h.directory.Employees.UpdateStatus(ctx, uid, status); err == nil {
			payload = employeePayload(employee)
		}
	case "moderators":
		var moderator *users.Moderator
		if moderator, err = h.directory.Moderators.UpdateStatus(ctx, uid, status); err == nil {
			payload = moderatorPayload(moderator)
		}
	case "analysts":
		var analyst *users.Analyst
		if analyst, err = h.directory.Analysts.UpdateStatus(ctx, uid, status); err == nil {
			payload = analystPayload(analyst)
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown user kind"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (h *httpHandler) adminPurge(c *gin.Context) {
	ctx := c.Request.Context()
	uid := c.Param("uid")

	var err error
	switch c.Param("kind") {
	case "residents":
		err = h.directory.Residents.Purge(ctx, uid)
	case "services":
		err = h.directory.Services.Purge(ctx, uid)
	case "employees":
		err = h.directory.Employees.Purge(ctx, uid)
	case "moderators":
		err = h.directory.Moderators.Purge(ctx, uid)
	case "analysts":
		err = h.directory.Analysts.Purge(ctx, uid)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown user kind"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
