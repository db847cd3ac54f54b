package server

import (
	"net/http"

	"github.com/civicgrid/user-service/internal/users"
	"github.com/gin-gonic/gin"
)

type createAnalystRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PhoneNumber string `json:"phoneNumber"`
}

type updateAnalystRequest struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,min=6"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (h *httpHandler) createAnalyst(c *gin.Context) {
	var req createAnalystRequest
	if !bindJSON(c, &req) {
		return
	}

	analyst := &users.Analyst{
		Account: users.Account{
			Email:       req.Email,
			Password:    req.Password,
			PhoneNumber: req.PhoneNumber,
		},
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.directory.Analysts.Create(c.Request.Context(), analyst); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, analystPayload(analyst))
}

func (h *httpHandler) getCurrentAnalyst(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	analyst, err := h.directory.Analysts.Find(c.Request.Context(), principal.UID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analystPayload(analyst))
}

func (h *httpHandler) getAnalyst(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	uid := c.Param("uid")
	analyst, err := h.directory.Analysts.Find(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if analyst.Status != users.StatusActive && !canViewInactive(principal, uid) {
		h.writeError(c, users.NewNotFound("Analyst", uid))
		return
	}
	c.JSON(http.StatusOK, analystPayload(analyst))
}

func (h *httpHandler) updateCurrentAnalyst(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	var req updateAnalystRequest
	if !bindJSON(c, &req) {
		return
	}

	analyst, err := h.directory.Analysts.Find(c.Request.Context(), principal.UID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if req.Email != nil {
		analyst.Email = *req.Email
	}
	if req.Password != nil {
		analyst.Password = *req.Password
	}
	if req.Name != nil {
		analyst.Name = *req.Name
	}
	if req.Description != nil {
		analyst.Description = *req.Description
	}
	if req.PhoneNumber != nil {
		analyst.PhoneNumber = *req.PhoneNumber
	}

	updated, err := h.directory.Analysts.Update(c.Request.Context(), analyst)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analystPayload(updated))
}

func (h *httpHandler) deleteAnalyst(c *gin.Context) {
	if err := h.directory.Analysts.Delete(c.Request.Context(), c.Param("uid")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
