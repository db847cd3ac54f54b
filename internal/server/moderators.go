package server

import (
	"net/http"

	"github.com/civicgrid/user-service/internal/users"
	"github.com/gin-gonic/gin"
)

type createModeratorRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	PhoneNumber string `json:"phoneNumber"`
}

type updateModeratorRequest struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,min=6"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (h *httpHandler) createModerator(c *gin.Context) {
	var req createModeratorRequest
	if !bindJSON(c, &req) {
		return
	}

	moderator := &users.Moderator{
		Account: users.Account{
			Email:       req.Email,
			Password:    req.Password,
			PhoneNumber: req.PhoneNumber,
		},
	}
	if err := h.directory.Moderators.Create(c.Request.Context(), moderator); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, moderatorPayload(moderator))
}

func (h *httpHandler) getCurrentModerator(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	moderator, err := h.directory.Moderators.Find(c.Request.Context(), principal.UID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, moderatorPayload(moderator))
}

func (h *httpHandler) getModerator(c *gin.Context) {
	moderator, err := h.directory.Moderators.Find(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, moderatorPayload(moderator))
}

func (h *httpHandler) updateModerator(c *gin.Context) {
	var req updateModeratorRequest
	if !bindJSON(c, &req) {
		return
	}

	moderator, err := h.directory.Moderators.Find(c.Request.Context(), c.Param("uid"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if req.Email != nil {
		moderator.Email = *req.Email
	}
	if req.Password != nil {
		moderator.Password = *req.Password
	}
	if req.PhoneNumber != nil {
		moderator.PhoneNumber = *req.PhoneNumber
	}

	updated, err := h.directory.Moderators.Update(c.Request.Context(), moderator)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, moderatorPayload(updated))
}

func (h *httpHandler) deleteModerator(c *gin.Context) {
	if err := h.directory.Moderators.Delete(c.Request.Context(), c.Param("uid")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
