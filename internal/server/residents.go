package server

import (
	"net/http"

	"github.com/civicgrid/user-service/internal/users"
	"github.com/gin-gonic/gin"
)

type createResidentRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	PhoneNumber string `json:"phoneNumber"`
}

type updateResidentRequest struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,min=6"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	PhoneNumber *string `json:"phoneNumber"`
}

func (req updateResidentRequest) apply(resident *users.Resident) {
	if req.Email != nil {
		resident.Email = *req.Email
	}
	if req.Password != nil {
		resident.Password = *req.Password
	}
	if req.FirstName != nil {
		resident.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		resident.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		resident.PhoneNumber = *req.PhoneNumber
	}
}

func (h *httpHandler) createResident(c *gin.Context) {
	var req createResidentRequest
	if !bindJSON(c, &req) {
		return
	}

	resident := &users.Resident{
		Account: users.Account{
			Email:       req.Email,
			Password:    req.Password,
			PhoneNumber: req.PhoneNumber,
		},
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := h.directory.Residents.Create(c.Request.Context(), resident); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, residentPayload(resident))
}

func (h *httpHandler) getCurrentResident(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	resident, err := h.directory.Residents.Find(c.Request.Context(), principal.UID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, residentPayload(resident))
}

func (h *httpHandler) getResident(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	uid := c.Param("uid")
	resident, err := h.directory.Residents.Find(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if resident.Status != users.StatusActive && !canViewInactive(principal, uid) {
		h.writeError(c, users.NewNotFound("Resident", uid))
		return
	}
	c.JSON(http.StatusOK, residentPayload(resident))
}

func (h *httpHandler) updateCurrentResident(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	h.applyResidentUpdate(c, principal.UID)
}

func (h *httpHandler) updateResident(c *gin.Context) {
	h.applyResidentUpdate(c, c.Param("uid"))
}

func (h *httpHandler) applyResidentUpdate(c *gin.Context, uid string) {
	var req updateResidentRequest
	if !bindJSON(c, &req) {
		return
	}

	resident, err := h.directory.Residents.Find(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err)
		return
	}
	req.apply(resident)

	updated, err := h.directory.Residents.Update(c.Request.Context(), resident)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, residentPayload(updated))
}

func (h *httpHandler) deleteResident(c *gin.Context) {
	if err := h.directory.Residents.Delete(c.Request.Context(), c.Param("uid")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) getCurrentResidentIssues(c *gin.Context) {
	if !h.requireIssues(c) {
		return
	}
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	issues, err := h.issues.ListByAuthor(c.Request.Context(), principal.Bearer, principal.UID, c.Query("status"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (h *httpHandler) getCurrentResidentIssuesCount(c *gin.Context) {
	if !h.requireIssues(c) {
		return
	}
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	count, err := h.issues.CountByAuthor(c.Request.Context(), principal.Bearer, principal.UID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *httpHandler) getResidentIssuesCount(c *gin.Context) {
	if !h.requireIssues(c) {
		return
	}
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	count, err := h.issues.CountByAuthor(c.Request.Context(), principal.Bearer, c.Param("uid"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *httpHandler) updateResidentPhoto(c *gin.Context) {
	h.updatePhoto(c, "residents")
}
