package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/civicgrid/user-service/internal/authz"
	"github.com/civicgrid/user-service/internal/identity"
	"github.com/civicgrid/user-service/internal/pagination"
	"github.com/civicgrid/user-service/internal/photos"
	"github.com/civicgrid/user-service/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// pagedResponse is the envelope every list endpoint returns.
type pagedResponse struct {
	Items       any   `json:"items"`
	CurrentPage int   `json:"currentPage"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}

func pagedPayload[T, P any](result pagination.PagedResult[T], convert func(T) P) pagedResponse {
	items := make([]P, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, convert(item))
	}
	return pagedResponse{
		Items:       items,
		CurrentPage: result.CurrentPage,
		TotalItems:  result.TotalItems,
		TotalPages:  result.TotalPages,
	}
}

// writeError translates domain errors into the HTTP taxonomy. Upstream
// failures stay generic on the wire and detailed in the log.
func (h *httpHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, users.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, users.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, users.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, users.ErrValidation),
		errors.Is(err, photos.ErrUnsupportedType),
		errors.Is(err, photos.ErrTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, identity.ErrEmailExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindJSON decodes and validates a request body, answering 400 with
// field-level messages on structural failure.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			messages := make([]string, 0, len(fieldErrors))
			for _, fieldError := range fieldErrors {
				messages = append(messages, fmt.Sprintf("%s: failed %q validation", fieldError.Field(), fieldError.Tag()))
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": messages})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// parsePageable reads page/size/order_by/order query parameters. sortFields
// maps accepted order_by values to document field names; unknown values
// fall back to defaultSort.
func parsePageable(c *gin.Context, sortFields map[string]string, defaultSort string) pagination.Pageable {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(pagination.DefaultPageSize)))

	sortField := defaultSort
	if requested, ok := sortFields[c.Query("order_by")]; ok {
		sortField = requested
	}

	direction := pagination.Desc
	if strings.EqualFold(c.Query("order"), string(pagination.Asc)) {
		direction = pagination.Asc
	}

	return pagination.NewPageable(page, size, sortField, direction)
}

// parseStatuses reads the comma-separated statuses filter. ok=false means
// the parameter held an unknown status and a 400 was written.
func parseStatuses(c *gin.Context) ([]users.Status, bool) {
	raw := strings.TrimSpace(c.Query("statuses"))
	if raw == "" {
		return nil, true
	}
	parts := strings.Split(raw, ",")
	statuses := make([]users.Status, 0, len(parts))
	for _, part := range parts {
		status, ok := users.ParseStatus(strings.ToUpper(strings.TrimSpace(part)))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", part)})
			return nil, false
		}
		statuses = append(statuses, status)
	}
	return statuses, true
}

// readPhoto extracts the single multipart photo field. ok=false means a
// response was already written.
func readPhoto(c *gin.Context) (data []byte, contentType string, ok bool) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return nil, "", false
	}
	if fileHeader.Size > photos.MaxPhotoBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is too large"})
		return nil, "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is unreadable"})
		return nil, "", false
	}
	defer file.Close()

	data, err = io.ReadAll(io.LimitReader(file, photos.MaxPhotoBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is unreadable"})
		return nil, "", false
	}
	if len(data) > photos.MaxPhotoBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is too large"})
		return nil, "", false
	}
	return data, fileHeader.Header.Get("Content-Type"), true
}

// updatePhoto is the shared body of every PUT /{kind}/me/photo endpoint.
func (h *httpHandler) updatePhoto(c *gin.Context, kindDir string) {
	if h.photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "photo storage is not configured"})
		return
	}
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}
	data, contentType, ok := readPhoto(c)
	if !ok {
		return
	}

	photoURL, err := h.photos.Update(c.Request.Context(), principal.UID, kindDir, contentType, data)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photo": photoURL})
}

// principalOrAbort returns the verified principal the guard stored on the
// context. Its absence means a route was registered without a policy.
func principalOrAbort(c *gin.Context) (authz.Principal, bool) {
	principal, ok := authz.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return principal, ok
}

// canViewInactive reports whether the caller may see profiles that are not
// ACTIVE: owners and the moderation staff.
func canViewInactive(principal authz.Principal, targetUID string) bool {
	return principal.UID == targetUID ||
		principal.Role == users.RoleModerator ||
		principal.Role == users.RoleAdmin
}

// requireIssues answers 503 when the downstream issue service is not wired.
func (h *httpHandler) requireIssues(c *gin.Context) bool {
	if h.issues == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "issue service is not configured"})
		return false
	}
	return true
}
