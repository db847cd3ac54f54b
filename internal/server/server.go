// Package server exposes the user directory over REST. Routing and policy
// declarations live here; every business rule stays in the packages below.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/civicgrid/user-service/internal/authz"
	"github.com/civicgrid/user-service/internal/directory"
	"github.com/civicgrid/user-service/internal/identity"
	"github.com/civicgrid/user-service/internal/issues"
	"github.com/civicgrid/user-service/internal/photos"
	"github.com/civicgrid/user-service/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errMissingProvider  = errors.New("identity provider dependency required")
	errMissingDirectory = errors.New("directory dependency required")
)

// Dependencies wires the handler. Photos and Issues are optional; their
// endpoints answer 503 when the collaborator is not configured.
type Dependencies struct {
	Provider  identity.Provider
	Directory *directory.Directory
	Photos    *photos.Service
	Issues    *issues.Client
	Logger    *zap.Logger
}

type httpHandler struct {
	directory *directory.Directory
	photos    *photos.Service
	issues    *issues.Client
	logger    *zap.Logger
}

// NewHTTPHandler assembles the gin router with the authorization guard on
// every protected route.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Provider == nil {
		return nil, errMissingProvider
	}
	if deps.Directory == nil {
		return nil, errMissingDirectory
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		directory: deps.Directory,
		photos:    deps.Photos,
		issues:    deps.Issues,
		logger:    logger,
	}
	guard := authz.NewGuard(deps.Provider, logger)

	var (
		anyUser          = authz.Policy{}
		anyActive        = authz.Policy{Statuses: []users.Status{users.StatusActive}}
		moderator        = authz.Policy{Roles: []users.Role{users.RoleModerator}}
		moderatorOrAdmin = authz.Policy{Roles: []users.Role{users.RoleModerator, users.RoleAdmin}}
		activeResident   = authz.Policy{Roles: []users.Role{users.RoleResident}, Statuses: []users.Status{users.StatusActive}}
		resident         = authz.Policy{Roles: []users.Role{users.RoleResident}}
		activeService    = authz.Policy{Roles: []users.Role{users.RoleService}, Statuses: []users.Status{users.StatusActive}}
		serviceOrMod     = authz.Policy{Roles: []users.Role{users.RoleService, users.RoleModerator}}
		employee         = authz.Policy{Roles: []users.Role{users.RoleEmployee}}
		activeEmployee   = authz.Policy{Roles: []users.Role{users.RoleEmployee}, Statuses: []users.Status{users.StatusActive}}
		activeAnalyst    = authz.Policy{Roles: []users.Role{users.RoleAnalyst}, Statuses: []users.Status{users.StatusActive}}
		analyst          = authz.Policy{Roles: []users.Role{users.RoleAnalyst}}
	)

	api := router.Group("/api/v1")

	residents := api.Group("/residents")
	residents.POST("", handler.createResident)
	residents.GET("/me", guard.Require(resident), handler.getCurrentResident)
	residents.PATCH("/me", guard.Require(activeResident), handler.updateCurrentResident)
	residents.GET("/me/issues", guard.Require(resident), handler.getCurrentResidentIssues)
	residents.GET("/me/issues/count", guard.Require(resident), handler.getCurrentResidentIssuesCount)
	residents.PUT("/me/photo", guard.Require(activeResident), handler.updateResidentPhoto)
	residents.GET("/:uid", guard.Require(anyUser), handler.getResident)
	residents.GET("/:uid/issues/count", guard.Require(anyUser), handler.getResidentIssuesCount)
	residents.PUT("/:uid", guard.Require(moderator), handler.updateResident)
	residents.DELETE("/:uid", guard.Require(moderator), handler.deleteResident)

	servicesGroup := api.Group("/services")
	servicesGroup.POST("", handler.createService)
	servicesGroup.GET("", guard.Require(activeAnalyst), handler.listServices)
	servicesGroup.GET("/count", guard.Require(activeAnalyst), handler.countServices)
	servicesGroup.GET("/me", guard.Require(activeService), handler.getCurrentService)
	servicesGroup.PATCH("/me", guard.Require(activeService), handler.updateCurrentService)
	servicesGroup.PUT("/me/photo", guard.Require(activeService), handler.updateServicePhoto)
	servicesGroup.GET("/me/departments", guard.Require(activeService), handler.listCurrentServiceDepartments)
	servicesGroup.GET("/me/employees", guard.Require(activeService), handler.listCurrentServiceEmployees)
	servicesGroup.GET("/:uid", guard.Require(anyActive), handler.getService)
	servicesGroup.GET("/:uid/issues/count", guard.Require(anyUser), handler.getServiceIssuesCount)
	servicesGroup.DELETE("/:uid", guard.Require(moderator), handler.deleteService)

	employees := api.Group("/employees")
	employees.POST("", guard.Require(activeService), handler.createEmployee)
	employees.GET("/me", guard.Require(employee), handler.getCurrentEmployee)
	employees.PUT("/me/photo", guard.Require(activeEmployee), handler.updateEmployeePhoto)
	employees.GET("/:uid", guard.Require(serviceOrMod), handler.getEmployee)
	employees.PATCH("/:uid", guard.Require(activeService), handler.updateEmployee)
	employees.DELETE("/:uid", guard.Require(serviceOrMod), handler.deleteEmployee)

	departments := api.Group("/departments")
	departments.POST("", guard.Require(activeService), handler.createDepartment)
	departments.GET("/:uid", guard.Require(anyUser), handler.getDepartment)
	departments.GET("/:uid/employees", guard.Require(activeService), handler.listDepartmentEmployees)
	departments.PATCH("/:uid", guard.Require(activeService), handler.updateDepartment)
	departments.DELETE("/:uid", guard.Require(activeService), handler.deleteDepartment)

	moderators := api.Group("/moderators")
	moderators.POST("", guard.Require(moderator), handler.createModerator)
	moderators.GET("/me", guard.Require(moderator), handler.getCurrentModerator)
	moderators.GET("/:uid", guard.Require(moderator), handler.getModerator)
	moderators.PUT("/:uid", guard.Require(moderator), handler.updateModerator)
	moderators.DELETE("/:uid", guard.Require(moderator), handler.deleteModerator)

	analysts := api.Group("/analysts")
	analysts.POST("", guard.Require(moderator), handler.createAnalyst)
	analysts.GET("/me", guard.Require(analyst), handler.getCurrentAnalyst)
	analysts.PATCH("/me", guard.Require(activeAnalyst), handler.updateCurrentAnalyst)
	analysts.GET("/:uid", guard.Require(anyUser), handler.getAnalyst)
	analysts.DELETE("/:uid", guard.Require(moderator), handler.deleteAnalyst)

	admin := api.Group("/admin", guard.Require(moderatorOrAdmin))
	admin.GET("/residents", handler.adminListResidents)
	admin.GET("/services", handler.adminListServices)
	admin.GET("/moderators", handler.adminListModerators)
	admin.GET("/analysts", handler.adminListAnalysts)
	admin.PATCH("/:kind/:uid/status", handler.adminUpdateStatus)
	admin.DELETE("/:kind/:uid", handler.adminPurge)

	return router, nil
}
