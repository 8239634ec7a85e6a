package backendtest

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"citizen-portal/internal/domain"
)

func newRouter(s *Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	h := &handlers{s: s}
	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", h.signup)
	auth.POST("/login", h.login)
	auth.POST("/send-otp", h.sendOTP)
	auth.POST("/reset-password", h.resetPassword)

	api.GET("/services", h.listServices)
	api.GET("/notices", h.listNotices)
	api.GET("/heroslides", h.listSlides)
	api.GET("/files/:name", h.file)

	authed := api.Group("", s.bearer)
	staff := s.requireRole(domain.RoleOperator, domain.RoleAdmin)
	admin := s.requireRole(domain.RoleAdmin)

	authed.GET("/events", h.events)

	authed.GET("/users/me", h.me)
	authed.GET("/users", h.listUsers, admin)
	authed.GET("/users/:id/profile", h.profile)
	authed.PUT("/users/:id/role", h.changeRole, admin)
	authed.PUT("/users/profile", h.updateProfile)
	authed.DELETE("/users/profile/document/:field", h.deleteOwnDocument)
	authed.DELETE("/users/profile/document/:userId/:field", h.deleteUserDocument, staff)

	authed.POST("/services", h.createService, admin)
	authed.PUT("/services/:id", h.updateService, admin)
	authed.DELETE("/services/:id", h.deleteService, admin)

	authed.GET("/applications", h.listApplications, staff)
	authed.GET("/applications/user", h.myApplications)
	authed.POST("/applications", h.submitApplication)
	authed.PUT("/applications/:id/confirm", h.confirm)
	authed.PUT("/applications/:id/correction", h.correction)
	authed.PUT("/applications/:id/reject", h.reject, staff)
	authed.PUT("/applications/:id/status", h.setStatus, admin)
	authed.PUT("/applications/:id/upload-pdf", h.uploadFormPDF, staff)
	authed.PUT("/applications/:id/certificate", h.uploadCertificate, admin)
	authed.GET("/applications/:id/download-all", h.downloadAll, staff)

	authed.POST("/notices", h.createNotice, admin)
	authed.PUT("/notices/:id", h.updateNotice, admin)
	authed.DELETE("/notices/:id", h.deleteNotice, admin)

	authed.POST("/heroslides", h.createSlide, admin)
	authed.DELETE("/heroslides/:id", h.deleteSlide, admin)
	return e
}
