package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/servicehand/internal/config"
	"github.com/example/servicehand/internal/handlers"
	"github.com/example/servicehand/internal/middleware"
	"github.com/example/servicehand/internal/models"
	"github.com/example/servicehand/internal/services"
)

// Dependencies are the collaborators that differ between deployments.
type Dependencies struct {
	Sessions services.SessionStore
	Mailer   services.Mailer
	Notifier services.BookingNotifier
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, deps Dependencies) {
	creds := services.NewCredentialStore(cfg.BcryptCost)
	accounts := services.NewAccountService(db, creds)
	company := services.NewCompanyService(db)
	catalog := services.NewCatalogService(db, company)
	bookings := services.NewBookingService(db, services.NewReferenceGenerator(), deps.Notifier)
	resets := services.NewPasswordResetService(db, creds, deps.Mailer, cfg.ResetTokenTTL)
	audit := services.NewAuditService(db)

	authHandler := handlers.NewAuthHandler(accounts, deps.Sessions, cfg)
	resetHandler := handlers.NewPasswordResetHandler(resets, cfg)
	catalogHandler := handlers.NewCatalogHandler(catalog)
	companyHandler := handlers.NewCompanyHandler(company)
	bookingHandler := handlers.NewBookingHandler(bookings)
	profileHandler := handlers.NewProfileHandler(accounts, bookings, company)
	adminHandler := handlers.NewAdminHandler(accounts, bookings, catalog, resets, audit, cfg)

	authenticated := middleware.AuthMiddleware(cfg, deps.Sessions)
	anyRole := middleware.RequireRole(accounts, models.RoleUser, models.RoleServiceProvider, models.RoleAdmin)
	endUser := middleware.RequireRole(accounts, models.RoleUser)

	// Public pages
	app.Get("/", catalogHandler.Home)
	app.Get("/company", companyHandler.GetCompany)
	app.Get("/browse_services", catalogHandler.BrowseServices)
	app.Get("/categories", catalogHandler.ListCategories)
	app.Get("/providers/:id", catalogHandler.GetProvider)

	// Auth routes
	app.Post("/register", authHandler.Register)
	app.Post("/login", authHandler.Login)
	app.Post("/logout", middleware.OptionalAuth(cfg, deps.Sessions), authHandler.Logout)
	app.Post("/forgot_password", resetHandler.ForgotPassword)
	app.Get("/reset_password/:token", resetHandler.ShowResetPassword)
	app.Post("/reset_password/:token", resetHandler.ResetPassword)

	// Dashboards share one handler
	for _, path := range []string{"/dashboard", "/user_dashboard", "/service_provider_dashboard", "/admin_dashboard"} {
		app.Get(path, authenticated, anyRole, profileHandler.Dashboard)
	}

	// End-user routes
	app.Post("/providers/:id/hire", authenticated, endUser, bookingHandler.Hire)
	app.Post("/bookings/:id/cancel", authenticated, endUser, bookingHandler.Cancel)
	app.Post("/bookings/:id/complete", authenticated, endUser, bookingHandler.Complete)
	app.Get("/profile", authenticated, endUser, profileHandler.GetProfile)
	app.Post("/edit_profile", authenticated, endUser, profileHandler.EditProfile)
	app.Post("/change_password", authenticated, endUser, profileHandler.ChangePassword)

	// Admin routes
	admin := app.Group("/admin", authenticated, middleware.RequireRole(accounts, models.RoleAdmin))
	admin.Get("/stats", adminHandler.Stats)
	admin.Get("/bookings", adminHandler.ListBookings)
	admin.Post("/bookings", adminHandler.CreateBooking)
	admin.Patch("/bookings/:id", adminHandler.UpdateBooking)
	admin.Get("/accounts", adminHandler.ListAccounts)
	admin.Post("/providers", adminHandler.CreateProvider)
	admin.Post("/providers/:id/categories", adminHandler.CreateCategory)
	admin.Put("/company", companyHandler.UpdateCompany)
	admin.Post("/password_resets", adminHandler.IssuePasswordReset)
	admin.Get("/audit_logs", adminHandler.ListAuditLogs)
}
