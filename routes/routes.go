package routes

import (
	"clas_go/controllers"
	"clas_go/middleware"
	"clas_go/services"
	"clas_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub) {
	// Initialize controllers
	authController := &controllers.AuthController{}
	userController := &controllers.UserController{}
	schoolController := &controllers.SchoolController{}
	classController := controllers.NewClassController(wsHub)
	sessionController := controllers.NewSessionController(wsHub)
	templateController := &controllers.TemplateController{}
	attendanceController := &controllers.AttendanceController{}
	notificationController := &controllers.NotificationController{}
	logController := &controllers.LogController{}
	healthController := controllers.NewHealthController(services.NewHealthService("", "1.0.0"))
	wsController := controllers.NewWebSocketController(wsHub)

	// API group
	api := app.Group("/api")

	// Health endpoint (no authentication required)
	api.Get("/health", healthController.GetHealthStatus)

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)
	auth.Get("/profile", middleware.JWTMiddleware(), authController.GetProfile)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware())

	// Profile routes (authenticated users)
	protected.Get("/profile", authController.GetProfile)
	protected.Put("/profile/password", authController.ChangePassword)
	protected.Post("/auth/logout", authController.Logout)

	// User management routes
	users := protected.Group("/users")
	users.Get("/", middleware.RequireSupervisorOrAdmin(), userController.GetUsers)
	users.Get("/:id", middleware.RequireSupervisorOrAdmin(), userController.GetUser)
	users.Post("/", middleware.RequireAdmin(), authController.Register)
	users.Put("/:id", middleware.RequireAdmin(), userController.UpdateUser)
	users.Delete("/:id", middleware.RequireAdmin(), userController.DeleteUser)
	users.Post("/:id/avatar", userController.UploadAvatar)

	// School management routes
	schools := protected.Group("/schools")
	schools.Get("/", middleware.RequireFacilitatorOrAbove(), schoolController.GetSchools)
	schools.Get("/:id", middleware.RequireFacilitatorOrAbove(), schoolController.GetSchool)
	schools.Post("/", middleware.RequireAdmin(), schoolController.CreateSchool)
	schools.Put("/:id", middleware.RequireAdmin(), schoolController.UpdateSchool)
	schools.Delete("/:id", middleware.RequireAdmin(), schoolController.DeleteSchool)

	// Curriculum template routes
	templates := protected.Group("/templates")
	templates.Get("/", middleware.RequireFacilitatorOrAbove(), templateController.GetTemplates)
	templates.Get("/:id", middleware.RequireFacilitatorOrAbove(), templateController.GetTemplate)
	templates.Post("/", middleware.RequireSupervisorOrAdmin(), templateController.CreateTemplate)
	templates.Put("/:id", middleware.RequireSupervisorOrAdmin(), templateController.UpdateTemplate)
	templates.Delete("/:id", middleware.RequireAdmin(), templateController.DeleteTemplate)
	templates.Post("/:id/import", middleware.RequireSupervisorOrAdmin(), templateController.ImportItems)
	templates.Get("/:id/export", middleware.RequireFacilitatorOrAbove(), templateController.ExportItems)

	// Class management routes
	classes := protected.Group("/classes")
	classes.Get("/", middleware.RequireFacilitatorOrAbove(), classController.GetClasses)
	classes.Get("/:id", middleware.RequireFacilitatorOrAbove(), classController.GetClass)
	classes.Post("/", middleware.RequireSupervisorOrAdmin(), classController.CreateClass)
	classes.Put("/:id", middleware.RequireSupervisorOrAdmin(), classController.UpdateClass)
	classes.Delete("/:id", middleware.RequireAdmin(), classController.DeleteClass)

	// Sequence lifecycle
	classes.Post("/:id/generate", middleware.RequireSupervisorOrAdmin(), classController.GenerateSequence)
	classes.Get("/:id/current-session", classController.GetCurrentSession)
	classes.Get("/:id/state", classController.GetSequenceState)
	classes.Post("/:id/integrity-audit", middleware.RequireSupervisorOrAdmin(), classController.RunIntegrityAudit)
	classes.Get("/:id/history", middleware.RequireSupervisorOrAdmin(), logController.GetClassHistory)

	// Session records
	classes.Get("/:id/sessions", sessionController.GetSessions)
	classes.Get("/:id/sessions/:day", sessionController.GetSession)
	classes.Patch("/:id/sessions/:day", sessionController.TransitionSession)

	// Attendance
	classes.Get("/:id/attendance", attendanceController.GetAttendance)
	protected.Post("/attendance", attendanceController.CreateAttendance)

	// Notification management routes
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Get("/unread-count", notificationController.GetUnreadCount)
	notifications.Get("/stats", middleware.RequireAdmin(), notificationController.GetNotificationStats)
	notifications.Get("/:id", notificationController.GetNotification)
	notifications.Post("/", middleware.RequireAdmin(), notificationController.CreateNotification)
	notifications.Patch("/:id/read", notificationController.MarkAsRead)
	notifications.Patch("/mark-all-read", notificationController.MarkAllAsRead)
	notifications.Delete("/:id", notificationController.DeleteNotification)

	// Audit log routes (admin only)
	logs := protected.Group("/logs", middleware.RequireAdmin())
	logs.Get("/", logController.GetLogs)
	logs.Post("/flush-cache", logController.FlushCachedLogs)
	logs.Get("/archives", logController.GetArchives)
	logs.Get("/archives/:id/download", logController.DownloadArchive)
	logs.Get("/:id", logController.GetLog)

	// WebSocket routes
	ws := protected.Group("/ws")
	ws.Get("/stats", middleware.RequireAdmin(), wsController.GetWebSocketStats)

	// WebSocket connection endpoint - use websocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fiberws.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.WebSocketHandler())
}
