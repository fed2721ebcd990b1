package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/projecthub/backend/api/handler"
)

type Handlers struct {
	Auth       *apiHandler.AuthHandler
	Project    *apiHandler.ProjectHandler
	Invitation *apiHandler.InvitationHandler
	Task       *apiHandler.TaskHandler
	Health     *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Public auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/verify", handlers.Auth.VerifyEmail)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)
	r.POST("/api/v1/auth/forgot-password", handlers.Auth.ForgotPassword)
	r.POST("/api/v1/auth/reset-password", handlers.Auth.ResetPassword)
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))

	// Admin
	r.GET("/api/v1/admin/users", authMiddleware(handlers.Auth.ListUsers))
	r.PUT("/api/v1/admin/users/{id}/block", authMiddleware(handlers.Auth.SetBlocked))

	// Projects
	r.POST("/api/v1/projects", authMiddleware(handlers.Project.Create))
	r.GET("/api/v1/projects", authMiddleware(handlers.Project.List))
	r.GET("/api/v1/projects/{id}", authMiddleware(handlers.Project.Get))
	r.GET("/api/v1/projects/{id}/members", authMiddleware(handlers.Project.ListMembers))
	r.POST("/api/v1/projects/{id}/members", authMiddleware(handlers.Project.AddMember))
	r.DELETE("/api/v1/projects/{id}/members/{userId}", authMiddleware(handlers.Project.RemoveMember))
	r.PUT("/api/v1/projects/{id}/owner", authMiddleware(handlers.Project.TransferOwnership))
	r.POST("/api/v1/projects/{id}/leave", authMiddleware(handlers.Project.Leave))
	r.PUT("/api/v1/projects/{id}/status", authMiddleware(handlers.Project.UpdateStatus))
	r.GET("/api/v1/projects/{id}/activities", authMiddleware(handlers.Project.ListActivities))

	// Invitations
	r.POST("/api/v1/invitations", authMiddleware(handlers.Invitation.Send))
	r.GET("/api/v1/invitations", authMiddleware(handlers.Invitation.List))
	r.POST("/api/v1/invitations/{id}/accept", authMiddleware(handlers.Invitation.Accept))
	r.POST("/api/v1/invitations/{id}/reject", authMiddleware(handlers.Invitation.Reject))

	// Tasks
	r.POST("/api/v1/projects/{id}/tasks", authMiddleware(handlers.Task.Create))
	r.GET("/api/v1/projects/{id}/tasks", authMiddleware(handlers.Task.List))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.Get))
	r.POST("/api/v1/tasks/{id}/assignees", authMiddleware(handlers.Task.Assign))
	r.DELETE("/api/v1/tasks/{id}/assignees/{userId}", authMiddleware(handlers.Task.Unassign))
	r.PUT("/api/v1/tasks/{id}/status", authMiddleware(handlers.Task.UpdateStatus))
	r.POST("/api/v1/tasks/{id}/comments", authMiddleware(handlers.Task.AddComment))
	r.GET("/api/v1/tasks/{id}/comments", authMiddleware(handlers.Task.ListComments))
	r.DELETE("/api/v1/tasks/{id}/comments/{commentId}", authMiddleware(handlers.Task.DeleteComment))
	r.GET("/api/v1/tasks/{id}/activities", authMiddleware(handlers.Task.ListActivities))

	return r
}
