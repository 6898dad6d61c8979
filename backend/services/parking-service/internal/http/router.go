package httpserver

import (
	"net/http"

	"vehicleparking/backend/services/parking-service/internal/http/handlers"
	"vehicleparking/backend/services/parking-service/internal/http/middleware"
	"vehicleparking/backend/services/parking-service/internal/models"
)

// RouterDeps collects handler dependencies.
type RouterDeps struct {
	AuthHandlers  *handlers.AuthHandlers
	AdminHandlers *handlers.AdminHandlers
	UserHandlers  *handlers.UserHandlers
	FeedHandler   http.HandlerFunc
	HealthHandler http.HandlerFunc
}

// NewRouter wires HTTP routes with middleware.
func NewRouter(deps RouterDeps, authMiddleware func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /health", deps.HealthHandler)
	mux.Handle("GET /ws/availability", deps.FeedHandler)

	mux.HandleFunc("POST /api/auth/register", deps.AuthHandlers.Register)
	mux.HandleFunc("POST /api/auth/login", deps.AuthHandlers.Login)
	mux.HandleFunc("POST /api/auth/logout", deps.AuthHandlers.Logout)

	admin := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, authMiddleware, middleware.RequireRole(models.RoleAdmin))
	}
	mux.Handle("GET /api/admin/dashboard", admin(deps.AdminHandlers.Dashboard))
	mux.Handle("POST /api/admin/lots", admin(deps.AdminHandlers.CreateLot))
	mux.Handle("GET /api/admin/lots/{id}", admin(deps.AdminHandlers.GetLot))
	mux.Handle("PUT /api/admin/lots/{id}", admin(deps.AdminHandlers.EditLot))
	mux.Handle("DELETE /api/admin/lots/{id}", admin(deps.AdminHandlers.DeleteLot))

	user := func(handler http.HandlerFunc) http.Handler {
		return middleware.Chain(handler, authMiddleware, middleware.RequireRole(models.RoleUser))
	}
	mux.Handle("GET /api/user/dashboard", user(deps.UserHandlers.Dashboard))
	mux.Handle("POST /api/user/lots/{id}/reserve", user(deps.UserHandlers.Reserve))
	mux.Handle("POST /api/user/reservation/occupy", user(deps.UserHandlers.Occupy))
	mux.Handle("POST /api/user/reservation/release", user(deps.UserHandlers.Release))

	return mux
}
