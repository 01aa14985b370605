package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/taskhive/taskhive-api/internal/handlers"
	"github.com/taskhive/taskhive-api/internal/middleware"
)

// NewRouter sets up the API routes
func NewRouter(
	auth *handlers.AuthHandler,
	projects *handlers.ProjectHandler,
	invites *handlers.InviteHandler,
	guests *handlers.GuestHandler,
	tasks *handlers.TaskHandler,
	events *handlers.EventsHandler,
	authLimiter *middleware.RateLimiter,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public auth endpoints, rate-limited per client IP
	public := router.PathPrefix("/api/user").Subrouter()
	public.Use(authLimiter.Middleware)
	public.HandleFunc("/register", auth.Register).Methods(http.MethodPost)
	public.HandleFunc("/login", auth.Login).Methods(http.MethodPost)

	router.Handle("/api/user/me", auth.JWTMiddleware(http.HandlerFunc(auth.Me))).Methods(http.MethodGet)

	// Guest endpoints: access is proven by the token alone
	guest := router.PathPrefix("/api/guest/{token}").Subrouter()
	guest.HandleFunc("/project", guests.GetGuestProject).Methods(http.MethodGet)
	guest.HandleFunc("/tasks", guests.GetGuestTasks).Methods(http.MethodGet)
	guest.HandleFunc("/tasks", guests.CreateGuestTask).Methods(http.MethodPost)
	guest.HandleFunc("/tasks/{taskId}", guests.UpdateGuestTask).Methods(http.MethodPut)
	guest.HandleFunc("/tasks/{taskId}", guests.DeleteGuestTask).Methods(http.MethodDelete)

	// Accept reports token state to anonymous callers before requiring
	// identity, so authentication here is optional, not enforced.
	router.Handle("/api/collab/accept/{token}",
		auth.OptionalJWTMiddleware(http.HandlerFunc(invites.AcceptInvite))).
		Methods(http.MethodGet, http.MethodPost)

	// Authenticated collaboration endpoints
	collab := router.PathPrefix("/api/collab").Subrouter()
	collab.Use(auth.JWTMiddleware)
	collab.HandleFunc("/projects", projects.CreateProject).Methods(http.MethodPost)
	collab.HandleFunc("/projects", projects.ListProjects).Methods(http.MethodGet)
	collab.HandleFunc("/projects/{id}", projects.GetProject).Methods(http.MethodGet)
	collab.HandleFunc("/projects/{id}", projects.DeleteProject).Methods(http.MethodDelete)
	collab.HandleFunc("/projects/{id}/share-link", projects.GetShareLink).Methods(http.MethodGet)
	collab.HandleFunc("/projects/{id}/share-link/reset", projects.ResetShareLink).Methods(http.MethodPost)
	collab.HandleFunc("/invite", invites.CreateInvite).Methods(http.MethodPost)
	collab.HandleFunc("/invites/{id}/revoke", invites.RevokeInvite).Methods(http.MethodPost)

	// Authenticated task endpoints
	taskRouter := router.PathPrefix("/api/tasks").Subrouter()
	taskRouter.Use(auth.JWTMiddleware)
	taskRouter.HandleFunc("", tasks.CreateTask).Methods(http.MethodPost)
	taskRouter.HandleFunc("", tasks.GetTasks).Methods(http.MethodGet)
	taskRouter.HandleFunc("/{id}", tasks.GetTask).Methods(http.MethodGet)
	taskRouter.HandleFunc("/{id}", tasks.UpdateTask).Methods(http.MethodPut)
	taskRouter.HandleFunc("/{id}", tasks.DeleteTask).Methods(http.MethodDelete)

	// Event stream
	router.Handle("/api/events", auth.JWTMiddleware(http.HandlerFunc(events.Subscribe))).Methods(http.MethodGet)

	return router
}
