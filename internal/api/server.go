// Package api exposes the service over HTTP using chi.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nhle/collab-todo/internal/service"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "token"

// Server routes HTTP requests to the service.
type Server struct {
	svc          *service.Service
	logger       *log.Logger
	cookieSecure bool
	router       chi.Router
}

// NewServer builds the router. cookieSecure marks the session cookie
// Secure with SameSite=None for cross-site frontends.
func NewServer(svc *service.Service, logger *log.Logger, cookieSecure bool) *Server {
	s := &Server{
		svc:          svc,
		logger:       logger.WithPrefix("api"),
		cookieSecure: cookieSecure,
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, envelope{"success": true, "message": "ok"})
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/logout", s.handleLogout)
			r.Post("/generate-otp", s.handleGenerateOTP)
			r.Patch("/reset-password", s.handleResetPassword)
		})
	})

	r.Route("/api/todo", func(r chi.Router) {
		r.Post("/invite/accept", s.handleAcceptInvitation)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/create", s.handleCreateTodo)
			r.Patch("/update/{todoId}", s.handleUpdateTodo)
			r.Delete("/delete/{todoId}", s.handleDeleteTodo)
			r.Get("/get-all", s.handleListTodos)
			r.Get("/get-todo-by-id/{todoId}", s.handleGetTodo)
			r.Get("/get-all-for-home", s.handleListTodosForHome)
			r.Put("/update/permission/{todoId}", s.handleChangePermission)

			r.Post("/invite/send/{todoId}", s.handleInvite)
			r.Post("/invite/complete", s.handleCompleteInvitation)
		})
	})

	r.Route("/api/sub-todo", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/create/{todoId}", s.handleCreateSubTodo)
		r.Put("/update/{subTodoId}", s.handleUpdateSubTodo)
		r.Delete("/delete/{subTodoId}", s.handleDeleteSubTodo)
		r.Patch("/complete/{subTodoId}", s.handleCompleteSubTodo)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{"success": false, "message": "Route not found"})
	})

	return r
}
