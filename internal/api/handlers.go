package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nhle/collab-todo/internal/apperr"
	"github.com/nhle/collab-todo/internal/service"
)

// === Users ===

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	user, err := s.svc.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"success": true,
		"message": "User created successfully",
		"user":    user.Summary(),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Login(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, s.sessionCookie(res.Token, int(s.svc.Tokens().SessionTTL().Seconds())))
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"message": "Login Successfully",
		"user":    res.User,
		"token":   res.Token,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, s.sessionCookie("", -1))
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Logout successfully"})
}

func (s *Server) sessionCookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	}
	if s.cookieSecure {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

func (s *Server) handleGenerateOTP(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.GenerateOTP(r.Context(), actor); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "OTP sent to your email"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in service.ResetPasswordInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.ResetPassword(r.Context(), actor, in); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Password reset successfully!"})
}

// === Todos ===

type titleInput struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in titleInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	todo, err := s.svc.CreateTodo(r.Context(), actor, in.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"success": true, "message": "Todo created successfully", "todo": todo})
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in titleInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	todo, err := s.svc.UpdateTodo(r.Context(), actor, chi.URLParam(r, "todoId"), in.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Todo updated successfully", "todo": todo})
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.DeleteTodo(r.Context(), actor, chi.URLParam(r, "todoId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Todo deleted successfully"})
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	todos, err := s.svc.ListTodos(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "todos": todos})
}

func (s *Server) handleListTodosForHome(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	todos, err := s.svc.ListTodosForHome(r.Context(), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "todos": todos})
}

func (s *Server) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	todo, err := s.svc.GetTodo(r.Context(), actor, chi.URLParam(r, "todoId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "todo": todo})
}

func (s *Server) handleChangePermission(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in service.ChangePermissionInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	todo, err := s.svc.ChangePermission(r.Context(), actor, chi.URLParam(r, "todoId"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Todo permission updated successfully", "todo": todo})
}

// === Invitations ===

type tokenInput struct {
	Token string `json:"token"`
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in service.InviteInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Invite(r.Context(), actor, chi.URLParam(r, "todoId"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":      true,
		"message":      fmt.Sprintf("Invitation sent to %s successfully", res.Collaborator.Email),
		"collaborator": res.Collaborator,
		"token":        res.Token,
	})
}

func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var in tokenInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.AcceptInvitation(r.Context(), in.Token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.RequireSignup {
		writeJSON(w, http.StatusOK, envelope{
			"success":       false,
			"requireSignup": true,
			"message":       "User not registered",
			"token":         res.Token,
			"email":         res.Email,
			"todoId":        res.TodoID,
		})
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Invitation accepted successfully", "todoId": res.TodoID})
}

func (s *Server) handleCompleteInvitation(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in tokenInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	todo, err := s.svc.CompleteInvitation(r.Context(), actor, in.Token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Invitation accepted successfully", "todo": todo})
}

// === Sub-todos ===

type contentInput struct {
	Content string `json:"content"`
}

type completeInput struct {
	Complete *bool `json:"complete"`
}

func (s *Server) handleCreateSubTodo(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in contentInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.CreateSubTodo(r.Context(), actor, chi.URLParam(r, "todoId"), in.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"success":       true,
		"message":       "Sub todo created successfully",
		"subTodo":       res.SubTodo,
		"todoCompleted": res.TodoCompleted,
	})
}

func (s *Server) handleUpdateSubTodo(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in contentInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	sub, err := s.svc.UpdateSubTodo(r.Context(), actor, chi.URLParam(r, "subTodoId"), in.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Sub todo updated successfully", "subTodo": sub})
}

func (s *Server) handleDeleteSubTodo(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	completed, err := s.svc.DeleteSubTodo(r.Context(), actor, chi.URLParam(r, "subTodoId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Sub todo deleted successfully", "todoCompleted": completed})
}

func (s *Server) handleCompleteSubTodo(w http.ResponseWriter, r *http.Request) {
	actor, err := identity(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in completeInput
	if err := decode(r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if in.Complete == nil {
		s.writeError(w, r, apperr.InvalidInput("Complete must be a boolean value"))
		return
	}
	res, err := s.svc.CompleteSubTodo(r.Context(), actor, chi.URLParam(r, "subTodoId"), *in.Complete)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":       true,
		"message":       "Sub todo completion updated successfully",
		"subTodo":       res.SubTodo,
		"todoCompleted": res.TodoCompleted,
	})
}
