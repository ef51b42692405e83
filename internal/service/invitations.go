package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nhle/collab-todo/internal/access"
	"github.com/nhle/collab-todo/internal/apperr"
	"github.com/nhle/collab-todo/internal/collab"
	"github.com/nhle/collab-todo/internal/model"
	"github.com/nhle/collab-todo/internal/notify"
	"github.com/nhle/collab-todo/internal/store"
)

// InviteInput is the payload of Invite. Permission defaults to write.
type InviteInput struct {
	Email      string           `json:"email"`
	Permission model.Permission `json:"permission"`
}

// InviteResult is the new pending entry and the token mailed to it.
type InviteResult struct {
	Collaborator model.Collaborator `json:"collaborator"`
	Token        string             `json:"token"`
}

// AcceptResult reports the outcome of redeeming an invitation token
// without a session. When RequireSignup is set nothing was changed and the
// caller must register, log in, then call CompleteInvitation with Token.
type AcceptResult struct {
	RequireSignup bool   `json:"requireSignup,omitempty"`
	Email         string `json:"email,omitempty"`
	TodoID        string `json:"todoId"`
	Token         string `json:"token,omitempty"`
}

// Invite adds a pending collaborator and emails an invitation link. The
// entry is only stored after the email was handed to the sender.
func (s *Service) Invite(ctx context.Context, actor model.Identity, todoID string, in InviteInput) (*InviteResult, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, apperr.InvalidInput("Email is required to send invitation")
	}

	todo, err := s.loadTodo(ctx, todoID, "Todo not found")
	if err != nil {
		return nil, err
	}
	if err := access.Check(actor.UserID, todo, nil, access.ActionInvite); err != nil {
		return nil, err
	}

	params := collab.InviteParams{
		Email:      in.Email,
		Permission: in.Permission,
		OwnerEmail: actor.Email,
	}
	email := collab.NormalizeEmail(in.Email)
	if existing, err := s.store.GetUserByEmail(ctx, email); err == nil {
		id := existing.ID
		params.ExistingUserID = &id
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("looking up invitee", err)
	}

	entry, err := collab.Invite(todo, params)
	if err != nil {
		return nil, err
	}
	result := &InviteResult{Collaborator: *entry}

	result.Token, err = s.tokens.IssueInvitation(todo.ID, entry.Email)
	if err != nil {
		return nil, apperr.Internal("issuing invitation token", err)
	}

	msg, err := notify.InvitationEmail(entry.Email, todo.Title, notify.InvitationLink(s.baseURL, result.Token))
	if err != nil {
		return nil, apperr.Internal("rendering invitation email", err)
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("invitation email failed", "todo", todo.ID, "email", entry.Email, "err", err)
		return nil, apperr.Dependency("Failed to send invitation email. Please try again.", err)
	}

	if err := s.saveTodo(ctx, todo); err != nil {
		return nil, err
	}

	s.logger.Info("collaborator invited", "todo", todo.ID, "email", entry.Email, "permission", entry.Permission)
	return result, nil
}

// AcceptInvitation redeems an invitation token without a session. If an
// account already uses the invited email the entry is linked to it and
// accepted; otherwise the result asks the caller to sign up first.
func (s *Service) AcceptInvitation(ctx context.Context, token string) (*AcceptResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.InvalidInput("Invitation token is required")
	}

	inv, err := s.tokens.VerifyInvitation(token)
	if err != nil {
		return nil, err
	}

	todo, err := s.loadTodo(ctx, inv.TodoID, "Todo not found")
	if err != nil {
		return nil, err
	}
	if collab.FindByEmail(todo, inv.Email) == nil {
		return nil, apperr.NotFound("You are not invited to collaborate on this todo")
	}

	user, err := s.store.GetUserByEmail(ctx, collab.NormalizeEmail(inv.Email))
	if errors.Is(err, store.ErrNotFound) {
		return &AcceptResult{
			RequireSignup: true,
			Email:         inv.Email,
			TodoID:        todo.ID,
			Token:         token,
		}, nil
	}
	if err != nil {
		return nil, apperr.Internal("looking up invitee", err)
	}

	if _, err := collab.Accept(todo, inv.Email, user.ID); err != nil {
		return nil, err
	}
	if err := s.saveTodo(ctx, todo); err != nil {
		return nil, err
	}

	s.logger.Info("invitation accepted", "todo", todo.ID, "user", user.ID)
	return &AcceptResult{TodoID: todo.ID}, nil
}

// CompleteInvitation links the authenticated actor to the entry named by
// token and accepts it. The token is the capability; the actor's own email
// does not have to match the invited one.
func (s *Service) CompleteInvitation(ctx context.Context, actor model.Identity, token string) (*model.Todo, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.InvalidInput("Token is missing")
	}

	inv, err := s.tokens.VerifyInvitation(token)
	if err != nil {
		return nil, err
	}

	todo, err := s.loadTodo(ctx, inv.TodoID, "Todo not found")
	if err != nil {
		return nil, err
	}
	if _, err := collab.Accept(todo, inv.Email, actor.UserID); err != nil {
		return nil, err
	}
	if err := s.saveTodo(ctx, todo); err != nil {
		return nil, err
	}

	s.logger.Info("invitation completed", "todo", todo.ID, "user", actor.UserID)
	return todo, nil
}
