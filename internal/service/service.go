// Package service implements the todo application's use cases. Every
// mutating operation follows the same flow: validate input, load the
// entities, ask the access package whether the actor may proceed, mutate,
// reconcile the parent's completion flag, then persist.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nhle/collab-todo/internal/apperr"
	"github.com/nhle/collab-todo/internal/auth"
	"github.com/nhle/collab-todo/internal/model"
	"github.com/nhle/collab-todo/internal/notify"
	"github.com/nhle/collab-todo/internal/store"
)

// Service wires the store, token issuer and mail sender together.
type Service struct {
	store   store.Store
	tokens  *auth.Tokens
	sender  notify.Sender
	logger  *log.Logger
	now     func() time.Time
	baseURL string
	otpTTL  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for OTP expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithFrontendBaseURL sets the prefix of invitation links.
func WithFrontendBaseURL(url string) Option {
	return func(s *Service) { s.baseURL = url }
}

// WithOTPTTL sets how long a password-reset code stays valid.
func WithOTPTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.otpTTL = d
		}
	}
}

// New returns a Service.
func New(st store.Store, tokens *auth.Tokens, sender notify.Sender, logger *log.Logger, opts ...Option) *Service {
	s := &Service{
		store:   st,
		tokens:  tokens,
		sender:  sender,
		logger:  logger.WithPrefix("service"),
		now:     time.Now,
		baseURL: "http://localhost:5173",
		otpTTL:  10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokens exposes the token issuer so the HTTP layer can verify sessions.
func (s *Service) Tokens() *auth.Tokens {
	return s.tokens
}

func (s *Service) loadTodo(ctx context.Context, id, missing string) (*model.Todo, error) {
	todo, err := s.store.GetTodoByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound(missing)
	}
	if err != nil {
		return nil, apperr.Internal("loading todo", err)
	}
	return todo, nil
}

func (s *Service) loadSubTodo(ctx context.Context, id string) (*model.SubTodo, error) {
	sub, err := s.store.GetSubTodoByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Sub todo not found")
	}
	if err != nil {
		return nil, apperr.Internal("loading sub todo", err)
	}
	return sub, nil
}

func (s *Service) loadUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("loading user", err)
	}
	return user, nil
}

// saveCompletion persists only todo's completed flag.
func (s *Service) saveCompletion(ctx context.Context, todo *model.Todo) error {
	err := s.store.UpdateTodoCompletion(ctx, todo.ID, todo.Completed)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Todo not found")
	}
	if err != nil {
		return apperr.Internal("saving todo completion", err)
	}
	return nil
}

// saveTodo persists todo, mapping a concurrent delete to NotFound.
func (s *Service) saveTodo(ctx context.Context, todo *model.Todo) error {
	err := s.store.SaveTodo(ctx, *todo)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Todo not found")
	}
	if err != nil {
		return apperr.Internal("saving todo", err)
	}
	return nil
}
