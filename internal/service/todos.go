package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nhle/collab-todo/internal/access"
	"github.com/nhle/collab-todo/internal/apperr"
	"github.com/nhle/collab-todo/internal/collab"
	"github.com/nhle/collab-todo/internal/completion"
	"github.com/nhle/collab-todo/internal/model"
	"github.com/nhle/collab-todo/internal/store"
)

// ChangePermissionInput targets a collaborator entry by email.
type ChangePermissionInput struct {
	CollaboratorEmail string           `json:"collaboratorEmail"`
	Permission        model.Permission `json:"permission"`
}

// CreateTodo creates an empty todo owned by the actor.
func (s *Service) CreateTodo(ctx context.Context, actor model.Identity, title string) (*model.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.InvalidInput("Title is required to create todo")
	}

	todo := &model.Todo{Title: title, CreatedBy: actor.UserID}
	if err := s.store.CreateTodo(ctx, todo); err != nil {
		return nil, apperr.Internal("creating todo", err)
	}

	s.logger.Debug("todo created", "todo", todo.ID, "owner", actor.UserID)
	return todo, nil
}

// UpdateTodo renames a todo. Owner and write collaborators only.
func (s *Service) UpdateTodo(ctx context.Context, actor model.Identity, todoID, title string) (*model.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.InvalidInput("Title is required to update todo")
	}

	todo, err := s.loadTodo(ctx, todoID, "Todo not found")
	if err != nil {
		return nil, err
	}
	if err := access.Check(actor.UserID, todo, nil, access.ActionUpdateTodo); err != nil {
		return nil, err
	}

	todo.Title = title
	if err := s.saveTodo(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

// DeleteTodo removes a todo and its sub-todos. Owner only.
func (s *Service) DeleteTodo(ctx context.Context, actor model.Identity, todoID string) error {
	todo, err := s.loadTodo(ctx, todoID, "Todo not found")
	if err != nil {
		return err
	}
	if err := access.Check(actor.UserID, todo, nil, access.ActionDeleteTodo); err != nil {
		return err
	}

	err = s.store.DeleteTodo(ctx, todo.ID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Todo not found")
	}
	if err != nil {
		return apperr.Internal("deleting todo", err)
	}

	s.logger.Debug("todo deleted", "todo", todo.ID)
	return nil
}

// GetTodo returns a todo the actor can read, with owner and sub-todos
// resolved. The completion flag is recomputed and persisted on the way,
// healing any earlier partial write.
func (s *Service) GetTodo(ctx context.Context, actor model.Identity, todoID string) (*model.TodoDetail, error) {
	todo, err := s.loadTodo(ctx, todoID, "Todo not found")
	if err != nil {
		return nil, err
	}
	if err := access.Check(actor.UserID, todo, nil, access.ActionViewTodo); err != nil {
		return nil, err
	}

	subs, err := s.store.GetSubTodos(ctx, todo.ID)
	if err != nil {
		return nil, apperr.Internal("loading sub todos", err)
	}
	if completion.Reconcile(todo, subs, completion.Vacuous) {
		if err := s.saveCompletion(ctx, todo); err != nil {
			return nil, err
		}
	}

	owners := map[string]*model.UserSummary{}
	return s.detail(ctx, *todo, subs, owners), nil
}

// ListTodos returns every todo the actor owns or collaborates on, newest
// first, with collaborators.
func (s *Service) ListTodos(ctx context.Context, actor model.Identity) ([]model.TodoDetail, error) {
	return s.list(ctx, actor, true)
}

// ListTodosForHome is ListTodos without collaborator lists.
func (s *Service) ListTodosForHome(ctx context.Context, actor model.Identity) ([]model.TodoDetail, error) {
	return s.list(ctx, actor, false)
}

func (s *Service) list(ctx context.Context, actor model.Identity, withCollaborators bool) ([]model.TodoDetail, error) {
	todos, err := s.store.ListTodos(ctx, store.TodoFilter{
		AccessibleBy:      actor.UserID,
		WithCollaborators: withCollaborators,
	})
	if err != nil {
		return nil, apperr.Internal("listing todos", err)
	}

	owners := map[string]*model.UserSummary{}
	out := make([]model.TodoDetail, 0, len(todos))
	for _, todo := range todos {
		subs, err := s.store.GetSubTodos(ctx, todo.ID)
		if err != nil {
			return nil, apperr.Internal("loading sub todos", err)
		}
		out = append(out, *s.detail(ctx, todo, subs, owners))
	}
	return out, nil
}

// detail resolves the owner through a per-call cache. A missing owner
// account leaves Owner nil.
func (s *Service) detail(ctx context.Context, todo model.Todo, subs []model.SubTodo, owners map[string]*model.UserSummary) *model.TodoDetail {
	owner, ok := owners[todo.CreatedBy]
	if !ok {
		if u, err := s.store.GetUserByID(ctx, todo.CreatedBy); err == nil {
			summary := u.Summary()
			owner = &summary
		} else if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("resolving todo owner", "todo", todo.ID, "err", err)
		}
		owners[todo.CreatedBy] = owner
	}
	if subs == nil {
		subs = []model.SubTodo{}
	}
	return &model.TodoDetail{Todo: todo, Owner: owner, SubTodoItems: subs}
}

// ChangePermission updates a collaborator's permission. Owner only.
func (s *Service) ChangePermission(ctx context.Context, actor model.Identity, todoID string, in ChangePermissionInput) (*model.Todo, error) {
	if strings.TrimSpace(in.CollaboratorEmail) == "" || in.Permission == "" {
		return nil, apperr.InvalidInput("Collaborator email and permission are required")
	}

	todo, err := s.loadTodo(ctx, todoID, "Todo not found")
	if err != nil {
		return nil, err
	}
	if err := access.Check(actor.UserID, todo, nil, access.ActionChangePermission); err != nil {
		return nil, err
	}

	if _, err := collab.SetPermission(todo, in.CollaboratorEmail, in.Permission); err != nil {
		return nil, err
	}
	if err := s.saveTodo(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}
