package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nhle/collab-todo/internal/access"
	"github.com/nhle/collab-todo/internal/apperr"
	"github.com/nhle/collab-todo/internal/completion"
	"github.com/nhle/collab-todo/internal/model"
	"github.com/nhle/collab-todo/internal/store"
)

// SubTodoResult is a sub-todo together with its parent's completion flag
// after reconciliation.
type SubTodoResult struct {
	SubTodo       model.SubTodo `json:"subTodo"`
	TodoCompleted bool          `json:"todoCompleted"`
}

// CreateSubTodo appends a sub-todo to a todo and reconciles the parent.
func (s *Service) CreateSubTodo(ctx context.Context, actor model.Identity, todoID, content string) (*SubTodoResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.InvalidInput("Content is required to create sub todo")
	}

	todo, err := s.loadTodo(ctx, todoID, "Parent todo not found")
	if err != nil {
		return nil, err
	}
	if err := access.Check(actor.UserID, todo, nil, access.ActionCreateSubTodo); err != nil {
		return nil, err
	}

	sub := &model.SubTodo{Content: content, CreatedBy: actor.UserID, ParentNode: todo.ID}
	if err := s.store.CreateSubTodo(ctx, sub); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Parent todo not found")
		}
		return nil, apperr.Internal("creating sub todo", err)
	}

	completed, err := s.reconcile(ctx, todo, completion.Vacuous)
	if err != nil {
		return nil, err
	}
	return &SubTodoResult{SubTodo: *sub, TodoCompleted: completed}, nil
}

// UpdateSubTodo changes a sub-todo's content. Completion is not affected.
func (s *Service) UpdateSubTodo(ctx context.Context, actor model.Identity, subTodoID, content string) (*model.SubTodo, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.InvalidInput("Content is required to update sub todo")
	}

	sub, todo, err := s.loadSubTodoWithParent(ctx, subTodoID, "Parent todo not found")
	if err != nil {
		return nil, err
	}
	if err := access.Check(actor.UserID, todo, sub, access.ActionUpdateSubTodo); err != nil {
		return nil, err
	}

	sub.Content = content
	if err := s.updateSubTodo(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// DeleteSubTodo removes a sub-todo and reconciles the parent. An emptied
// todo is never marked complete on this path.
func (s *Service) DeleteSubTodo(ctx context.Context, actor model.Identity, subTodoID string) (bool, error) {
	sub, todo, err := s.loadSubTodoWithParent(ctx, subTodoID, "Parent todo not found")
	if err != nil {
		return false, err
	}
	if err := access.Check(actor.UserID, todo, sub, access.ActionDeleteSubTodo); err != nil {
		return false, err
	}

	err = s.store.DeleteSubTodo(ctx, sub.ID)
	if errors.Is(err, store.ErrNotFound) {
		return false, apperr.NotFound("Sub todo not found")
	}
	if err != nil {
		return false, apperr.Internal("deleting sub todo", err)
	}

	return s.reconcile(ctx, todo, completion.RequireNonEmpty)
}

// CompleteSubTodo sets a sub-todo's completed flag and reconciles the
// parent. Any caller with read access to the parent may do this.
func (s *Service) CompleteSubTodo(ctx context.Context, actor model.Identity, subTodoID string, complete bool) (*SubTodoResult, error) {
	sub, todo, err := s.loadSubTodoWithParent(ctx, subTodoID, "Parent todo not found for this sub todo")
	if err != nil {
		return nil, err
	}
	if err := access.Check(actor.UserID, todo, sub, access.ActionCompleteSubTodo); err != nil {
		return nil, err
	}

	sub.Completed = complete
	if err := s.updateSubTodo(ctx, sub); err != nil {
		return nil, err
	}

	completed, err := s.reconcile(ctx, todo, completion.Vacuous)
	if err != nil {
		return nil, err
	}
	return &SubTodoResult{SubTodo: *sub, TodoCompleted: completed}, nil
}

func (s *Service) loadSubTodoWithParent(ctx context.Context, subTodoID, missingParent string) (*model.SubTodo, *model.Todo, error) {
	sub, err := s.loadSubTodo(ctx, subTodoID)
	if err != nil {
		return nil, nil, err
	}
	todo, err := s.loadTodo(ctx, sub.ParentNode, missingParent)
	if err != nil {
		return nil, nil, err
	}
	return sub, todo, nil
}

func (s *Service) updateSubTodo(ctx context.Context, sub *model.SubTodo) error {
	err := s.store.UpdateSubTodo(ctx, *sub)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Sub todo not found")
	}
	if err != nil {
		return apperr.Internal("updating sub todo", err)
	}
	return nil
}

// reconcile reloads the post-mutation sub-todo set, recomputes the
// parent's completed flag under policy and saves it when it changed.
func (s *Service) reconcile(ctx context.Context, todo *model.Todo, policy completion.Policy) (bool, error) {
	subs, err := s.store.GetSubTodos(ctx, todo.ID)
	if err != nil {
		return false, apperr.Internal("loading sub todos", err)
	}

	todo.SubTodos = make([]string, 0, len(subs))
	for _, sub := range subs {
		todo.SubTodos = append(todo.SubTodos, sub.ID)
	}

	if completion.Reconcile(todo, subs, policy) {
		if err := s.saveCompletion(ctx, todo); err != nil {
			return false, err
		}
		s.logger.Debug("todo completion changed", "todo", todo.ID, "completed", todo.Completed, "policy", policy)
	}
	return todo.Completed, nil
}
