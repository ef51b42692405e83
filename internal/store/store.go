package store

import (
	"context"
	"errors"

	"github.com/nhle/collab-todo/internal/model"
)

// Sentinel errors returned (wrapped) by Store implementations.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key violation")
)

// TodoFilter controls which todos ListTodos returns. Results are always
// sorted newest first.
type TodoFilter struct {
	// AccessibleBy limits results to todos owned by this user id or with a
	// collaborator entry linked to it.
	AccessibleBy string

	// WithCollaborators loads the collaborator list of each todo.
	WithCollaborators bool
}

// Store defines the persistence interface for users, todos, and sub-todos.
// Single-entity writes are atomic; multi-entity sequences are not.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, user *model.User) error
	UpdateUser(ctx context.Context, user model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUserName(ctx context.Context, userName string) (*model.User, error)

	// === Todos ===

	CreateTodo(ctx context.Context, todo *model.Todo) error
	// SaveTodo persists title, completed and the collaborator list.
	SaveTodo(ctx context.Context, todo model.Todo) error
	// UpdateTodoCompletion writes only the completed flag.
	UpdateTodoCompletion(ctx context.Context, id string, completed bool) error
	// DeleteTodo removes the todo together with its sub-todos.
	DeleteTodo(ctx context.Context, id string) error
	GetTodoByID(ctx context.Context, id string) (*model.Todo, error)
	ListTodos(ctx context.Context, filter TodoFilter) ([]model.Todo, error)

	// === Sub-todos ===

	// CreateSubTodo inserts the sub-todo and appends it to its parent's list.
	CreateSubTodo(ctx context.Context, sub *model.SubTodo) error
	UpdateSubTodo(ctx context.Context, sub model.SubTodo) error
	// DeleteSubTodo removes the sub-todo and drops it from its parent's list.
	DeleteSubTodo(ctx context.Context, id string) error
	GetSubTodoByID(ctx context.Context, id string) (*model.SubTodo, error)
	GetSubTodos(ctx context.Context, todoID string) ([]model.SubTodo, error)
}
