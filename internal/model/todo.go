package model

import "time"

// Permission is the capability level granted to a collaborator.
type Permission string

// Permission constants.
const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// Valid reports whether p is a known permission level.
func (p Permission) Valid() bool {
	return p == PermissionRead || p == PermissionWrite
}

// CollaboratorStatus tracks whether an invitation has been redeemed.
type CollaboratorStatus string

// Collaborator status constants.
const (
	StatusPending  CollaboratorStatus = "pending"
	StatusAccepted CollaboratorStatus = "accepted"
)

// Todo is a top-level task owned by one user. Completed is derived from the
// sub-todos and is never set directly by a client.
type Todo struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Completed bool      `json:"completed" db:"completed"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// SubTodos holds sub-todo ids in creation order.
	SubTodos []string `json:"subTodos" db:"-"`

	// Collaborators is omitted from home listings.
	Collaborators []Collaborator `json:"collaborators,omitempty" db:"-"`
}

// Collaborator is an invited identity embedded in a Todo. Email is the
// durable key; UserID stays nil until the email is linked to an account.
type Collaborator struct {
	Email      string             `json:"email" db:"email"`
	UserID     *string            `json:"user,omitempty" db:"user_id"`
	Permission Permission         `json:"permission" db:"permission"`
	Status     CollaboratorStatus `json:"status" db:"status"`
}

// SubTodo is a child task belonging to exactly one Todo.
type SubTodo struct {
	ID         string    `json:"id" db:"id"`
	Content    string    `json:"content" db:"content"`
	Completed  bool      `json:"completed" db:"completed"`
	CreatedBy  string    `json:"createdBy" db:"created_by"`
	ParentNode string    `json:"parentNode" db:"todo_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// TodoDetail is a Todo with its sub-todos and owner resolved for display.
type TodoDetail struct {
	Todo
	Owner        *UserSummary `json:"owner,omitempty"`
	SubTodoItems []SubTodo    `json:"subTodoItems"`
}
