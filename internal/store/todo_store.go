package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/collab-todo/internal/model"
)

const todoColumns = "id, title, completed, created_by, created_at, updated_at"

// CreateTodo inserts a new todo. Generates a UUID if ID is empty. Any
// collaborators already on todo are stored with it.
func (s *SQLStore) CreateTodo(ctx context.Context, todo *model.Todo) error {
	if strings.TrimSpace(todo.Title) == "" {
		return fmt.Errorf("todo title must not be empty")
	}
	if todo.CreatedBy == "" {
		return fmt.Errorf("todo owner must not be empty")
	}
	if todo.ID == "" {
		todo.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = now
	}
	todo.UpdatedAt = now
	if todo.SubTodos == nil {
		todo.SubTodos = []string{}
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO todos (`+todoColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)`),
			todo.ID, todo.Title, boolToInt(todo.Completed), todo.CreatedBy,
			todo.CreatedAt.UTC(), todo.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("creating todo: %w", classify(err))
		}
		return replaceCollaborators(ctx, tx, todo.ID, todo.Collaborators)
	})
}

// SaveTodo updates title and completed and replaces the collaborator list
// in one transaction. The owner is immutable and never written.
func (s *SQLStore) SaveTodo(ctx context.Context, todo model.Todo) error {
	if strings.TrimSpace(todo.Title) == "" {
		return fmt.Errorf("todo title must not be empty")
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE todos SET
				title = ?, completed = ?, updated_at = ?
			WHERE id = ?`),
			todo.Title, boolToInt(todo.Completed), time.Now().UTC(),
			todo.ID,
		)
		if err != nil {
			return fmt.Errorf("updating todo %s: %w", todo.ID, err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("todo %s: %w", todo.ID, ErrNotFound)
		}
		return replaceCollaborators(ctx, tx, todo.ID, todo.Collaborators)
	})
}

// UpdateTodoCompletion sets completed without touching the title or the
// collaborator list.
func (s *SQLStore) UpdateTodoCompletion(ctx context.Context, id string, completed bool) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE todos SET completed = ?, updated_at = ? WHERE id = ?`),
		boolToInt(completed), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating completion of todo %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteTodo removes a todo by ID along with its sub-todos and
// collaborators.
func (s *SQLStore) DeleteTodo(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM sub_todos WHERE todo_id = ?",
			"DELETE FROM collaborators WHERE todo_id = ?",
		} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), id); err != nil {
				return fmt.Errorf("deleting children of todo %s: %w", id, err)
			}
		}

		result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM todos WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("deleting todo %s: %w", id, err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("todo %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// GetTodoByID retrieves a single todo by ID, including its sub-todo ids and
// collaborators.
func (s *SQLStore) GetTodoByID(ctx context.Context, id string) (*model.Todo, error) {
	var todo model.Todo
	query := s.db.Rebind("SELECT " + todoColumns + " FROM todos WHERE id = ?")
	if err := s.db.GetContext(ctx, &todo, query, id); err != nil {
		return nil, fmt.Errorf("getting todo %s: %w", id, notFound(err))
	}

	if err := s.loadChildren(ctx, &todo, true); err != nil {
		return nil, err
	}
	return &todo, nil
}

// ListTodos retrieves todos matching the filter, newest first.
func (s *SQLStore) ListTodos(ctx context.Context, filter TodoFilter) ([]model.Todo, error) {
	query := s.builder().
		Select(prefixColumns("t", todoColumns)...).
		From("todos t").
		OrderBy("t.created_at DESC", "t.id")

	if filter.AccessibleBy != "" {
		query = query.Where(sq.Or{
			sq.Eq{"t.created_by": filter.AccessibleBy},
			sq.Expr("EXISTS (SELECT 1 FROM collaborators c WHERE c.todo_id = t.id AND c.user_id = ?)", filter.AccessibleBy),
		})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building todo query: %w", err)
	}

	var todos []model.Todo
	if err := s.db.SelectContext(ctx, &todos, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("querying todos: %w", err)
	}

	// Load children for each todo.
	for i := range todos {
		if err := s.loadChildren(ctx, &todos[i], filter.WithCollaborators); err != nil {
			return nil, err
		}
	}

	return todos, nil
}

// loadChildren fills the sub-todo id list and, optionally, collaborators.
func (s *SQLStore) loadChildren(ctx context.Context, todo *model.Todo, withCollaborators bool) error {
	todo.SubTodos = []string{}
	if err := s.db.SelectContext(ctx, &todo.SubTodos, s.db.Rebind(
		"SELECT id FROM sub_todos WHERE todo_id = ? ORDER BY position"), todo.ID); err != nil {
		return fmt.Errorf("loading sub-todo ids for todo %s: %w", todo.ID, err)
	}

	if !withCollaborators {
		todo.Collaborators = nil
		return nil
	}

	todo.Collaborators = []model.Collaborator{}
	if err := s.db.SelectContext(ctx, &todo.Collaborators, s.db.Rebind(`
		SELECT email, user_id, permission, status
		FROM collaborators
		WHERE todo_id = ?
		ORDER BY position`), todo.ID); err != nil {
		return fmt.Errorf("loading collaborators for todo %s: %w", todo.ID, err)
	}
	return nil
}

// replaceCollaborators rewrites the collaborator rows of a todo, keeping
// list order in the position column.
func replaceCollaborators(ctx context.Context, tx *sqlx.Tx, todoID string, collaborators []model.Collaborator) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM collaborators WHERE todo_id = ?"), todoID); err != nil {
		return fmt.Errorf("clearing collaborators for todo %s: %w", todoID, err)
	}
	if len(collaborators) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO collaborators (todo_id, email, user_id, permission, status, position)
		VALUES (?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("preparing collaborator insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range collaborators {
		_, err := stmt.ExecContext(ctx,
			todoID, c.Email, c.UserID, string(c.Permission), string(c.Status), i,
		)
		if err != nil {
			return fmt.Errorf("inserting collaborator %s for todo %s: %w", c.Email, todoID, classify(err))
		}
	}
	return nil
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) []string {
	parts := strings.Split(columns, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, alias+"."+strings.TrimSpace(p))
	}
	return out
}
