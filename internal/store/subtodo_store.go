package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/collab-todo/internal/model"
)

const subTodoColumns = "id, todo_id, content, completed, created_by, created_at, updated_at"

// CreateSubTodo inserts a new sub-todo at the end of its parent's list.
// Generates a UUID if ID is empty.
func (s *SQLStore) CreateSubTodo(ctx context.Context, sub *model.SubTodo) error {
	if strings.TrimSpace(sub.Content) == "" {
		return fmt.Errorf("sub-todo content must not be empty")
	}
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, tx.Rebind(
			"SELECT COUNT(*) FROM todos WHERE id = ?"), sub.ParentNode); err != nil {
			return fmt.Errorf("checking parent todo %s: %w", sub.ParentNode, err)
		}
		if exists == 0 {
			return fmt.Errorf("parent todo %s: %w", sub.ParentNode, ErrNotFound)
		}

		var position int
		if err := tx.GetContext(ctx, &position, tx.Rebind(
			"SELECT COALESCE(MAX(position), -1) + 1 FROM sub_todos WHERE todo_id = ?"), sub.ParentNode); err != nil {
			return fmt.Errorf("computing sub-todo position: %w", err)
		}

		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO sub_todos (`+subTodoColumns+`, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			sub.ID, sub.ParentNode, sub.Content, boolToInt(sub.Completed), sub.CreatedBy,
			sub.CreatedAt, sub.UpdatedAt, position,
		)
		if err != nil {
			return fmt.Errorf("creating sub-todo: %w", classify(err))
		}
		return nil
	})
}

// UpdateSubTodo updates content and completed of an existing sub-todo.
// Parent and creator are immutable.
func (s *SQLStore) UpdateSubTodo(ctx context.Context, sub model.SubTodo) error {
	if strings.TrimSpace(sub.Content) == "" {
		return fmt.Errorf("sub-todo content must not be empty")
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE sub_todos SET
			content = ?, completed = ?, updated_at = ?
		WHERE id = ?`),
		sub.Content, boolToInt(sub.Completed), time.Now().UTC(),
		sub.ID,
	)
	if err != nil {
		return fmt.Errorf("updating sub-todo %s: %w", sub.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("sub-todo %s: %w", sub.ID, ErrNotFound)
	}
	return nil
}

// DeleteSubTodo removes a sub-todo by ID.
func (s *SQLStore) DeleteSubTodo(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM sub_todos WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting sub-todo %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("sub-todo %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetSubTodoByID retrieves a single sub-todo by ID.
func (s *SQLStore) GetSubTodoByID(ctx context.Context, id string) (*model.SubTodo, error) {
	var sub model.SubTodo
	query := s.db.Rebind("SELECT " + subTodoColumns + " FROM sub_todos WHERE id = ?")
	if err := s.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, fmt.Errorf("getting sub-todo %s: %w", id, notFound(err))
	}
	return &sub, nil
}

// GetSubTodos returns the sub-todos of a todo in creation order.
func (s *SQLStore) GetSubTodos(ctx context.Context, todoID string) ([]model.SubTodo, error) {
	query, args, err := s.builder().
		Select(strings.Split(subTodoColumns, ", ")...).
		From("sub_todos").
		Where("todo_id = ?", todoID).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building sub-todo query: %w", err)
	}

	subs := []model.SubTodo{}
	if err := s.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, fmt.Errorf("listing sub-todos for todo %s: %w", todoID, err)
	}
	return subs, nil
}
