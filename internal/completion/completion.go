// Package completion derives a todo's completed flag from its sub-todos.
package completion

import "github.com/nhle/collab-todo/internal/model"

// Policy selects how an empty sub-todo set is treated.
type Policy int

const (
	// Vacuous marks a todo complete when every sub-todo is complete,
	// including when there are none. Used after create, toggle and fetch.
	Vacuous Policy = iota

	// RequireNonEmpty additionally requires at least one sub-todo. Used
	// after delete.
	RequireNonEmpty
)

func (p Policy) String() string {
	if p == RequireNonEmpty {
		return "require_non_empty"
	}
	return "vacuous"
}

// AllComplete evaluates subs under policy.
func AllComplete(subs []model.SubTodo, policy Policy) bool {
	if policy == RequireNonEmpty && len(subs) == 0 {
		return false
	}
	for _, s := range subs {
		if !s.Completed {
			return false
		}
	}
	return true
}

// Reconcile sets todo.Completed from subs, which must be the post-mutation
// set. It reports whether the flag changed.
func Reconcile(todo *model.Todo, subs []model.SubTodo, policy Policy) bool {
	next := AllComplete(subs, policy)
	changed := todo.Completed != next
	todo.Completed = next
	return changed
}
