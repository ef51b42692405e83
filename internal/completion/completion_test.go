package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/collab-todo/internal/model"
)

func subs(states ...bool) []model.SubTodo {
	out := make([]model.SubTodo, 0, len(states))
	for _, done := range states {
		out = append(out, model.SubTodo{Completed: done})
	}
	return out
}

func TestAllComplete(t *testing.T) {
	tests := []struct {
		name   string
		subs   []model.SubTodo
		policy Policy
		want   bool
	}{
		{"empty vacuous", nil, Vacuous, true},
		{"empty non-empty", nil, RequireNonEmpty, false},
		{"all done vacuous", subs(true, true), Vacuous, true},
		{"all done non-empty", subs(true, true), RequireNonEmpty, true},
		{"one open vacuous", subs(true, false), Vacuous, false},
		{"one open non-empty", subs(false), RequireNonEmpty, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllComplete(tt.subs, tt.policy))
		})
	}
}

func TestReconcile(t *testing.T) {
	todo := &model.Todo{}

	assert.False(t, Reconcile(todo, subs(false), Vacuous))
	assert.False(t, todo.Completed)

	assert.True(t, Reconcile(todo, subs(true), Vacuous))
	assert.True(t, todo.Completed)

	assert.True(t, Reconcile(todo, nil, RequireNonEmpty))
	assert.False(t, todo.Completed)

	assert.True(t, Reconcile(todo, nil, Vacuous))
	assert.True(t, todo.Completed)
}
