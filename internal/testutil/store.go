// Package testutil holds helpers shared by package tests: an in-memory
// store with the users/todos schema, fixture seeding, and a recording mail
// sender.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/collab-todo/internal/model"
	"github.com/nhle/collab-todo/internal/store"
)

// NewTestStore opens a private in-memory SQLite store with every migration
// applied and closes it when the test ends. The pool is pinned to one
// connection, so the database lives exactly as long as the store.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.Open(t.Context(), string(store.DialectSQLite), ":memory:")
	require.NoError(t, err, "opening test store")

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedUser stores an account named name with email name@example.com. The
// password hash is a placeholder and never verifies.
func SeedUser(t *testing.T, s store.Store, name string) *model.User {
	t.Helper()
	u := &model.User{UserName: name, Email: name + "@example.com", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(t.Context(), u))
	return u
}
