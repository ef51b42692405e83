package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/collab-todo/internal/apperr"
	"github.com/nhle/collab-todo/internal/auth"
	"github.com/nhle/collab-todo/internal/completion"
	"github.com/nhle/collab-todo/internal/logging"
	"github.com/nhle/collab-todo/internal/model"
	"github.com/nhle/collab-todo/internal/store"
	"github.com/nhle/collab-todo/internal/testutil"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

type harness struct {
	svc    *Service
	store  *store.SQLStore
	sender *testutil.RecordingSender
	clock  *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := &clock{t: time.Now()}
	st := testutil.NewTestStore(t)
	tokens, err := auth.NewTokens("test-secret", auth.WithClock(clk.now))
	require.NoError(t, err)
	sender := &testutil.RecordingSender{}

	svc := New(st, tokens, sender, logging.Discard(),
		WithClock(clk.now),
		WithFrontendBaseURL("http://app.test"),
	)
	return &harness{svc: svc, store: st, sender: sender, clock: clk}
}

func (h *harness) register(t *testing.T, name string) model.Identity {
	t.Helper()
	u, err := h.svc.Register(context.Background(), RegisterInput{
		UserName: name,
		Email:    name + "@example.com",
		Password: "pw-" + name,
	})
	require.NoError(t, err)
	return model.Identity{UserID: u.ID, UserName: u.UserName, Email: u.Email}
}

// collaborate invites who onto todoID with perm and accepts on their behalf.
func (h *harness) collaborate(t *testing.T, owner model.Identity, todoID string, who model.Identity, perm model.Permission) {
	t.Helper()
	ctx := context.Background()
	res, err := h.svc.Invite(ctx, owner, todoID, InviteInput{Email: who.Email, Permission: perm})
	require.NoError(t, err)
	_, err = h.svc.CompleteInvitation(ctx, who, res.Token)
	require.NoError(t, err)
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
}

func todoCompleted(t *testing.T, h *harness, id string) bool {
	t.Helper()
	todo, err := h.store.GetTodoByID(context.Background(), id)
	require.NoError(t, err)
	return todo.Completed
}

func TestTripScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")
	carl := h.register(t, "carl")

	trip, err := h.svc.CreateTodo(ctx, owner, "Trip")
	require.NoError(t, err)
	assert.False(t, trip.Completed)

	inv, err := h.svc.Invite(ctx, owner, trip.ID, InviteInput{Email: carl.Email, Permission: model.PermissionWrite})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, inv.Collaborator.Status)
	require.NotNil(t, inv.Collaborator.UserID, "existing account is pre-linked")

	msg, ok := h.sender.Last()
	require.True(t, ok)
	assert.Equal(t, carl.Email, msg.To)
	assert.Contains(t, msg.HTML, "http://app.test/invite?token="+inv.Token)

	accepted, err := h.svc.AcceptInvitation(ctx, inv.Token)
	require.NoError(t, err)
	assert.False(t, accepted.RequireSignup)
	assert.Equal(t, trip.ID, accepted.TodoID)

	flight, err := h.svc.CreateSubTodo(ctx, carl, trip.ID, "Book flight")
	require.NoError(t, err)
	assert.False(t, flight.TodoCompleted)
	assert.False(t, todoCompleted(t, h, trip.ID))

	done, err := h.svc.CompleteSubTodo(ctx, carl, flight.SubTodo.ID, true)
	require.NoError(t, err)
	assert.True(t, done.TodoCompleted)
	assert.True(t, todoCompleted(t, h, trip.ID))

	pack, err := h.svc.CreateSubTodo(ctx, owner, trip.ID, "Pack bags")
	require.NoError(t, err)
	assert.False(t, pack.TodoCompleted)
	assert.False(t, todoCompleted(t, h, trip.ID))

	detail, err := h.svc.GetTodo(ctx, carl, trip.ID)
	require.NoError(t, err)
	require.Len(t, detail.SubTodoItems, 2)
	assert.Equal(t, []string{flight.SubTodo.ID, pack.SubTodo.ID}, detail.SubTodos)
	require.NotNil(t, detail.Owner)
	assert.Equal(t, "olivia", detail.Owner.UserName)
}

func TestReadCollaboratorCannotCreateSubTodo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")
	reader := h.register(t, "rita")

	todo, err := h.svc.CreateTodo(ctx, owner, "Groceries")
	require.NoError(t, err)
	h.collaborate(t, owner, todo.ID, reader, model.PermissionRead)

	_, err = h.svc.CreateSubTodo(ctx, reader, todo.ID, "Milk")
	assertKind(t, err, apperr.KindForbidden)
	assert.Equal(t, "Permission denied: you only have read access", apperr.MessageOf(err, ""))

	subs, err := h.store.GetSubTodos(ctx, todo.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	_, err = h.svc.UpdateTodo(ctx, reader, todo.ID, "Renamed")
	assertKind(t, err, apperr.KindForbidden)

	// Readers may still view the todo and toggle sub-todos.
	_, err = h.svc.GetTodo(ctx, reader, todo.ID)
	require.NoError(t, err)
	milk, err := h.svc.CreateSubTodo(ctx, owner, todo.ID, "Milk")
	require.NoError(t, err)
	_, err = h.svc.CompleteSubTodo(ctx, reader, milk.SubTodo.ID, true)
	require.NoError(t, err)
}

func TestStrangerIsLockedOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")
	stranger := h.register(t, "steve")

	todo, err := h.svc.CreateTodo(ctx, owner, "Private")
	require.NoError(t, err)
	sub, err := h.svc.CreateSubTodo(ctx, owner, todo.ID, "Secret")
	require.NoError(t, err)

	_, err = h.svc.GetTodo(ctx, stranger, todo.ID)
	assertKind(t, err, apperr.KindForbidden)
	_, err = h.svc.UpdateTodo(ctx, stranger, todo.ID, "Mine")
	assertKind(t, err, apperr.KindForbidden)
	assertKind(t, h.svc.DeleteTodo(ctx, stranger, todo.ID), apperr.KindForbidden)
	_, err = h.svc.CreateSubTodo(ctx, stranger, todo.ID, "x")
	assertKind(t, err, apperr.KindForbidden)
	_, err = h.svc.UpdateSubTodo(ctx, stranger, sub.SubTodo.ID, "x")
	assertKind(t, err, apperr.KindForbidden)
	_, err = h.svc.DeleteSubTodo(ctx, stranger, sub.SubTodo.ID)
	assertKind(t, err, apperr.KindForbidden)
	_, err = h.svc.CompleteSubTodo(ctx, stranger, sub.SubTodo.ID, true)
	assertKind(t, err, apperr.KindForbidden)

	list, err := h.svc.ListTodos(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWriteCollaboratorSubTodoRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")
	wanda := h.register(t, "wanda")
	walt := h.register(t, "walt")

	todo, err := h.svc.CreateTodo(ctx, owner, "House")
	require.NoError(t, err)
	h.collaborate(t, owner, todo.ID, wanda, model.PermissionWrite)
	h.collaborate(t, owner, todo.ID, walt, model.PermissionWrite)

	ownerSub, err := h.svc.CreateSubTodo(ctx, owner, todo.ID, "Paint")
	require.NoError(t, err)
	wandaSub, err := h.svc.CreateSubTodo(ctx, wanda, todo.ID, "Clean")
	require.NoError(t, err)

	// Owner-authored sub-todos are immutable to collaborators.
	_, err = h.svc.UpdateSubTodo(ctx, wanda, ownerSub.SubTodo.ID, "Paint blue")
	assertKind(t, err, apperr.KindForbidden)
	_, err = h.svc.DeleteSubTodo(ctx, wanda, ownerSub.SubTodo.ID)
	assertKind(t, err, apperr.KindForbidden)

	// Another collaborator's sub-todo may be edited but not deleted.
	updated, err := h.svc.UpdateSubTodo(ctx, walt, wandaSub.SubTodo.ID, "Clean kitchen")
	require.NoError(t, err)
	assert.Equal(t, "Clean kitchen", updated.Content)
	_, err = h.svc.DeleteSubTodo(ctx, walt, wandaSub.SubTodo.ID)
	assertKind(t, err, apperr.KindForbidden)

	// The creator may delete their own.
	_, err = h.svc.DeleteSubTodo(ctx, wanda, wandaSub.SubTodo.ID)
	require.NoError(t, err)

	// Owner may do anything.
	_, err = h.svc.UpdateSubTodo(ctx, owner, ownerSub.SubTodo.ID, "Paint red")
	require.NoError(t, err)
	_, err = h.svc.UpdateTodo(ctx, wanda, todo.ID, "Home")
	require.NoError(t, err)
	assertKind(t, h.svc.DeleteTodo(ctx, wanda, todo.ID), apperr.KindForbidden)
	require.NoError(t, h.svc.DeleteTodo(ctx, owner, todo.ID))

	_, err = h.store.GetSubTodoByID(ctx, ownerSub.SubTodo.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCompletionAsymmetry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")

	todo, err := h.svc.CreateTodo(ctx, owner, "Errands")
	require.NoError(t, err)
	sub, err := h.svc.CreateSubTodo(ctx, owner, todo.ID, "Bank")
	require.NoError(t, err)

	res, err := h.svc.CompleteSubTodo(ctx, owner, sub.SubTodo.ID, true)
	require.NoError(t, err)
	assert.True(t, res.TodoCompleted)

	// Deleting the last sub-todo never leaves the todo complete.
	completed, err := h.svc.DeleteSubTodo(ctx, owner, sub.SubTodo.ID)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.False(t, todoCompleted(t, h, todo.ID))

	// Viewing recomputes with the vacuous policy and persists it.
	detail, err := h.svc.GetTodo(ctx, owner, todo.ID)
	require.NoError(t, err)
	assert.True(t, detail.Completed)
	assert.Empty(t, detail.SubTodoItems)
	assert.True(t, todoCompleted(t, h, todo.ID))
}

func TestDeleteKeepsCompletionWhenRemainderComplete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")

	todo, err := h.svc.CreateTodo(ctx, owner, "Errands")
	require.NoError(t, err)
	a, err := h.svc.CreateSubTodo(ctx, owner, todo.ID, "A")
	require.NoError(t, err)
	b, err := h.svc.CreateSubTodo(ctx, owner, todo.ID, "B")
	require.NoError(t, err)

	_, err = h.svc.CompleteSubTodo(ctx, owner, a.SubTodo.ID, true)
	require.NoError(t, err)
	assert.False(t, todoCompleted(t, h, todo.ID))

	completed, err := h.svc.DeleteSubTodo(ctx, owner, b.SubTodo.ID)
	require.NoError(t, err)
	assert.True(t, completed)

	res, err := h.svc.CompleteSubTodo(ctx, owner, a.SubTodo.ID, false)
	require.NoError(t, err)
	assert.False(t, res.TodoCompleted)
}

func TestInviteRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")
	writer := h.register(t, "wanda")

	todo, err := h.svc.CreateTodo(ctx, owner, "Party")
	require.NoError(t, err)

	_, err = h.svc.Invite(ctx, owner, todo.ID, InviteInput{Email: "OLIVIA@example.com"})
	assertKind(t, err, apperr.KindInvalidInput)
	assert.Equal(t, "You can't invite your self", apperr.MessageOf(err, ""))

	_, err = h.svc.Invite(ctx, owner, todo.ID, InviteInput{})
	assertKind(t, err, apperr.KindInvalidInput)
	_, err = h.svc.Invite(ctx, owner, todo.ID, InviteInput{Email: "nope"})
	assertKind(t, err, apperr.KindInvalidInput)
	_, err = h.svc.Invite(ctx, owner, todo.ID, InviteInput{Email: "x@example.com", Permission: "admin"})
	assertKind(t, err, apperr.KindInvalidInput)
	_, err = h.svc.Invite(ctx, owner, "missing", InviteInput{Email: "x@example.com"})
	assertKind(t, err, apperr.KindNotFound)

	res, err := h.svc.Invite(ctx, owner, todo.ID, InviteInput{Email: "Guest@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", res.Collaborator.Email)
	assert.Equal(t, model.PermissionWrite, res.Collaborator.Permission)
	assert.Nil(t, res.Collaborator.UserID)

	_, err = h.svc.Invite(ctx, owner, todo.ID, InviteInput{Email: "guest@EXAMPLE.com"})
	assertKind(t, err, apperr.KindConflict)

	h.collaborate(t, owner, todo.ID, writer, model.PermissionWrite)
	_, err = h.svc.Invite(ctx, writer, todo.ID, InviteInput{Email: "other@example.com"})
	assertKind(t, err, apperr.KindForbidden)

	stored, err := h.store.GetTodoByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Collaborators, 2)
}

func TestInviteEmailFailureStoresNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")

	todo, err := h.svc.CreateTodo(ctx, owner, "Party")
	require.NoError(t, err)

	h.sender.Err = errors.New("smtp down")
	_, err = h.svc.Invite(ctx, owner, todo.ID, InviteInput{Email: "guest@example.com"})
	assertKind(t, err, apperr.KindDependency)

	stored, err := h.store.GetTodoByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Collaborators)
}

func TestAcceptInvitation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")

	todo, err := h.svc.CreateTodo(ctx, owner, "Party")
	require.NoError(t, err)
	inv, err := h.svc.Invite(ctx, owner, todo.ID, InviteInput{Email: "newbie@example.com", Permission: model.PermissionRead})
	require.NoError(t, err)

	t.Run("RequireSignup", func(t *testing.T) {
		res, err := h.svc.AcceptInvitation(ctx, inv.Token)
		require.NoError(t, err)
		assert.True(t, res.RequireSignup)
		assert.Equal(t, "newbie@example.com", res.Email)
		assert.Equal(t, todo.ID, res.TodoID)
		assert.Equal(t, inv.Token, res.Token)

		stored, err := h.store.GetTodoByID(ctx, todo.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, stored.Collaborators[0].Status)
	})

	t.Run("CompleteAfterSignup", func(t *testing.T) {
		newbie := h.register(t, "newbie")
		got, err := h.svc.CompleteInvitation(ctx, newbie, inv.Token)
		require.NoError(t, err)
		require.Len(t, got.Collaborators, 1)
		assert.Equal(t, model.StatusAccepted, got.Collaborators[0].Status)
		require.NotNil(t, got.Collaborators[0].UserID)
		assert.Equal(t, newbie.UserID, *got.Collaborators[0].UserID)

		list, err := h.svc.ListTodosForHome(ctx, newbie)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Nil(t, list[0].Collaborators)
	})

	t.Run("MissingToken", func(t *testing.T) {
		_, err := h.svc.AcceptInvitation(ctx, " ")
		assertKind(t, err, apperr.KindInvalidInput)
	})

	t.Run("TamperedToken", func(t *testing.T) {
		_, err := h.svc.AcceptInvitation(ctx, inv.Token+"x")
		assertKind(t, err, apperr.KindUnauthenticated)
	})

	t.Run("UninvitedEmail", func(t *testing.T) {
		token, err := h.svc.Tokens().IssueInvitation(todo.ID, "someone@example.com")
		require.NoError(t, err)
		_, err = h.svc.AcceptInvitation(ctx, token)
		assertKind(t, err, apperr.KindNotFound)
	})

	t.Run("DeletedTodo", func(t *testing.T) {
		other, err := h.svc.CreateTodo(ctx, owner, "Gone")
		require.NoError(t, err)
		res, err := h.svc.Invite(ctx, owner, other.ID, InviteInput{Email: "late@example.com"})
		require.NoError(t, err)
		require.NoError(t, h.svc.DeleteTodo(ctx, owner, other.ID))

		_, err = h.svc.AcceptInvitation(ctx, res.Token)
		assertKind(t, err, apperr.KindNotFound)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		saved := h.clock.t
		defer func() { h.clock.t = saved }()
		h.clock.t = saved.Add(8 * 24 * time.Hour)

		_, err := h.svc.AcceptInvitation(ctx, inv.Token)
		assertKind(t, err, apperr.KindUnauthenticated)
	})
}

func TestChangePermission(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")
	wanda := h.register(t, "wanda")

	todo, err := h.svc.CreateTodo(ctx, owner, "Party")
	require.NoError(t, err)
	h.collaborate(t, owner, todo.ID, wanda, model.PermissionWrite)

	_, err = h.svc.ChangePermission(ctx, wanda, todo.ID, ChangePermissionInput{CollaboratorEmail: wanda.Email, Permission: model.PermissionWrite})
	assertKind(t, err, apperr.KindForbidden)
	assert.Equal(t, "Only owner can update permission", apperr.MessageOf(err, ""))

	_, err = h.svc.ChangePermission(ctx, owner, todo.ID, ChangePermissionInput{CollaboratorEmail: "ghost@example.com", Permission: model.PermissionRead})
	assertKind(t, err, apperr.KindNotFound)

	_, err = h.svc.ChangePermission(ctx, owner, todo.ID, ChangePermissionInput{CollaboratorEmail: wanda.Email})
	assertKind(t, err, apperr.KindInvalidInput)

	got, err := h.svc.ChangePermission(ctx, owner, todo.ID, ChangePermissionInput{CollaboratorEmail: strings.ToUpper(wanda.Email), Permission: model.PermissionRead})
	require.NoError(t, err)
	assert.Equal(t, model.PermissionRead, got.Collaborators[0].Permission)

	_, err = h.svc.CreateSubTodo(ctx, wanda, todo.ID, "Cake")
	assertKind(t, err, apperr.KindForbidden)
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	u, err := h.svc.Register(ctx, RegisterInput{UserName: "  Alice ", Email: "Alice@Example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserName)
	assert.Equal(t, "alice@example.com", u.Email)
	msg, ok := h.sender.Last()
	require.True(t, ok)
	assert.Equal(t, "Welcome to Todo App!", msg.Subject)

	_, err = h.svc.Register(ctx, RegisterInput{UserName: "alice", Email: "other@example.com", Password: "x"})
	assertKind(t, err, apperr.KindConflict)
	_, err = h.svc.Register(ctx, RegisterInput{UserName: "bob", Email: "alice@example.com", Password: "x"})
	assertKind(t, err, apperr.KindConflict)
	_, err = h.svc.Register(ctx, RegisterInput{UserName: "bob", Email: "bob@example.com"})
	assertKind(t, err, apperr.KindInvalidInput)
	_, err = h.svc.Register(ctx, RegisterInput{UserName: "bob", Email: "bob", Password: "x"})
	assertKind(t, err, apperr.KindInvalidInput)

	for _, identifier := range []string{"alice", "ALICE@example.com"} {
		res, err := h.svc.Login(ctx, LoginInput{Identifier: identifier, Password: "secret"})
		require.NoError(t, err, identifier)
		id, err := h.svc.Tokens().VerifySession(res.Token)
		require.NoError(t, err)
		assert.Equal(t, u.ID, id.UserID)
		assert.Equal(t, "alice", res.User.UserName)
	}

	_, err = h.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "wrong"})
	assertKind(t, err, apperr.KindUnauthenticated)
	_, err = h.svc.Login(ctx, LoginInput{Identifier: "nobody", Password: "secret"})
	assertKind(t, err, apperr.KindNotFound)
	_, err = h.svc.Login(ctx, LoginInput{Identifier: "alice"})
	assertKind(t, err, apperr.KindInvalidInput)
}

func TestRegisterEmailFailureStoresNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.sender.Err = errors.New("smtp down")
	_, err := h.svc.Register(ctx, RegisterInput{UserName: "alice", Email: "alice@example.com", Password: "x"})
	assertKind(t, err, apperr.KindDependency)

	_, err = h.store.GetUserByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPasswordResetWithOTP(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "alice")

	err := h.svc.ResetPassword(ctx, alice, ResetPasswordInput{OTP: "123456", NewPassword: "new"})
	assertKind(t, err, apperr.KindInvalidInput)
	assert.Equal(t, "OTP not generated. Please request a new one.", apperr.MessageOf(err, ""))

	require.NoError(t, h.svc.GenerateOTP(ctx, alice))
	msg, ok := h.sender.Last()
	require.True(t, ok)
	assert.Equal(t, "Your OTP for Password Reset", msg.Subject)

	user, err := h.store.GetUserByID(ctx, alice.UserID)
	require.NoError(t, err)
	require.NotNil(t, user.OTP)
	otp := *user.OTP
	assert.Contains(t, msg.Text, otp)

	err = h.svc.ResetPassword(ctx, alice, ResetPasswordInput{OTP: "000000x", NewPassword: "new"})
	assertKind(t, err, apperr.KindInvalidInput)
	assert.Equal(t, "Invalid OTP", apperr.MessageOf(err, ""))

	err = h.svc.ResetPassword(ctx, alice, ResetPasswordInput{})
	assertKind(t, err, apperr.KindInvalidInput)

	require.NoError(t, h.svc.ResetPassword(ctx, alice, ResetPasswordInput{OTP: otp, NewPassword: "brand-new"}))

	_, err = h.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "pw-alice"})
	assertKind(t, err, apperr.KindUnauthenticated)
	_, err = h.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "brand-new"})
	require.NoError(t, err)

	user, err = h.store.GetUserByID(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Nil(t, user.OTP)
	assert.Nil(t, user.OTPExpiresAt)
}

func TestExpiredOTP(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.register(t, "alice")

	require.NoError(t, h.svc.GenerateOTP(ctx, alice))
	user, err := h.store.GetUserByID(ctx, alice.UserID)
	require.NoError(t, err)

	h.clock.t = h.clock.t.Add(11 * time.Minute)
	err = h.svc.ResetPassword(ctx, alice, ResetPasswordInput{OTP: *user.OTP, NewPassword: "new"})
	assertKind(t, err, apperr.KindInvalidInput)
	assert.Equal(t, "OTP has expired. Please request a new one.", apperr.MessageOf(err, ""))
}

func TestListTodosNewestFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")
	wanda := h.register(t, "wanda")

	first, err := h.svc.CreateTodo(ctx, owner, "First")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := h.svc.CreateTodo(ctx, wanda, "Second")
	require.NoError(t, err)
	h.collaborate(t, wanda, second.ID, owner, model.PermissionRead)

	list, err := h.svc.ListTodos(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	require.NotNil(t, list[0].Owner)
	assert.Equal(t, "wanda", list[0].Owner.UserName)
	assert.Len(t, list[0].Collaborators, 1)
}

func TestValidationErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")

	_, err := h.svc.CreateTodo(ctx, owner, "  ")
	assertKind(t, err, apperr.KindInvalidInput)
	_, err = h.svc.UpdateTodo(ctx, owner, "missing", "x")
	assertKind(t, err, apperr.KindNotFound)
	_, err = h.svc.CreateSubTodo(ctx, owner, "missing", "x")
	assertKind(t, err, apperr.KindNotFound)
	_, err = h.svc.CompleteSubTodo(ctx, owner, "missing", true)
	assertKind(t, err, apperr.KindNotFound)
	_, err = h.svc.UpdateSubTodo(ctx, owner, "missing", "")
	assertKind(t, err, apperr.KindInvalidInput)
	_, err = h.svc.GetTodo(ctx, owner, "missing")
	assertKind(t, err, apperr.KindNotFound)
}

func TestDowngradedWriterLosesOwnSubTodos(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")
	carl := h.register(t, "carl")

	todo, err := h.svc.CreateTodo(ctx, owner, "Trip")
	require.NoError(t, err)
	h.collaborate(t, owner, todo.ID, carl, model.PermissionWrite)

	mine, err := h.svc.CreateSubTodo(ctx, carl, todo.ID, "mine")
	require.NoError(t, err)

	_, err = h.svc.ChangePermission(ctx, owner, todo.ID, ChangePermissionInput{
		CollaboratorEmail: carl.Email, Permission: model.PermissionRead,
	})
	require.NoError(t, err)

	_, err = h.svc.UpdateSubTodo(ctx, carl, mine.SubTodo.ID, "edited")
	assertKind(t, err, apperr.KindForbidden)
	_, err = h.svc.DeleteSubTodo(ctx, carl, mine.SubTodo.ID)
	assertKind(t, err, apperr.KindForbidden)

	_, err = h.svc.CompleteSubTodo(ctx, carl, mine.SubTodo.ID, true)
	assert.NoError(t, err)
}

func TestOverlongPasswordIsInvalidInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	long := strings.Repeat("p", 80)

	_, err := h.svc.Register(ctx, RegisterInput{UserName: "alice", Email: "alice@example.com", Password: long})
	assertKind(t, err, apperr.KindInvalidInput)
	_, ok := h.sender.Last()
	assert.False(t, ok, "no welcome email for a rejected registration")

	alice := h.register(t, "alice")
	require.NoError(t, h.svc.GenerateOTP(ctx, alice))
	user, err := h.store.GetUserByID(ctx, alice.UserID)
	require.NoError(t, err)
	require.NotNil(t, user.OTP)

	err = h.svc.ResetPassword(ctx, alice, ResetPasswordInput{OTP: *user.OTP, NewPassword: long})
	assertKind(t, err, apperr.KindInvalidInput)

	_, err = h.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "pw-alice"})
	assert.NoError(t, err, "old password still valid")
}

func TestReconcileKeepsConcurrentInvite(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")

	todo, err := h.svc.CreateTodo(ctx, owner, "Trip")
	require.NoError(t, err)
	sub, err := h.svc.CreateSubTodo(ctx, owner, todo.ID, "Book flight")
	require.NoError(t, err)

	// Snapshot loaded before an invite lands.
	stale, err := h.store.GetTodoByID(ctx, todo.ID)
	require.NoError(t, err)
	_, err = h.svc.Invite(ctx, owner, todo.ID, InviteInput{Email: "carol@example.com"})
	require.NoError(t, err)

	require.NoError(t, h.store.UpdateSubTodo(ctx, model.SubTodo{ID: sub.SubTodo.ID, Content: "Book flight", Completed: true}))
	completed, err := h.svc.reconcile(ctx, stale, completion.Vacuous)
	require.NoError(t, err)
	assert.True(t, completed)

	got, err := h.store.GetTodoByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.Len(t, got.Collaborators, 1)
	assert.Equal(t, "carol@example.com", got.Collaborators[0].Email)
}

func TestCompleteInvitationRejectsSecondEntry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.register(t, "olivia")
	carl := h.register(t, "carl")

	todo, err := h.svc.CreateTodo(ctx, owner, "Trip")
	require.NoError(t, err)
	h.collaborate(t, owner, todo.ID, carl, model.PermissionRead)

	other, err := h.svc.Invite(ctx, owner, todo.ID, InviteInput{Email: "carl.work@example.com", Permission: model.PermissionWrite})
	require.NoError(t, err)

	_, err = h.svc.CompleteInvitation(ctx, carl, other.Token)
	assertKind(t, err, apperr.KindConflict)

	got, err := h.store.GetTodoByID(ctx, todo.ID)
	require.NoError(t, err)
	require.Len(t, got.Collaborators, 2)
	assert.Nil(t, got.Collaborators[1].UserID)
	assert.Equal(t, model.StatusPending, got.Collaborators[1].Status)
}

