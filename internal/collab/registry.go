// Package collab manages the collaborator list embedded in a Todo. Every
// function works on a Todo that is already loaded; persisting the result is
// the caller's job.
package collab

import (
	"regexp"
	"strings"

	"github.com/nhle/collab-todo/internal/apperr"
	"github.com/nhle/collab-todo/internal/model"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// FindByUser returns the collaborator linked to userID, or nil. Pending
// entries that were pre-linked at invite time match too.
func FindByUser(todo *model.Todo, userID string) *model.Collaborator {
	if userID == "" {
		return nil
	}
	for i := range todo.Collaborators {
		c := &todo.Collaborators[i]
		if c.UserID != nil && *c.UserID == userID {
			return c
		}
	}
	return nil
}

// FindByEmail returns the collaborator whose email matches case-insensitively,
// or nil.
func FindByEmail(todo *model.Todo, email string) *model.Collaborator {
	email = NormalizeEmail(email)
	for i := range todo.Collaborators {
		c := &todo.Collaborators[i]
		if NormalizeEmail(c.Email) == email {
			return c
		}
	}
	return nil
}

// InviteParams describes a new collaborator entry.
type InviteParams struct {
	Email      string
	Permission model.Permission

	// OwnerEmail is the todo owner's address; owners cannot invite themselves.
	OwnerEmail string

	// ExistingUserID pre-links the entry when an account already uses Email.
	ExistingUserID *string
}

// Invite appends a pending collaborator to todo. The permission defaults to
// write when empty.
func Invite(todo *model.Todo, p InviteParams) (*model.Collaborator, error) {
	email := NormalizeEmail(p.Email)
	if email == "" {
		return nil, apperr.InvalidInput("Email is required to send invitation")
	}
	if !ValidEmail(email) {
		return nil, apperr.InvalidInput(email + " is not a valid email!")
	}

	perm := p.Permission
	if perm == "" {
		perm = model.PermissionWrite
	}
	if !perm.Valid() {
		return nil, apperr.InvalidInput("Invalid permission value")
	}

	if p.OwnerEmail != "" && NormalizeEmail(p.OwnerEmail) == email {
		return nil, apperr.InvalidInput("You can't invite your self")
	}
	if FindByEmail(todo, email) != nil {
		return nil, apperr.Conflict("User is already invited as a collaborator")
	}

	todo.Collaborators = append(todo.Collaborators, model.Collaborator{
		Email:      email,
		UserID:     p.ExistingUserID,
		Permission: perm,
		Status:     model.StatusPending,
	})
	return &todo.Collaborators[len(todo.Collaborators)-1], nil
}

// Accept links userID to the entry for email and marks it accepted,
// whatever its previous status. A user is linked to at most one entry per
// todo, so accepting a second entry is a Conflict.
func Accept(todo *model.Todo, email, userID string) (*model.Collaborator, error) {
	c := FindByEmail(todo, email)
	if c == nil {
		return nil, apperr.NotFound("You are not invited to collaborate on this todo")
	}
	if linked := FindByUser(todo, userID); linked != nil && linked != c {
		return nil, apperr.Conflict("You are already a collaborator on this todo")
	}
	id := userID
	c.UserID = &id
	c.Status = model.StatusAccepted
	return c, nil
}

// SetPermission changes the permission of the entry for email, regardless
// of its status. Only the owner may call this; that rule lives in the
// access package.
func SetPermission(todo *model.Todo, email string, perm model.Permission) (*model.Collaborator, error) {
	if !perm.Valid() {
		return nil, apperr.InvalidInput("Invalid permission value")
	}
	c := FindByEmail(todo, email)
	if c == nil {
		return nil, apperr.NotFound("Collaborator not found for this todo")
	}
	c.Permission = perm
	return c, nil
}
