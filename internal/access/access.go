// Package access decides whether an actor may perform an action on a todo
// or sub-todo. Roles are derived from the loaded entities on every call and
// looked up in a single decision table.
package access

import (
	"github.com/nhle/collab-todo/internal/apperr"
	"github.com/nhle/collab-todo/internal/collab"
	"github.com/nhle/collab-todo/internal/model"
)

// Role is the caller's relation to a todo, most privileged first.
type Role int

const (
	RoleStranger Role = iota
	RoleReadCollaborator
	RoleWriteCollaborator
	RoleSubTodoCreator
	RoleOwner
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleSubTodoCreator:
		return "subtodo_creator"
	case RoleWriteCollaborator:
		return "write_collaborator"
	case RoleReadCollaborator:
		return "read_collaborator"
	default:
		return "stranger"
	}
}

// Action is an operation subject to authorization.
type Action int

const (
	ActionViewTodo Action = iota
	ActionUpdateTodo
	ActionDeleteTodo
	ActionInvite
	ActionChangePermission
	ActionCreateSubTodo
	ActionUpdateSubTodo
	ActionDeleteSubTodo
	ActionCompleteSubTodo
)

func (a Action) String() string {
	switch a {
	case ActionViewTodo:
		return "view_todo"
	case ActionUpdateTodo:
		return "update_todo"
	case ActionDeleteTodo:
		return "delete_todo"
	case ActionInvite:
		return "invite"
	case ActionChangePermission:
		return "change_permission"
	case ActionCreateSubTodo:
		return "create_subtodo"
	case ActionUpdateSubTodo:
		return "update_subtodo"
	case ActionDeleteSubTodo:
		return "delete_subtodo"
	case ActionCompleteSubTodo:
		return "complete_subtodo"
	default:
		return "unknown"
	}
}

type effect int

const (
	deny effect = iota
	allow
	// allowUnlessOwnerAuthored denies when the sub-todo was written by the
	// todo owner.
	allowUnlessOwnerAuthored
)

type rule struct {
	effect  effect
	message string
}

func permit() rule { return rule{effect: allow} }
func refuse(msg string) rule { return rule{effect: deny, message: msg} }
func guardOwner(msg string) rule { return rule{effect: allowUnlessOwnerAuthored, message: msg} }
func ownerOnly(msg string) [5]rule { return [5]rule{refuse(msg), refuse(msg), refuse(msg), refuse(msg), permit()} }

const (
	msgNotInvited      = "Unauthorized: you are not invited to this todo"
	msgReadOnly        = "Permission denied: you only have read access"
	msgUpdateSubTodo   = "You are not allowed to update this sub todo"
	msgOwnersSubTodo   = "You cannot update the todo owner's sub todos"
	msgDeleteOwnOnly   = "You can delete only your own sub todos"
	msgDeleteOwners    = "You can't delete sub todo created by todo owner"
	msgUpdateTodo      = "You don't have permission to update this todo"
	msgDeleteTodo      = "You are not authorized to delete this todo"
	msgInvite          = "Only creator can invite for collaboration"
	msgPermission      = "Only owner can update permission"
	msgViewTodo        = "You don't have access to this todo"
	msgCompleteSubTodo = "You don't have access to this sub todo"
)

// table is indexed by action, then role. Rows list roles in Role order:
// stranger, read collaborator, write collaborator, sub-todo creator, owner.
var table = map[Action][5]rule{
	ActionViewTodo: {
		refuse(msgViewTodo), permit(), permit(), permit(), permit(),
	},
	ActionUpdateTodo: {
		refuse(msgUpdateTodo), refuse(msgUpdateTodo), permit(), refuse(msgUpdateTodo), permit(),
	},
	ActionDeleteTodo:       ownerOnly(msgDeleteTodo),
	ActionInvite:           ownerOnly(msgInvite),
	ActionChangePermission: ownerOnly(msgPermission),
	ActionCreateSubTodo: {
		refuse(msgNotInvited), refuse(msgReadOnly), permit(), refuse(msgNotInvited), permit(),
	},
	ActionUpdateSubTodo: {
		refuse(msgUpdateSubTodo), refuse(msgUpdateSubTodo), guardOwner(msgOwnersSubTodo), guardOwner(msgUpdateSubTodo), permit(),
	},
	ActionDeleteSubTodo: {
		refuse(msgDeleteOwnOnly), refuse(msgDeleteOwnOnly), refuse(msgDeleteOwnOnly), guardOwner(msgDeleteOwners), permit(),
	},
	ActionCompleteSubTodo: {
		refuse(msgCompleteSubTodo), permit(), permit(), permit(), permit(),
	},
}

// RoleOf derives the actor's most privileged role. sub may be nil for
// todo-level actions, in which case the creator role never applies. The
// creator role requires current write access: a collaborator lowered to
// read keeps no rights over the sub-todos they wrote.
func RoleOf(actorID string, todo *model.Todo, sub *model.SubTodo) Role {
	if actorID == "" || todo == nil {
		return RoleStranger
	}
	if todo.CreatedBy == actorID {
		return RoleOwner
	}
	c := collab.FindByUser(todo, actorID)
	switch {
	case c == nil:
		return RoleStranger
	case c.Permission != model.PermissionWrite:
		return RoleReadCollaborator
	case sub != nil && sub.CreatedBy == actorID:
		return RoleSubTodoCreator
	default:
		return RoleWriteCollaborator
	}
}

// Check returns nil when the actor may perform action, or a Forbidden error
// carrying the rule's message.
func Check(actorID string, todo *model.Todo, sub *model.SubTodo, action Action) error {
	row, ok := table[action]
	if !ok {
		return apperr.Forbidden("Action not permitted")
	}

	r := row[RoleOf(actorID, todo, sub)]
	switch r.effect {
	case allow:
		return nil
	case allowUnlessOwnerAuthored:
		if sub != nil && sub.CreatedBy == todo.CreatedBy {
			return apperr.Forbidden(r.message)
		}
		return nil
	default:
		return apperr.Forbidden(r.message)
	}
}

// Allowed is Check as a boolean.
func Allowed(actorID string, todo *model.Todo, sub *model.SubTodo, action Action) bool {
	return Check(actorID, todo, sub, action) == nil
}
