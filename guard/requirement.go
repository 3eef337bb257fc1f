package guard

import (
	"github.com/getkayan/kayan-notes/policy"
)

// Requirement is the authorization requirement attached to a route.
type Requirement struct {
	Action   policy.Action
	Resource policy.ResourceType
	// ResourceIDParam names the path parameter holding the resource id.
	ResourceIDParam string
	// OwnershipCheck adds resource.ownerId to the policy context.
	OwnershipCheck bool
}

func (r Requirement) needsResource() bool {
	return r.ResourceIDParam != "" || r.OwnershipCheck
}

// AdminRole requires the admin role through the user/create policy.
func AdminRole() Requirement {
	return Requirement{Action: policy.ActionCreate, Resource: policy.ResourceUser}
}

// NoteCreate checks note creation. The acting user becomes the owner.
func NoteCreate() Requirement {
	return Requirement{Action: policy.ActionCreate, Resource: policy.ResourceNote, OwnershipCheck: true}
}

// NoteRead, NoteUpdate, NoteDelete and NoteShare check an action on the
// note whose id is in path parameter param.
func NoteRead(param string) Requirement { return noteOwned(policy.ActionRead, param) }

func NoteUpdate(param string) Requirement { return noteOwned(policy.ActionUpdate, param) }

func NoteDelete(param string) Requirement { return noteOwned(policy.ActionDelete, param) }

func NoteShare(param string) Requirement { return noteOwned(policy.ActionShare, param) }

func noteOwned(action policy.Action, param string) Requirement {
	return Requirement{
		Action:          action,
		Resource:        policy.ResourceNote,
		ResourceIDParam: param,
		OwnershipCheck:  true,
	}
}

// PublicLinkCreate checks creating a share link for a note the caller owns.
func PublicLinkCreate() Requirement {
	return Requirement{Action: policy.ActionCreate, Resource: policy.ResourcePublicLink, OwnershipCheck: true}
}

// PublicLinkDelete checks revoking one of the caller's share links.
func PublicLinkDelete() Requirement {
	return Requirement{Action: policy.ActionDelete, Resource: policy.ResourcePublicLink, OwnershipCheck: true}
}

// PublicLinkList checks listing the caller's share links.
func PublicLinkList() Requirement {
	return Requirement{Action: policy.ActionList, Resource: policy.ResourcePublicLink, OwnershipCheck: true}
}

// AdminNotesList checks the admin listing of every active note.
func AdminNotesList() Requirement {
	return Requirement{Action: policy.ActionList, Resource: policy.ResourceAdminNotes}
}
