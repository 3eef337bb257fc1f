package policy

import (
	"github.com/getkayan/kayan-notes/identity"
)

func ownerOnly() []Condition {
	return []Condition{{Attribute: "user.id", Operator: OpEquals, Value: Ref("resource.ownerId")}}
}

func roleIs(role identity.Role) []Condition {
	return []Condition{{Attribute: "user.role", Operator: OpEquals, Value: Literal(role)}}
}

// DefaultPolicies returns the built-in policy set. For every resource/action
// pair the controlling rule is listed first.
func DefaultPolicies() []Policy {
	return []Policy{
		{
			ID:         "user-create-admin",
			Name:       "Allow admin to create users",
			Resource:   ResourceUser,
			Action:     ActionCreate,
			Conditions: roleIs(identity.RoleAdmin),
			Effect:     EffectAllow,
		},
		{
			ID:       "note-create-user",
			Name:     "Allow users to create notes",
			Resource: ResourceNote,
			Action:   ActionCreate,
			Conditions: []Condition{{
				Attribute: "user.role",
				Operator:  OpIn,
				Value:     Literal([]identity.Role{identity.RoleUser, identity.RoleAdmin}),
			}},
			Effect: EffectAllow,
		},
		{
			ID:         "note-read-owner",
			Name:       "Allow users to read their own notes",
			Resource:   ResourceNote,
			Action:     ActionRead,
			Conditions: ownerOnly(),
			Effect:     EffectAllow,
		},
		{
			ID:         "note-update-owner",
			Name:       "Allow users to update their own notes",
			Resource:   ResourceNote,
			Action:     ActionUpdate,
			Conditions: ownerOnly(),
			Effect:     EffectAllow,
		},
		{
			ID:         "note-delete-owner",
			Name:       "Allow users to delete their own notes",
			Resource:   ResourceNote,
			Action:     ActionDelete,
			Conditions: ownerOnly(),
			Effect:     EffectAllow,
		},
		{
			ID:       "note-share-owner",
			Name:     "Allow users to share their own notes",
			Resource: ResourceNote,
			Action:   ActionShare,
			Conditions: append(ownerOnly(), Condition{
				Attribute: "user.role",
				Operator:  OpIn,
				Value:     Literal([]identity.Role{identity.RoleUser, identity.RoleAdmin}),
			}),
			Effect: EffectAllow,
		},
		{
			ID:         "admin-notes-list",
			Name:       "Allow admin to list all active notes",
			Resource:   ResourceAdminNotes,
			Action:     ActionList,
			Conditions: roleIs(identity.RoleAdmin),
			Effect:     EffectAllow,
		},
		{
			ID:         "public-link-create-owner",
			Name:       "Allow users to create public links for their notes",
			Resource:   ResourcePublicLink,
			Action:     ActionCreate,
			Conditions: ownerOnly(),
			Effect:     EffectAllow,
		},
		{
			ID:         "public-link-delete-owner",
			Name:       "Allow users to delete their public links",
			Resource:   ResourcePublicLink,
			Action:     ActionDelete,
			Conditions: ownerOnly(),
			Effect:     EffectAllow,
		},
		{
			ID:         "public-link-list-owner",
			Name:       "Allow users to list their public links",
			Resource:   ResourcePublicLink,
			Action:     ActionList,
			Conditions: ownerOnly(),
			Effect:     EffectAllow,
		},
	}
}
