package service

import (
	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
)

// Actor identifies who is performing an operation, resolved by the caller
// (handler or bot layer) before the service is invoked. Authorization
// decisions happen in the services against the actor's roles.
type Actor struct {
	UserID ident.ID
	Roles  model.RoleSet
}

// IsAdmin reports whether the actor holds the ADMIN role.
func (a Actor) IsAdmin() bool {
	return a.Roles.Has(model.RoleAdmin)
}

// IsPlayer reports whether the actor holds the PLAYER role.
func (a Actor) IsPlayer() bool {
	return a.Roles.Has(model.RolePlayer)
}

// IsReferee reports whether the actor holds the REFEREE role.
func (a Actor) IsReferee() bool {
	return a.Roles.Has(model.RoleReferee)
}
