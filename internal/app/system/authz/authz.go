// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/admitportal/internal/app/policy/applicationpolicy"
	"github.com/dalemusser/admitportal/internal/app/system/auth"
	"github.com/dalemusser/admitportal/internal/app/system/idgen"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false, so ok=true always means a valid id.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, ok = idgen.ParseHex(user.ID)
	if !ok {
		// Malformed id in the session: fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// Actor returns the workflow actor for the request. The zero Actor (which
// the policy treats as unauthenticated) is returned when nobody is signed in.
func Actor(r *http.Request) (applicationpolicy.Actor, bool) {
	role, _, id, ok := UserCtx(r)
	if !ok {
		return applicationpolicy.Actor{}, false
	}
	return applicationpolicy.Actor{ID: id, Role: role}, true
}
