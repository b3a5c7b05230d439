package auth

import (
	"net/url"

	"github.com/healthmap/healthmap/internal/models"
)

// Routes the guards redirect to
const (
	RouteLogin     = "/login"
	RouteMap       = "/map"
	ReturnURLParam = "returnUrl"
	SignedOutParam = "signedOut"
)

// Navigator moves the user to another view
type Navigator interface {
	Navigate(path string, query url.Values)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string, query url.Values)

func (f NavigatorFunc) Navigate(path string, query url.Values) {
	f(path, query)
}

// Guards gate entry to protected views using the in-memory session only.
// A session revoked on the backend passes until an API call returns 401.
type Guards struct {
	state *State
	nav   Navigator
}

func NewGuards(state *State, nav Navigator) *Guards {
	return &Guards{state: state, nav: nav}
}

// AuthGuard passes when a user is signed in; otherwise it sends them to the
// login view with the requested path to resume afterwards.
func (g *Guards) AuthGuard(requestedPath string) bool {
	if g.state.Snapshot().Authenticated {
		return true
	}
	g.redirectToLogin(requestedPath)
	return false
}

// AdminGuard passes for signed-in admins. Anonymous users go to login,
// signed-in non-admins are sent back to the map without an error.
func (g *Guards) AdminGuard(requestedPath string) bool {
	snapshot := g.state.Snapshot()
	if !snapshot.Authenticated {
		g.redirectToLogin(requestedPath)
		return false
	}
	if snapshot.User.IsAdmin() {
		return true
	}
	g.nav.Navigate(RouteMap, nil)
	return false
}

func (g *Guards) redirectToLogin(returnURL string) {
	query := url.Values{}
	if returnURL != "" {
		query.Set(ReturnURLParam, returnURL)
	}
	g.nav.Navigate(RouteLogin, query)
}

// CanModifyStructure is the ownership rule: admins may modify any structure,
// members only the one they belong to, nobody else anything.
func CanModifyStructure(user *models.AuthUser, structureID int64) bool {
	switch {
	case user.IsAdmin():
		return true
	case user.IsMember():
		return user.Structure != nil && user.Structure.ID == structureID
	default:
		return false
	}
}
