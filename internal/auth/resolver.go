package auth

import (
	"net/http"

	"github.com/healthmap/healthmap/internal/apperr"
	"github.com/healthmap/healthmap/internal/models"
)

// RoleBasis records which evidence a role decision rests on
type RoleBasis int

const (
	// BasisStored: the role was read back from the credential store
	BasisStored RoleBasis = iota
	// BasisProvisional: login succeeded, role assumed MEMBER
	BasisProvisional
	// BasisRosterMatch: the member roster lists the user's email
	BasisRosterMatch
	// BasisRosterAbsent: the roster was readable but does not list the user
	BasisRosterAbsent
	// BasisRosterForbidden: the roster answered 403
	BasisRosterForbidden
)

func (b RoleBasis) String() string {
	switch b {
	case BasisProvisional:
		return "provisional"
	case BasisRosterMatch:
		return "roster-match"
	case BasisRosterAbsent:
		return "roster-absent"
	case BasisRosterForbidden:
		return "roster-forbidden"
	default:
		return "stored"
	}
}

// Inferred reports whether the role was deduced rather than read from a roster entry
func (b RoleBasis) Inferred() bool {
	return b == BasisProvisional || b == BasisRosterAbsent || b == BasisRosterForbidden
}

// RoleDecision is the outcome of ResolveRole
type RoleDecision struct {
	User    models.AuthUser
	Basis   RoleBasis
	Matches int // roster entries carrying the email; more than one is suspicious
}

// ResolveRole infers the user's role from the outcome of the member roster
// fetch. The roster is members-only, so:
//
//	roster read, email listed     -> MEMBER built from the entry
//	roster read, email not listed -> ADMIN with the sentinel id
//	roster fetch answered 403     -> ADMIN with the sentinel id (or AmbiguousRole when strict)
//	any other roster failure      -> the failure, no role
//
// The first matching entry wins when several share the email.
func ResolveRole(email string, roster []models.Member, rosterErr error, strict bool) (RoleDecision, error) {
	if rosterErr != nil {
		if apperr.StatusCode(rosterErr) != http.StatusForbidden {
			return RoleDecision{}, rosterErr
		}
		if strict {
			return RoleDecision{}, apperr.NewAmbiguousRole().Wrap(rosterErr, "member roster answered 403")
		}
		return RoleDecision{User: adminUser(email), Basis: BasisRosterForbidden}, nil
	}

	var (
		match   *models.Member
		matches int
	)
	for i := range roster {
		if roster[i].Email != email {
			continue
		}
		matches++
		if match == nil {
			match = &roster[i]
		}
	}

	if match == nil {
		return RoleDecision{User: adminUser(email), Basis: BasisRosterAbsent}, nil
	}

	structure := match.Structure
	return RoleDecision{
		User: models.AuthUser{
			ID:              match.ID,
			Email:           match.Email,
			Role:            models.RoleMember,
			FirstName:       match.FirstName,
			LastName:        match.LastName,
			Structure:       &structure,
			RoleInStructure: match.RoleInStructure,
		},
		Basis:   BasisRosterMatch,
		Matches: matches,
	}, nil
}

func adminUser(email string) models.AuthUser {
	return models.AuthUser{
		ID:    models.AdminSentinelID,
		Email: email,
		Role:  models.RoleAdmin,
	}
}

func provisionalUser(email string) models.AuthUser {
	return models.AuthUser{
		ID:    models.ProvisionalUserID,
		Email: email,
		Role:  models.RoleMember,
	}
}
