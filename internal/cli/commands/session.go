package commands

import (
	"context"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/healthmap/healthmap/internal/models"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			wasSignedIn := env.Auth.IsAuthenticated()
			if err := env.Auth.Logout(); err != nil {
				return err
			}
			if wasSignedIn {
				env.println("✓ Déconnecté")
			}
			return nil
		},
	}
	return cmd
}

// whoami is the profile view: the signed-in user and how their role was established
type whoami struct {
	User  *models.AuthUser `json:"user" yaml:"user"`
	Basis string           `json:"roleBasis" yaml:"roleBasis"`
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(env *Env) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(cmd.Context(), env, refresh)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Resolve the role again against the server")

	return routed(cmd, "/profile", GuardAuth)
}

func runWhoami(ctx context.Context, env *Env, refresh bool) error {
	if refresh {
		if _, err := env.Auth.LoadUserProfile(ctx); err != nil {
			return err
		}
	}

	view := whoami{
		User:  env.Auth.CurrentUser(),
		Basis: env.Auth.RoleBasis().String(),
	}

	return env.render(view, func(w *tabwriter.Writer) {
		user := view.User
		writeRow(w, "Email", user.Email)
		writeRow(w, "Rôle", roleLabel(user.Role))
		if user.ID != models.ProvisionalUserID {
			writeRow(w, "ID", user.ID)
		}
		if user.FirstName != "" || user.LastName != "" {
			writeRow(w, "Nom", user.FirstName+" "+user.LastName)
		}
		if user.Structure != nil {
			writeRow(w, "Structure", user.Structure.Name)
		}
		if user.RoleInStructure != "" {
			writeRow(w, "Fonction", user.RoleInStructure)
		}
		basis := view.Basis
		if env.Auth.RoleBasis().Inferred() {
			basis += " (déduit)"
		}
		writeRow(w, "Origine du rôle", basis)
	})
}
