package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/healthmap/healthmap/internal/cli/prompt"
	"github.com/healthmap/healthmap/internal/models"
	"github.com/healthmap/healthmap/internal/validation"
)

// NewAdminsCmd creates the admins command
func NewAdminsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "Manage administrator accounts",
	}
	cmd.AddCommand(newAdminsCreateCmd(env))
	return cmd
}

func newAdminsCreateCmd(env *Env) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := prompt.Password("Mot de passe")
				if err != nil && !errors.Is(err, prompt.ErrNotInteractive) {
					return err
				}
				password = p
			}

			req := models.CreateAdminRequest{Email: strings.TrimSpace(email), Password: password}
			if err := validation.Check(req); err != nil {
				return err
			}

			admin, err := env.Client.CreateAdmin(cmd.Context(), req)
			if err != nil {
				return err
			}
			env.Logger.Info().Int64("admin_id", admin.ID).Str("email", admin.Email).Msg("Admin created")
			env.printf("✓ Administrateur créé: %s\n", admin.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (will prompt if not provided)")

	return routed(cmd, "/admin/register", "")
}
