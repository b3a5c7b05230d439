package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/healthmap/healthmap/internal/auth"
	"github.com/healthmap/healthmap/internal/cli/prompt"
	"github.com/healthmap/healthmap/internal/models"
)

// NewLoginCmd creates the login command
func NewLoginCmd(env *Env) *cobra.Command {
	var email, password, returnURL string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the health structures directory",
		Long: `Sign in with your email and password. Your role (administrator or
structure member) is worked out from what the server lets you see.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), env, cmd.Root(), email, password, returnURL)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set HEALTHMAP_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set HEALTHMAP_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&returnURL, "return-url", "", "Page to go back to after signing in")

	return routed(cmd, auth.RouteLogin, "")
}

func runLogin(ctx context.Context, env *Env, root *cobra.Command, email, password, returnURL string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("HEALTHMAP_EMAIL")
	}
	if password == "" {
		password = os.Getenv("HEALTHMAP_PASSWORD")
	}

	var err error
	if email == "" {
		email, err = prompt.Text("Email", true)
		if errors.Is(err, prompt.ErrNotInteractive) {
			return fmt.Errorf("email is required (use --email flag or HEALTHMAP_EMAIL env var)")
		}
		if err != nil {
			return err
		}
	}
	if password == "" {
		password, err = prompt.Password("Mot de passe")
		if errors.Is(err, prompt.ErrNotInteractive) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or HEALTHMAP_PASSWORD env var)")
		}
		if err != nil {
			return err
		}
	}

	env.printf("Connexion à %s...\n", env.Client.BaseURL())

	user, err := env.Auth.SignIn(ctx, models.Credentials{Email: email, Password: password})
	if err != nil {
		return err
	}

	if env.Flags.Output == OutputJSON || env.Flags.Output == OutputYAML {
		return env.render(user, nil)
	}

	env.println("✓ Connexion réussie")
	env.printf("  Utilisateur: %s\n", user.Email)
	env.printf("  Rôle: %s\n", roleLabel(user.Role))
	if user.Structure != nil {
		env.printf("  Structure: %s\n", user.Structure.Name)
	}

	next := "healthmap structures ls"
	if returnURL != "" {
		if resume, ok := ResumeCommand(root, returnURL); ok {
			next = resume
		} else {
			env.Logger.Debug().Str("return_url", returnURL).Msg("No command matches the return URL")
		}
	}
	env.printf("\nReprendre avec: %s\n", next)
	return nil
}

func roleLabel(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "Administrateur"
	case models.RoleMember:
		return "Membre de structure"
	default:
		return string(role)
	}
}
