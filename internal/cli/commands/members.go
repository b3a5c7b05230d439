package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/healthmap/healthmap/internal/apperr"
	"github.com/healthmap/healthmap/internal/auth"
	"github.com/healthmap/healthmap/internal/cli/prompt"
	"github.com/healthmap/healthmap/internal/models"
	"github.com/healthmap/healthmap/internal/validation"
)

// NewMembersCmd creates the members command and its subcommands
func NewMembersCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "members",
		Aliases: []string{"member"},
		Short:   "Browse and manage structure members",
	}

	cmd.AddCommand(
		newMembersListCmd(env),
		newMembersGetCmd(env),
		newMembersUpdateCmd(env),
		newMembersDeleteCmd(env),
	)
	return cmd
}

func newMembersListCmd(env *Env) *cobra.Command {
	var structureID int64

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List structure members",
		RunE: func(cmd *cobra.Command, args []string) error {
			var members []models.Member
			var err error
			if structureID > 0 {
				members, err = env.Client.MembersByStructure(cmd.Context(), structureID)
			} else {
				members, err = env.Client.ListMembers(cmd.Context())
			}
			if err != nil {
				return err
			}
			return env.renderMembers(members)
		},
	}

	cmd.Flags().Int64Var(&structureID, "structure", 0, "Only members of this structure")

	return routed(cmd, "/members", GuardAuth)
}

func newMembersGetCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <member-id>",
		Short: "Show a member (administrators)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			member, err := env.Client.GetMember(cmd.Context(), id)
			if err != nil {
				return err
			}
			return env.renderMember(member)
		},
	}
	return routed(cmd, "/admin/members/:id", GuardAdmin)
}

type memberFlags struct {
	email, password, firstName, lastName, roleInStructure string
	structureID                                           int64
}

func (f *memberFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.email, "email", "", "Email address")
	flags.StringVar(&f.password, "password", "", "Password (at least 6 characters)")
	flags.StringVar(&f.firstName, "first-name", "", "First name")
	flags.StringVar(&f.lastName, "last-name", "", "Last name")
	flags.StringVar(&f.roleInStructure, "role-in-structure", "", "Position within the structure")
	flags.Int64Var(&f.structureID, "structure", 0, "Structure id")
}

func newMembersUpdateCmd(env *Env) *cobra.Command {
	var f memberFlags

	cmd := &cobra.Command{
		Use:   "update <member-id>",
		Short: "Edit a member profile (administrators, or the member themselves)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runMembersUpdate(cmd.Context(), env, cmd.Flags(), id, &f)
		},
	}
	f.register(cmd.Flags())

	return routed(cmd, "/members/:id/edit", GuardAuth)
}

func runMembersUpdate(ctx context.Context, env *Env, flags *pflag.FlagSet, id int64, f *memberFlags) error {
	user := env.Auth.CurrentUser()
	if user == nil || (!user.IsAdmin() && user.ID != id) {
		env.Nav.Navigate(auth.RouteMap, nil)
		return &RedirectError{Redirect: Redirect{Path: auth.RouteMap}}
	}

	current, err := findMember(ctx, env, id)
	if err != nil {
		return err
	}

	req := models.UpdateMemberRequest{
		ID:              id,
		Email:           current.Email,
		FirstName:       current.FirstName,
		LastName:        current.LastName,
		StructureID:     current.Structure.ID,
		RoleInStructure: current.RoleInStructure,
	}
	if flags.Changed("email") {
		req.Email = strings.TrimSpace(f.email)
	}
	if flags.Changed("password") {
		req.Password = f.password
	}
	if flags.Changed("first-name") {
		req.FirstName = strings.TrimSpace(f.firstName)
	}
	if flags.Changed("last-name") {
		req.LastName = strings.TrimSpace(f.lastName)
	}
	if flags.Changed("role-in-structure") {
		req.RoleInStructure = strings.TrimSpace(f.roleInStructure)
	}
	if flags.Changed("structure") {
		req.StructureID = f.structureID
	}
	if err := validation.Check(req); err != nil {
		return err
	}

	member, err := env.Client.UpdateMember(ctx, id, req)
	if err != nil {
		return err
	}

	env.printf("✓ Membre mis à jour: %s\n\n", member.FullName())
	return env.renderMember(member)
}

func newMembersDeleteCmd(env *Env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <member-id>",
		Short: "Delete a member (administrators)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := prompt.Confirm(fmt.Sprintf("Supprimer le membre #%d", id))
				if errors.Is(err, prompt.ErrNotInteractive) {
					return fmt.Errorf("refusing to delete without confirmation in non-interactive mode (use --yes)")
				}
				if err != nil {
					return err
				}
				if !ok {
					env.println("Suppression annulée.")
					return nil
				}
			}

			if err := env.Client.DeleteMember(cmd.Context(), id); err != nil {
				return err
			}
			env.Logger.Info().Int64("member_id", id).Msg("Member deleted")
			env.printf("✓ Membre #%d supprimé\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return routed(cmd, "/admin/members/:id/delete", GuardAdmin)
}

// findMember reads a member by id for admins, or from the roster for members
func findMember(ctx context.Context, env *Env, id int64) (*models.Member, error) {
	if env.Auth.IsAdmin() {
		return env.Client.GetMember(ctx, id)
	}
	members, err := env.Client.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].ID == id {
			return &members[i], nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "Membre non trouvé")
}

func (e *Env) renderMembers(members []models.Member) error {
	if members == nil {
		members = []models.Member{}
	}
	if len(members) == 0 && (e.Flags.Output == "" || e.Flags.Output == OutputTable) {
		fmt.Fprintln(e.Out, "Aucun membre trouvé.")
		return nil
	}
	return e.render(members, func(w *tabwriter.Writer) {
		writeRow(w, "ID", "NOM", "EMAIL", "STRUCTURE", "FONCTION")
		for _, m := range members {
			writeRow(w, m.ID, m.FullName(), m.Email, m.Structure.Name, m.RoleInStructure)
		}
	})
}

func (e *Env) renderMember(m *models.Member) error {
	return e.render(m, func(w *tabwriter.Writer) {
		writeRow(w, "ID", m.ID)
		writeRow(w, "Nom", m.FullName())
		writeRow(w, "Email", m.Email)
		writeRow(w, "Structure", fmt.Sprintf("%s (#%d)", m.Structure.Name, m.Structure.ID))
		writeRow(w, "Fonction", m.RoleInStructure)
	})
}
