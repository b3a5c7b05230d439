package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/healthmap/healthmap/internal/cli/prompt"
	"github.com/healthmap/healthmap/internal/models"
	"github.com/healthmap/healthmap/internal/validation"
)

// NewRegisterCmd creates the register command (member sign-up)
func NewRegisterCmd(env *Env) *cobra.Command {
	var f memberFlags

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a structure member account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd.Context(), env, &f)
		},
	}
	f.register(cmd.Flags())

	return routed(cmd, "/register", "")
}

func runRegister(ctx context.Context, env *Env, f *memberFlags) error {
	if err := fillMemberFlags(ctx, env, f); err != nil {
		return err
	}

	req := models.CreateMemberRequest{
		Email:           strings.TrimSpace(f.email),
		Password:        f.password,
		FirstName:       strings.TrimSpace(f.firstName),
		LastName:        strings.TrimSpace(f.lastName),
		StructureID:     f.structureID,
		RoleInStructure: strings.TrimSpace(f.roleInStructure),
	}
	if err := validation.Check(req); err != nil {
		return err
	}

	member, err := env.Client.CreateMember(ctx, req)
	if err != nil {
		return err
	}

	env.Logger.Info().Int64("member_id", member.ID).Str("email", member.Email).Msg("Member registered")
	env.printf("✓ Compte créé pour %s\n", member.FullName())
	env.printf("\nConnectez-vous avec: healthmap login --email %s\n", member.Email)
	return nil
}

// fillMemberFlags prompts for the fields left empty, when a terminal is available
func fillMemberFlags(ctx context.Context, env *Env, f *memberFlags) error {
	if !prompt.Interactive() {
		return nil
	}

	texts := []struct {
		value *string
		label string
	}{
		{&f.firstName, "Prénom"},
		{&f.lastName, "Nom"},
		{&f.email, "Email"},
		{&f.roleInStructure, "Fonction dans la structure"},
	}
	for _, t := range texts {
		if *t.value != "" {
			continue
		}
		v, err := prompt.Text(t.label, true)
		if err != nil {
			return err
		}
		*t.value = v
	}

	if f.password == "" {
		password, err := prompt.Password("Mot de passe")
		if err != nil {
			return err
		}
		confirm, err := prompt.Password("Confirmer le mot de passe")
		if err != nil {
			return err
		}
		if password != confirm {
			return errors.New("les mots de passe ne correspondent pas")
		}
		f.password = password
	}

	if f.structureID == 0 {
		structures, err := env.Client.ListStructures(ctx)
		if err != nil {
			return err
		}
		labels := make([]string, len(structures))
		for i, s := range structures {
			labels[i] = fmt.Sprintf("%s (%s, %s)", s.Name, s.Type.Label(), s.Address.City)
		}
		index, err := prompt.Select("Structure de rattachement", labels)
		if err != nil {
			return err
		}
		f.structureID = structures[index].ID
	}
	return nil
}
