package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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

// NewStructuresCmd creates the structures command and its subcommands
func NewStructuresCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "structures",
		Aliases: []string{"structure", "st"},
		Short:   "Browse and manage health structures",
	}

	cmd.AddCommand(
		newStructuresListCmd(env),
		newStructuresSearchCmd(env),
		newStructuresTypesCmd(env),
		newStructuresRegionsCmd(env),
		newStructuresCitiesCmd(env),
		newStructuresDocsCmd(env),
		newStructuresGetCmd(env),
		newStructuresCreateCmd(env),
		newStructuresUpdateCmd(env),
		newStructuresDeleteCmd(env),
		newStructuresAddDocCmd(env),
	)
	return cmd
}

func newStructuresListCmd(env *Env) *cobra.Command {
	var filter models.StructureFilter
	var structureType string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list", "filter"},
		Short:   "List structures, optionally filtered by type, region and city",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.Type = models.StructureType(strings.ToUpper(structureType))
			if filter.Type != "" && !filter.Type.Valid() {
				return fmt.Errorf("invalid structure type %q, run 'healthmap structures types' for the list", structureType)
			}

			var structures []models.Structure
			var err error
			if filter == (models.StructureFilter{}) {
				structures, err = env.Client.ListStructures(cmd.Context())
			} else {
				structures, err = env.Client.FilterStructures(cmd.Context(), filter)
			}
			if err != nil {
				return err
			}
			return env.renderStructures(structures)
		},
	}

	cmd.Flags().StringVar(&structureType, "type", "", "Structure type (HOSPITAL, CLINIC, PHARMACY, LABORATORY)")
	cmd.Flags().StringVar(&filter.Region, "region", "", "Region")
	cmd.Flags().StringVar(&filter.City, "city", "", "City")

	return routed(cmd, auth.RouteMap, "")
}

func newStructuresSearchCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Search structures by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			structures, err := env.Client.SearchStructures(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return env.renderStructures(structures)
		},
	}
	return routed(cmd, "/map/search", "")
}

func newStructuresTypesCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List structure and document types",
		RunE: func(cmd *cobra.Command, args []string) error {
			type typeRow struct {
				Value string `json:"value" yaml:"value"`
				Label string `json:"label" yaml:"label"`
			}
			view := struct {
				Structures []typeRow `json:"structureTypes" yaml:"structureTypes"`
				Documents  []typeRow `json:"documentTypes" yaml:"documentTypes"`
			}{}
			for _, t := range models.StructureTypes {
				view.Structures = append(view.Structures, typeRow{Value: string(t), Label: t.Label()})
			}
			for _, t := range models.DocumentTypes {
				view.Documents = append(view.Documents, typeRow{Value: string(t), Label: t.Label()})
			}

			return env.render(view, func(w *tabwriter.Writer) {
				writeRow(w, "STRUCTURE", "LIBELLÉ")
				for _, r := range view.Structures {
					writeRow(w, r.Value, r.Label)
				}
				writeRow(w)
				writeRow(w, "DOCUMENT", "LIBELLÉ")
				for _, r := range view.Documents {
					writeRow(w, r.Value, r.Label)
				}
			})
		},
	}
	return cmd
}

func newStructuresRegionsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List the regions that have structures",
		RunE: func(cmd *cobra.Command, args []string) error {
			regions, err := env.Client.UniqueRegions(cmd.Context())
			if err != nil {
				return err
			}
			return env.renderList(regions, "Aucune région.")
		},
	}
	return cmd
}

func newStructuresCitiesCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cities <region>",
		Short: "List the cities of a region that have structures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cities, err := env.Client.UniqueCitiesForRegion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return env.renderList(cities, "Aucune ville pour cette région.")
		},
	}
	return cmd
}

func newStructuresDocsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs <structure-id>",
		Short: "List the documents a structure delivers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			docs, err := env.Client.AvailableDocs(cmd.Context(), id)
			if err != nil {
				return err
			}
			if docs == nil {
				docs = []models.AvailableDoc{}
			}
			if len(docs) == 0 {
				env.println("Aucun document disponible.")
				if env.Flags.Output == OutputTable || env.Flags.Output == "" {
					return nil
				}
			}
			return env.render(docs, func(w *tabwriter.Writer) {
				writeRow(w, "ID", "DOCUMENT", "DESCRIPTION")
				for _, d := range docs {
					writeRow(w, d.ID, d.Type.Label(), d.Description)
				}
			})
		},
	}
	return routed(cmd, "/building/:id", "")
}

func newStructuresGetCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <structure-id>",
		Short: "Show a structure in detail (administrators)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			structure, err := env.Client.GetStructure(cmd.Context(), id)
			if err != nil {
				return err
			}
			return env.renderStructure(structure)
		},
	}
	return routed(cmd, "/admin/structures/:id", GuardAdmin)
}

// structureFlags are the editable fields shared by create and update
type structureFlags struct {
	name, structureType, description      string
	phone, email, website                 string
	street, city, region, postal, country string
}

func (f *structureFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.name, "name", "", "Structure name")
	flags.StringVar(&f.structureType, "type", "", "Structure type (HOSPITAL, CLINIC, PHARMACY, LABORATORY)")
	flags.StringVar(&f.description, "description", "", "Description")
	flags.StringVar(&f.phone, "phone", "", "Contact phone")
	flags.StringVar(&f.email, "email", "", "Contact email")
	flags.StringVar(&f.website, "website", "", "Website")
	flags.StringVar(&f.street, "street", "", "Street")
	flags.StringVar(&f.city, "city", "", "City")
	flags.StringVar(&f.region, "region", "", "Region")
	flags.StringVar(&f.postal, "postal-code", "", "Postal code")
	flags.StringVar(&f.country, "country", "", "Country")
}

func (f *structureFlags) contact() models.Contact {
	return models.Contact{Phone: f.phone, Email: f.email, Website: f.website}
}

func (f *structureFlags) address() models.Address {
	return models.Address{Street: f.street, City: f.city, Region: f.region, PostalCode: f.postal, Country: f.country}
}

func newStructuresCreateCmd(env *Env) *cobra.Command {
	var f structureFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a structure to the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStructuresCreate(cmd.Context(), env, &f)
		},
	}
	f.register(cmd.Flags())

	return routed(cmd, "/add-building", GuardAuth)
}

func runStructuresCreate(ctx context.Context, env *Env, f *structureFlags) error {
	structureType := models.StructureType(strings.ToUpper(f.structureType))
	if structureType == "" {
		t, err := prompt.StructureType()
		if err != nil && !errors.Is(err, prompt.ErrNotInteractive) {
			return err
		}
		structureType = t
	}

	req := models.CreateStructureRequest{
		Name:        strings.TrimSpace(f.name),
		Type:        structureType,
		Description: f.description,
		Contact:     f.contact(),
		Address:     f.address(),
	}
	if err := validation.Check(req); err != nil {
		return err
	}

	structure, err := env.Client.CreateStructure(ctx, req)
	if err != nil {
		return err
	}

	env.Logger.Info().Int64("structure_id", structure.ID).Str("name", structure.Name).Msg("Structure created")
	env.printf("✓ Structure créée: %s (#%d)\n\n", structure.Name, structure.ID)
	return env.renderStructure(structure)
}

func newStructuresUpdateCmd(env *Env) *cobra.Command {
	var f structureFlags

	cmd := &cobra.Command{
		Use:   "update <structure-id>",
		Short: "Edit a structure (administrators, or members of that structure)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runStructuresUpdate(cmd.Context(), env, cmd.Flags(), id, &f)
		},
	}
	f.register(cmd.Flags())

	return routed(cmd, "/structures/:id/edit", GuardAuth)
}

func runStructuresUpdate(ctx context.Context, env *Env, flags *pflag.FlagSet, id int64, f *structureFlags) error {
	if err := env.requireOwnership(id); err != nil {
		return err
	}

	current, err := findStructure(ctx, env, id)
	if err != nil {
		return err
	}

	req := models.UpdateStructureRequest{ID: id}
	changed := false
	if flags.Changed("name") {
		name := strings.TrimSpace(f.name)
		req.Name = &name
		changed = true
	}
	if flags.Changed("type") {
		t := models.StructureType(strings.ToUpper(f.structureType))
		if !t.Valid() {
			return apperr.New(apperr.KindBadRequest, "Type de structure invalide")
		}
		req.Type = &t
		changed = true
	}
	if flags.Changed("description") {
		req.Description = &f.description
		changed = true
	}
	if flags.Changed("phone") || flags.Changed("email") || flags.Changed("website") {
		contact := current.Contact
		if flags.Changed("phone") {
			contact.Phone = f.phone
		}
		if flags.Changed("email") {
			contact.Email = f.email
		}
		if flags.Changed("website") {
			contact.Website = f.website
		}
		if err := validation.Check(contact); err != nil {
			return err
		}
		req.Contact = &contact
		changed = true
	}
	if flags.Changed("street") || flags.Changed("city") || flags.Changed("region") ||
		flags.Changed("postal-code") || flags.Changed("country") {
		address := current.Address
		if flags.Changed("street") {
			address.Street = f.street
		}
		if flags.Changed("city") {
			address.City = f.city
		}
		if flags.Changed("region") {
			address.Region = f.region
		}
		if flags.Changed("postal-code") {
			address.PostalCode = f.postal
		}
		if flags.Changed("country") {
			address.Country = f.country
		}
		if err := validation.Check(address); err != nil {
			return err
		}
		req.Address = &address
		changed = true
	}
	if !changed {
		return fmt.Errorf("nothing to update, pass at least one field flag")
	}

	structure, err := env.Client.UpdateStructure(ctx, id, req)
	if err != nil {
		return err
	}

	env.printf("✓ Structure mise à jour: %s (#%d)\n\n", structure.Name, structure.ID)
	return env.renderStructure(structure)
}

func newStructuresDeleteCmd(env *Env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <structure-id>",
		Short: "Delete a structure (administrators)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := prompt.Confirm(fmt.Sprintf("Supprimer la structure #%d", id))
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

			if err := env.Client.DeleteStructure(cmd.Context(), id); err != nil {
				return err
			}
			env.Logger.Info().Int64("structure_id", id).Msg("Structure deleted")
			env.printf("✓ Structure #%d supprimée\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return routed(cmd, "/admin/structures/:id/delete", GuardAdmin)
}

func newStructuresAddDocCmd(env *Env) *cobra.Command {
	var docType, description string

	cmd := &cobra.Command{
		Use:   "add-doc <structure-id>",
		Short: "Declare a document the structure delivers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := env.requireOwnership(id); err != nil {
				return err
			}

			t := models.DocumentType(strings.ToUpper(docType))
			if !t.Valid() {
				return apperr.New(apperr.KindBadRequest, "Type de document invalide")
			}

			doc, err := env.Client.AddDocument(cmd.Context(), id, models.AvailableDoc{Type: t, Description: description})
			if err != nil {
				return err
			}
			env.printf("✓ Document ajouté: %s\n", doc.Type.Label())
			return env.render(doc, func(w *tabwriter.Writer) {})
		},
	}

	cmd.Flags().StringVar(&docType, "type", "", "Document type (PASSPORT, ID_CARD, BIRTH_CERTIFICATE, MEDICAL_CERTIFICATE)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	_ = cmd.MarkFlagRequired("type")

	return routed(cmd, "/structures/:id/documents", GuardAuth)
}

// requireOwnership sends users who may not modify the structure back to the map
func (e *Env) requireOwnership(structureID int64) error {
	if e.Auth.CanModifyStructure(structureID) {
		return nil
	}
	e.Logger.Debug().Int64("structure_id", structureID).Msg("Structure modification refused")
	e.Nav.Navigate(auth.RouteMap, nil)
	return &RedirectError{Redirect: Redirect{Path: auth.RouteMap}}
}

// findStructure reads a structure through the public listing; the by-id
// endpoint is reserved to administrators.
func findStructure(ctx context.Context, env *Env, id int64) (*models.Structure, error) {
	structures, err := env.Client.ListStructures(ctx)
	if err != nil {
		return nil, err
	}
	for i := range structures {
		if structures[i].ID == id {
			return &structures[i], nil
		}
	}
	return nil, apperr.New(apperr.KindNotFound, "Structure non trouvée")
}

func (e *Env) renderStructures(structures []models.Structure) error {
	if structures == nil {
		structures = []models.Structure{}
	}
	if len(structures) == 0 && (e.Flags.Output == "" || e.Flags.Output == OutputTable) {
		fmt.Fprintln(e.Out, "Aucune structure trouvée.")
		return nil
	}
	return e.render(structures, func(w *tabwriter.Writer) {
		writeRow(w, "ID", "NOM", "TYPE", "VILLE", "RÉGION", "TÉLÉPHONE")
		for _, s := range structures {
			writeRow(w, s.ID, s.Name, s.Type.Label(), s.Address.City, s.Address.Region, s.Contact.Phone)
		}
	})
}

func (e *Env) renderStructure(s *models.Structure) error {
	return e.render(s, func(w *tabwriter.Writer) {
		writeRow(w, "ID", s.ID)
		writeRow(w, "Nom", s.Name)
		writeRow(w, "Type", s.Type.Label())
		if s.Description != "" {
			writeRow(w, "Description", s.Description)
		}
		writeRow(w, "Téléphone", s.Contact.Phone)
		writeRow(w, "Email", s.Contact.Email)
		if s.Contact.Website != "" {
			writeRow(w, "Site web", s.Contact.Website)
		}
		writeRow(w, "Adresse", strings.TrimSpace(fmt.Sprintf("%s, %s %s", s.Address.Street, s.Address.PostalCode, s.Address.City)))
		writeRow(w, "Région", s.Address.Region)
		for _, d := range s.AvailableDocs {
			writeRow(w, "Document", d.Type.Label())
		}
	})
}

func (e *Env) renderList(values []string, empty string) error {
	if len(values) == 0 && (e.Flags.Output == "" || e.Flags.Output == OutputTable) {
		fmt.Fprintln(e.Out, empty)
		return nil
	}
	if values == nil {
		values = []string{}
	}
	return e.render(values, func(w *tabwriter.Writer) {
		for _, v := range values {
			writeRow(w, v)
		}
	})
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
