// Package validation checks request bodies before they are sent and turns
// validator failures into user-facing messages.
package validation

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/healthmap/healthmap/internal/apperr"
	"github.com/healthmap/healthmap/internal/models"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		// Minimum length in runes, ignoring surrounding whitespace
		validate.RegisterValidation("trimmed_min", func(fl validator.FieldLevel) bool {
			min, err := strconv.Atoi(fl.Param())
			if err != nil {
				return false
			}
			return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= min
		})

		validate.RegisterValidation("structure_type", func(fl validator.FieldLevel) bool {
			return models.StructureType(fl.Field().String()).Valid()
		})
	})
	return validate
}

// field path (without the root struct name) -> message
var fieldMessages = map[string]string{
	"Email":           "Adresse email invalide",
	"Password":        "Le mot de passe doit contenir au moins 6 caractères",
	"FirstName":       "Le prénom doit contenir au moins 2 caractères",
	"LastName":        "Le nom doit contenir au moins 2 caractères",
	"RoleInStructure": "Le rôle dans la structure est requis",
	"StructureID":     "La structure de rattachement est requise",
	"Name":            "Le nom de la structure est requis",
	"Type":            "Type de structure invalide",
	"Contact.Phone":   "Le numéro de téléphone est requis",
	"Contact.Email":   "Adresse email de contact invalide",
	"Contact.Website": "Adresse du site web invalide",
	"Address.City":    "La ville est requise",
	"Address.Region":  "La région est requise",
	"Phone":           "Le numéro de téléphone est requis",
	"Website":         "Adresse du site web invalide",
	"City":            "La ville est requise",
	"Region":          "La région est requise",
}

// Validate returns one message per invalid field, in declaration order.
// An empty result means v is valid.
func Validate(v any) []string {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{"Données invalides. Veuillez vérifier les informations saisies."}
	}

	messages := make([]string, 0, len(fieldErrs))
	seen := make(map[string]bool)
	for _, fe := range fieldErrs {
		path := fe.StructNamespace()
		if i := strings.Index(path, "."); i >= 0 {
			path = path[i+1:]
		}
		msg, ok := fieldMessages[path]
		if !ok {
			msg = "Champ invalide: " + path
		}
		if seen[msg] {
			continue
		}
		seen[msg] = true
		messages = append(messages, msg)
	}
	return messages
}

// Check is Validate folded into a single bad-request error
func Check(v any) error {
	messages := Validate(v)
	if len(messages) == 0 {
		return nil
	}
	return apperr.New(apperr.KindBadRequest, strings.Join(messages, "\n"))
}
