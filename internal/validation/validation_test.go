package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmap/healthmap/internal/apperr"
	"github.com/healthmap/healthmap/internal/models"
)

func validMember() models.CreateMemberRequest {
	return models.CreateMemberRequest{
		Email:           "fatou.sow@example.sn",
		Password:        "secret1",
		FirstName:       "Fatou",
		LastName:        "Sow",
		StructureID:     3,
		RoleInStructure: "Pharmacienne",
	}
}

func TestValidateMember(t *testing.T) {
	assert.Empty(t, Validate(validMember()))

	req := validMember()
	req.Email = "fatou"
	req.Password = "12345"
	req.FirstName = "  F  "
	req.StructureID = 0
	assert.Equal(t, []string{
		"Adresse email invalide",
		"Le mot de passe doit contenir au moins 6 caractères",
		"Le prénom doit contenir au moins 2 caractères",
		"La structure de rattachement est requise",
	}, Validate(req))
}

func TestTrimmedMinCountsRunes(t *testing.T) {
	req := validMember()
	req.FirstName = "Éa"
	assert.Empty(t, Validate(req))
}

func TestValidateStructure(t *testing.T) {
	req := models.CreateStructureRequest{
		Name:    "Pharmacie du Port",
		Type:    models.StructurePharmacy,
		Contact: models.Contact{Phone: "+221 33 000 00 00", Email: "port@example.sn"},
		Address: models.Address{City: "Dakar", Region: "Dakar"},
	}
	assert.Empty(t, Validate(req))

	req.Type = "SPA"
	req.Contact.Website = "not a url"
	req.Address.Region = ""
	assert.Equal(t, []string{
		"Type de structure invalide",
		"Adresse du site web invalide",
		"La région est requise",
	}, Validate(req))
}

func TestValidateBareContact(t *testing.T) {
	assert.Equal(t, []string{"Le numéro de téléphone est requis"},
		Validate(models.Contact{Email: "a@b.sn"}))
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check(validMember()))

	req := validMember()
	req.LastName = ""
	req.RoleInStructure = ""
	err := Check(req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	assert.Equal(t, "Le nom doit contenir au moins 2 caractères\nLe rôle dans la structure est requis", err.Error())
}
