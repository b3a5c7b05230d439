package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFromStatus(t *testing.T) {
	tests := map[int]Kind{
		http.StatusBadRequest:          KindBadRequest,
		http.StatusUnauthorized:        KindInvalidCredentials,
		http.StatusForbidden:           KindAccessDenied,
		http.StatusNotFound:            KindNotFound,
		http.StatusConflict:            KindConflict,
		http.StatusInternalServerError: KindServerError,
		http.StatusBadGateway:          KindServerError,
		http.StatusServiceUnavailable:  KindServerError,
		http.StatusTeapot:              KindUnexpected,
	}
	for status, want := range tests {
		assert.Equal(t, want, KindFromStatus(status), "status %d", status)
	}
}

func TestFromStatusMessages(t *testing.T) {
	tests := []struct {
		name     string
		resource Resource
		status   int
		want     string
	}{
		{"login rejected", ResourceAuth, 401, "Email ou mot de passe incorrect"},
		{"login forbidden", ResourceAuth, 403, "Accès refusé"},
		{"login endpoint missing", ResourceAuth, 404, "Service non disponible"},
		{"structure needs session", ResourceStructure, 401, "Vous devez être connecté pour effectuer cette action."},
		{"structure missing", ResourceStructure, 404, "Structure non trouvée."},
		{"member conflict", ResourceMember, 409, "Un membre avec cette adresse email existe déjà."},
		{"admin conflict", ResourceAdmin, 409, "Un administrateur avec cette adresse email existe déjà."},
		{"server error", ResourceMember, 503, "Erreur serveur. Veuillez réessayer plus tard."},
		{"unlisted status", ResourceStructure, 418, "Erreur 418: I'm a teapot"},
		{"unlisted kind", ResourceAdmin, 404, "Erreur 404: Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus(tt.resource, tt.status, `{"error":"x"}`)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, tt.status, err.Code)
			assert.Equal(t, `{"error":"x"}`, err.Description)
		})
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("loading profile: %w", FromStatus(ResourceMember, 404, ""))

	assert.True(t, errors.Is(err, New(KindNotFound, "")))
	assert.False(t, errors.Is(err, New(KindConflict, "")))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, 404, StatusCode(err))

	assert.Equal(t, KindUnexpected, KindOf(errors.New("plain")))
	assert.Zero(t, StatusCode(errors.New("plain")))
}

func TestNetworkWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetwork(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindNetwork, err.Kind)
	assert.False(t, err.IsInternalError())
	assert.True(t, FromStatus(ResourceAuth, 502, "").IsInternalError())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "ambiguous-role", KindAmbiguousRole.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
