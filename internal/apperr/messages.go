package apperr

import (
	"fmt"
	"net/http"
)

// Resource selects the message catalog used for a failure
type Resource int

const (
	ResourceAuth Resource = iota
	ResourceStructure
	ResourceMember
	ResourceAdmin
)

const (
	msgUnexpected  = "Une erreur inattendue s'est produite"
	msgServerError = "Erreur serveur. Veuillez réessayer plus tard."
	msgBadRequest  = "Données invalides. Veuillez vérifier les informations saisies."
	msgNotLoggedIn = "Vous devez être connecté pour effectuer cette action."
	msgForbidden   = "Vous n'avez pas les permissions nécessaires pour cette action."
)

var catalogs = map[Resource]map[Kind]string{
	ResourceAuth: {
		KindInvalidCredentials: "Email ou mot de passe incorrect",
		KindAccessDenied:       "Accès refusé",
		KindNotFound:           "Service non disponible",
		KindServerError:        msgServerError,
	},
	ResourceStructure: {
		KindBadRequest:         msgBadRequest,
		KindInvalidCredentials: msgNotLoggedIn,
		KindAccessDenied:       msgForbidden,
		KindNotFound:           "Structure non trouvée.",
		KindConflict:           "Cette structure existe déjà.",
		KindServerError:        msgServerError,
	},
	ResourceMember: {
		KindBadRequest:         msgBadRequest,
		KindInvalidCredentials: msgNotLoggedIn,
		KindAccessDenied:       msgForbidden,
		KindNotFound:           "Membre non trouvé.",
		KindConflict:           "Un membre avec cette adresse email existe déjà.",
		KindServerError:        msgServerError,
	},
	ResourceAdmin: {
		KindBadRequest:  msgBadRequest,
		KindConflict:    "Un administrateur avec cette adresse email existe déjà.",
		KindServerError: msgServerError,
	},
}

func (r Resource) message(kind Kind, status int) string {
	if msg, ok := catalogs[r][kind]; ok {
		return msg
	}
	if status == 0 {
		return msgUnexpected
	}
	return fmt.Sprintf("Erreur %d: %s", status, http.StatusText(status))
}
