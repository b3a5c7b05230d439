package devapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/healthmap/healthmap/internal/models"
)

const principalKey = "principal"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoPrincipal        = errors.New("no authenticated principal")
)

// Principal is the account behind a request's Basic credentials
type Principal struct {
	ID          int64
	Email       string
	Role        models.Role
	StructureID int64 // members only
}

func setPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal returns the authenticated account, if the request carried valid credentials
func GetPrincipal(c *gin.Context) (*Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// BasicAuthMiddleware resolves the Basic credentials of a request, when present.
// Requests without credentials pass through anonymously; wrong credentials
// are rejected with 401 whatever the route.
func BasicAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		email, password, ok := c.Request.BasicAuth()
		if !ok {
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidCredentials, "Invalid authorization header format")
			return
		}

		principal, err := authenticate(db, strings.TrimSpace(email), password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				respondWithError(c, log, http.StatusUnauthorized, err, "Invalid email or password")
				return
			}
			log.Error().Err(err).Msg("Failed to authenticate")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			c.Abort()
			return
		}

		setPrincipal(c, principal)
		c.Next()
	}
}

// authenticate checks the credentials against admins first, then members
func authenticate(db *gorm.DB, email, password string) (*Principal, error) {
	var admin adminRecord
	err := db.Where("email = ?", email).First(&admin).Error
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
			return nil, ErrInvalidCredentials
		}
		return &Principal{ID: admin.ID, Email: admin.Email, Role: models.RoleAdmin}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	var member memberRecord
	err = db.Where("email = ?", email).First(&member).Error
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)) != nil {
			return nil, ErrInvalidCredentials
		}
		return &Principal{
			ID:          member.ID,
			Email:       member.Email,
			Role:        models.RoleMember,
			StructureID: member.StructureID,
		}, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrInvalidCredentials
	default:
		return nil, err
	}
}

// RequireAuth rejects anonymous requests
func RequireAuth(log zerolog.Logger) gin.HandlerFunc {
	return requireRole(log, "")
}

// RequireAdmin ensures the authenticated account is an admin
func RequireAdmin(log zerolog.Logger) gin.HandlerFunc {
	return requireRole(log, models.RoleAdmin)
}

// RequireMember ensures the authenticated account is a structure member
func RequireMember(log zerolog.Logger) gin.HandlerFunc {
	return requireRole(log, models.RoleMember)
}

func requireRole(log zerolog.Logger, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, exists := GetPrincipal(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, ErrNoPrincipal, "Unauthorized")
			return
		}
		if role != "" && principal.Role != role {
			respondWithError(c, log, http.StatusForbidden, errors.New("role mismatch"), "Access denied")
			return
		}
		c.Next()
	}
}
