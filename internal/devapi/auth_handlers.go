package devapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/healthmap/healthmap/internal/models"
	"github.com/healthmap/healthmap/internal/validation"
)

// login confirms the Basic credentials; it says nothing about the account
func (s *Server) login(c *gin.Context) {
	principal, _ := GetPrincipal(c)
	s.logger.Info().Str("email", principal.Email).Msg("User logged in")
	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) createAdmin(c *gin.Context) {
	var req models.CreateAdminRequest
	if !s.bindAndValidate(c, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	taken, err := s.emailTaken(req.Email, 0)
	if err != nil {
		s.internalError(c, err, "Failed to check email")
		return
	}
	if taken {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
		return
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		s.internalError(c, err, "Failed to hash password")
		return
	}

	admin := adminRecord{Email: req.Email, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	if err := s.db.Create(&admin).Error; err != nil {
		s.internalError(c, err, "Failed to create admin")
		return
	}

	s.logger.Info().Int64("admin_id", admin.ID).Str("email", admin.Email).Msg("Admin created")
	c.JSON(http.StatusCreated, models.Admin{ID: admin.ID, Email: admin.Email})
}

// ensureAdmin creates the bootstrap admin unless the email is already registered
func (s *Server) ensureAdmin(email, password string) error {
	email = strings.TrimSpace(email)
	taken, err := s.emailTaken(email, 0)
	if err != nil {
		return fmt.Errorf("failed to check bootstrap admin: %w", err)
	}
	if taken {
		return nil
	}
	if len(password) < 6 {
		return fmt.Errorf("bootstrap admin password must be at least 6 characters")
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap admin password: %w", err)
	}
	admin := adminRecord{Email: email, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	if err := s.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	s.logger.Info().Str("email", email).Msg("Bootstrap admin created")
	return nil
}

func (s *Server) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// emailTaken reports whether an admin or a member other than exceptMemberID uses email
func (s *Server) emailTaken(email string, exceptMemberID int64) (bool, error) {
	var count int64
	if err := s.db.Model(&adminRecord{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	query := s.db.Model(&memberRecord{}).Where("email = ?", email)
	if exceptMemberID != 0 {
		query = query.Where("id <> ?", exceptMemberID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// bindAndValidate decodes the JSON body into req and runs the shared request
// validation. It writes the 400 response itself and reports whether to go on.
func (s *Server) bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.logger.Warn().Err(err).Msg("Invalid request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return false
	}
	if messages := validation.Validate(req); len(messages) > 0 {
		s.logger.Warn().Strs("details", messages).Msg("Request validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": messages})
		return false
	}
	return true
}

func (s *Server) internalError(c *gin.Context, err error, message string) {
	s.logger.Error().Err(err).Msg(message)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
