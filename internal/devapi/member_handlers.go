package devapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healthmap/healthmap/internal/models"
)

func (s *Server) members() *gorm.DB {
	return s.db.Model(&memberRecord{}).Preload("Structure").Preload("Structure.Docs").Order("id")
}

// structureExists writes a 400 when the referenced structure is unknown
func (s *Server) structureExists(c *gin.Context, id int64) bool {
	var count int64
	if err := s.db.Model(&structureRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		s.internalError(c, err, "Failed to check structure")
		return false
	}
	if count == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown structure"})
		return false
	}
	return true
}

func (s *Server) findMember(c *gin.Context, id int64) (*memberRecord, bool) {
	var record memberRecord
	if err := s.members().First(&record, id).Error; err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
			return nil, false
		}
		s.internalError(c, err, "Failed to load member")
		return nil, false
	}
	return &record, true
}

func (s *Server) createMember(c *gin.Context) {
	var req models.CreateMemberRequest
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
	if !s.structureExists(c, req.StructureID) {
		return
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		s.internalError(c, err, "Failed to hash password")
		return
	}

	record := memberRecord{
		Email:           req.Email,
		PasswordHash:    hash,
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		RoleInStructure: strings.TrimSpace(req.RoleInStructure),
		StructureID:     req.StructureID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.db.Omit("Structure").Create(&record).Error; err != nil {
		s.internalError(c, err, "Failed to create member")
		return
	}

	created, ok := s.findMember(c, record.ID)
	if !ok {
		return
	}
	s.logger.Info().Int64("member_id", record.ID).Str("email", record.Email).Msg("Member registered")
	c.JSON(http.StatusCreated, created.toModel())
}

// listMembers serves the roster. Only members may read it.
func (s *Server) listMembers(c *gin.Context) {
	var records []memberRecord
	if err := s.members().Find(&records).Error; err != nil {
		s.internalError(c, err, "Failed to list members")
		return
	}
	members := make([]models.Member, 0, len(records))
	for i := range records {
		members = append(members, records[i].toModel())
	}
	c.JSON(http.StatusOK, members)
}

func (s *Server) getMember(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	record, ok := s.findMember(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, record.toModel())
}

// updateMember lets admins edit anyone and members edit themselves. Moving a
// member to another structure is reserved to admins.
func (s *Server) updateMember(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	principal, _ := GetPrincipal(c)
	isAdmin := principal.Role == models.RoleAdmin
	if !isAdmin && !(principal.Role == models.RoleMember && principal.ID == id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var req models.UpdateMemberRequest
	if !s.bindAndValidate(c, &req) {
		return
	}

	record, ok := s.findMember(c, id)
	if !ok {
		return
	}

	email := strings.TrimSpace(req.Email)
	if email != record.Email {
		taken, err := s.emailTaken(email, id)
		if err != nil {
			s.internalError(c, err, "Failed to check email")
			return
		}
		if taken {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
			return
		}
		record.Email = email
	}

	if req.StructureID != 0 && req.StructureID != record.StructureID {
		if !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only administrators can move a member"})
			return
		}
		if !s.structureExists(c, req.StructureID) {
			return
		}
		record.StructureID = req.StructureID
	}

	if req.Password != "" {
		hash, err := s.hashPassword(req.Password)
		if err != nil {
			s.internalError(c, err, "Failed to hash password")
			return
		}
		record.PasswordHash = hash
	}
	record.FirstName = strings.TrimSpace(req.FirstName)
	record.LastName = strings.TrimSpace(req.LastName)
	record.RoleInStructure = strings.TrimSpace(req.RoleInStructure)

	if err := s.db.Omit("Structure").Save(record).Error; err != nil {
		s.internalError(c, err, "Failed to update member")
		return
	}

	updated, ok := s.findMember(c, id)
	if !ok {
		return
	}
	s.logger.Info().Int64("member_id", id).Str("by", principal.Email).Msg("Member updated")
	c.JSON(http.StatusOK, updated.toModel())
}

func (s *Server) deleteMember(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	result := s.db.Delete(&memberRecord{}, id)
	if result.Error != nil {
		s.internalError(c, result.Error, "Failed to delete member")
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}
	s.logger.Info().Int64("member_id", id).Msg("Member deleted")
	c.Status(http.StatusNoContent)
}
