package devapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/healthmap/healthmap/internal/models"
	"github.com/healthmap/healthmap/internal/validation"
)

func (s *Server) structures() *gorm.DB {
	return s.db.Model(&structureRecord{}).Preload("Docs").Order("name")
}

func (s *Server) respondStructures(c *gin.Context, query *gorm.DB) {
	var records []structureRecord
	if err := query.Find(&records).Error; err != nil {
		s.internalError(c, err, "Failed to list structures")
		return
	}
	c.JSON(http.StatusOK, structuresToModels(records))
}

func (s *Server) listStructures(c *gin.Context) {
	s.respondStructures(c, s.structures())
}

func (s *Server) structuresByType(c *gin.Context) {
	t := models.StructureType(strings.ToUpper(c.Param("type")))
	if !t.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown structure type"})
		return
	}
	s.respondStructures(c, s.structures().Where("type = ?", string(t)))
}

func (s *Server) searchStructures(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing name"})
		return
	}
	s.respondStructures(c, s.structures().Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%"))
}

func (s *Server) structuresByRegion(c *gin.Context) {
	s.respondStructures(c, s.structures().Where("region = ?", c.Param("region")))
}

func (s *Server) structuresByRegionAndCity(c *gin.Context) {
	s.respondStructures(c, s.structures().Where("region = ? AND city = ?", c.Param("region"), c.Param("city")))
}

func (s *Server) filterStructures(c *gin.Context) {
	query := s.structures()
	if t := c.Query("type"); t != "" {
		st := models.StructureType(strings.ToUpper(t))
		if !st.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown structure type"})
			return
		}
		query = query.Where("type = ?", string(st))
	}
	if region := c.Query("region"); region != "" {
		query = query.Where("region = ?", region)
	}
	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}
	s.respondStructures(c, query)
}

// findStructure loads a structure with its documents, writing 404 when absent
func (s *Server) findStructure(c *gin.Context, id int64) (*structureRecord, bool) {
	var record structureRecord
	if err := s.db.Preload("Docs").First(&record, id).Error; err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Structure not found"})
			return nil, false
		}
		s.internalError(c, err, "Failed to load structure")
		return nil, false
	}
	return &record, true
}

func (s *Server) availableDocs(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	record, ok := s.findStructure(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, record.toModel().AvailableDocs)
}

func (s *Server) getStructure(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	record, ok := s.findStructure(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, record.toModel())
}

func (s *Server) createStructure(c *gin.Context) {
	var req models.CreateStructureRequest
	if !s.bindAndValidate(c, &req) {
		return
	}

	now := time.Now().UTC()
	record := structureRecord{
		Name:        strings.TrimSpace(req.Name),
		Type:        string(req.Type),
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	record.setContact(req.Contact)
	record.setAddress(req.Address)
	record.setOpeningHours(req.OpeningHours)

	if err := s.db.Create(&record).Error; err != nil {
		s.internalError(c, err, "Failed to create structure")
		return
	}

	principal, _ := GetPrincipal(c)
	s.logger.Info().Int64("structure_id", record.ID).Str("by", principal.Email).Msg("Structure created")
	c.JSON(http.StatusCreated, record.toModel())
}

// canModify is the ownership rule: admins anything, members their own structure
func canModify(p *Principal, structureID int64) bool {
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleMember:
		return p.StructureID == structureID
	default:
		return false
	}
}

func (s *Server) updateStructure(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	principal, _ := GetPrincipal(c)
	if !canModify(principal, id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var req models.UpdateStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	record, ok := s.findStructure(c, id)
	if !ok {
		return
	}

	var details []string
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			record.Name = name
		} else {
			details = append(details, "Le nom de la structure est requis")
		}
	}
	if req.Type != nil {
		if req.Type.Valid() {
			record.Type = string(*req.Type)
		} else {
			details = append(details, "Type de structure invalide")
		}
	}
	if req.Contact != nil {
		details = append(details, validation.Validate(req.Contact)...)
		record.setContact(*req.Contact)
	}
	if req.Address != nil {
		details = append(details, validation.Validate(req.Address)...)
		record.setAddress(*req.Address)
	}
	if len(details) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": details})
		return
	}
	if req.Description != nil {
		record.Description = *req.Description
	}
	if req.OpeningHours != nil {
		record.setOpeningHours(req.OpeningHours)
	}
	record.UpdatedAt = time.Now().UTC()

	if err := s.db.Omit("Docs").Save(record).Error; err != nil {
		s.internalError(c, err, "Failed to update structure")
		return
	}

	s.logger.Info().Int64("structure_id", id).Str("by", principal.Email).Msg("Structure updated")
	c.JSON(http.StatusOK, record.toModel())
}

func (s *Server) deleteStructure(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("structure_id = ?", id).Delete(&documentRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("structure_id = ?", id).Delete(&memberRecord{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&structureRecord{}, id)
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		s.internalError(c, err, "Failed to delete structure")
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Structure not found"})
		return
	}

	s.logger.Info().Int64("structure_id", id).Msg("Structure deleted")
	c.Status(http.StatusNoContent)
}

func (s *Server) addDocument(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req models.AvailableDoc
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": []string{"Type de document invalide"}})
		return
	}

	if _, ok := s.findStructure(c, id); !ok {
		return
	}

	doc := documentRecord{StructureID: id, Type: string(req.Type), Description: req.Description}
	if err := s.db.Create(&doc).Error; err != nil {
		s.internalError(c, err, "Failed to add document")
		return
	}

	c.JSON(http.StatusCreated, doc.toModel())
}
