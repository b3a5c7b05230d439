package devapi

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/healthmap/healthmap/internal/models"
)

// adminRecord is an administrator account
type adminRecord struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (adminRecord) TableName() string { return "admins" }

// memberRecord is a structure member account
type memberRecord struct {
	ID              int64           `gorm:"primaryKey;autoIncrement"`
	Email           string          `gorm:"uniqueIndex;not null"`
	PasswordHash    string          `gorm:"not null"`
	FirstName       string          `gorm:"not null"`
	LastName        string          `gorm:"not null"`
	RoleInStructure string          `gorm:"not null"`
	StructureID     int64           `gorm:"index;not null"`
	Structure       structureRecord `gorm:"foreignKey:StructureID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time       `gorm:"not null"`
}

func (memberRecord) TableName() string { return "membres_structures" }

// structureRecord is a health structure with its contact and address flattened
type structureRecord struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"index;not null"`
	Type         string `gorm:"index;not null"`
	Description  string
	Phone        string
	ContactEmail string
	Website      string
	Street       string
	City         string `gorm:"index"`
	Region       string `gorm:"index"`
	PostalCode   string
	Country      string
	// OpeningHours is stored as JSON text, empty when unknown
	OpeningHours string
	Docs         []documentRecord `gorm:"foreignKey:StructureID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time        `gorm:"not null"`
	UpdatedAt    time.Time        `gorm:"not null"`
}

func (structureRecord) TableName() string { return "structures" }

// documentRecord is a document a structure delivers
type documentRecord struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	StructureID int64  `gorm:"index;not null"`
	Type        string `gorm:"not null"`
	Description string
}

func (documentRecord) TableName() string { return "available_docs" }

// autoMigrate creates or updates the backend tables
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&adminRecord{},
		&structureRecord{},
		&documentRecord{},
		&memberRecord{},
	)
}

func (r *structureRecord) toModel() models.Structure {
	s := models.Structure{
		ID:          r.ID,
		Name:        r.Name,
		Type:        models.StructureType(r.Type),
		Description: r.Description,
		Contact: models.Contact{
			Phone:   r.Phone,
			Email:   r.ContactEmail,
			Website: r.Website,
		},
		Address: models.Address{
			Street:     r.Street,
			City:       r.City,
			Region:     r.Region,
			PostalCode: r.PostalCode,
			Country:    r.Country,
		},
		AvailableDocs: make([]models.AvailableDoc, 0, len(r.Docs)),
	}
	if r.OpeningHours != "" {
		var hours models.OpeningHours
		if err := json.Unmarshal([]byte(r.OpeningHours), &hours); err == nil {
			s.OpeningHours = &hours
		}
	}
	for _, d := range r.Docs {
		s.AvailableDocs = append(s.AvailableDocs, d.toModel())
	}
	return s
}

func (r *structureRecord) setContact(c models.Contact) {
	r.Phone = c.Phone
	r.ContactEmail = c.Email
	r.Website = c.Website
}

func (r *structureRecord) setAddress(a models.Address) {
	r.Street = a.Street
	r.City = a.City
	r.Region = a.Region
	r.PostalCode = a.PostalCode
	r.Country = a.Country
}

func (r *structureRecord) setOpeningHours(h *models.OpeningHours) {
	if h == nil {
		r.OpeningHours = ""
		return
	}
	data, _ := json.Marshal(h)
	r.OpeningHours = string(data)
}

func (r *documentRecord) toModel() models.AvailableDoc {
	return models.AvailableDoc{
		ID:          r.ID,
		Type:        models.DocumentType(r.Type),
		Description: r.Description,
	}
}

func (r *memberRecord) toModel() models.Member {
	return models.Member{
		ID:              r.ID,
		Email:           r.Email,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Structure:       r.Structure.toModel(),
		RoleInStructure: r.RoleInStructure,
	}
}

func structuresToModels(records []structureRecord) []models.Structure {
	out := make([]models.Structure, 0, len(records))
	for i := range records {
		out = append(out, records[i].toModel())
	}
	return out
}
