package devapi

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/healthmap/healthmap/internal/models"
)

//go:embed seed.yaml
var demoSeed []byte

type seedFile struct {
	Structures []seedStructure `yaml:"structures"`
	Members    []seedMember    `yaml:"members"`
}

type seedStructure struct {
	Name         string                `yaml:"name"`
	Type         models.StructureType  `yaml:"type"`
	Description  string                `yaml:"description"`
	Contact      models.Contact        `yaml:"contact"`
	Address      models.Address        `yaml:"address"`
	OpeningHours *models.OpeningHours  `yaml:"openingHours"`
	Docs         []models.AvailableDoc `yaml:"docs"`
}

type seedMember struct {
	Email           string `yaml:"email"`
	Password        string `yaml:"password"`
	FirstName       string `yaml:"firstName"`
	LastName        string `yaml:"lastName"`
	RoleInStructure string `yaml:"roleInStructure"`
	Structure       string `yaml:"structure"` // structure name
}

// SeedDemo loads the embedded demo directory. It does nothing when
// structures already exist.
func (s *Server) SeedDemo() error {
	return s.Seed(demoSeed)
}

// Seed loads structures and members from a YAML document into an empty database
func (s *Server) Seed(data []byte) error {
	var count int64
	if err := s.db.Model(&structureRecord{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count structures: %w", err)
	}
	if count > 0 {
		s.logger.Debug().Int64("structures", count).Msg("Database not empty, skipping seed")
		return nil
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed: %w", err)
	}

	// Hash outside the transaction, bcrypt is slow
	hashes := make([]string, len(seed.Members))
	for i, m := range seed.Members {
		hash, err := s.hashPassword(m.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password of %s: %w", m.Email, err)
		}
		hashes[i] = hash
	}

	now := time.Now().UTC()
	return s.db.Transaction(func(tx *gorm.DB) error {
		ids := make(map[string]int64, len(seed.Structures))
		for _, st := range seed.Structures {
			if !st.Type.Valid() {
				return fmt.Errorf("seed structure %q has unknown type %q", st.Name, st.Type)
			}
			record := structureRecord{
				Name:        st.Name,
				Type:        string(st.Type),
				Description: st.Description,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			record.setContact(st.Contact)
			record.setAddress(st.Address)
			record.setOpeningHours(st.OpeningHours)
			for _, d := range st.Docs {
				record.Docs = append(record.Docs, documentRecord{Type: string(d.Type), Description: d.Description})
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to seed structure %q: %w", st.Name, err)
			}
			ids[st.Name] = record.ID
		}

		for i, m := range seed.Members {
			structureID, ok := ids[m.Structure]
			if !ok {
				return fmt.Errorf("seed member %s references unknown structure %q", m.Email, m.Structure)
			}
			record := memberRecord{
				Email:           m.Email,
				PasswordHash:    hashes[i],
				FirstName:       m.FirstName,
				LastName:        m.LastName,
				RoleInStructure: m.RoleInStructure,
				StructureID:     structureID,
				CreatedAt:       now,
			}
			if err := tx.Omit("Structure").Create(&record).Error; err != nil {
				return fmt.Errorf("failed to seed member %s: %w", m.Email, err)
			}
		}

		s.logger.Info().
			Int("structures", len(seed.Structures)).
			Int("members", len(seed.Members)).
			Msg("Demo data seeded")
		return nil
	})
}
