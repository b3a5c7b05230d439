package models

import "fmt"

// Role is the authorization level of a signed-in user, as named on the wire
type Role string

const (
	RoleAdmin  Role = "ROLE_ADMIN"
	RoleMember Role = "ROLE_MEMBRE_STRUCTURE"
)

// Sentinel identities used before (or instead of) a confirmed backend id
const (
	ProvisionalUserID int64 = 0 // set at login, replaced by the profile fetch
	AdminSentinelID   int64 = 1 // no endpoint confirms an admin's real id
)

// StructureType is the kind of service location
type StructureType string

const (
	StructureHospital   StructureType = "HOSPITAL"
	StructureClinic     StructureType = "CLINIC"
	StructurePharmacy   StructureType = "PHARMACY"
	StructureLaboratory StructureType = "LABORATORY"
)

// StructureTypes lists every structure type in display order
var StructureTypes = []StructureType{
	StructureHospital,
	StructureClinic,
	StructurePharmacy,
	StructureLaboratory,
}

var structureTypeLabels = map[StructureType]string{
	StructureHospital:   "Hôpital",
	StructureClinic:     "Clinique",
	StructurePharmacy:   "Pharmacie",
	StructureLaboratory: "Laboratoire",
}

// Label returns the display name of the structure type, or the raw value when unknown
func (t StructureType) Label() string {
	if label, ok := structureTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Valid reports whether t is one of the known structure types
func (t StructureType) Valid() bool {
	_, ok := structureTypeLabels[t]
	return ok
}

// DocumentType is the kind of administrative document a structure can deliver
type DocumentType string

const (
	DocPassport           DocumentType = "PASSPORT"
	DocIDCard             DocumentType = "ID_CARD"
	DocBirthCertificate   DocumentType = "BIRTH_CERTIFICATE"
	DocMedicalCertificate DocumentType = "MEDICAL_CERTIFICATE"
)

// DocumentTypes lists every document type in display order
var DocumentTypes = []DocumentType{
	DocPassport,
	DocIDCard,
	DocBirthCertificate,
	DocMedicalCertificate,
}

var documentTypeLabels = map[DocumentType]string{
	DocPassport:           "Passeport",
	DocIDCard:             "Carte d'identité",
	DocBirthCertificate:   "Acte de naissance",
	DocMedicalCertificate: "Certificat médical",
}

func (t DocumentType) Label() string {
	if label, ok := documentTypeLabels[t]; ok {
		return label
	}
	return string(t)
}

func (t DocumentType) Valid() bool {
	_, ok := documentTypeLabels[t]
	return ok
}

// Credentials is the email/password pair sent as HTTP Basic Authentication
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthUser is the resolved identity of the signed-in user
type AuthUser struct {
	ID              int64      `json:"id" yaml:"id"`
	Email           string     `json:"email" yaml:"email"`
	Role            Role       `json:"role" yaml:"role"`
	FirstName       string     `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName        string     `json:"lastName,omitempty" yaml:"lastName,omitempty"`
	Structure       *Structure `json:"structure,omitempty" yaml:"structure,omitempty"`
	RoleInStructure string     `json:"roleInStructure,omitempty" yaml:"roleInStructure,omitempty"`
}

// IsAdmin reports whether the user holds the admin role
func (u *AuthUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsMember reports whether the user holds the structure member role
func (u *AuthUser) IsMember() bool {
	return u != nil && u.Role == RoleMember
}

// Contact holds how a structure can be reached
type Contact struct {
	Phone   string `json:"phone" yaml:"phone" validate:"required"`
	Email   string `json:"email" yaml:"email" validate:"required,email"`
	Website string `json:"website,omitempty" yaml:"website,omitempty" validate:"omitempty,url"`
}

// Address is the postal location of a structure
type Address struct {
	Street     string `json:"street" yaml:"street"`
	City       string `json:"city" yaml:"city" validate:"required"`
	Region     string `json:"region" yaml:"region" validate:"required"`
	PostalCode string `json:"postalCode" yaml:"postalCode"`
	Country    string `json:"country" yaml:"country"`
}

// OpeningHours holds free-form opening hours per weekday
type OpeningHours struct {
	Monday    string `json:"monday,omitempty" yaml:"monday,omitempty"`
	Tuesday   string `json:"tuesday,omitempty" yaml:"tuesday,omitempty"`
	Wednesday string `json:"wednesday,omitempty" yaml:"wednesday,omitempty"`
	Thursday  string `json:"thursday,omitempty" yaml:"thursday,omitempty"`
	Friday    string `json:"friday,omitempty" yaml:"friday,omitempty"`
	Saturday  string `json:"saturday,omitempty" yaml:"saturday,omitempty"`
	Sunday    string `json:"sunday,omitempty" yaml:"sunday,omitempty"`
}

// AvailableDoc is a document a structure delivers
type AvailableDoc struct {
	ID          int64        `json:"id" yaml:"id"`
	Type        DocumentType `json:"type" yaml:"type"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
}

// Structure is a service location of the directory
type Structure struct {
	ID            int64          `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Type          StructureType  `json:"type" yaml:"type"`
	Description   string         `json:"description,omitempty" yaml:"description,omitempty"`
	Contact       Contact        `json:"contact" yaml:"contact"`
	Address       Address        `json:"address" yaml:"address"`
	OpeningHours  *OpeningHours  `json:"openingHours,omitempty" yaml:"openingHours,omitempty"`
	AvailableDocs []AvailableDoc `json:"availableDocs" yaml:"availableDocs"`
}

// Member is a user attached to a structure
type Member struct {
	ID              int64     `json:"id" yaml:"id"`
	Email           string    `json:"email" yaml:"email"`
	FirstName       string    `json:"firstName" yaml:"firstName"`
	LastName        string    `json:"lastName" yaml:"lastName"`
	Structure       Structure `json:"structure" yaml:"structure"`
	RoleInStructure string    `json:"roleInStructure" yaml:"roleInStructure"`
}

// FullName returns "First Last"
func (m Member) FullName() string {
	return fmt.Sprintf("%s %s", m.FirstName, m.LastName)
}

// Admin is an administrator account
type Admin struct {
	ID    int64  `json:"id" yaml:"id"`
	Email string `json:"email" yaml:"email"`
}

// StructureFilter narrows a structure listing; empty fields are ignored
type StructureFilter struct {
	Type   StructureType
	Region string
	City   string
}

// CreateStructureRequest is the body of a structure creation
type CreateStructureRequest struct {
	Name         string        `json:"name" validate:"required"`
	Type         StructureType `json:"type" validate:"required,structure_type"`
	Description  string        `json:"description,omitempty"`
	Contact      Contact       `json:"contact"`
	Address      Address       `json:"address"`
	OpeningHours *OpeningHours `json:"openingHours,omitempty"`
}

// UpdateStructureRequest is a partial structure update; nil fields are left unchanged
type UpdateStructureRequest struct {
	ID           int64          `json:"id"`
	Name         *string        `json:"name,omitempty"`
	Type         *StructureType `json:"type,omitempty"`
	Description  *string        `json:"description,omitempty"`
	Contact      *Contact       `json:"contact,omitempty"`
	Address      *Address       `json:"address,omitempty"`
	OpeningHours *OpeningHours  `json:"openingHours,omitempty"`
}

// CreateMemberRequest is the body of a member sign-up
type CreateMemberRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	FirstName       string `json:"firstName" validate:"trimmed_min=2"`
	LastName        string `json:"lastName" validate:"trimmed_min=2"`
	StructureID     int64  `json:"structureId" validate:"required"`
	RoleInStructure string `json:"roleInStructure" validate:"trimmed_min=2"`
}

// UpdateMemberRequest is a member update; an empty password keeps the current one
type UpdateMemberRequest struct {
	ID              int64  `json:"id"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password,omitempty" validate:"omitempty,min=6"`
	FirstName       string `json:"firstName" validate:"trimmed_min=2"`
	LastName        string `json:"lastName" validate:"trimmed_min=2"`
	StructureID     int64  `json:"structureId,omitempty"`
	RoleInStructure string `json:"roleInStructure" validate:"trimmed_min=2"`
}

// CreateAdminRequest is the body of an admin creation
type CreateAdminRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}
