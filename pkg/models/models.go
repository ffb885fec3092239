// Package models defines the site content entities exposed by the content
// repository.
//
// The site keeps four kinds of content, each in its own store collection:
//
//   - [Project]: portfolio entries, ordered for display
//   - [Service]: offered services, ordered, each with an inline SVG icon and a
//     visibility flag
//   - [CompanyInfo]: a singleton document holding headline numbers and the
//     about/mission/vision texts
//   - [ContactInfo]: a singleton document holding contact details, social
//     links and business hours
//
// Values of these types are always canonical: IsActive is a real boolean and
// list fields are real string slices, whatever representation the store held.
// Translation from stored documents is done by
// [github.com/surrealdb/sitecontent/pkg/content]; nothing else reads the store.
package models

import "time"

// Collection names in the document store.
const (
	CollectionProjects    = "projects"
	CollectionServices    = "services"
	CollectionCompanyInfo = "companyInfo"
	CollectionContact     = "contact"
)

// Fixed document ids of the singleton documents.
const (
	CompanyInfoKey = "main"
	ContactInfoKey = "info"
)

// Stored field names shared by the ordered collections.
const (
	FieldOrder        = "order"
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldIsActive     = "isActive"
	FieldIcon         = "icon"
	FieldFeatures     = "features"
	FieldTechnologies = "technologies"
	FieldImageURL     = "imageUrl"
	FieldLink         = "link"
	FieldUpdatedAt    = "updatedAt"
)

// Entity is an item of an ordered collection.
type Entity interface {
	GetID() string
	GetOrder() int
}

// Project is a portfolio entry.
type Project struct {
	ID           string    `json:"id"`
	Order        int       `json:"order"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Technologies []string  `json:"technologies"`
	Features     []string  `json:"features"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Link         string    `json:"link,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (p Project) GetID() string { return p.ID }
func (p Project) GetOrder() int  { return p.Order }

// Service is an offered service. Icon holds inline SVG markup that must be
// passed through markup.Render before it reaches a page.
type Service struct {
	ID          string    `json:"id"`
	Order       int       `json:"order"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Features    []string  `json:"features"`
	IsActive    bool      `json:"isActive"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s Service) GetID() string { return s.ID }
func (s Service) GetOrder() int  { return s.Order }

// CompanyInfo is the singleton stored under CompanyInfoKey.
type CompanyInfo struct {
	YearsExperience    int       `json:"yearsExperience"`
	ProjectsCompleted  int       `json:"projectsCompleted"`
	ClientSatisfaction int       `json:"clientSatisfaction"`
	AboutUs            string    `json:"aboutUs"`
	Mission            string    `json:"mission"`
	Vision             string    `json:"vision"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// SocialMedia holds profile links. Empty means not shown.
type SocialMedia struct {
	Facebook  string `json:"facebook"`
	Instagram string `json:"instagram"`
	LinkedIn  string `json:"linkedin"`
	Twitter   string `json:"twitter"`
	GitHub    string `json:"github"`
}

// BusinessHours holds free-form opening hour lines.
type BusinessHours struct {
	Weekdays string `json:"weekdays"`
	Saturday string `json:"saturday"`
	Sunday   string `json:"sunday"`
}

// ContactInfo is the singleton stored under ContactInfoKey.
type ContactInfo struct {
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	City          string        `json:"city"`
	Country       string        `json:"country"`
	MapURL        string        `json:"mapUrl"`
	SocialMedia   SocialMedia   `json:"socialMedia"`
	BusinessHours BusinessHours `json:"businessHours"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// DefaultCompanyInfo is returned while no company document has been saved.
func DefaultCompanyInfo() CompanyInfo {
	return CompanyInfo{}
}

// DefaultContactInfo is returned while no contact document has been saved.
func DefaultContactInfo() ContactInfo {
	return ContactInfo{
		BusinessHours: BusinessHours{
			Weekdays: "Monday - Friday: 9:00 - 18:00",
			Saturday: "Closed",
			Sunday:   "Closed",
		},
	}
}
