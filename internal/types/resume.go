// Package types provides type definitions for the structured documents that
// flow through the generation pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "github.com/go-playground/validator/v10"

// Link is a contact link such as a portfolio, GitHub, or LinkedIn profile.
type Link struct {
	URL      string `json:"url" validate:"required"`
	Platform string `json:"platform" validate:"required"`
}

// PersonalInfo is the personal information block of a resume.
type PersonalInfo struct {
	PhoneNumber       string `json:"phone_number" validate:"required"`
	Address           string `json:"address" validate:"required"`
	Summary           string `json:"summary" validate:"required"`
	Age               string `json:"age,omitempty"`
	ProfessionalTitle string `json:"professional_title" validate:"required"`
	ContactLinks      []Link `json:"contact_links,omitempty" validate:"dive"`
}

// WorkExperience is a single employment entry.
type WorkExperience struct {
	CompanyName      string `json:"company_name" validate:"required"`
	Position         string `json:"position" validate:"required"`
	StartDate        string `json:"start_date" validate:"required"`
	EndDate          string `json:"end_date,omitempty"` // empty if current
	Responsibilities string `json:"responsibilities" validate:"required"`
}

// Education is a single education entry.
type Education struct {
	Institution  string `json:"institution" validate:"required"`
	Degree       string `json:"degree" validate:"required"`
	FieldOfStudy string `json:"field_of_study" validate:"required"`
	StartDate    string `json:"start_date" validate:"required"`
	EndDate      string `json:"end_date,omitempty"`
	Grade        string `json:"grade,omitempty"`
}

// Skill is a named skill with a proficiency level.
type Skill struct {
	Name             string `json:"name" validate:"required"`
	ProficiencyLevel string `json:"proficiency_level" validate:"required"`
}

// Project is a personal or professional project entry.
type Project struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description" validate:"required"`
	Technologies []string `json:"technologies" validate:"required"`
	URL          string   `json:"url,omitempty"`
}

// Certification is an earned certification entry.
type Certification struct {
	Name      string `json:"name" validate:"required"`
	Issuer    string `json:"issuer" validate:"required"`
	IssueDate string `json:"issue_date" validate:"required"`
}

// Language is a spoken language with a proficiency level.
type Language struct {
	Name        string `json:"name" validate:"required"`
	Proficiency string `json:"proficiency" validate:"required"`
}

// Award is a received award entry.
type Award struct {
	Title       string `json:"title" validate:"required"`
	Issuer      string `json:"issuer" validate:"required"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

// Resume is the candidate document. It is both the immutable snapshot taken
// at pipeline start and the structured target of the resume draft cycle.
type Resume struct {
	Name            string           `json:"name" validate:"required"`
	Email           string           `json:"email" validate:"required,email"`
	PersonalInfo    PersonalInfo     `json:"personal_info" validate:"required"`
	WorkExperiences []WorkExperience `json:"work_experiences" validate:"required,min=1,dive"`
	Educations      []Education      `json:"educations" validate:"required,dive"`
	Skills          []Skill          `json:"skills" validate:"required,dive"`
	Projects        []Project        `json:"projects,omitempty" validate:"dive"`
	Certifications  []Certification  `json:"certifications,omitempty" validate:"dive"`
	Hobbies         []string         `json:"hobbies,omitempty"`
	Languages       []Language       `json:"languages,omitempty" validate:"dive"`
	Awards          []Award          `json:"awards,omitempty" validate:"dive"`
}

// Validate checks the resume against the candidate-facing schema rules.
func (r *Resume) Validate() error {
	return validator.New().Struct(r)
}
