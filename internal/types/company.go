package types

import "github.com/go-playground/validator/v10"

// DiscoveryConfidence expresses how certain the discovery stage is about the
// company footprint it assembled.
type DiscoveryConfidence string

// DiscoveryConfidence values
const (
	ConfidenceHigh   DiscoveryConfidence = "high"
	ConfidenceMedium DiscoveryConfidence = "medium"
	ConfidenceLow    DiscoveryConfidence = "low"
)

// CompanySizeEstimate constants
const (
	SizeStartup    = "startup"
	SizeSmall      = "small"
	SizeMedium     = "medium"
	SizeLarge      = "large"
	SizeEnterprise = "enterprise"
	SizeUnknown    = "unknown"
)

// CompanyType constants
const (
	TypePublic     = "public"
	TypePrivate    = "private"
	TypeStartup    = "startup"
	TypeNonprofit  = "nonprofit"
	TypeGovernment = "government"
	TypeUnknown    = "unknown"
)

// KeyProperties holds the company-controlled web properties discovery found.
type KeyProperties struct {
	CareersPage     string `json:"careers_page,omitempty"`
	EngineeringBlog string `json:"engineering_blog,omitempty"`
	AboutPage       string `json:"about_page,omitempty"`
	ContactPage     string `json:"contact_page,omitempty"`
}

// CompanyCharacteristics classifies the company itself.
type CompanyCharacteristics struct {
	IndustrySector      string `json:"industry_sector,omitempty"`
	CompanySizeEstimate string `json:"company_size_estimate" validate:"required,oneof=startup small medium large enterprise unknown"`
	CompanyType         string `json:"company_type" validate:"required,oneof=public private startup nonprofit government unknown"`
}

// ResearchContext tells downstream research stages what to expect.
type ResearchContext struct {
	InformationAvailability string `json:"information_availability" validate:"required,oneof=high medium low"`
	WebPresenceQuality      string `json:"web_presence_quality" validate:"required,oneof=professional basic minimal poor"`
	ResearchDifficulty      string `json:"research_difficulty" validate:"required,oneof=easy moderate challenging very_difficult"`
}

// DiscoveredCompanyProfile is the structured result of the company discovery
// stage. Produced once per pipeline run and consumed read-only afterwards.
type DiscoveredCompanyProfile struct {
	CompanyName            string                 `json:"company_name" validate:"required"`
	OfficialWebsite        string                 `json:"official_website,omitempty"`
	DiscoveryConfidence    DiscoveryConfidence    `json:"discovery_confidence" validate:"required,oneof=high medium low"`
	KeyProperties          KeyProperties          `json:"key_properties"`
	CompanyCharacteristics CompanyCharacteristics `json:"company_characteristics" validate:"required"`
	ResearchContext        ResearchContext        `json:"research_context" validate:"required"`
	LinkedinCompanyPage    string                 `json:"linkedin_company_page,omitempty"`
	AdditionalVerifiedURLs []string               `json:"additional_verified_urls,omitempty"`
	DiscoveryNotes         string                 `json:"discovery_notes" validate:"required"`
	SourcesConsulted       []string               `json:"sources_consulted,omitempty"`
}

// Validate checks the profile returned by the model.
func (p *DiscoveredCompanyProfile) Validate() error {
	return validator.New().Struct(p)
}

// CompanyProfile is the open-ended research document attached to a job
// application. DiscoveryResults and ResearchPlan are written exactly once per
// pipeline run; ResearchResults accumulates one entry per completed category.
type CompanyProfile struct {
	DiscoveryResults *DiscoveredCompanyProfile `json:"discovery_results,omitempty"`
	ResearchPlan     *ResearchPlan             `json:"research_plan,omitempty"`
	ResearchResults  map[string]string         `json:"research_results,omitempty"`
}
