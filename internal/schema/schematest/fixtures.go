// Package schematest provides complete, valid questionnaire answers for tests.
package schematest

import (
	"accreditation-questionnaire-service/internal/domain"
)

// ValidSections returns one valid slice per section, indexed by section id.
func ValidSections() [domain.SectionCount]domain.Slice {
	return [domain.SectionCount]domain.Slice{
		{
			"journal_title":    "Journal of Applied Hydrology",
			"issn":             "1234-567X",
			"e_issn":           "",
			"publisher_name":   "Riverbank Academic Press",
			"founding_year":    float64(1998),
			"website_url":      "https://jah.example.org",
			"contact_email":    "editor@jah.example.org",
			"country":          "Portugal",
			"primary_language": "English",
		},
		{
			"subject_area":          "natural_sciences",
			"aims_and_scope":        "Field and laboratory studies of surface and groundwater systems.",
			"keywords":              "hydrology, groundwater, catchments",
			"publication_frequency": "quarterly",
			"issues_per_year":       float64(4),
			"target_audience":       "",
		},
		{
			"editor_in_chief_name":         "Ana Ribeiro",
			"editor_in_chief_affiliation":  "University of Lisbon",
			"editor_in_chief_email":        "a.ribeiro@example.org",
			"board_member_count":           float64(24),
			"international_members_percent": float64(62.5),
			"board_list_url":               "https://jah.example.org/board",
			"has_editorial_office":         true,
		},
		{
			"uses_peer_review":         true,
			"review_type":              "double_blind",
			"reviewers_per_manuscript": float64(2),
			"average_review_days":      float64(45),
			"acceptance_rate_percent":  float64(31),
			"review_policy_url":        "https://jah.example.org/review",
		},
		{
			"has_ethics_policy":               true,
			"ethics_policy_url":               "https://jah.example.org/ethics",
			"follows_cope_guidelines":         true,
			"checks_plagiarism":               true,
			"plagiarism_tool":                 "iThenticate",
			"has_retraction_policy":           true,
			"discloses_conflicts_of_interest": true,
		},
		{
			"stats_reference_year":        float64(2024),
			"submissions_received":        float64(310),
			"articles_published":          float64(96),
			"rejection_rate_percent":      float64(69),
			"average_days_to_publication": float64(120),
		},
		{
			"authors_country_count":     float64(27),
			"foreign_authors_percent":   float64(58),
			"foreign_reviewers_percent": float64(44),
			"primary_region":            "europe",
		},
		{
			"is_open_access":    true,
			"oa_model":          "diamond",
			"license_type":      "cc_by",
			"has_apc":           false,
			"apc_amount":        nil,
			"apc_currency":      "",
			"has_waiver_policy": false,
		},
		{
			"assigns_doi":             true,
			"doi_registration_agency": "crossref",
			"doi_agency_name":         "",
			"doi_prefix":              "10.12345",
			"publishing_platform":     "ojs",
			"archiving_service":       "pkp_pn",
			"has_online_submission":   true,
			"uses_orcid":              true,
		},
		{
			"indexed_in_scopus":         true,
			"indexed_in_web_of_science": false,
			"indexed_in_doaj":           true,
			"indexed_in_google_scholar": true,
			"other_indexes":             "GeoRef",
			"has_impact_factor":         false,
			"impact_factor":             nil,
		},
		{
			"publishes_author_guidelines":  true,
			"publishes_fee_schedule":       true,
			"discloses_ownership":          true,
			"publishes_editorial_contacts": true,
			"declarant_name":               "Ana Ribeiro",
			"declarant_role":               "Editor-in-chief",
			"attests_accuracy":             true,
			"attests_authorization":        true,
			"accepts_terms":                true,
		},
	}
}

// ValidSection returns the valid slice for one section.
func ValidSection(id domain.SectionID) domain.Slice {
	return ValidSections()[id]
}

// ValidDocument merges every valid section into one document.
func ValidDocument() domain.Document {
	doc := domain.Document{}
	for _, slice := range ValidSections() {
		for k, v := range slice {
			doc[k] = v
		}
	}
	return doc
}
