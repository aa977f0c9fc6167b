package schema

import (
	"regexp"

	"accreditation-questionnaire-service/internal/domain"
)

// Section positions.
const (
	SectionIdentity domain.SectionID = iota
	SectionScope
	SectionEditorialBoard
	SectionPeerReview
	SectionEthics
	SectionStatistics
	SectionGeography
	SectionOpenAccess
	SectionInfrastructure
	SectionIndexing
	SectionTransparency
)

var (
	// ISSN shape only: four digits, hyphen, four alphanumerics. No checksum is computed.
	issnPattern     = regexp.MustCompile(`^[0-9]{4}-[0-9A-Za-z]{4}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	doiPrefix       = regexp.MustCompile(`^10\.[0-9]{4,9}$`)
)

const issnMessage = "must be a valid ISSN (NNNN-NNNC)"

func bound(v float64) *float64 { return &v }

func when(field string, equals any) Condition {
	return Condition{Field: field, Equals: equals}
}

var defaultSet = NewSet(
	newSection(SectionIdentity, "identity", "Journal identity",
		Field{Name: "journal_title", Label: "Journal title", Kind: KindText, Required: true, MaxLength: 300},
		Field{Name: "issn", Label: "ISSN (print)", Kind: KindText, Required: true, Pattern: issnPattern, PatternMessage: issnMessage},
		Field{Name: "e_issn", Label: "ISSN (electronic)", Kind: KindText, Pattern: issnPattern, PatternMessage: issnMessage},
		Field{Name: "publisher_name", Label: "Publisher", Kind: KindText, Required: true, MaxLength: 300},
		Field{Name: "founding_year", Label: "Year founded", Kind: KindInteger, Required: true, Min: bound(1665), NotAfterCurrentYear: true},
		Field{Name: "website_url", Label: "Journal website", Kind: KindURL, Required: true},
		Field{Name: "contact_email", Label: "Contact email", Kind: KindEmail, Required: true},
		Field{Name: "country", Label: "Country of publication", Kind: KindText, Required: true},
		Field{Name: "primary_language", Label: "Primary language", Kind: KindText, Required: true},
	),
	newSection(SectionScope, "scope", "Aims and scope",
		Field{Name: "subject_area", Label: "Subject area", Kind: KindEnum, Required: true, Options: []string{
			"medicine", "natural_sciences", "engineering", "social_sciences", "humanities", "agriculture", "multidisciplinary",
		}},
		Field{Name: "aims_and_scope", Label: "Aims and scope", Kind: KindText, Required: true, MinLength: 20, MaxLength: 5000},
		Field{Name: "keywords", Label: "Keywords", Kind: KindText, Required: true},
		Field{Name: "publication_frequency", Label: "Publication frequency", Kind: KindEnum, Required: true, Options: []string{
			"monthly", "bimonthly", "quarterly", "semiannual", "annual", "continuous",
		}},
		Field{Name: "issues_per_year", Label: "Issues per year", Kind: KindInteger, Required: true, Min: bound(1), Max: bound(52)},
		Field{Name: "target_audience", Label: "Target audience", Kind: KindText},
	),
	newSection(SectionEditorialBoard, "editorial_board", "Editorial board",
		Field{Name: "editor_in_chief_name", Label: "Editor-in-chief", Kind: KindText, Required: true},
		Field{Name: "editor_in_chief_affiliation", Label: "Editor-in-chief affiliation", Kind: KindText, Required: true},
		Field{Name: "editor_in_chief_email", Label: "Editor-in-chief email", Kind: KindEmail, Required: true},
		Field{Name: "board_member_count", Label: "Board members", Kind: KindInteger, Required: true, Min: bound(1), Max: bound(500)},
		Field{Name: "international_members_percent", Label: "International members (%)", Kind: KindNumber, Required: true, Min: bound(0), Max: bound(100)},
		Field{Name: "board_list_url", Label: "Published board list", Kind: KindURL, Required: true},
		Field{Name: "has_editorial_office", Label: "Has a staffed editorial office", Kind: KindBoolean},
	),
	newSection(SectionPeerReview, "peer_review", "Peer review",
		Field{Name: "uses_peer_review", Label: "Manuscripts are peer reviewed", Kind: KindBoolean},
		Field{Name: "review_type", Label: "Review model", Kind: KindEnum, Required: true,
			Options: []string{"single_blind", "double_blind", "open"}, When: []Condition{when("uses_peer_review", true)}},
		Field{Name: "reviewers_per_manuscript", Label: "Reviewers per manuscript", Kind: KindInteger, Required: true,
			Min: bound(1), Max: bound(10), When: []Condition{when("uses_peer_review", true)}},
		Field{Name: "average_review_days", Label: "Average review time (days)", Kind: KindInteger, Required: true,
			Min: bound(1), Max: bound(365), When: []Condition{when("uses_peer_review", true)}},
		Field{Name: "acceptance_rate_percent", Label: "Acceptance rate (%)", Kind: KindNumber, Required: true,
			Min: bound(0), Max: bound(100), When: []Condition{when("uses_peer_review", true)}},
		Field{Name: "review_policy_url", Label: "Review policy", Kind: KindURL, Required: true,
			When: []Condition{when("uses_peer_review", true)}},
	),
	newSection(SectionEthics, "ethics", "Publication ethics",
		Field{Name: "has_ethics_policy", Label: "Publishes an ethics policy", Kind: KindBoolean},
		Field{Name: "ethics_policy_url", Label: "Ethics policy", Kind: KindURL, Required: true,
			When: []Condition{when("has_ethics_policy", true)}},
		Field{Name: "follows_cope_guidelines", Label: "Follows COPE guidelines", Kind: KindBoolean},
		Field{Name: "checks_plagiarism", Label: "Screens submissions for plagiarism", Kind: KindBoolean},
		Field{Name: "plagiarism_tool", Label: "Plagiarism tool", Kind: KindText, Required: true,
			When: []Condition{when("checks_plagiarism", true)}},
		Field{Name: "has_retraction_policy", Label: "Has a retraction policy", Kind: KindBoolean},
		Field{Name: "discloses_conflicts_of_interest", Label: "Requires conflict-of-interest disclosure", Kind: KindBoolean},
	),
	newSection(SectionStatistics, "statistics", "Publication statistics",
		Field{Name: "stats_reference_year", Label: "Reference year", Kind: KindInteger, Required: true, Min: bound(1900), NotAfterCurrentYear: true},
		Field{Name: "submissions_received", Label: "Submissions received", Kind: KindInteger, Required: true, Min: bound(0)},
		Field{Name: "articles_published", Label: "Articles published", Kind: KindInteger, Required: true, Min: bound(0)},
		Field{Name: "rejection_rate_percent", Label: "Rejection rate (%)", Kind: KindNumber, Required: true, Min: bound(0), Max: bound(100)},
		Field{Name: "average_days_to_publication", Label: "Average days to publication", Kind: KindInteger, Required: true, Min: bound(0), Max: bound(730)},
	),
	newSection(SectionGeography, "geography", "Geographic diversity",
		Field{Name: "authors_country_count", Label: "Author countries", Kind: KindInteger, Required: true, Min: bound(1)},
		Field{Name: "foreign_authors_percent", Label: "Foreign authors (%)", Kind: KindNumber, Required: true, Min: bound(0), Max: bound(100)},
		Field{Name: "foreign_reviewers_percent", Label: "Foreign reviewers (%)", Kind: KindNumber, Required: true, Min: bound(0), Max: bound(100)},
		Field{Name: "primary_region", Label: "Primary region", Kind: KindEnum, Required: true, Options: []string{
			"africa", "asia", "europe", "latin_america", "middle_east", "north_america", "oceania", "global",
		}},
	),
	newSection(SectionOpenAccess, "open_access", "Open access",
		Field{Name: "is_open_access", Label: "Content is open access", Kind: KindBoolean},
		Field{Name: "oa_model", Label: "Open access model", Kind: KindEnum, Required: true,
			Options: []string{"gold", "diamond", "hybrid", "green", "bronze"}, When: []Condition{when("is_open_access", true)}},
		Field{Name: "license_type", Label: "License", Kind: KindEnum, Required: true,
			Options: []string{"cc_by", "cc_by_sa", "cc_by_nc", "cc_by_nc_sa", "cc_by_nd", "cc_by_nc_nd", "cc0", "other"},
			When:    []Condition{when("is_open_access", true)}},
		Field{Name: "has_apc", Label: "Charges article processing fees", Kind: KindBoolean},
		Field{Name: "apc_amount", Label: "APC amount", Kind: KindNumber, Required: true,
			Min: bound(0.01), Max: bound(100000), When: []Condition{when("has_apc", true)}},
		Field{Name: "apc_currency", Label: "APC currency", Kind: KindText, Required: true,
			Pattern: currencyPattern, PatternMessage: "must be a three-letter ISO 4217 code", When: []Condition{when("has_apc", true)}},
		Field{Name: "has_waiver_policy", Label: "Offers APC waivers", Kind: KindBoolean},
	),
	newSection(SectionInfrastructure, "infrastructure", "Publishing infrastructure",
		Field{Name: "assigns_doi", Label: "Assigns DOIs", Kind: KindBoolean},
		Field{Name: "doi_registration_agency", Label: "DOI registration agency", Kind: KindEnum, Required: true,
			Options: []string{"crossref", "datacite", "medra", "other"}, When: []Condition{when("assigns_doi", true)}},
		Field{Name: "doi_agency_name", Label: "Other registration agency", Kind: KindText, Required: true,
			When: []Condition{when("assigns_doi", true), when("doi_registration_agency", "other")}},
		Field{Name: "doi_prefix", Label: "DOI prefix", Kind: KindText,
			Pattern: doiPrefix, PatternMessage: "must look like 10.NNNN", When: []Condition{when("assigns_doi", true)}},
		Field{Name: "publishing_platform", Label: "Publishing platform", Kind: KindEnum, Required: true, Options: []string{
			"ojs", "janeway", "scholastica", "custom", "other",
		}},
		Field{Name: "archiving_service", Label: "Long-term archiving", Kind: KindEnum, Required: true, Options: []string{
			"lockss", "clockss", "portico", "pkp_pn", "national_library", "none",
		}},
		Field{Name: "has_online_submission", Label: "Accepts online submissions", Kind: KindBoolean},
		Field{Name: "uses_orcid", Label: "Collects author ORCID iDs", Kind: KindBoolean},
	),
	newSection(SectionIndexing, "indexing", "Indexing",
		Field{Name: "indexed_in_scopus", Label: "Indexed in Scopus", Kind: KindBoolean},
		Field{Name: "indexed_in_web_of_science", Label: "Indexed in Web of Science", Kind: KindBoolean},
		Field{Name: "indexed_in_doaj", Label: "Indexed in DOAJ", Kind: KindBoolean},
		Field{Name: "indexed_in_google_scholar", Label: "Indexed in Google Scholar", Kind: KindBoolean},
		Field{Name: "other_indexes", Label: "Other indexes", Kind: KindText, MaxLength: 1000},
		Field{Name: "has_impact_factor", Label: "Has an impact factor", Kind: KindBoolean},
		Field{Name: "impact_factor", Label: "Impact factor", Kind: KindNumber, Required: true,
			Min: bound(0), Max: bound(1000), When: []Condition{when("has_impact_factor", true)}},
	),
	newSection(SectionTransparency, "transparency", "Transparency and attestation",
		Field{Name: "publishes_author_guidelines", Label: "Publishes author guidelines", Kind: KindBoolean},
		Field{Name: "publishes_fee_schedule", Label: "Publishes all fees", Kind: KindBoolean},
		Field{Name: "discloses_ownership", Label: "Discloses ownership", Kind: KindBoolean},
		Field{Name: "publishes_editorial_contacts", Label: "Publishes editorial contacts", Kind: KindBoolean},
		Field{Name: "declarant_name", Label: "Declarant name", Kind: KindText, Required: true},
		Field{Name: "declarant_role", Label: "Declarant role", Kind: KindText, Required: true},
		Field{Name: "attests_accuracy", Label: "The information provided is accurate", Kind: KindAttestation, Required: true},
		Field{Name: "attests_authorization", Label: "I am authorized to submit on behalf of the journal", Kind: KindAttestation, Required: true},
		Field{Name: "accepts_terms", Label: "I accept the accreditation terms", Kind: KindAttestation, Required: true},
	),
)

// Default returns the accreditation questionnaire schema set.
func Default() *Set {
	return defaultSet
}
