package model

// ContactRecord is one row of the contact staging table.
type ContactRecord struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	JobTitle      string `json:"job_title,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	NormalCompany string `json:"normal_company,omitempty"` // precomputed key; derived when empty
	Source        string `json:"source,omitempty"`
	DateCreated   string `json:"date_created,omitempty"`
	DateUpdated   string `json:"date_updated,omitempty"`
	ExtraData     string `json:"extra_data,omitempty"`
}

// MatchResult is the outcome of matching a contact's company against the
// scored company set. Confidence below the gate means no match: Found is
// false and MatchedName is empty.
type MatchResult struct {
	MatchedName  string  `json:"matched_name,omitempty"`
	Confidence   float64 `json:"confidence"`
	CompanyScore float64 `json:"company_score"`
	Found        bool    `json:"found"`
}

// ScoredContact is the scoring output for a single contact. MatchConfidence
// and CompanyScore are nil when no company matched, never zero-valued.
type ScoredContact struct {
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	FullName        string   `json:"full_name"`
	JobTitle        string   `json:"job_title,omitempty"`
	CompanyName     string   `json:"company_name,omitempty"`
	LeadScore       float64  `json:"lead_score"`
	ContactScore    float64  `json:"contact_score"`
	RawContactScore float64  `json:"raw_contact_score"`
	RawLeadScore    float64  `json:"raw_lead_score"`
	CompanyScore    *float64 `json:"matched_company_score,omitempty"`
	Seniority       float64  `json:"seniority"`
	Domain          float64  `json:"domain"`
	Warmth          float64  `json:"warmth"` // reserved signal, currently always 0
	MatchedCompany  string   `json:"matched_company,omitempty"`
	MatchConfidence *float64 `json:"match_confidence,omitempty"`
	Source          string   `json:"source,omitempty"`
	DateCreated     string   `json:"date_created,omitempty"`
	DateUpdated     string   `json:"date_updated,omitempty"`
	ExtraData       string   `json:"extra_data,omitempty"`
}
