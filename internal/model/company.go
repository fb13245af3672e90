// Package model defines the typed records flowing through the scoring engine.
package model

// CompanyRecord is one row of the company staging table. Fields are kept as
// raw strings where the source data is free-form; the scorer owns parsing.
type CompanyRecord struct {
	Name                  string `json:"name"`
	Rev30D                string `json:"rev_30d,omitempty"`        // primary revenue signal
	AnnualRevenue         string `json:"annual_revenue,omitempty"` // fallback when Rev30D is missing
	TotalFunding          string `json:"total_funding,omitempty"`
	LatestFundingAmount   string `json:"latest_funding_amount,omitempty"`
	LatestFundingDate     string `json:"latest_funding_date,omitempty"`
	EmployeeCount         string `json:"employee_count,omitempty"`
	EmployeeChangePct     string `json:"employee_change_pct,omitempty"`
	RevChangePct          string `json:"rev_change_pct,omitempty"`
	CloseStatus           string `json:"close_status,omitempty"`
	CloseStatusChangeDate string `json:"close_status_change_date,omitempty"`
	MakesGames            string `json:"makes_games,omitempty"` // "X" = set
	F2P                   string `json:"f2p,omitempty"`
	Mobile                string `json:"mobile,omitempty"`
	FoundedYear           string `json:"founded_year,omitempty"`
	Type                  string `json:"type,omitempty"`
	WebsiteURL            string `json:"website_url,omitempty"`
	LinkedInURL           string `json:"linkedin_url,omitempty"`
	Country               string `json:"country,omitempty"`
	Flag                  string `json:"flag,omitempty"`
	Notes                 string `json:"notes,omitempty"`
	DiscoverSource        string `json:"discover_source,omitempty"`
	CreatedDate           string `json:"created_date,omitempty"`
	NormalizedName        string `json:"normalized_name,omitempty"`
}

// CompanySubScores holds the independently normalized subcomponent scores
// reported alongside the pillar scores.
type CompanySubScores struct {
	Dev            float64 `json:"dev"`
	F2P            float64 `json:"f2p"`
	Mobile         float64 `json:"mobile"`
	Fresh          float64 `json:"fresh"`
	Revenue        float64 `json:"revenue"`
	Funding        float64 `json:"funding"`
	Headcount      float64 `json:"headcount"`
	Status         float64 `json:"status"`
	Volatility     float64 `json:"volatility"`
	RevenueDelta   float64 `json:"revenue_delta"`
	RunwayDelta    float64 `json:"runway_delta"`
	HeadcountDelta float64 `json:"headcount_delta"`
	Hiring         float64 `json:"hiring"` // reserved signal, currently always 0
}

// ScoredCompany is the scoring output for a single company.
type ScoredCompany struct {
	Name           string           `json:"name"`
	CompanyScore   float64          `json:"company_score"`
	Alignment      float64          `json:"alignment"`
	Budget         float64          `json:"budget"`
	Demand         float64          `json:"demand"`
	Sub            CompanySubScores `json:"subcomponents"`
	URL            string           `json:"url,omitempty"`
	NormalizedName string           `json:"normalized_name,omitempty"`
	Country        string           `json:"country,omitempty"`
	Flag           string           `json:"flag,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	DiscoverSource string           `json:"discover_source,omitempty"`
	CreatedDate    string           `json:"created_date,omitempty"`
	UpdatedDate    string           `json:"updated_date,omitempty"`
}
