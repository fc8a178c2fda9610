package types

// Transition is a person's inferred move from a source company to the next employer.
// It is derived per query and never stored on Person.
type Transition struct {
	PersonID            string  `json:"person_id"`
	SourceCompany       string  `json:"source_company"`
	SourceCompanyID     string  `json:"source_company_id,omitempty"`
	SourceRole          string  `json:"source_role"`
	SourceIndustry      string  `json:"source_industry,omitempty"`
	TenureYears         float64 `json:"tenure_years"`
	DestinationCompany  string  `json:"destination_company"`
	DestinationRole     string  `json:"destination_role"`
	DestinationIndustry string  `json:"destination_industry"`
}
