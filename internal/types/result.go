package types

// Bucket is one group in an aggregation: a key with its count and share of the cohort.
type Bucket struct {
	Key            string   `json:"key"`
	Count          int      `json:"count"`
	Percentage     int      `json:"percentage"`
	Industry       string   `json:"industry,omitempty"`
	SampleRoles    []string `json:"sample_roles"`
	AvgTenureYears float64  `json:"avg_tenure_years,omitempty"`
}

// Comparison is the outcome of comparing two companies' exits into a target industry.
type Comparison struct {
	CompanyA       string   `json:"company_a"`
	CompanyB       string   `json:"company_b"`
	TargetIndustry string   `json:"target_industry"`
	RateA          int      `json:"rate_a"`
	RateB          int      `json:"rate_b"`
	BucketsA       []Bucket `json:"buckets_a"`
	BucketsB       []Bucket `json:"buckets_b"`
	Winner         string   `json:"winner,omitempty"`
	Insight        string   `json:"insight"`
}

// Result is the uniform envelope returned for every answered query.
type Result struct {
	RequestID string       `json:"request_id,omitempty"`
	Success   bool         `json:"success"`
	Type      QueryType    `json:"type"`
	Summary   string       `json:"summary"`
	Query     *ParsedQuery `json:"query,omitempty"`
	Data      *ResultData  `json:"data,omitempty"`
	FollowUp  string       `json:"follow_up,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// ResultData carries the payload of a Result; which fields are set depends on the query type.
type ResultData struct {
	Company       string      `json:"company,omitempty"`
	Companies     []string    `json:"companies,omitempty"`
	TotalAnalyzed int         `json:"total_analyzed"`
	CohortSize    int         `json:"cohort_size"`
	Exits         []Bucket    `json:"exits,omitempty"`
	Sources       []Bucket    `json:"sources,omitempty"`
	Industries    []Bucket    `json:"industries,omitempty"`
	Comparison    *Comparison `json:"comparison,omitempty"`
	Examples      []string    `json:"examples,omitempty"`
}
