package types

// QueryType classifies the intent of a free-text question.
type QueryType string

// Query type constants.
const (
	QueryExitsFrom     QueryType = "EXITS_FROM"
	QueryExitsTo       QueryType = "EXITS_TO"
	QueryCompare       QueryType = "COMPARE"
	QueryGeneric       QueryType = "GENERIC"
	QueryClarification QueryType = "CLARIFICATION"
)

// ParsedQuery is the structured intent extracted from one input string.
type ParsedQuery struct {
	Raw        string    `json:"raw"`
	Type       QueryType `json:"type"`
	Companies  []string  `json:"companies"`
	Roles      []string  `json:"roles"`
	Industries []string  `json:"industries"`
	Locations  []string  `json:"locations"`
	IsGeneric  bool      `json:"is_generic"`
	Confidence float64   `json:"confidence"`
	FollowUp   string    `json:"follow_up,omitempty"`
}
