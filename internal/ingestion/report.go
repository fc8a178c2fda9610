package ingestion

import (
	"encoding/json"
	"fmt"
	"time"
)

// Report summarizes one ingestion run
type Report struct {
	Company     string    `json:"company"`
	CompanyID   string    `json:"company_id"`
	Scanned     int       `json:"scanned"`     // former employees listed
	Transitions int       `json:"transitions"` // transitions inferred and stored
	Skipped     int       `json:"skipped"`     // people whose enrichment failed
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// ToJSON marshals the Report to pretty-printed JSON
func (r *Report) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ingestion report to JSON: %w", err)
	}
	return jsonBytes, nil
}

// String renders the Report as a one-line summary.
func (r *Report) String() string {
	return fmt.Sprintf("%s: scanned %d former employees, stored %d transitions, skipped %d",
		r.Company, r.Scanned, r.Transitions, r.Skipped)
}
