// Package types provides type definitions for structured data used throughout the career-transitions system.
package types

import (
	"sort"
	"strings"
	"time"
)

// CompanyRef identifies a company by name and, when known, a stable directory ID.
// ID equality takes precedence over name matching.
type CompanyRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// MatchesID reports whether both refs carry the same non-empty ID.
func (c CompanyRef) MatchesID(other CompanyRef) bool {
	return c.ID != "" && other.ID != "" && c.ID == other.ID
}

// MatchesName reports whether other's name appears in c's name, case-insensitively.
func (c CompanyRef) MatchesName(other CompanyRef) bool {
	needle := strings.ToLower(strings.TrimSpace(other.Name))
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(c.Name), needle)
}

// Matches reports whether c refers to the same company as other, by ID or by name.
func (c CompanyRef) Matches(other CompanyRef) bool {
	return c.MatchesID(other) || c.MatchesName(other)
}

// Position is one entry in a person's employment history.
// A nil EndDate means the position is ongoing.
type Position struct {
	Company   CompanyRef `json:"company"`
	Title     string     `json:"title"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// IsCurrent reports whether the position has no end date.
func (p Position) IsCurrent() bool {
	return p.EndDate == nil
}

// Person is an immutable snapshot of one person's employment history.
type Person struct {
	ID        string     `json:"id"`
	FullName  string     `json:"full_name,omitempty"`
	Positions []Position `json:"positions"`
}

// SortedPositions returns a copy of the positions ordered by start date, most recent first.
// Positions without a start date sort as the earliest.
func SortedPositions(positions []Position) []Position {
	sorted := make([]Position, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].StartDate, sorted[j].StartDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return sorted
}
