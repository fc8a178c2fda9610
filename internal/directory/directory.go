// Package directory provides access to the upstream people and company directory.
// The Client talks to the provider's HTTP API; Cached puts a store-backed freshness cache in front of any Directory.
package directory

import (
	"context"

	"github.com/jonathan/career-transitions/internal/types"
)

// Directory is the upstream people/company provider.
// Absent companies and people are reported as nil results with a nil error.
type Directory interface {
	// SearchCompany returns the best match for a company name, or nil.
	SearchCompany(ctx context.Context, name string) (*types.CompanyRecord, error)
	// ListEmployees returns one page of a company's current or former employees.
	ListEmployees(ctx context.Context, companyID string, opts ListOptions) (*Page, error)
	// EnrichPerson returns a person's full position history, or nil.
	EnrichPerson(ctx context.Context, personID string) (*types.Person, error)
}

// DefaultPerPage is the page size used when ListOptions.PerPage is unset.
const DefaultPerPage = 25

// ListOptions selects which employees to list.
type ListOptions struct {
	Current bool
	Page    int
	PerPage int
}

// Member is one listed employee, before enrichment.
type Member struct {
	ID       string `json:"id"`
	FullName string `json:"full_name,omitempty"`
}

// Page is one page of an employee listing. Pages are numbered from 1.
type Page struct {
	Members    []Member `json:"people"`
	Page       int      `json:"page"`
	TotalPages int      `json:"total_pages"`
}

// HasNext reports whether another page follows this one.
func (p *Page) HasNext() bool {
	return p.Page < p.TotalPages
}

func (o ListOptions) normalized() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PerPage < 1 {
		o.PerPage = DefaultPerPage
	}
	return o
}

// CollectMembers pages through a listing until limit members are gathered or the pages run out.
func CollectMembers(ctx context.Context, dir Directory, companyID string, current bool, limit int) ([]Member, error) {
	var members []Member
	seen := make(map[string]bool)
	opts := ListOptions{Current: current, Page: 1, PerPage: min(limit, DefaultPerPage)}

	for len(members) < limit {
		page, err := dir.ListEmployees(ctx, companyID, opts)
		if err != nil {
			return nil, err
		}
		if page == nil {
			break
		}
		for _, m := range page.Members {
			if m.ID == "" || seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			members = append(members, m)
			if len(members) == limit {
				break
			}
		}
		if !page.HasNext() || len(page.Members) == 0 {
			break
		}
		opts.Page = page.Page + 1
	}
	return members, nil
}
