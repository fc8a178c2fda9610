package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/career-transitions/internal/directory"
	"github.com/jonathan/career-transitions/internal/types"
)

// fakeDirectory serves a fixed world of companies and people.
type fakeDirectory struct {
	mu        sync.Mutex
	companies map[string]*types.CompanyRecord
	former    map[string][]string
	current   map[string][]string
	people    map[string]*types.Person
	failing   map[string]error
	searchErr error

	calls    atomic.Int32
	enriches atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		companies: make(map[string]*types.CompanyRecord),
		former:    make(map[string][]string),
		current:   make(map[string][]string),
		people:    make(map[string]*types.Person),
		failing:   make(map[string]error),
	}
}

func (d *fakeDirectory) addCompany(id, name string) types.CompanyRef {
	d.companies[name] = &types.CompanyRecord{ID: id, Name: name}
	return types.CompanyRef{ID: id, Name: name}
}

// addPerson registers a person and lists them as a former or current employee of listedAt.
func (d *fakeDirectory) addPerson(listedAt types.CompanyRef, current bool, positions ...types.Position) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := fmt.Sprintf("p-%d", len(d.people)+1)
	d.people[id] = &types.Person{ID: id, Positions: positions}
	if current {
		d.current[listedAt.ID] = append(d.current[listedAt.ID], id)
	} else {
		d.former[listedAt.ID] = append(d.former[listedAt.ID], id)
	}
	return id
}

func (d *fakeDirectory) SearchCompany(_ context.Context, name string) (*types.CompanyRecord, error) {
	d.calls.Add(1)
	if d.searchErr != nil {
		return nil, d.searchErr
	}
	return d.companies[name], nil
}

func (d *fakeDirectory) ListEmployees(_ context.Context, companyID string, opts directory.ListOptions) (*directory.Page, error) {
	d.calls.Add(1)
	ids := d.former[companyID]
	if opts.Current {
		ids = d.current[companyID]
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = directory.DefaultPerPage
	}
	page := max(opts.Page, 1)
	total := (len(ids) + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start >= len(ids) {
		return &directory.Page{Page: page, TotalPages: total}, nil
	}
	end := min(start+perPage, len(ids))

	members := make([]directory.Member, 0, end-start)
	for _, id := range ids[start:end] {
		members = append(members, directory.Member{ID: id})
	}
	return &directory.Page{Members: members, Page: page, TotalPages: total}, nil
}

func (d *fakeDirectory) EnrichPerson(ctx context.Context, id string) (*types.Person, error) {
	d.calls.Add(1)
	d.enriches.Add(1)
	n := d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	for {
		seen := d.maxSeen.Load()
		if n <= seen || d.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if d.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.delay):
		}
	}

	if err := d.failing[id]; err != nil {
		return nil, err
	}
	return d.people[id], nil
}

func day(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return &d
}

func job(company types.CompanyRef, title string, start, end *time.Time) types.Position {
	return types.Position{Company: company, Title: title, StartDate: start, EndDate: end}
}
