package db

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/career-transitions/internal/types"
)

// Store persists directory lookups and precomputed transitions.
// Writes are upserts keyed by natural identity; getters return nil, nil when nothing fresh exists.
type Store interface {
	GetFreshCompanyByName(ctx context.Context, name string, maxAge time.Duration) (*types.CompanyRecord, error)
	UpsertCompany(ctx context.Context, company *types.CompanyRecord) error
	GetFreshPerson(ctx context.Context, id string, maxAge time.Duration) (*types.Person, error)
	UpsertPerson(ctx context.Context, person *types.Person) error
	UpsertTransitions(ctx context.Context, transitions []types.Transition) error
	ListTransitionsBySource(ctx context.Context, source string, limit int) ([]types.Transition, error)
	Close()
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*Memory)(nil)
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)

// NormalizeName lowercases a company name and strips everything but letters and digits.
func NormalizeName(name string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "")
}

// TransitionKey is the natural identity of a transition's source company: its ID when known, else its normalized name.
func TransitionKey(t types.Transition) string {
	if id := strings.TrimSpace(t.SourceCompanyID); id != "" {
		return "id:" + id
	}
	return "name:" + NormalizeName(t.SourceCompany)
}
