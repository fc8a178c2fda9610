package parsing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-transitions/internal/rules"
	"github.com/jonathan/career-transitions/internal/types"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New(rules.Default().Lexicon)
	require.NoError(t, err)
	return p
}

func TestParse_TypeCascade(t *testing.T) {
	p := newTestParser(t)

	tests := []struct {
		name       string
		input      string
		wantType   types.QueryType
		wantConf   float64
		wantCompan []string
	}{
		{"compare", "Compare McKinsey vs BCG for private equity exits", types.QueryCompare, ConfidenceCompare, []string{"McKinsey & Company", "Boston Consulting Group"}},
		{"compare versus", "Goldman versus Morgan Stanley: which is better for hedge funds?", types.QueryCompare, ConfidenceCompare, []string{"Goldman Sachs", "Morgan Stanley"}},
		{"exits to hire from", "Who does Google hire from?", types.QueryExitsTo, ConfidenceExplicitCue, []string{"Google"}},
		{"exits to get into", "How do analysts get into Blackstone?", types.QueryExitsTo, ConfidenceExplicitCue, []string{"Blackstone"}},
		{"exits from", "Where do consultants from Bain exit to?", types.QueryExitsFrom, ConfidenceExplicitCue, []string{"Bain & Company"}},
		{"exits from leaving", "What do people do after leaving Deloitte?", types.QueryExitsFrom, ConfidenceExplicitCue, []string{"Deloitte"}},
		{"directional to", "Bain consultants to become a PM", types.QueryExitsTo, ConfidenceDirectional, []string{"Bain & Company"}},
		{"directional from", "Analysts from KKR", types.QueryExitsFrom, ConfidenceDirectional, []string{"KKR"}},
		{"generic", "Tell me about Stripe", types.QueryGeneric, ConfidenceGeneric, []string{"Stripe"}},
		{"compare cue single company", "Is McKinsey better?", types.QueryGeneric, ConfidenceGeneric, []string{"McKinsey & Company"}},
		{"clarification", "asdf qwerty", types.QueryClarification, ConfidenceClarification, []string{}},
		{"empty", "   ", types.QueryClarification, ConfidenceClarification, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := p.Parse(tt.input)
			assert.Equal(t, tt.wantType, q.Type)
			assert.InDelta(t, tt.wantConf, q.Confidence, 1e-9)
			assert.Equal(t, tt.wantCompan, q.Companies)
			assert.Equal(t, tt.input, q.Raw)
		})
	}
}

func TestParse_CompareNeedsTwoCompaniesAndCue(t *testing.T) {
	p := newTestParser(t)

	q := p.Parse("McKinsey or BCG, where do their consultants exit?")
	assert.Len(t, q.Companies, 2)
	assert.Equal(t, types.QueryExitsFrom, q.Type, "two companies without a comparison cue is not a comparison")

	q = p.Parse("mckinsey vs bcg vs bain")
	assert.Equal(t, types.QueryCompare, q.Type)
	assert.GreaterOrEqual(t, q.Confidence, 0.9)
	assert.Equal(t, []string{"McKinsey & Company", "Boston Consulting Group", "Bain & Company"}, q.Companies)
}

func TestParse_LongestAliasWins(t *testing.T) {
	p := newTestParser(t)

	q := p.Parse("Where do people from Bain Capital go?")
	assert.Equal(t, []string{"Bain Capital"}, q.Companies)

	q = p.Parse("Is BCG the same as The Boston Consulting Group?")
	assert.Equal(t, []string{"Boston Consulting Group"}, q.Companies, "aliases of one company collapse to one entry")
	assert.Empty(t, q.Industries, "company names do not leak into industry extraction")
}

func TestParse_WholeWordAliases(t *testing.T) {
	p := newTestParser(t)

	q := p.Parse("Where do Bainbridge employees go?")
	assert.Empty(t, q.Companies)

	q = p.Parse("hey, what about EY?")
	assert.Equal(t, []string{"EY"}, q.Companies)
}

func TestParse_Entities(t *testing.T) {
	p := newTestParser(t)

	q := p.Parse("Where do consultants from Bain exit to?")
	assert.Equal(t, []string{"consultant"}, q.Roles)
	assert.Empty(t, q.Industries)
	assert.False(t, q.IsGeneric)
	assert.Empty(t, q.FollowUp)

	q = p.Parse("Do software engineers and product managers at Google in NYC leave for startups?")
	assert.Equal(t, []string{"engineer", "product manager"}, q.Roles)
	assert.Equal(t, []string{"Startup"}, q.Industries)
	assert.Equal(t, []string{"New York"}, q.Locations)

	q = p.Parse("McKinsey exits to private equity in London and San Francisco")
	assert.Equal(t, []string{"Private Equity"}, q.Industries)
	assert.ElementsMatch(t, []string{"London", "San Francisco"}, q.Locations)
	assert.Empty(t, q.Roles)
	assert.False(t, q.IsGeneric)
}

func TestParse_FollowUps(t *testing.T) {
	p := newTestParser(t)

	q := p.Parse("Where do people from Bain go?")
	assert.True(t, q.IsGeneric)
	assert.Contains(t, q.FollowUp, "Bain & Company")

	q = p.Parse("Tell me about Stripe")
	assert.Equal(t, types.QueryGeneric, q.Type)
	assert.Contains(t, q.FollowUp, "Stripe")

	q = p.Parse("hello")
	assert.Equal(t, types.QueryClarification, q.Type)
	for _, example := range p.Examples() {
		assert.Contains(t, q.FollowUp, example)
	}
}

func TestFollowUp_NoCompany(t *testing.T) {
	p := newTestParser(t)
	got := p.FollowUp(types.QueryGeneric, "")
	assert.Contains(t, got, "this company")
	assert.False(t, strings.Contains(got, "{{"))
}

func TestNew_InvalidPattern(t *testing.T) {
	lex := rules.Default().Lexicon
	lex.Cues.Compare = []string{"("}

	_, err := New(lex)
	require.Error(t, err)
	var lexErr *LexiconError
	assert.ErrorAs(t, err, &lexErr)
	assert.Equal(t, "compare cue", lexErr.Section)
}
