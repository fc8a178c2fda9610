// Package parsing turns free-text career questions into structured query intents.
package parsing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/career-transitions/internal/rules"
	"github.com/jonathan/career-transitions/internal/types"
)

// Confidence assigned by each tier of the classification cascade.
const (
	ConfidenceCompare       = 0.9
	ConfidenceExplicitCue   = 0.85
	ConfidenceDirectional   = 0.7
	ConfidenceGeneric       = 0.6
	ConfidenceClarification = 0.3
)

// Parser classifies questions and extracts companies, roles, industries, and locations.
// It is immutable after construction and safe for concurrent use.
type Parser struct {
	companies     []termMatcher
	roles         []termMatcher
	industries    []labelGroup
	locations     []labelGroup
	compare       []*regexp.Regexp
	exitsTo       []*regexp.Regexp
	exitsFrom     []*regexp.Regexp
	directionTo   []*regexp.Regexp
	directionFrom []*regexp.Regexp
	followUps     rules.FollowUps
}

// New compiles a lexicon into a Parser.
func New(lex rules.Lexicon) (*Parser, error) {
	companyAliases := make(map[string][]string, len(lex.Companies))
	companyOrder := make([]string, 0, len(lex.Companies))
	for _, c := range lex.Companies {
		if _, ok := companyAliases[c.Canonical]; !ok {
			companyOrder = append(companyOrder, c.Canonical)
		}
		companyAliases[c.Canonical] = append(companyAliases[c.Canonical], c.Aliases...)
	}
	roleKeywords := make(map[string][]string, len(lex.Roles))
	roleOrder := make([]string, 0, len(lex.Roles))
	for _, r := range lex.Roles {
		if _, ok := roleKeywords[r.Canonical]; !ok {
			roleOrder = append(roleOrder, r.Canonical)
		}
		roleKeywords[r.Canonical] = append(roleKeywords[r.Canonical], r.Keywords...)
	}

	p := &Parser{followUps: lex.FollowUps}
	var err error
	if p.companies, err = newTermMatchers("company", companyAliases, companyOrder, false); err != nil {
		return nil, err
	}
	if p.roles, err = newTermMatchers("role", roleKeywords, roleOrder, true); err != nil {
		return nil, err
	}
	if p.industries, err = newLabelGroups("industry", lex.Industries); err != nil {
		return nil, err
	}
	if p.locations, err = newLabelGroups("location", lex.Locations); err != nil {
		return nil, err
	}
	if p.compare, err = compilePatterns("compare cue", lex.Cues.Compare); err != nil {
		return nil, err
	}
	if p.exitsTo, err = compilePatterns("exits-to cue", lex.Cues.ExitsTo); err != nil {
		return nil, err
	}
	if p.exitsFrom, err = compilePatterns("exits-from cue", lex.Cues.ExitsFrom); err != nil {
		return nil, err
	}
	if p.directionTo, err = compilePatterns("direction-to cue", lex.Cues.DirectionTo); err != nil {
		return nil, err
	}
	if p.directionFrom, err = compilePatterns("direction-from cue", lex.Cues.DirectionFrom); err != nil {
		return nil, err
	}
	return p, nil
}

// MustNew is like New but panics on error. Use it for embedded lexicons known to be valid.
func MustNew(lex rules.Lexicon) *Parser {
	p, err := New(lex)
	if err != nil {
		panic(fmt.Sprintf("failed to build query parser: %v", err))
	}
	return p
}

// Parse classifies a question. It never fails: text that yields nothing degrades to CLARIFICATION.
func (p *Parser) Parse(text string) *types.ParsedQuery {
	lower := strings.ToLower(strings.TrimSpace(text))

	// Company spans are blanked before role/industry extraction so that
	// "Boston Consulting Group" does not also read as the Consulting industry.
	companies, rest := extractTerms(lower, p.companies)
	roles, _ := extractTerms(rest, p.roles)
	industries := extractLabels(rest, p.industries)
	locations := extractLabels(rest, p.locations)

	q := &types.ParsedQuery{
		Raw:        text,
		Companies:  companies,
		Roles:      roles,
		Industries: industries,
		Locations:  locations,
		IsGeneric:  len(roles) == 0 && len(industries) == 0,
	}
	q.Type, q.Confidence = p.classify(lower, len(companies))

	if q.Type == types.QueryClarification || q.IsGeneric {
		q.FollowUp = p.FollowUp(q.Type, firstOrEmpty(companies))
	}
	return q
}

// classify runs the ordered cascade; the first tier that applies decides the type.
func (p *Parser) classify(lower string, companyCount int) (types.QueryType, float64) {
	switch {
	case lower == "":
		return types.QueryClarification, ConfidenceClarification
	case companyCount >= 2 && matchAny(lower, p.compare):
		return types.QueryCompare, ConfidenceCompare
	case matchAny(lower, p.exitsTo):
		return types.QueryExitsTo, ConfidenceExplicitCue
	case matchAny(lower, p.exitsFrom):
		return types.QueryExitsFrom, ConfidenceExplicitCue
	case companyCount >= 1:
		if matchAny(lower, p.directionTo) {
			return types.QueryExitsTo, ConfidenceDirectional
		}
		if matchAny(lower, p.directionFrom) {
			return types.QueryExitsFrom, ConfidenceDirectional
		}
		return types.QueryGeneric, ConfidenceGeneric
	default:
		return types.QueryClarification, ConfidenceClarification
	}
}

// FollowUp returns the follow-up prompt for a query type, as asked of a generic query.
// CLARIFICATION prompts carry example questions.
func (p *Parser) FollowUp(queryType types.QueryType, company string) string {
	if company == "" {
		company = "this company"
	}

	var template string
	switch queryType {
	case types.QueryExitsFrom:
		template = p.followUps.ExitsFromGeneric
	case types.QueryExitsTo:
		template = p.followUps.ExitsToGeneric
	case types.QueryCompare:
		template = p.followUps.CompareGeneric
	case types.QueryGeneric:
		template = p.followUps.Generic
	default:
		return p.clarification()
	}
	return rules.Format(template, map[string]string{"Company": company})
}

// Examples returns the example questions shown with clarification prompts.
func (p *Parser) Examples() []string {
	return append([]string(nil), p.followUps.Examples...)
}

func (p *Parser) clarification() string {
	var sb strings.Builder
	sb.WriteString(p.followUps.Clarification)
	for _, example := range p.followUps.Examples {
		sb.WriteString("\n  - ")
		sb.WriteString(example)
	}
	return sb.String()
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
