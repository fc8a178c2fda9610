package transitions

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-transitions/internal/types"
)

// stubClassifier labels names containing a known keyword and everything else "Other".
type stubClassifier map[string]string

func (s stubClassifier) Classify(name string) string {
	for keyword, label := range s {
		if strings.Contains(strings.ToLower(name), keyword) {
			return label
		}
	}
	return "Other"
}

var testClassifier = stubClassifier{"bain": "Consulting", "kkr": "Private Equity"}

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return &d
}

func pos(company, title string, start, end *time.Time) types.Position {
	return types.Position{Company: types.CompanyRef{Name: company}, Title: title, StartDate: start, EndDate: end}
}

func TestInfer_NextPosition(t *testing.T) {
	positions := []types.Position{
		pos("Company Y", "Product Manager", date(t, "2020-07-01"), nil),
		pos("Company X", "Consultant", date(t, "2018-01-01"), date(t, "2020-06-01")),
	}

	tr, ok := Infer("p1", positions, types.CompanyRef{Name: "company x"}, DefaultTolerance, testClassifier)
	require.True(t, ok)
	assert.Equal(t, "p1", tr.PersonID)
	assert.Equal(t, "Company X", tr.SourceCompany)
	assert.Equal(t, "Consultant", tr.SourceRole)
	assert.Equal(t, "Company Y", tr.DestinationCompany)
	assert.Equal(t, "Product Manager", tr.DestinationRole)
	assert.Equal(t, "Other", tr.DestinationIndustry)
	assert.InDelta(t, 2.42, tr.TenureYears, 0.01)
}

func TestInfer_NoTransition(t *testing.T) {
	tests := []struct {
		name      string
		positions []types.Position
	}{
		{
			name: "still employed at source",
			positions: []types.Position{
				pos("Company X", "Consultant", date(t, "2018-01-01"), nil),
				pos("Company W", "Analyst", date(t, "2016-01-01"), date(t, "2017-12-01")),
			},
		},
		{
			name: "never worked at source",
			positions: []types.Position{
				pos("Company W", "Analyst", date(t, "2016-01-01"), date(t, "2017-12-01")),
			},
		},
		{
			name: "nothing after source",
			positions: []types.Position{
				pos("Company X", "Consultant", date(t, "2018-01-01"), date(t, "2020-06-01")),
				pos("Company W", "Analyst", date(t, "2016-01-01"), date(t, "2017-12-01")),
			},
		},
		{
			name: "only later position is the same company",
			positions: []types.Position{
				pos("Company X Europe", "Manager", date(t, "2020-07-01"), nil),
				pos("Company X", "Consultant", date(t, "2018-01-01"), date(t, "2020-06-01")),
			},
		},
		{
			name: "candidate without start date",
			positions: []types.Position{
				pos("Company Y", "Engineer", nil, nil),
				pos("Company X", "Consultant", date(t, "2018-01-01"), date(t, "2020-06-01")),
			},
		},
		{
			name:      "no positions",
			positions: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Infer("p1", tt.positions, types.CompanyRef{Name: "Company X"}, DefaultTolerance, testClassifier)
			assert.False(t, ok)
		})
	}
}

func TestInfer_ClosestCandidateWins(t *testing.T) {
	source := pos("Company X", "Consultant", date(t, "2018-01-01"), date(t, "2020-06-01"))

	tests := []struct {
		name      string
		positions []types.Position
		want      string
	}{
		{
			name: "earlier of two later starts",
			positions: []types.Position{
				pos("Company Late", "VP", date(t, "2020-08-01"), nil),
				source,
				pos("Company Soon", "Associate", date(t, "2020-06-15"), date(t, "2020-07-20")),
			},
			want: "Company Soon",
		},
		{
			name: "overlap inside tolerance",
			positions: []types.Position{
				pos("Company Late", "VP", date(t, "2020-09-01"), nil),
				pos("Company Overlap", "Associate", date(t, "2020-05-01"), nil),
				source,
			},
			want: "Company Overlap",
		},
		{
			name: "equal gap prefers earliest start",
			positions: []types.Position{
				pos("Company After", "VP", date(t, "2020-06-11"), nil),
				pos("Company Before", "Associate", date(t, "2020-05-22"), nil),
				source,
			},
			want: "Company Before",
		},
		{
			name: "overlap outside tolerance ignored",
			positions: []types.Position{
				pos("Company Side", "Advisor", date(t, "2019-01-01"), nil),
				pos("Company Late", "VP", date(t, "2021-01-01"), nil),
				source,
			},
			want: "Company Late",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, ok := Infer("p1", tt.positions, types.CompanyRef{Name: "Company X"}, DefaultTolerance, testClassifier)
			require.True(t, ok)
			assert.Equal(t, tt.want, tr.DestinationCompany)
		})
	}
}

func TestInfer_StrictTolerance(t *testing.T) {
	positions := []types.Position{
		pos("Company Overlap", "Associate", date(t, "2020-05-01"), nil),
		pos("Company X", "Consultant", date(t, "2018-01-01"), date(t, "2020-06-01")),
	}

	_, ok := Infer("p1", positions, types.CompanyRef{Name: "Company X"}, 0, testClassifier)
	assert.False(t, ok, "a zero tolerance requires the next start on or after the source end")

	tr, ok := Infer("p1", positions, types.CompanyRef{Name: "Company X"}, DefaultTolerance, testClassifier)
	require.True(t, ok)
	assert.Equal(t, "Company Overlap", tr.DestinationCompany)
}

func TestInfer_IDMatchPreferred(t *testing.T) {
	positions := []types.Position{
		{Company: types.CompanyRef{ID: "c-9", Name: "Bain Capital"}, Title: "Principal", StartDate: date(t, "2023-01-01")},
		{Company: types.CompanyRef{ID: "c-2", Name: "KKR"}, Title: "Associate", StartDate: date(t, "2021-09-01"), EndDate: date(t, "2022-12-01")},
		{Company: types.CompanyRef{ID: "c-1", Name: "Bain & Company"}, Title: "Consultant", StartDate: date(t, "2019-09-01"), EndDate: date(t, "2021-08-01")},
	}

	// "Bain" also names Bain Capital; the ID pins the consulting firm.
	tr, ok := Infer("p1", positions, types.CompanyRef{ID: "c-1", Name: "Bain"}, DefaultTolerance, testClassifier)
	require.True(t, ok)
	assert.Equal(t, "Bain & Company", tr.SourceCompany)
	assert.Equal(t, "c-1", tr.SourceCompanyID)
	assert.Equal(t, "Consulting", tr.SourceIndustry)
	assert.Equal(t, "KKR", tr.DestinationCompany)
	assert.Equal(t, "Private Equity", tr.DestinationIndustry)
}

func TestInfer_MissingSourceStartUsesFallback(t *testing.T) {
	positions := []types.Position{
		pos("Company Y", "Engineer", date(t, "2020-07-01"), nil),
		pos("Company X", "Consultant", nil, date(t, "2020-06-01")),
	}

	tr, ok := Infer("p1", positions, types.CompanyRef{Name: "Company X"}, DefaultTolerance, testClassifier)
	require.True(t, ok)
	assert.Equal(t, FallbackTenureYears, tr.TenureYears)
}

func TestInfer_DoesNotMutateInput(t *testing.T) {
	positions := []types.Position{
		pos("Company X", "Consultant", date(t, "2018-01-01"), date(t, "2020-06-01")),
		pos("Company Y", "Engineer", date(t, "2020-07-01"), nil),
	}
	before := append([]types.Position(nil), positions...)

	_, ok := Infer("p1", positions, types.CompanyRef{Name: "Company X"}, DefaultTolerance, testClassifier)
	require.True(t, ok)
	assert.Equal(t, before, positions)
}

func TestInferEntry(t *testing.T) {
	positions := []types.Position{
		pos("Google", "Product Manager", date(t, "2021-03-01"), nil),
		pos("Bain & Company", "Consultant", date(t, "2018-09-01"), date(t, "2021-02-01")),
		pos("State University", "Student", date(t, "2014-09-01"), date(t, "2018-06-01")),
	}

	tr, ok := InferEntry("p1", positions, types.CompanyRef{Name: "Google"}, testClassifier)
	require.True(t, ok)
	assert.Equal(t, "Bain & Company", tr.SourceCompany)
	assert.Equal(t, "Consultant", tr.SourceRole)
	assert.Equal(t, "Consulting", tr.SourceIndustry)
	assert.Equal(t, "Google", tr.DestinationCompany)
	assert.Equal(t, "Product Manager", tr.DestinationRole)
	assert.InDelta(t, 2.42, tr.TenureYears, 0.01)
}

func TestInferEntry_NoEntry(t *testing.T) {
	tests := []struct {
		name      string
		positions []types.Position
	}{
		{
			name: "former employee",
			positions: []types.Position{
				pos("Meta", "Engineer", date(t, "2022-01-01"), nil),
				pos("Google", "Engineer", date(t, "2019-01-01"), date(t, "2021-12-01")),
			},
		},
		{
			name: "first job",
			positions: []types.Position{
				pos("Google", "Engineer", date(t, "2019-01-01"), nil),
			},
		},
		{
			name: "only earlier stint at same company",
			positions: []types.Position{
				pos("Google", "Senior Engineer", date(t, "2022-01-01"), nil),
				pos("Google", "Engineer", date(t, "2019-01-01"), date(t, "2021-12-01")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := InferEntry("p1", tt.positions, types.CompanyRef{Name: "Google"}, testClassifier)
			assert.False(t, ok)
		})
	}
}

func TestInferEntry_OngoingPriorMeasuredToEntry(t *testing.T) {
	positions := []types.Position{
		pos("Google", "Engineer", date(t, "2021-01-01"), nil),
		pos("Startup Co", "Founder", date(t, "2019-01-01"), nil),
	}

	tr, ok := InferEntry("p1", positions, types.CompanyRef{Name: "Google"}, testClassifier)
	require.True(t, ok)
	assert.Equal(t, "Startup Co", tr.SourceCompany)
	assert.InDelta(t, 2.0, tr.TenureYears, 0.01)
}

func TestTenure(t *testing.T) {
	assert.Equal(t, FallbackTenureYears, Tenure(nil, date(t, "2020-01-01")))
	assert.Equal(t, FallbackTenureYears, Tenure(date(t, "2020-01-01"), nil))
	assert.InDelta(t, 1.0, Tenure(date(t, "2019-01-01"), date(t, "2020-01-01")), 0.01)
}
