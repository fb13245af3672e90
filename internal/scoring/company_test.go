package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zebutron/turbine-scoring-engine/internal/model"
)

var testNow = time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain", "42", 42},
		{"currency", "$1,200,000", 1_200_000},
		{"percent", "12%", 12},
		{"negative percent", "-8%", -8},
		{"decimal", "3.5", 3.5},
		{"spaces", " 1 500 ", 1500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseNumber(tt.input), 1e-9)
		})
	}

	for _, bad := range []string{"", "   ", "n/a", "$,"} {
		assert.True(t, math.IsNaN(parseNumber(bad)), "input %q", bad)
	}
}

func TestDistributionPercentile(t *testing.T) {
	d := newDistribution([]float64{1, 2, 3, 4, 5})

	assert.InDelta(t, 10, d.percentile(1, false), 1e-9)
	assert.InDelta(t, 50, d.percentile(3, false), 1e-9)
	assert.InDelta(t, 90, d.percentile(5, false), 1e-9)
	assert.InDelta(t, 90, d.percentile(1, true), 1e-9)

	// Ties average their rank.
	tied := newDistribution([]float64{1, 2, 2, 3})
	assert.InDelta(t, 50, tied.percentile(2, false), 1e-9)

	// Missing values are excluded from the column and score 0 themselves.
	withGaps := newDistribution([]float64{1, Missing, 3})
	assert.InDelta(t, 25, withGaps.percentile(1, false), 1e-9)
	assert.InDelta(t, 0, withGaps.percentile(Missing, false), 1e-9)

	empty := newDistribution([]float64{Missing})
	assert.InDelta(t, 0, empty.percentile(5, false), 1e-9)
}

func TestStatusScore(t *testing.T) {
	s := NewCompanyScorerAt(DefaultRules(), testNow)

	t.Run("one half-life decays to half points", func(t *testing.T) {
		changed := testNow.AddDate(0, 0, -365).Format("2006-01-02")
		assert.InDelta(t, 4, s.statusScore("5 - Customer", changed), 0.01)
	})

	t.Run("fresh status keeps full points", func(t *testing.T) {
		today := testNow.Format("2006-01-02")
		assert.InDelta(t, 5, s.statusScore("Qualified", today), 0.01)
	})

	t.Run("first substring match wins", func(t *testing.T) {
		today := testNow.Format("2006-01-02")
		// "6 - previous customer" precedes "5 - customer" in the table.
		assert.InDelta(t, 10, s.statusScore("6 - Previous Customer", today), 0.01)
	})

	t.Run("unmatched status scores zero", func(t *testing.T) {
		assert.Zero(t, s.statusScore("1 - new lead", testNow.Format("2006-01-02")))
		assert.Zero(t, s.statusScore("", ""))
	})

	t.Run("unparseable date falls back to base points", func(t *testing.T) {
		assert.InDelta(t, 8, s.statusScore("5 - Customer", "sometime last year"), 0.01)
	})
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2026-08-26", "08/26/2026", "2026-08-26T12:00:00Z", "Aug 26, 2026"} {
		got, ok := parseDate(in)
		require.True(t, ok, "input %q", in)
		assert.Equal(t, 2026, got.Year())
	}
	_, ok := parseDate("not a date")
	assert.False(t, ok)
	_, ok = parseDate("")
	assert.False(t, ok)
}

func TestCompanyScorerAlignment(t *testing.T) {
	s := NewCompanyScorerAt(DefaultRules(), testNow)
	scored := s.Score([]model.CompanyRecord{
		{Name: "Full Fit", MakesGames: "X", F2P: "X", Mobile: "X", FoundedYear: "2025"},
		{Name: "Codev", MakesGames: "X", Type: "Co-Developer"},
		{Name: "No Fit"},
	})
	require.Len(t, scored, 3)

	// Full flags beats co-developer beats nothing after normalization.
	assert.InDelta(t, 100, scored[0].Alignment, 0.01)
	assert.InDelta(t, 0, scored[1].Alignment, 0.01)
	assert.InDelta(t, 0, scored[2].Alignment, 0.01)

	// The co-developer's "makes games" flag is zeroed.
	assert.Equal(t, scored[1].Sub.Dev, scored[2].Sub.Dev)
}

func TestCompanyScorerDegeneratePillarIs50(t *testing.T) {
	s := NewCompanyScorerAt(DefaultRules(), testNow)
	scored := s.Score([]model.CompanyRecord{
		{Name: "A", Rev30D: "100", MakesGames: "X"},
		{Name: "B", Rev30D: "100"},
		{Name: "C", Rev30D: "100"},
	})
	require.Len(t, scored, 3)

	// Identical budget inputs collapse the whole pillar to 50 per record.
	for _, c := range scored {
		assert.InDelta(t, 50, c.Budget, 0.01, "company %s", c.Name)
		assert.InDelta(t, 50, c.Demand, 0.01, "company %s", c.Name)
	}
}

func TestCompanyScorerBudgetOrdering(t *testing.T) {
	s := NewCompanyScorerAt(DefaultRules(), testNow)
	scored := s.Score([]model.CompanyRecord{
		{Name: "Small", Rev30D: "$10,000", TotalFunding: "0", EmployeeCount: "5"},
		{Name: "Mid", Rev30D: "$500,000", TotalFunding: "1000000", EmployeeCount: "50"},
		{Name: "Big", Rev30D: "$9,000,000", TotalFunding: "50000000", EmployeeCount: "400"},
	})
	require.Len(t, scored, 3)

	assert.InDelta(t, 0, scored[0].Budget, 0.01)
	assert.InDelta(t, 50, scored[1].Budget, 0.01)
	assert.InDelta(t, 100, scored[2].Budget, 0.01)
}

func TestCompanyScorerRevenueFallback(t *testing.T) {
	assert.InDelta(t, 500, revenueValue(model.CompanyRecord{Rev30D: "500", AnnualRevenue: "900"}), 1e-9)
	assert.InDelta(t, 900, revenueValue(model.CompanyRecord{AnnualRevenue: "900"}), 1e-9)
	assert.True(t, math.IsNaN(revenueValue(model.CompanyRecord{})))
}

func TestCompanyScorerOutputFields(t *testing.T) {
	s := NewCompanyScorerAt(DefaultRules(), testNow)
	scored := s.Score([]model.CompanyRecord{
		{
			Name:        "Supercell Oy",
			LinkedInURL: "https://linkedin.com/company/supercell",
			Country:     "Finland",
		},
		{
			Name:       "Rovio Entertainment",
			WebsiteURL: "https://rovio.com",
		},
	})
	require.Len(t, scored, 2)

	assert.Equal(t, "https://linkedin.com/company/supercell", scored[0].URL)
	assert.Equal(t, "https://rovio.com", scored[1].URL)
	assert.Equal(t, "supercell", scored[0].NormalizedName)
	assert.Equal(t, "rovio", scored[1].NormalizedName)
	assert.Equal(t, "2026-08-26", scored[0].UpdatedDate)
	assert.Equal(t, "Finland", scored[0].Country)
}

func TestCompanyScorerEmptyBatch(t *testing.T) {
	s := NewCompanyScorerAt(DefaultRules(), testNow)
	assert.Nil(t, s.Score(nil))
}
