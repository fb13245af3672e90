package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zebutron/turbine-scoring-engine/internal/model"
)

func testCandidates() []MatchCandidate {
	return CandidatesFromCompanies([]model.ScoredCompany{
		{Name: "Supercell Oy", NormalizedName: "supercell", CompanyScore: 90},
		{Name: "Rovio Entertainment", NormalizedName: "rovio", CompanyScore: 60},
	})
}

func TestScoreContacts(t *testing.T) {
	contacts := []model.ContactRecord{
		{FirstName: "Anna", LastName: "Virtanen", JobTitle: "CEO", CompanyName: "Supercell Oy"},
		{FirstName: "Ben", LastName: "Okafor", JobTitle: "Junior Developer", CompanyName: "Rovio Entertainment"},
		{FirstName: "Cleo", LastName: "Marsh", JobTitle: "", CompanyName: "Ghost Games Ltd"},
	}

	scored, err := ScoreContacts(context.Background(), contacts, testCandidates(), DefaultRules(), PipelineOptions{})
	require.NoError(t, err)
	require.Len(t, scored, 3)

	// Sorted by descending lead score; the CEO at the matched top company
	// must come out first and the unmatched titleless contact last.
	assert.Equal(t, "Anna Virtanen", scored[0].FullName)
	assert.Equal(t, "Cleo Marsh", scored[2].FullName)
	for i := 1; i < len(scored); i++ {
		assert.GreaterOrEqual(t, scored[i-1].LeadScore, scored[i].LeadScore)
	}

	// Matched contacts carry confidence and company score; unmatched carry
	// neither, not zeros.
	require.NotNil(t, scored[0].MatchConfidence)
	require.NotNil(t, scored[0].CompanyScore)
	assert.Equal(t, "Supercell Oy", scored[0].MatchedCompany)
	assert.InDelta(t, 100, *scored[0].MatchConfidence, 0.01)
	assert.InDelta(t, 90, *scored[0].CompanyScore, 0.01)

	assert.Empty(t, scored[2].MatchedCompany)
	assert.Nil(t, scored[2].MatchConfidence)
	assert.Nil(t, scored[2].CompanyScore)

	// The no-signal contact bottoms out at the raw floor.
	assert.InDelta(t, 5, scored[2].RawLeadScore, 0.01)
}

func TestScoreContactsNormalCompanyDerived(t *testing.T) {
	contacts := []model.ContactRecord{
		{FirstName: "Dee", LastName: "Kim", JobTitle: "CEO", CompanyName: "Supercell Games"},
		{FirstName: "Eli", LastName: "Stone", JobTitle: "CEO", CompanyName: "Unrelated Corp"},
	}

	scored, err := ScoreContacts(context.Background(), contacts, testCandidates(), DefaultRules(), PipelineOptions{})
	require.NoError(t, err)
	require.Len(t, scored, 2)

	byName := map[string]model.ScoredContact{}
	for _, c := range scored {
		byName[c.FullName] = c
	}

	// "Supercell Games" normalizes down to the candidate key "supercell".
	assert.Equal(t, "Supercell Oy", byName["Dee Kim"].MatchedCompany)
	assert.Empty(t, byName["Eli Stone"].MatchedCompany)
}

func TestScoreContactsBaseline(t *testing.T) {
	contacts := []model.ContactRecord{
		{FirstName: "Anna", LastName: "Virtanen", JobTitle: "CEO", CompanyName: "Supercell Oy"},
		{FirstName: "Ben", LastName: "Okafor", JobTitle: "Junior Developer", CompanyName: "Rovio Entertainment"},
	}

	baseline := &model.Baseline{
		ContactScoreMin: ptrFloat64(0),
		ContactScoreMax: ptrFloat64(100),
		LeadScoreMin:    ptrFloat64(0),
		LeadScoreMax:    ptrFloat64(100),
	}
	scored, err := ScoreContacts(context.Background(), contacts, testCandidates(), DefaultRules(), PipelineOptions{Baseline: baseline})
	require.NoError(t, err)
	require.Len(t, scored, 2)

	// With an identity baseline the normalized scores equal the raw scores
	// instead of stretching the batch to the 0-100 extremes.
	for _, c := range scored {
		assert.InDelta(t, c.RawContactScore, c.ContactScore, 1e-9)
		assert.InDelta(t, c.RawLeadScore, c.LeadScore, 1e-9)
	}
}

func TestScoreContactsEmptyBatch(t *testing.T) {
	scored, err := ScoreContacts(context.Background(), nil, testCandidates(), DefaultRules(), PipelineOptions{})
	require.NoError(t, err)
	assert.Nil(t, scored)
}

func TestScoreContactsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	contacts := make([]model.ContactRecord, 64)
	for i := range contacts {
		contacts[i] = model.ContactRecord{FirstName: "N", LastName: "N", JobTitle: "CEO"}
	}
	_, err := ScoreContacts(ctx, contacts, testCandidates(), DefaultRules(), PipelineOptions{Concurrency: 1})
	assert.Error(t, err)
}

func TestCandidatesFromCompanies(t *testing.T) {
	got := CandidatesFromCompanies([]model.ScoredCompany{
		{Name: "Supercell Oy", NormalizedName: "supercell", CompanyScore: 88},
		{Name: "Wildlife Studios", CompanyScore: 70}, // key derived on the fly
	})
	require.Len(t, got, 2)
	assert.Equal(t, "supercell", got[0].Normalized)
	assert.Equal(t, "wildlife", got[1].Normalized)
	assert.InDelta(t, 70, got[1].Score, 1e-9)
}
