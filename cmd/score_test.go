package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zebutron/turbine-scoring-engine/internal/model"
)

func TestScoreCell(t *testing.T) {
	assert.Equal(t, "73", scoreCell(72.6))
	assert.Equal(t, "72", scoreCell(72.4))
	assert.Equal(t, "0", scoreCell(0))
	assert.Equal(t, "100", scoreCell(100))
}

func TestOptionalScoreCell(t *testing.T) {
	assert.Equal(t, "", optionalScoreCell(nil))
	v := 91.2
	assert.Equal(t, "91", optionalScoreCell(&v))
}

func TestBatchBaseline(t *testing.T) {
	results := []model.ScoredContact{
		{RawContactScore: 40, RawLeadScore: 12},
		{RawContactScore: 80, RawLeadScore: 61},
		{RawContactScore: 55, RawLeadScore: 5},
	}

	b := batchBaseline(results)
	require.NotNil(t, b)
	assert.InDelta(t, 40, *b.ContactScoreMin, 0.001)
	assert.InDelta(t, 80, *b.ContactScoreMax, 0.001)
	assert.InDelta(t, 5, *b.LeadScoreMin, 0.001)
	assert.InDelta(t, 61, *b.LeadScoreMax, 0.001)
}

func TestCompanySummary(t *testing.T) {
	results := []model.ScoredCompany{
		{CompanyScore: 90},
		{CompanyScore: 50},
		{CompanyScore: 10},
	}

	s := companySummary(results)
	assert.Equal(t, 3, s.Records)
	assert.InDelta(t, 90, s.TopScore, 0.001)
	assert.InDelta(t, 50, s.MeanScore, 0.001)
}

func TestContactSummaryCountsMatches(t *testing.T) {
	results := []model.ScoredContact{
		{LeadScore: 100, MatchedCompany: "Playtika"},
		{LeadScore: 20},
	}

	s := contactSummary(results)
	assert.Equal(t, 2, s.Records)
	assert.Equal(t, 1, s.Matched)
	assert.InDelta(t, 100, s.TopScore, 0.001)
	assert.InDelta(t, 60, s.MeanScore, 0.001)
}

func TestWriteContactCSVUnmatchedCellsEmpty(t *testing.T) {
	conf := 95.0
	companyScore := 72.0
	results := []model.ScoredContact{
		{
			FirstName: "Ada", LastName: "Quinn", FullName: "Ada Quinn",
			JobTitle: "CEO", CompanyName: "Playtika",
			LeadScore: 100, ContactScore: 100,
			CompanyScore: &companyScore, MatchedCompany: "Playtika", MatchConfidence: &conf,
			Seniority: 90, Domain: 40,
		},
		{
			FirstName: "Bo", LastName: "Reed", FullName: "Bo Reed",
			JobTitle: "Engineer", CompanyName: "Unknown Studio",
			LeadScore: 12, ContactScore: 30,
			Seniority: 30, Domain: 45,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeContactCSV(&buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(contactCSVHeader, ","), lines[0])
	assert.Contains(t, lines[1], "Ada,Quinn,Ada Quinn,CEO,Playtika,100,100,72,90,40,0,Playtika,95")
	// Unmatched rows carry empty company score and confidence cells.
	assert.Contains(t, lines[2], "Bo,Reed,Bo Reed,Engineer,Unknown Studio,12,30,,30,45,0,,")
}

func TestWriteCompanyCSV(t *testing.T) {
	results := []model.ScoredCompany{
		{
			Name: "Playtika", CompanyScore: 87.6, Alignment: 100, Budget: 80, Demand: 60,
			Sub: model.CompanySubScores{
				Dev: 100, F2P: 100, Mobile: 50, Fresh: 0,
				Revenue: 75.4, Funding: 60, Headcount: 40,
				Status: 90, Volatility: 33.3, RevenueDelta: 25,
				RunwayDelta: 66.7, HeadcountDelta: 10, Hiring: 0,
			},
			URL: "https://playtika.com", NormalizedName: "playtika",
			UpdatedDate: "2026-08-26",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeCompanyCSV(&buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(companyCSVHeader, ","), lines[0])
	// Pillars followed by every subcomponent column, then passthrough fields.
	assert.Contains(t, lines[1], "Playtika,88,100,80,60,100,100,50,0,75,60,40,90,33,25,67,10,0,https://playtika.com,playtika")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long st...", truncate("long string here", 10))
}
